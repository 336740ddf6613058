// Package service holds the application services that sit between the
// HTTP handlers and the repositories, clients, and engine.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/Frankie813/smart-stock-trader/internal/client"
	"github.com/Frankie813/smart-stock-trader/internal/model"
	"github.com/Frankie813/smart-stock-trader/internal/repository"
)

// fetchChunk keeps provider requests within response size limits.
const fetchChunk = 365 * 24 * time.Hour

// maxFetchRetries bounds transient-error retries per chunk.
const maxFetchRetries = 5

// PriceProvider is the slice of the market data client the service needs.
type PriceProvider interface {
	GetDailyPrices(ctx context.Context, symbol string, start, end time.Time) ([]model.ProviderBar, error)
}

// MarketDataService handles fetching and storing historical prices
type MarketDataService struct {
	provider  PriceProvider
	stockRepo *repository.StockRepository
	priceRepo *repository.PriceRepository
	logger    *zap.Logger
}

// NewMarketDataService creates a new market data service
func NewMarketDataService(
	provider PriceProvider,
	stockRepo *repository.StockRepository,
	priceRepo *repository.PriceRepository,
	logger *zap.Logger,
) *MarketDataService {
	return &MarketDataService{
		provider:  provider,
		stockRepo: stockRepo,
		priceRepo: priceRepo,
		logger:    logger,
	}
}

// FetchHistory downloads daily bars for a stock in yearly chunks and
// upserts them. Transient provider errors are retried with exponential
// backoff; auth failures abort immediately.
func (s *MarketDataService) FetchHistory(
	ctx context.Context,
	stockID int,
	startDate, endDate time.Time,
) (*model.FetchResult, error) {
	stock, err := s.stockRepo.GetByID(ctx, stockID)
	if err != nil {
		return nil, err
	}

	if endDate.Before(startDate) {
		return nil, errors.New("end date precedes start date")
	}

	imported := 0
	for chunkStart := startDate; chunkStart.Before(endDate); {
		chunkEnd := chunkStart.Add(fetchChunk)
		if chunkEnd.After(endDate) {
			chunkEnd = endDate
		}

		bars, err := s.fetchChunkWithRetry(ctx, stock.Symbol, chunkStart, chunkEnd)
		if err != nil {
			return nil, err
		}

		priceBars := client.ToPriceBars(stock.ID, bars, s.logger)
		if err := s.priceRepo.UpsertPrices(ctx, priceBars); err != nil {
			return nil, err
		}
		imported += len(priceBars)

		s.logger.Info("Imported price chunk",
			zap.String("symbol", stock.Symbol),
			zap.Time("from", chunkStart),
			zap.Time("to", chunkEnd),
			zap.Int("bars", len(priceBars)))

		chunkStart = chunkEnd
	}

	return &model.FetchResult{
		Symbol:       stock.Symbol,
		BarsImported: imported,
		StartDate:    startDate,
		EndDate:      endDate,
	}, nil
}

// fetchChunkWithRetry retries one provider call on transient failures.
// Unauthorized and forbidden responses are permanent: retrying with the
// same key cannot succeed.
func (s *MarketDataService) fetchChunkWithRetry(
	ctx context.Context,
	symbol string,
	start, end time.Time,
) ([]model.ProviderBar, error) {
	var bars []model.ProviderBar

	operation := func() error {
		var err error
		bars, err = s.provider.GetDailyPrices(ctx, symbol, start, end)
		if err == nil {
			return nil
		}
		if errors.Is(err, client.ErrUnauthorized) || errors.Is(err, client.ErrForbidden) || errors.Is(err, client.ErrSymbolUnknown) {
			return backoff.Permanent(err)
		}
		s.logger.Warn("Provider fetch failed, will retry",
			zap.Error(err),
			zap.String("symbol", symbol),
			zap.Time("from", start),
			zap.Time("to", end))
		return err
	}

	policy := backoff.WithMaxRetries(backoff.WithContext(backoff.NewExponentialBackOff(), ctx), maxFetchRetries)
	if err := backoff.Retry(operation, policy); err != nil {
		s.logger.Error("Provider fetch exhausted retries",
			zap.Error(err),
			zap.String("symbol", symbol))
		return nil, err
	}

	return bars, nil
}

// GetPrices returns the stored bars for a stock within the date range
func (s *MarketDataService) GetPrices(
	ctx context.Context,
	stockID int,
	startDate, endDate *time.Time,
) ([]model.PriceBar, error) {
	if _, err := s.stockRepo.GetByID(ctx, stockID); err != nil {
		return nil, err
	}
	return s.priceRepo.GetPrices(ctx, stockID, startDate, endDate)
}

// GetCoverage reports how much price history is stored for a stock.
// The range is nil when no bars are stored.
func (s *MarketDataService) GetCoverage(ctx context.Context, stockID int) (int, *model.DateRange, error) {
	count, err := s.priceRepo.CountBars(ctx, stockID)
	if err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	dataRange, err := s.priceRepo.GetDataRange(ctx, stockID)
	if err != nil {
		return 0, nil, err
	}
	return count, dataRange, nil
}
