package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Frankie813/smart-stock-trader/internal/engine"
	"github.com/Frankie813/smart-stock-trader/internal/model"
	"github.com/Frankie813/smart-stock-trader/internal/predictor"
	"github.com/Frankie813/smart-stock-trader/internal/repository"
)

// BacktestService runs a single-stock backtest end to end: load the
// stored history, obtain signals from the prediction service, simulate,
// and persist the outcome.
type BacktestService struct {
	engine       *engine.Engine
	predictor    predictor.Predictor
	priceRepo    *repository.PriceRepository
	backtestRepo *repository.BacktestRepository
	logger       *zap.Logger
}

// NewBacktestService creates a new backtest service
func NewBacktestService(
	eng *engine.Engine,
	pred predictor.Predictor,
	priceRepo *repository.PriceRepository,
	backtestRepo *repository.BacktestRepository,
	logger *zap.Logger,
) *BacktestService {
	return &BacktestService{
		engine:       eng,
		predictor:    pred,
		priceRepo:    priceRepo,
		backtestRepo: backtestRepo,
		logger:       logger,
	}
}

// RunForStock backtests one stock over the experiment window and persists
// the result. The returned result carries the full trade list in memory
// even though GetResult round trips only the summary.
func (s *BacktestService) RunForStock(
	ctx context.Context,
	experimentID int,
	stock model.Stock,
	window model.DateRange,
	rules model.TradingRules,
	initialCapital float64,
) (*model.BacktestResult, error) {
	bars, err := s.priceRepo.GetPrices(ctx, stock.ID, &window.Start, &window.End)
	if err != nil {
		return nil, fmt.Errorf("loading prices for %s: %w", stock.Symbol, err)
	}

	if err := s.predictor.Train(ctx, stock.Symbol, bars); err != nil {
		return nil, fmt.Errorf("training model for %s: %w", stock.Symbol, err)
	}

	signals, err := s.predictor.Predict(ctx, stock.Symbol, bars)
	if err != nil {
		return nil, fmt.Errorf("predicting %s: %w", stock.Symbol, err)
	}

	result, err := s.engine.RunBacktest(stock.Symbol, bars, signals, rules, initialCapital)
	if err != nil {
		return nil, err
	}
	result.ExperimentID = experimentID
	result.StockID = stock.ID
	for i := range result.Trades {
		result.Trades[i].StockID = stock.ID
		result.Trades[i].Symbol = stock.Symbol
	}

	id, err := s.backtestRepo.CreateResult(ctx, experimentID, result)
	if err != nil {
		return nil, fmt.Errorf("persisting result for %s: %w", stock.Symbol, err)
	}
	result.ID = id

	s.logger.Info("Backtest completed",
		zap.String("symbol", stock.Symbol),
		zap.Int("experiment_id", experimentID),
		zap.Int("trades", len(result.Trades)),
		zap.Float64("final_capital", result.FinalCapital))

	return result, nil
}

// GetResult retrieves a stored backtest result with its trades
func (s *BacktestService) GetResult(ctx context.Context, id int) (*model.BacktestResult, error) {
	result, err := s.backtestRepo.GetResult(ctx, id)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, nil
	}

	trades, err := s.backtestRepo.GetTrades(ctx, id)
	if err != nil {
		return nil, err
	}
	result.Trades = trades

	return result, nil
}
