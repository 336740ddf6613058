package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/Frankie813/smart-stock-trader/internal/model"
	"github.com/Frankie813/smart-stock-trader/internal/repository"
)

// StockService handles stock registry operations
type StockService struct {
	stockRepo *repository.StockRepository
	logger    *zap.Logger
}

// NewStockService creates a new stock service
func NewStockService(stockRepo *repository.StockRepository, logger *zap.Logger) *StockService {
	return &StockService{
		stockRepo: stockRepo,
		logger:    logger,
	}
}

// GetAll retrieves all stocks
func (s *StockService) GetAll(ctx context.Context) ([]model.Stock, error) {
	return s.stockRepo.GetAll(ctx)
}

// GetByID retrieves a stock by ID
func (s *StockService) GetByID(ctx context.Context, id int) (*model.Stock, error) {
	return s.stockRepo.GetByID(ctx, id)
}

// Create registers a new stock. Symbols are stored uppercase.
func (s *StockService) Create(ctx context.Context, req *model.StockRequest) (*model.Stock, error) {
	stock := &model.Stock{
		Symbol:   strings.ToUpper(strings.TrimSpace(req.Symbol)),
		Name:     req.Name,
		Exchange: req.Exchange,
		IsActive: true,
	}

	id, err := s.stockRepo.Create(ctx, stock)
	if err != nil {
		return nil, err
	}
	stock.ID = id

	s.logger.Info("Stock registered",
		zap.Int("id", id),
		zap.String("symbol", stock.Symbol))

	return stock, nil
}

// Update updates a stock's mutable fields
func (s *StockService) Update(ctx context.Context, id int, req *model.StockRequest) (*model.Stock, error) {
	stock, err := s.stockRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	stock.Name = req.Name
	stock.Exchange = req.Exchange

	if err := s.stockRepo.Update(ctx, stock); err != nil {
		return nil, err
	}

	return stock, nil
}

// Deactivate removes a stock from future experiments without deleting
// its price history.
func (s *StockService) Deactivate(ctx context.Context, id int) error {
	return s.stockRepo.SetActive(ctx, id, false)
}
