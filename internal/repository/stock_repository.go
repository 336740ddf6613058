// Package repository holds the PostgreSQL persistence layer.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/Frankie813/smart-stock-trader/internal/model"
)

// ErrStockNotFound is returned when a lookup targets a stock that does
// not exist.
var ErrStockNotFound = errors.New("stock not found")

// StockRepository handles database operations for stocks
type StockRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewStockRepository creates a new stock repository
func NewStockRepository(db *sqlx.DB, logger *zap.Logger) *StockRepository {
	return &StockRepository{
		db:     db,
		logger: logger,
	}
}

// GetAll retrieves all stocks, active first
func (r *StockRepository) GetAll(ctx context.Context) ([]model.Stock, error) {
	query := `
		SELECT id, symbol, name, exchange, is_active, created_at, updated_at
		FROM stocks
		ORDER BY is_active DESC, symbol
	`

	var stocks []model.Stock
	err := r.db.SelectContext(ctx, &stocks, query)
	if err != nil {
		r.logger.Error("Failed to get all stocks", zap.Error(err))
		return nil, err
	}

	return stocks, nil
}

// GetByID retrieves a stock by ID
func (r *StockRepository) GetByID(ctx context.Context, id int) (*model.Stock, error) {
	query := `
		SELECT id, symbol, name, exchange, is_active, created_at, updated_at
		FROM stocks
		WHERE id = $1
	`

	var stock model.Stock
	err := r.db.GetContext(ctx, &stock, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrStockNotFound
		}
		r.logger.Error("Failed to get stock by ID", zap.Error(err), zap.Int("id", id))
		return nil, err
	}

	return &stock, nil
}

// GetBySymbol retrieves a stock by its ticker symbol
func (r *StockRepository) GetBySymbol(ctx context.Context, symbol string) (*model.Stock, error) {
	query := `
		SELECT id, symbol, name, exchange, is_active, created_at, updated_at
		FROM stocks
		WHERE symbol = $1
	`

	var stock model.Stock
	err := r.db.GetContext(ctx, &stock, query, symbol)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrStockNotFound
		}
		r.logger.Error("Failed to get stock by symbol", zap.Error(err), zap.String("symbol", symbol))
		return nil, err
	}

	return &stock, nil
}

// GetByIDs retrieves the stocks matching the given IDs. Missing IDs are
// silently absent from the result; callers that need all IDs present
// compare lengths.
func (r *StockRepository) GetByIDs(ctx context.Context, ids []int) ([]model.Stock, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(`
		SELECT id, symbol, name, exchange, is_active, created_at, updated_at
		FROM stocks
		WHERE id IN (?)
		ORDER BY symbol
	`, ids)
	if err != nil {
		return nil, err
	}
	query = r.db.Rebind(query)

	var stocks []model.Stock
	if err := r.db.SelectContext(ctx, &stocks, query, args...); err != nil {
		r.logger.Error("Failed to get stocks by IDs", zap.Error(err), zap.Ints("ids", ids))
		return nil, err
	}

	return stocks, nil
}

// Create inserts a new stock and returns its ID
func (r *StockRepository) Create(ctx context.Context, stock *model.Stock) (int, error) {
	query := `
		INSERT INTO stocks (symbol, name, exchange, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, TRUE, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
		RETURNING id
	`

	var id int
	err := r.db.GetContext(ctx, &id, query, stock.Symbol, stock.Name, stock.Exchange)
	if err != nil {
		r.logger.Error("Failed to create stock", zap.Error(err), zap.String("symbol", stock.Symbol))
		return 0, err
	}

	return id, nil
}

// Update updates a stock's mutable fields
func (r *StockRepository) Update(ctx context.Context, stock *model.Stock) error {
	query := `
		UPDATE stocks
		SET name = $1, exchange = $2, is_active = $3, updated_at = CURRENT_TIMESTAMP
		WHERE id = $4
	`

	result, err := r.db.ExecContext(ctx, query, stock.Name, stock.Exchange, stock.IsActive, stock.ID)
	if err != nil {
		r.logger.Error("Failed to update stock", zap.Error(err), zap.Int("id", stock.ID))
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrStockNotFound
	}

	return nil
}

// SetActive toggles whether a stock participates in experiments
func (r *StockRepository) SetActive(ctx context.Context, id int, active bool) error {
	query := `
		UPDATE stocks
		SET is_active = $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2
	`

	result, err := r.db.ExecContext(ctx, query, active, id)
	if err != nil {
		r.logger.Error("Failed to set stock active flag", zap.Error(err), zap.Int("id", id))
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrStockNotFound
	}

	return nil
}
