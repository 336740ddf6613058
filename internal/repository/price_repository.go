package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/Frankie813/smart-stock-trader/internal/model"
)

// PriceRepository handles database operations for daily price bars
type PriceRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewPriceRepository creates a new price repository
func NewPriceRepository(db *sqlx.DB, logger *zap.Logger) *PriceRepository {
	return &PriceRepository{
		db:     db,
		logger: logger,
	}
}

// GetPrices retrieves daily bars for a stock within an optional date
// range, oldest first.
func (r *PriceRepository) GetPrices(
	ctx context.Context,
	stockID int,
	startDate *time.Time,
	endDate *time.Time,
) ([]model.PriceBar, error) {
	query := `
		SELECT id, stock_id, date, open, high, low, close, volume, adjusted_close
		FROM stock_prices
		WHERE stock_id = $1
	`

	args := []interface{}{stockID}
	argCount := 2

	if startDate != nil {
		query += fmt.Sprintf(" AND date >= $%d", argCount)
		args = append(args, *startDate)
		argCount++
	}

	if endDate != nil {
		query += fmt.Sprintf(" AND date <= $%d", argCount)
		args = append(args, *endDate)
	}

	query += " ORDER BY date"

	var bars []model.PriceBar
	err := r.db.SelectContext(ctx, &bars, query, args...)
	if err != nil {
		r.logger.Error("Failed to get prices",
			zap.Error(err),
			zap.Int("stock_id", stockID))
		return nil, err
	}

	return bars, nil
}

// UpsertPrices inserts a batch of daily bars, replacing any existing bar
// for the same stock and date.
func (r *PriceRepository) UpsertPrices(ctx context.Context, bars []model.PriceBar) error {
	if len(bars) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		r.logger.Error("Failed to begin transaction", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, `
		INSERT INTO stock_prices (stock_id, date, open, high, low, close, volume, adjusted_close, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (stock_id, date)
		DO UPDATE SET
			open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close,
			volume = EXCLUDED.volume,
			adjusted_close = EXCLUDED.adjusted_close,
			updated_at = CURRENT_TIMESTAMP
	`)
	if err != nil {
		r.logger.Error("Failed to prepare statement", zap.Error(err))
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for _, bar := range bars {
		_, err = stmt.ExecContext(
			ctx,
			bar.StockID,
			bar.Date,
			bar.Open,
			bar.High,
			bar.Low,
			bar.Close,
			bar.Volume,
			bar.AdjustedClose,
			now,
		)
		if err != nil {
			r.logger.Error("Failed to insert price bar",
				zap.Error(err),
				zap.Int("stock_id", bar.StockID),
				zap.Time("date", bar.Date))
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("Failed to commit transaction", zap.Error(err))
		return err
	}

	return nil
}

// CountBars returns the number of stored bars for a stock
func (r *PriceRepository) CountBars(ctx context.Context, stockID int) (int, error) {
	query := `SELECT COUNT(*) FROM stock_prices WHERE stock_id = $1`

	var count int
	err := r.db.GetContext(ctx, &count, query, stockID)
	if err != nil {
		r.logger.Error("Failed to count price bars",
			zap.Error(err),
			zap.Int("stock_id", stockID))
		return 0, err
	}

	return count, nil
}

// GetDataRange returns the date range of available bars for a stock.
// Returns (nil, nil) when the stock has no bars.
func (r *PriceRepository) GetDataRange(ctx context.Context, stockID int) (*model.DateRange, error) {
	query := `
		SELECT MIN(date) as start_date, MAX(date) as end_date
		FROM stock_prices
		WHERE stock_id = $1
	`

	var result struct {
		StartDate sql.NullTime `db:"start_date"`
		EndDate   sql.NullTime `db:"end_date"`
	}

	err := r.db.GetContext(ctx, &result, query, stockID)
	if err != nil {
		r.logger.Error("Failed to get data range",
			zap.Error(err),
			zap.Int("stock_id", stockID))
		return nil, err
	}

	if !result.StartDate.Valid {
		return nil, nil
	}

	return &model.DateRange{Start: result.StartDate.Time, End: result.EndDate.Time}, nil
}
