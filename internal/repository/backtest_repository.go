package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/Frankie813/smart-stock-trader/internal/model"
)

// BacktestRepository handles database operations for per-stock backtest
// results and their trades
type BacktestRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewBacktestRepository creates a new backtest repository
func NewBacktestRepository(db *sqlx.DB, logger *zap.Logger) *BacktestRepository {
	return &BacktestRepository{
		db:     db,
		logger: logger,
	}
}

// CreateResult persists one backtest result with its trades in a single
// transaction and returns the result ID.
func (r *BacktestRepository) CreateResult(
	ctx context.Context,
	experimentID int,
	result *model.BacktestResult,
) (int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		r.logger.Error("Failed to begin transaction", zap.Error(err))
		return 0, err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO backtest_results (
			experiment_id, stock_id, start_date, end_date,
			initial_capital, final_capital, metrics, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	var id int
	err = tx.QueryRowContext(
		ctx,
		query,
		experimentID,
		result.StockID,
		result.StartDate,
		result.EndDate,
		result.InitialCapital,
		result.FinalCapital,
		result.Metrics,
		time.Now(),
	).Scan(&id)
	if err != nil {
		r.logger.Error("Failed to create backtest result",
			zap.Error(err),
			zap.Int("experiment_id", experimentID),
			zap.String("symbol", result.Symbol))
		return 0, err
	}

	if len(result.Trades) > 0 {
		stmt, err := tx.PreparexContext(ctx, `
			INSERT INTO trades (
				backtest_result_id, stock_id, entry_date, exit_date,
				entry_price, exit_price, shares, prediction, actual_direction,
				was_correct, profit_loss, return_percentage, confidence_score,
				commission, exit_reason
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		`)
		if err != nil {
			r.logger.Error("Failed to prepare trade insert", zap.Error(err))
			return 0, err
		}
		defer stmt.Close()

		for _, trade := range result.Trades {
			_, err = stmt.ExecContext(
				ctx,
				id,
				result.StockID,
				trade.EntryDate,
				trade.ExitDate,
				trade.EntryPrice,
				trade.ExitPrice,
				trade.Shares,
				trade.PredictedDirection,
				trade.ActualDirection,
				trade.WasCorrect,
				trade.ProfitLoss,
				trade.ReturnPct,
				trade.Confidence,
				trade.Commission,
				trade.ExitReason,
			)
			if err != nil {
				r.logger.Error("Failed to insert trade",
					zap.Error(err),
					zap.Int("backtest_result_id", id),
					zap.Time("entry_date", trade.EntryDate))
				return 0, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("Failed to commit transaction", zap.Error(err))
		return 0, err
	}

	return id, nil
}

// GetResult retrieves a backtest result by ID. Returns nil when the
// result does not exist.
func (r *BacktestRepository) GetResult(ctx context.Context, id int) (*model.BacktestResult, error) {
	query := `
		SELECT id, experiment_id, stock_id, start_date, end_date,
		       initial_capital, final_capital, metrics, created_at
		FROM backtest_results
		WHERE id = $1
	`

	var result model.BacktestResult
	err := r.db.GetContext(ctx, &result, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.Error("Failed to get backtest result", zap.Error(err), zap.Int("id", id))
		return nil, err
	}

	return &result, nil
}

// GetResultsByExperiment retrieves all per-stock results for an experiment
func (r *BacktestRepository) GetResultsByExperiment(ctx context.Context, experimentID int) ([]model.BacktestResult, error) {
	query := `
		SELECT id, experiment_id, stock_id, start_date, end_date,
		       initial_capital, final_capital, metrics, created_at
		FROM backtest_results
		WHERE experiment_id = $1
		ORDER BY id
	`

	var results []model.BacktestResult
	err := r.db.SelectContext(ctx, &results, query, experimentID)
	if err != nil {
		r.logger.Error("Failed to get backtest results",
			zap.Error(err),
			zap.Int("experiment_id", experimentID))
		return nil, err
	}

	return results, nil
}

// GetTrades retrieves the trades for a backtest result, entry date
// ascending.
func (r *BacktestRepository) GetTrades(ctx context.Context, backtestResultID int) ([]model.Trade, error) {
	query := `
		SELECT id, backtest_result_id, stock_id, entry_date, exit_date,
		       entry_price, exit_price, shares, prediction, actual_direction,
		       was_correct, profit_loss, return_percentage, confidence_score,
		       commission, exit_reason
		FROM trades
		WHERE backtest_result_id = $1
		ORDER BY entry_date
	`

	var trades []model.Trade
	err := r.db.SelectContext(ctx, &trades, query, backtestResultID)
	if err != nil {
		r.logger.Error("Failed to get trades",
			zap.Error(err),
			zap.Int("backtest_result_id", backtestResultID))
		return nil, err
	}

	return trades, nil
}
