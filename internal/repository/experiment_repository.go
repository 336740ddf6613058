package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/Frankie813/smart-stock-trader/internal/model"
)

// ErrExperimentNotFound is returned when a lookup targets an experiment
// that does not exist.
var ErrExperimentNotFound = errors.New("experiment not found")

// ExperimentRepository handles database operations for experiments
type ExperimentRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewExperimentRepository creates a new experiment repository
func NewExperimentRepository(db *sqlx.DB, logger *zap.Logger) *ExperimentRepository {
	return &ExperimentRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new experiment in pending status and returns its ID
func (r *ExperimentRepository) Create(ctx context.Context, exp *model.Experiment) (int, error) {
	query := `
		INSERT INTO experiments (
			name, stock_ids, rules, start_date, end_date,
			initial_capital, status, progress, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, $8)
		RETURNING id
	`

	var id int
	err := r.db.QueryRowContext(
		ctx,
		query,
		exp.Name,
		exp.StockIDs,
		exp.Rules,
		exp.StartDate,
		exp.EndDate,
		exp.InitialCapital,
		model.ExperimentPending,
		time.Now(),
	).Scan(&id)

	if err != nil {
		r.logger.Error("Failed to create experiment", zap.Error(err))
		return 0, err
	}

	return id, nil
}

// Get retrieves an experiment by ID
func (r *ExperimentRepository) Get(ctx context.Context, id int) (*model.Experiment, error) {
	query := `
		SELECT id, name, stock_ids, rules, start_date, end_date,
		       initial_capital, status, progress, results, error_message,
		       started_at, completed_at, created_at, updated_at
		FROM experiments
		WHERE id = $1
	`

	var exp model.Experiment
	err := r.db.GetContext(ctx, &exp, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrExperimentNotFound
		}
		r.logger.Error("Failed to get experiment", zap.Error(err), zap.Int("id", id))
		return nil, err
	}

	return &exp, nil
}

// List retrieves experiments, newest first, with pagination
func (r *ExperimentRepository) List(ctx context.Context, page, limit int) ([]model.Experiment, int, error) {
	offset := (page - 1) * limit

	countQuery := `SELECT COUNT(*) FROM experiments`

	var total int
	err := r.db.GetContext(ctx, &total, countQuery)
	if err != nil {
		r.logger.Error("Failed to count experiments", zap.Error(err))
		return nil, 0, err
	}

	query := `
		SELECT id, name, stock_ids, rules, start_date, end_date,
		       initial_capital, status, progress, results, error_message,
		       started_at, completed_at, created_at, updated_at
		FROM experiments
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	var experiments []model.Experiment
	err = r.db.SelectContext(ctx, &experiments, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list experiments",
			zap.Error(err),
			zap.Int("page", page),
			zap.Int("limit", limit))
		return nil, 0, err
	}

	return experiments, total, nil
}

// MarkRunning transitions an experiment to running status
func (r *ExperimentRepository) MarkRunning(ctx context.Context, id int) error {
	query := `
		UPDATE experiments
		SET status = $1, started_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2
	`

	_, err := r.db.ExecContext(ctx, query, model.ExperimentRunning, id)
	if err != nil {
		r.logger.Error("Failed to mark experiment running", zap.Error(err), zap.Int("id", id))
		return err
	}

	return nil
}

// UpdateProgress updates the completed-stock percentage for a running
// experiment.
func (r *ExperimentRepository) UpdateProgress(ctx context.Context, id, progress int) error {
	query := `
		UPDATE experiments
		SET progress = $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2
	`

	_, err := r.db.ExecContext(ctx, query, progress, id)
	if err != nil {
		r.logger.Error("Failed to update experiment progress",
			zap.Error(err),
			zap.Int("id", id),
			zap.Int("progress", progress))
		return err
	}

	return nil
}

// Complete stores the aggregated results and marks the experiment
// completed.
func (r *ExperimentRepository) Complete(ctx context.Context, id int, results *model.BacktestResult) error {
	resultsJSON, err := json.Marshal(results)
	if err != nil {
		r.logger.Error("Failed to marshal experiment results", zap.Error(err))
		return err
	}

	query := `
		UPDATE experiments
		SET status = $1, results = $2, progress = 100,
		    updated_at = CURRENT_TIMESTAMP, completed_at = CURRENT_TIMESTAMP
		WHERE id = $3
	`

	_, err = r.db.ExecContext(ctx, query, model.ExperimentCompleted, resultsJSON, id)
	if err != nil {
		r.logger.Error("Failed to complete experiment", zap.Error(err), zap.Int("id", id))
		return err
	}

	return nil
}

// Fail marks an experiment as failed with an error message
func (r *ExperimentRepository) Fail(ctx context.Context, id int, errorMessage string) error {
	query := `
		UPDATE experiments
		SET status = $1, error_message = $2,
		    updated_at = CURRENT_TIMESTAMP, completed_at = CURRENT_TIMESTAMP
		WHERE id = $3
	`

	_, err := r.db.ExecContext(ctx, query, model.ExperimentFailed, errorMessage, id)
	if err != nil {
		r.logger.Error("Failed to mark experiment as failed",
			zap.Error(err),
			zap.Int("id", id),
			zap.String("errorMessage", errorMessage))
		return err
	}

	return nil
}
