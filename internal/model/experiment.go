package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/lib/pq"
)

// Experiment statuses
const (
	ExperimentPending   = "pending"
	ExperimentRunning   = "running"
	ExperimentCompleted = "completed"
	ExperimentFailed    = "failed"
)

// Experiment represents a multi-stock backtest batch. Columns that are
// NULL until a lifecycle transition writes them (see
// migrations/001_init.sql) map to pointer types so a freshly created row
// scans cleanly.
type Experiment struct {
	ID             int             `json:"id" db:"id"`
	Name           string          `json:"name" db:"name"`
	StockIDs       pq.Int64Array   `json:"stock_ids" db:"stock_ids"`
	Rules          TradingRules    `json:"rules" db:"rules"`
	StartDate      time.Time       `json:"start_date" db:"start_date"`
	EndDate        time.Time       `json:"end_date" db:"end_date"`
	InitialCapital float64         `json:"initial_capital" db:"initial_capital"`
	Status         string          `json:"status" db:"status"`
	Progress       int             `json:"progress" db:"progress"`
	Results        json.RawMessage `json:"results,omitempty" db:"results"`
	ErrorMessage   *string         `json:"error_message,omitempty" db:"error_message"`
	StartedAt      *time.Time      `json:"started_at,omitempty" db:"started_at"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      *time.Time      `json:"updated_at,omitempty" db:"updated_at"`
}

// Value implements the driver.Valuer interface for TradingRules so the
// rules column round-trips as JSON.
func (r TradingRules) Value() (driver.Value, error) {
	return json.Marshal(r)
}

// Scan implements the sql.Scanner interface for TradingRules
func (r *TradingRules) Scan(value interface{}) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(b, r)
}

// ExperimentRequest represents the input for creating an experiment
type ExperimentRequest struct {
	Name           string       `json:"name,omitempty"`
	StockIDs       []int        `json:"stock_ids" binding:"required,min=1"`
	Rules          TradingRules `json:"rules" binding:"required"`
	StartDate      time.Time    `json:"start_date" binding:"required"`
	EndDate        time.Time    `json:"end_date" binding:"required"`
	InitialCapital float64      `json:"initial_capital" binding:"required,min=1"`
}
