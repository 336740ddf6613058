package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// ExitReason describes why a simulated position was closed
type ExitReason string

const (
	ExitEndOfDay   ExitReason = "end_of_day"
	ExitStopLoss   ExitReason = "stop_loss"
	ExitTakeProfit ExitReason = "take_profit"
)

// TradingRules is the immutable per-run trading configuration. Validation
// happens before simulation starts; the engine rejects rules that fail
// these bounds.
type TradingRules struct {
	StopLossPct         float64 `json:"stop_loss_pct" validate:"gte=0"`
	TakeProfitPct       float64 `json:"take_profit_pct" validate:"gte=0"`
	ConfidenceThreshold float64 `json:"confidence_threshold" validate:"gte=0,lte=1"`
	CommissionPerTrade  float64 `json:"commission_per_trade" validate:"gte=0"`
	MaxPositionSizePct  float64 `json:"max_position_size_pct" validate:"gt=0,lte=100"`
}

// Trade represents one completed round trip (entry + exit). Immutable once
// closed by the simulator.
type Trade struct {
	ID                 int        `json:"id,omitempty" db:"id"`
	BacktestResultID   int        `json:"backtest_result_id,omitempty" db:"backtest_result_id"`
	StockID            int        `json:"stock_id,omitempty" db:"stock_id"`
	Symbol             string     `json:"symbol,omitempty" db:"symbol"`
	EntryDate          time.Time  `json:"entry_date" db:"entry_date"`
	ExitDate           time.Time  `json:"exit_date" db:"exit_date"`
	EntryPrice         float64    `json:"entry_price" db:"entry_price"`
	ExitPrice          float64    `json:"exit_price" db:"exit_price"`
	Shares             int        `json:"shares" db:"shares"`
	PredictedDirection Direction  `json:"predicted_direction" db:"prediction"`
	ActualDirection    Direction  `json:"actual_direction" db:"actual_direction"`
	WasCorrect         bool       `json:"was_correct" db:"was_correct"`
	ProfitLoss         float64    `json:"profit_loss" db:"profit_loss"`
	ReturnPct          float64    `json:"return_pct" db:"return_percentage"`
	Confidence         float64    `json:"confidence" db:"confidence_score"`
	Commission         float64    `json:"commission" db:"commission"`
	ExitReason         ExitReason `json:"exit_reason" db:"exit_reason"`
}

// BacktestMetrics holds the summary statistics for one backtest run.
// Ratio metrics that are undefined for the input (no losers, fewer than
// two trades) are nil rather than zero so downstream consumers can tell
// "not computable" apart from "computed as zero". MaxDrawdown is stored
// non-positive: -12.5 means a 12.5% peak-to-trough decline.
type BacktestMetrics struct {
	TotalTrades       int      `json:"total_trades"`
	WinningTrades     int      `json:"winning_trades"`
	LosingTrades      int      `json:"losing_trades"`
	WinRate           float64  `json:"win_rate"`
	TotalReturnPct    float64  `json:"total_return_pct"`
	TotalProfitLoss   float64  `json:"total_profit_loss"`
	AvgProfitPerTrade float64  `json:"avg_profit_per_trade"`
	AvgLossPerTrade   float64  `json:"avg_loss_per_trade"`
	LargestWin        *float64 `json:"largest_win"`
	LargestLoss       *float64 `json:"largest_loss"`
	ProfitFactor      *float64 `json:"profit_factor"`
	SharpeRatio       *float64 `json:"sharpe_ratio"`
	MaxDrawdown       float64  `json:"max_drawdown"`
	AccuracyPct       float64  `json:"accuracy_percentage"`
}

// Value implements the driver.Valuer interface for BacktestMetrics
func (m BacktestMetrics) Value() (driver.Value, error) {
	return json.Marshal(m)
}

// Scan implements the sql.Scanner interface for BacktestMetrics
func (m *BacktestMetrics) Scan(value interface{}) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(b, m)
}

// BacktestResult is the complete outcome of one backtest run. Symbol is
// empty for a portfolio-level aggregate produced by the reducer, in which
// case StockResults carries the per-stock breakdown.
type BacktestResult struct {
	ID             int             `json:"id,omitempty" db:"id"`
	ExperimentID   int             `json:"experiment_id,omitempty" db:"experiment_id"`
	StockID        int             `json:"stock_id,omitempty" db:"stock_id"`
	Symbol         string          `json:"symbol,omitempty"`
	StartDate      time.Time       `json:"start_date" db:"start_date"`
	EndDate        time.Time       `json:"end_date" db:"end_date"`
	InitialCapital float64         `json:"initial_capital" db:"initial_capital"`
	FinalCapital   float64         `json:"final_capital" db:"final_capital"`
	Trades         []Trade         `json:"trades,omitempty"`
	Metrics        BacktestMetrics `json:"metrics" db:"metrics"`
	StockResults   []StockSummary  `json:"stock_results,omitempty"`
	StocksTested   int             `json:"stocks_tested,omitempty"`
	CreatedAt      time.Time       `json:"created_at,omitempty" db:"created_at"`
}

// IsPortfolio reports whether the result is a portfolio-level aggregate.
func (r *BacktestResult) IsPortfolio() bool {
	return r.Symbol == "" && len(r.StockResults) > 0
}

// StockSummary is the per-stock line item retained alongside a portfolio
// aggregate for reporting.
type StockSummary struct {
	Symbol      string   `json:"symbol"`
	TotalTrades int      `json:"trades"`
	ReturnPct   float64  `json:"return"`
	WinRate     float64  `json:"win_rate"`
	AccuracyPct float64  `json:"accuracy"`
	SharpeRatio *float64 `json:"sharpe_ratio"`
}
