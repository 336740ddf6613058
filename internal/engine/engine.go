package engine

import (
	"github.com/go-playground/validator/v10"

	"github.com/Frankie813/smart-stock-trader/internal/model"
)

// DefaultMinBars is the minimum price history required before a backtest
// is allowed to run.
const DefaultMinBars = 100

// Engine is the backtest entry point. A single Engine is safe for
// concurrent use: each run operates only on its own inputs.
type Engine struct {
	minBars  int
	validate *validator.Validate
}

// New creates an Engine. A non-positive minBars falls back to
// DefaultMinBars.
func New(minBars int) *Engine {
	if minBars <= 0 {
		minBars = DefaultMinBars
	}
	return &Engine{
		minBars:  minBars,
		validate: validator.New(),
	}
}

// RunBacktest simulates trading for one stock and aggregates the outcome.
// It is synchronous and deterministic: identical inputs always produce an
// identical trade list and identical metrics. Fails fast with
// InvalidConfigurationError on malformed rules and InsufficientDataError
// when the series is shorter than the configured minimum; a run that
// simply produces no trades is a valid result, not an error.
func (e *Engine) RunBacktest(
	symbol string,
	bars []model.PriceBar,
	signals []model.Signal,
	rules model.TradingRules,
	initialCapital float64,
) (*model.BacktestResult, error) {
	if err := e.validateRules(rules); err != nil {
		return nil, err
	}

	if len(bars) < e.minBars {
		return nil, &InsufficientDataError{Symbol: symbol, Bars: len(bars), MinBars: e.minBars}
	}

	trades, curve, finalCapital, err := simulate(symbol, bars, signals, rules, initialCapital)
	if err != nil {
		return nil, err
	}

	return &model.BacktestResult{
		Symbol:         symbol,
		StartDate:      bars[0].Date,
		EndDate:        bars[len(bars)-1].Date,
		InitialCapital: initialCapital,
		FinalCapital:   finalCapital,
		Trades:         trades,
		Metrics:        ComputeMetrics(trades, curve, initialCapital, finalCapital),
	}, nil
}

// validateRules converts validator failures into the engine's typed
// configuration error.
func (e *Engine) validateRules(rules model.TradingRules) error {
	err := e.validate.Struct(rules)
	if err == nil {
		return nil
	}

	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		return &InvalidConfigurationError{
			Field:  verrs[0].Field(),
			Reason: "failed " + verrs[0].Tag() + " constraint",
		}
	}
	return &InvalidConfigurationError{Field: "rules", Reason: err.Error()}
}
