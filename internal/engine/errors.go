package engine

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnorderedSeries is returned when a price series is not strictly
// increasing by date.
var ErrUnorderedSeries = errors.New("price series is not strictly ordered by date")

// DataGapError indicates a signal references a date with no corresponding
// price bar. Fatal for the run; never retried.
type DataGapError struct {
	Symbol string
	Date   time.Time
}

func (e *DataGapError) Error() string {
	return fmt.Sprintf("no price bar for %s on %s", e.Symbol, e.Date.Format("2006-01-02"))
}

// InsufficientDataError indicates the price series has fewer bars than the
// configured minimum. Distinct from a zero-trade result: too little
// history is not the same as no qualifying signals.
type InsufficientDataError struct {
	Symbol  string
	Bars    int
	MinBars int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient price history for %s: %d bars, need at least %d", e.Symbol, e.Bars, e.MinBars)
}

// InvalidConfigurationError indicates malformed trading rules. Raised
// before simulation starts.
type InvalidConfigurationError struct {
	Field  string
	Reason string
}

func (e *InvalidConfigurationError) Error() string {
	return fmt.Sprintf("invalid trading rules: %s %s", e.Field, e.Reason)
}
