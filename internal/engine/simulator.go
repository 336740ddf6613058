// Package engine implements the backtesting core: day-by-day trade
// simulation over historical prices, metric aggregation, and portfolio
// reduction. The engine is pure computation with no I/O and no shared
// state, so runs for different stocks can execute concurrently.
package engine

import (
	"math"

	"github.com/Frankie813/smart-stock-trader/internal/model"
)

const dayFormat = "2006-01-02"

// simulation carries the mutable state of one run
type simulation struct {
	symbol  string
	rules   model.TradingRules
	capital float64

	// open position, valid while holding
	holding    bool
	entryBar   model.PriceBar
	entrySig   model.Signal
	shares     int
	entryPrice float64

	trades []model.Trade
	curve  []float64
}

// simulate replays the signal stream against the price series one day at a
// time under the given rules. The strategy is long-only with a one-day
// holding period: an "up" signal at or above the confidence threshold
// opens a position at that day's close, and the position exits at the next
// trading day's close unless the stop or target is touched intraday
// first. Returns the ordered trade list, the capital curve (initial
// capital prepended, then capital after each closed trade), and final
// capital.
func simulate(
	symbol string,
	bars []model.PriceBar,
	signals []model.Signal,
	rules model.TradingRules,
	initialCapital float64,
) ([]model.Trade, []float64, float64, error) {
	if err := checkOrdered(bars); err != nil {
		return nil, nil, 0, err
	}

	barIndex := make(map[string]struct{}, len(bars))
	for _, b := range bars {
		barIndex[b.Date.Format(dayFormat)] = struct{}{}
	}

	// Every signal must reference a trading day we have a bar for.
	sigByDay := make(map[string]model.Signal, len(signals))
	for _, sig := range signals {
		day := sig.Date.Format(dayFormat)
		if _, ok := barIndex[day]; !ok {
			return nil, nil, 0, &DataGapError{Symbol: symbol, Date: sig.Date}
		}
		sigByDay[day] = sig
	}

	sim := &simulation{
		symbol:  symbol,
		rules:   rules,
		capital: initialCapital,
		trades:  make([]model.Trade, 0, len(signals)),
		curve:   []float64{initialCapital},
	}

	for _, bar := range bars {
		if sim.holding {
			sim.closeAt(bar)
		}

		if !sim.holding {
			if sig, ok := sigByDay[bar.Date.Format(dayFormat)]; ok {
				sim.tryOpen(bar, sig)
			}
		}
	}

	// Series ended with a position still open: force-close at the last
	// available close.
	if sim.holding {
		sim.exit(bars[len(bars)-1], bars[len(bars)-1].Close, model.ExitEndOfDay)
	}

	return sim.trades, sim.curve, sim.capital, nil
}

// tryOpen enters a position at the bar's close if the signal qualifies.
// Insufficient capital for a single share is a no-op, not an error.
func (s *simulation) tryOpen(bar model.PriceBar, sig model.Signal) {
	if sig.Direction != model.DirectionUp {
		return // long-only: stay in cash on down predictions
	}
	if sig.Confidence < s.rules.ConfidenceThreshold {
		return
	}
	if bar.Close <= 0 {
		return
	}

	shares := int(math.Floor(s.capital * s.rules.MaxPositionSizePct / 100 / bar.Close))
	if shares < 1 {
		return
	}

	s.holding = true
	s.entryBar = bar
	s.entrySig = sig
	s.entryPrice = bar.Close
	s.shares = shares
}

// closeAt evaluates exit conditions against the bar following entry.
// Stop loss takes priority over take profit when both levels are touched
// within the same bar.
func (s *simulation) closeAt(bar model.PriceBar) {
	if s.rules.StopLossPct > 0 {
		stopPrice := s.entryPrice * (1 - s.rules.StopLossPct/100)
		if bar.Low <= stopPrice {
			s.exit(bar, stopPrice, model.ExitStopLoss)
			return
		}
	}

	if s.rules.TakeProfitPct > 0 {
		targetPrice := s.entryPrice * (1 + s.rules.TakeProfitPct/100)
		if bar.High >= targetPrice {
			s.exit(bar, targetPrice, model.ExitTakeProfit)
			return
		}
	}

	s.exit(bar, bar.Close, model.ExitEndOfDay)
}

// exit closes the open position at exitPrice, appends the finished trade,
// and updates running capital. Commission is charged per leg: once at
// entry, once at exit.
func (s *simulation) exit(bar model.PriceBar, exitPrice float64, reason model.ExitReason) {
	commission := 2 * s.rules.CommissionPerTrade
	profitLoss := (exitPrice-s.entryPrice)*float64(s.shares) - commission
	invested := s.entryPrice * float64(s.shares)

	returnPct := 0.0
	if invested > 0 {
		returnPct = profitLoss / invested * 100
	}

	// Actual direction is judged close-to-close over the holding period
	// regardless of how the exit fired.
	actual := model.DirectionDown
	if bar.Close > s.entryBar.Close {
		actual = model.DirectionUp
	}

	s.capital += profitLoss
	s.curve = append(s.curve, s.capital)

	s.trades = append(s.trades, model.Trade{
		Symbol:             s.symbol,
		EntryDate:          s.entryBar.Date,
		ExitDate:           bar.Date,
		EntryPrice:         s.entryPrice,
		ExitPrice:          exitPrice,
		Shares:             s.shares,
		PredictedDirection: s.entrySig.Direction,
		ActualDirection:    actual,
		WasCorrect:         s.entrySig.Direction == actual,
		ProfitLoss:         profitLoss,
		ReturnPct:          returnPct,
		Confidence:         s.entrySig.Confidence,
		Commission:         commission,
		ExitReason:         reason,
	})

	s.holding = false
	s.shares = 0
}

// checkOrdered verifies the price series is strictly increasing by date.
func checkOrdered(bars []model.PriceBar) error {
	for i := 1; i < len(bars); i++ {
		if !bars[i].Date.After(bars[i-1].Date) {
			return ErrUnorderedSeries
		}
	}
	return nil
}
