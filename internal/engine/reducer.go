package engine

import (
	"errors"

	"github.com/Frankie813/smart-stock-trader/internal/model"
)

// ErrNoResults is returned when a portfolio reduction is attempted over an
// empty result set.
var ErrNoResults = errors.New("no backtest results to reduce")

// Reduce combines per-stock backtest results into one portfolio-level
// result (empty symbol). Two deliberately different weighting conventions
// apply: the overall win rate is trade-weighted (total winners over total
// trades), while the overall return and accuracy are equal-weighted means
// across stocks. Per-stock summaries are retained verbatim for reporting.
func Reduce(results []*model.BacktestResult) (*model.BacktestResult, error) {
	if len(results) == 0 {
		return nil, ErrNoResults
	}

	overall := &model.BacktestResult{
		StartDate:    results[0].StartDate,
		EndDate:      results[0].EndDate,
		StocksTested: len(results),
		StockResults: make([]model.StockSummary, 0, len(results)),
	}

	var (
		returnSum   float64
		accuracySum float64
		sharpeSum   float64
		sharpeCount int
	)

	for _, r := range results {
		m := r.Metrics

		overall.InitialCapital += r.InitialCapital
		overall.FinalCapital += r.FinalCapital
		overall.Metrics.TotalTrades += m.TotalTrades
		overall.Metrics.WinningTrades += m.WinningTrades
		overall.Metrics.LosingTrades += m.LosingTrades
		overall.Metrics.TotalProfitLoss += m.TotalProfitLoss

		returnSum += m.TotalReturnPct
		accuracySum += m.AccuracyPct

		if m.SharpeRatio != nil {
			sharpeSum += *m.SharpeRatio
			sharpeCount++
		}

		if m.LargestWin != nil && (overall.Metrics.LargestWin == nil || *m.LargestWin > *overall.Metrics.LargestWin) {
			v := *m.LargestWin
			overall.Metrics.LargestWin = &v
		}
		if m.LargestLoss != nil && (overall.Metrics.LargestLoss == nil || *m.LargestLoss < *overall.Metrics.LargestLoss) {
			v := *m.LargestLoss
			overall.Metrics.LargestLoss = &v
		}

		if r.StartDate.Before(overall.StartDate) {
			overall.StartDate = r.StartDate
		}
		if r.EndDate.After(overall.EndDate) {
			overall.EndDate = r.EndDate
		}

		overall.StockResults = append(overall.StockResults, model.StockSummary{
			Symbol:      r.Symbol,
			TotalTrades: m.TotalTrades,
			ReturnPct:   m.TotalReturnPct,
			WinRate:     m.WinRate,
			AccuracyPct: m.AccuracyPct,
			SharpeRatio: m.SharpeRatio,
		})
	}

	n := float64(len(results))

	// Trade-weighted across the whole batch, not a mean of per-stock rates.
	if overall.Metrics.TotalTrades > 0 {
		overall.Metrics.WinRate = float64(overall.Metrics.WinningTrades) / float64(overall.Metrics.TotalTrades) * 100
	}

	// Equal-weighted across stocks.
	overall.Metrics.TotalReturnPct = returnSum / n
	overall.Metrics.AccuracyPct = accuracySum / n

	if sharpeCount > 0 {
		avg := sharpeSum / float64(sharpeCount)
		overall.Metrics.SharpeRatio = &avg
	}

	return overall, nil
}
