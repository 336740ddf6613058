package engine

import (
	"math"

	"github.com/Frankie813/smart-stock-trader/internal/model"
)

// tradingDaysPerYear annualizes the Sharpe ratio for one-day holding
// periods.
const tradingDaysPerYear = 252

// ComputeMetrics reduces an ordered trade list and capital curve into
// summary statistics. Pure function of its inputs. Every division is
// guarded: zero trades, zero losers, and zero variance produce the
// documented fallbacks (zero or nil), never an error.
func ComputeMetrics(trades []model.Trade, capitalCurve []float64, initialCapital, finalCapital float64) model.BacktestMetrics {
	m := model.BacktestMetrics{
		TotalTrades: len(trades),
	}

	if initialCapital > 0 {
		m.TotalReturnPct = (finalCapital - initialCapital) / initialCapital * 100
	}
	m.TotalProfitLoss = finalCapital - initialCapital

	var (
		grossProfit float64
		grossLoss   float64 // magnitude
		correct     int
	)

	for _, t := range trades {
		switch {
		case t.ProfitLoss > 0:
			m.WinningTrades++
			grossProfit += t.ProfitLoss
			if m.LargestWin == nil || t.ProfitLoss > *m.LargestWin {
				v := t.ProfitLoss
				m.LargestWin = &v
			}
		case t.ProfitLoss < 0:
			m.LosingTrades++
			grossLoss += -t.ProfitLoss
			if m.LargestLoss == nil || t.ProfitLoss < *m.LargestLoss {
				v := t.ProfitLoss
				m.LargestLoss = &v
			}
		}
		// Zero-P&L trades count toward the total only.

		if t.WasCorrect {
			correct++
		}
	}

	if m.TotalTrades > 0 {
		m.WinRate = float64(m.WinningTrades) / float64(m.TotalTrades) * 100
		m.AccuracyPct = float64(correct) / float64(m.TotalTrades) * 100
	}

	if m.WinningTrades > 0 {
		m.AvgProfitPerTrade = grossProfit / float64(m.WinningTrades)
	}
	if m.LosingTrades > 0 {
		// Kept signed: the average losing trade is a negative number.
		m.AvgLossPerTrade = -grossLoss / float64(m.LosingTrades)
	}

	if m.LosingTrades > 0 && grossLoss > 0 {
		pf := grossProfit / grossLoss
		m.ProfitFactor = &pf
	}

	m.SharpeRatio = sharpeRatio(trades)
	m.MaxDrawdown = maxDrawdown(capitalCurve)

	return m
}

// sharpeRatio computes the annualized Sharpe ratio from per-trade return
// percentages. Nil when fewer than two trades or zero variance.
func sharpeRatio(trades []model.Trade) *float64 {
	if len(trades) < 2 {
		return nil
	}

	returns := make([]float64, len(trades))
	var sum float64
	for i, t := range trades {
		returns[i] = t.ReturnPct / 100
		sum += returns[i]
	}
	mean := sum / float64(len(returns))

	var sumSq float64
	for _, r := range returns {
		d := r - mean
		sumSq += d * d
	}
	// Sample standard deviation (n-1).
	std := math.Sqrt(sumSq / float64(len(returns)-1))
	if std == 0 {
		return nil
	}

	sharpe := mean / std * math.Sqrt(tradingDaysPerYear)
	return &sharpe
}

// maxDrawdown tracks the running peak of the capital curve and returns the
// deepest peak-to-trough decline as a non-positive percentage: -12.5
// means a 12.5% drawdown.
func maxDrawdown(capitalCurve []float64) float64 {
	if len(capitalCurve) == 0 {
		return 0
	}

	peak := capitalCurve[0]
	worst := 0.0
	for _, c := range capitalCurve {
		if c > peak {
			peak = c
		}
		if peak > 0 {
			dd := (peak - c) / peak * 100
			if dd > worst {
				worst = dd
			}
		}
	}
	return -worst
}
