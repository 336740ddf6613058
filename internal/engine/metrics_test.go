package engine

import (
	"math"
	"testing"

	"github.com/Frankie813/smart-stock-trader/internal/model"
)

func tradeWithPL(pl, returnPct float64, correct bool) model.Trade {
	return model.Trade{ProfitLoss: pl, ReturnPct: returnPct, WasCorrect: correct}
}

func TestComputeMetricsZeroTrades(t *testing.T) {
	m := ComputeMetrics(nil, []float64{10000}, 10000, 10000)

	if m.TotalTrades != 0 {
		t.Errorf("total trades = %d, want 0", m.TotalTrades)
	}
	if m.WinRate != 0 {
		t.Errorf("win rate = %v, want explicit 0", m.WinRate)
	}
	if m.ProfitFactor != nil {
		t.Errorf("profit factor = %v, want nil", *m.ProfitFactor)
	}
	if m.SharpeRatio != nil {
		t.Errorf("sharpe = %v, want nil", *m.SharpeRatio)
	}
	if m.LargestWin != nil || m.LargestLoss != nil {
		t.Error("largest win/loss should be nil with no trades")
	}
	if m.TotalReturnPct != 0 {
		t.Errorf("total return = %v, want 0", m.TotalReturnPct)
	}
}

func TestComputeMetricsWinLossPartition(t *testing.T) {
	trades := []model.Trade{
		tradeWithPL(100, 1, true),
		tradeWithPL(-50, -0.5, false),
		tradeWithPL(0, 0, true), // zero P&L counts toward total only
	}

	m := ComputeMetrics(trades, []float64{10000, 10100, 10050, 10050}, 10000, 10050)

	if m.TotalTrades != 3 {
		t.Errorf("total trades = %d, want 3", m.TotalTrades)
	}
	if m.WinningTrades != 1 || m.LosingTrades != 1 {
		t.Errorf("winners/losers = %d/%d, want 1/1", m.WinningTrades, m.LosingTrades)
	}
	if m.WinningTrades+m.LosingTrades > m.TotalTrades {
		t.Error("winners + losers exceeds total")
	}
	if !almostEqual(m.WinRate, 100.0/3) {
		t.Errorf("win rate = %v, want %v", m.WinRate, 100.0/3)
	}
	if !almostEqual(m.AccuracyPct, 200.0/3) {
		t.Errorf("accuracy = %v, want %v", m.AccuracyPct, 200.0/3)
	}
}

func TestComputeMetricsAverages(t *testing.T) {
	trades := []model.Trade{
		tradeWithPL(100, 1, true),
		tradeWithPL(300, 3, true),
		tradeWithPL(-50, -0.5, false),
		tradeWithPL(-150, -1.5, false),
	}

	m := ComputeMetrics(trades, []float64{10000, 10100, 10400, 10350, 10200}, 10000, 10200)

	if !almostEqual(m.AvgProfitPerTrade, 200) {
		t.Errorf("avg profit = %v, want 200", m.AvgProfitPerTrade)
	}
	// Kept signed, not absolute.
	if !almostEqual(m.AvgLossPerTrade, -100) {
		t.Errorf("avg loss = %v, want -100", m.AvgLossPerTrade)
	}
	if m.LargestWin == nil || !almostEqual(*m.LargestWin, 300) {
		t.Errorf("largest win = %v, want 300", m.LargestWin)
	}
	if m.LargestLoss == nil || !almostEqual(*m.LargestLoss, -150) {
		t.Errorf("largest loss = %v, want -150", m.LargestLoss)
	}
	if m.ProfitFactor == nil || !almostEqual(*m.ProfitFactor, 2) {
		t.Errorf("profit factor = %v, want 2", m.ProfitFactor)
	}
}

func TestComputeMetricsProfitFactorNilWithoutLosers(t *testing.T) {
	trades := []model.Trade{
		tradeWithPL(100, 1, true),
		tradeWithPL(200, 2, true),
	}

	m := ComputeMetrics(trades, []float64{10000, 10100, 10300}, 10000, 10300)
	if m.ProfitFactor != nil {
		t.Errorf("profit factor = %v, want nil with no losing trades", *m.ProfitFactor)
	}
}

func TestSharpeRatioAnnualized(t *testing.T) {
	trades := []model.Trade{
		tradeWithPL(100, 1, true),
		tradeWithPL(300, 3, true),
	}

	m := ComputeMetrics(trades, []float64{10000, 10100, 10400}, 10000, 10400)
	if m.SharpeRatio == nil {
		t.Fatal("sharpe = nil, want a value with 2 trades")
	}

	// returns 0.01 and 0.03: mean 0.02, sample std 0.01414..., annualized
	// by sqrt(252).
	want := 0.02 / math.Sqrt(0.0002) * math.Sqrt(252)
	if math.Abs(*m.SharpeRatio-want) > 1e-6 {
		t.Errorf("sharpe = %v, want %v", *m.SharpeRatio, want)
	}
}

func TestSharpeRatioNilOnZeroVariance(t *testing.T) {
	trades := []model.Trade{
		tradeWithPL(100, 1, true),
		tradeWithPL(100, 1, true),
	}

	m := ComputeMetrics(trades, []float64{10000, 10100, 10200}, 10000, 10200)
	if m.SharpeRatio != nil {
		t.Errorf("sharpe = %v, want nil on zero variance", *m.SharpeRatio)
	}
}

func TestSharpeRatioNilBelowTwoTrades(t *testing.T) {
	trades := []model.Trade{tradeWithPL(100, 1, true)}

	m := ComputeMetrics(trades, []float64{10000, 10100}, 10000, 10100)
	if m.SharpeRatio != nil {
		t.Errorf("sharpe = %v, want nil with a single trade", *m.SharpeRatio)
	}
}

func TestMaxDrawdownNonPositive(t *testing.T) {
	// Peak 11000 then trough 9900: a 10% decline, stored as -10.
	curve := []float64{10000, 11000, 9900, 10500}

	m := ComputeMetrics(nil, curve, 10000, 10500)
	if !almostEqual(m.MaxDrawdown, -10) {
		t.Errorf("max drawdown = %v, want -10", m.MaxDrawdown)
	}
}

func TestMaxDrawdownZeroOnMonotonicCurve(t *testing.T) {
	curve := []float64{10000, 10100, 10200}

	m := ComputeMetrics(nil, curve, 10000, 10200)
	if m.MaxDrawdown != 0 {
		t.Errorf("max drawdown = %v, want 0", m.MaxDrawdown)
	}
}
