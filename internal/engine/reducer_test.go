package engine

import (
	"errors"
	"testing"
	"time"

	"github.com/Frankie813/smart-stock-trader/internal/model"
)

func stockResult(symbol string, trades, winners, losers int, returnPct, accuracy float64, sharpe *float64) *model.BacktestResult {
	winRate := 0.0
	if trades > 0 {
		winRate = float64(winners) / float64(trades) * 100
	}
	return &model.BacktestResult{
		Symbol:         symbol,
		StartDate:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:        time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
		InitialCapital: 10000,
		FinalCapital:   10000 * (1 + returnPct/100),
		Metrics: model.BacktestMetrics{
			TotalTrades:    trades,
			WinningTrades:  winners,
			LosingTrades:   losers,
			WinRate:        winRate,
			TotalReturnPct: returnPct,
			AccuracyPct:    accuracy,
			SharpeRatio:    sharpe,
		},
	}
}

func floatPtr(v float64) *float64 { return &v }

func TestReduceEmptyInput(t *testing.T) {
	_, err := Reduce(nil)
	if !errors.Is(err, ErrNoResults) {
		t.Fatalf("got err = %v, want ErrNoResults", err)
	}
}

func TestReduceWeightingConventions(t *testing.T) {
	// Stock A: 10 trades, 8 winners (80%). Stock B: 2 trades, 0 winners
	// (0%). The trade-weighted overall win rate is 8/12, clearly different
	// from the 40% arithmetic mean.
	results := []*model.BacktestResult{
		stockResult("AAPL", 10, 8, 2, 10, 70, floatPtr(1.5)),
		stockResult("MSFT", 2, 0, 2, 20, 50, nil),
	}

	overall, err := Reduce(results)
	if err != nil {
		t.Fatalf("Reduce returned error: %v", err)
	}

	if overall.Metrics.TotalTrades != 12 {
		t.Errorf("total trades = %d, want 12", overall.Metrics.TotalTrades)
	}
	if overall.Metrics.WinningTrades != 8 || overall.Metrics.LosingTrades != 4 {
		t.Errorf("winners/losers = %d/%d, want 8/4",
			overall.Metrics.WinningTrades, overall.Metrics.LosingTrades)
	}

	wantWinRate := 8.0 / 12 * 100
	if !almostEqual(overall.Metrics.WinRate, wantWinRate) {
		t.Errorf("win rate = %v, want trade-weighted %v", overall.Metrics.WinRate, wantWinRate)
	}

	// Return is the equal-weighted mean across stocks, not trade-weighted.
	if !almostEqual(overall.Metrics.TotalReturnPct, 15) {
		t.Errorf("total return = %v, want equal-weighted mean 15", overall.Metrics.TotalReturnPct)
	}

	if !almostEqual(overall.Metrics.AccuracyPct, 60) {
		t.Errorf("accuracy = %v, want equal-weighted mean 60", overall.Metrics.AccuracyPct)
	}
}

func TestReduceSharpeAveragesNonNilOnly(t *testing.T) {
	results := []*model.BacktestResult{
		stockResult("AAPL", 5, 3, 2, 5, 60, floatPtr(1.0)),
		stockResult("MSFT", 5, 2, 3, -2, 40, floatPtr(2.0)),
		stockResult("GOOG", 1, 1, 0, 1, 100, nil),
	}

	overall, err := Reduce(results)
	if err != nil {
		t.Fatalf("Reduce returned error: %v", err)
	}
	if overall.Metrics.SharpeRatio == nil {
		t.Fatal("avg sharpe = nil, want mean over stocks with a sharpe")
	}
	if !almostEqual(*overall.Metrics.SharpeRatio, 1.5) {
		t.Errorf("avg sharpe = %v, want 1.5", *overall.Metrics.SharpeRatio)
	}
}

func TestReduceSharpeNilWhenNoneQualify(t *testing.T) {
	results := []*model.BacktestResult{
		stockResult("AAPL", 1, 1, 0, 1, 100, nil),
	}

	overall, err := Reduce(results)
	if err != nil {
		t.Fatalf("Reduce returned error: %v", err)
	}
	if overall.Metrics.SharpeRatio != nil {
		t.Errorf("avg sharpe = %v, want nil", *overall.Metrics.SharpeRatio)
	}
}

func TestReduceKeepsPerStockBreakdown(t *testing.T) {
	results := []*model.BacktestResult{
		stockResult("AAPL", 10, 8, 2, 10, 70, floatPtr(1.5)),
		stockResult("MSFT", 2, 0, 2, 20, 50, nil),
	}

	overall, err := Reduce(results)
	if err != nil {
		t.Fatalf("Reduce returned error: %v", err)
	}

	if !overall.IsPortfolio() {
		t.Error("reduced result should report itself as a portfolio aggregate")
	}
	if overall.StocksTested != 2 {
		t.Errorf("stocks tested = %d, want 2", overall.StocksTested)
	}
	if len(overall.StockResults) != 2 {
		t.Fatalf("got %d stock summaries, want 2", len(overall.StockResults))
	}
	if overall.StockResults[0].Symbol != "AAPL" || overall.StockResults[1].Symbol != "MSFT" {
		t.Errorf("stock summaries out of order: %+v", overall.StockResults)
	}
	if !almostEqual(overall.StockResults[0].ReturnPct, 10) {
		t.Errorf("AAPL return = %v, want 10", overall.StockResults[0].ReturnPct)
	}
}
