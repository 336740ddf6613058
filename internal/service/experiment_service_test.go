package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Frankie813/smart-stock-trader/internal/kafka"
	"github.com/Frankie813/smart-stock-trader/internal/model"
)

type fakeStore struct {
	mu         sync.Mutex
	experiment *model.Experiment
	progress   []int
	status     string
	errorMsg   string
	results    *model.BacktestResult
}

func (f *fakeStore) Create(ctx context.Context, exp *model.Experiment) (int, error) {
	f.experiment = exp
	return 1, nil
}

func (f *fakeStore) Get(ctx context.Context, id int) (*model.Experiment, error) {
	return f.experiment, nil
}

func (f *fakeStore) List(ctx context.Context, page, limit int) ([]model.Experiment, int, error) {
	return []model.Experiment{*f.experiment}, 1, nil
}

func (f *fakeStore) MarkRunning(ctx context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = model.ExperimentRunning
	return nil
}

func (f *fakeStore) UpdateProgress(ctx context.Context, id, progress int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.progress = append(f.progress, progress)
	return nil
}

func (f *fakeStore) Complete(ctx context.Context, id int, results *model.BacktestResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = model.ExperimentCompleted
	f.results = results
	return nil
}

func (f *fakeStore) Fail(ctx context.Context, id int, errorMessage string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = model.ExperimentFailed
	f.errorMsg = errorMessage
	return nil
}

type fakeStocks struct {
	stocks []model.Stock
}

func (f *fakeStocks) GetByIDs(ctx context.Context, ids []int) ([]model.Stock, error) {
	return f.stocks, nil
}

type fakeRunner struct {
	mu      sync.Mutex
	running int
	peak    int
	failFor map[string]error
}

func (f *fakeRunner) RunForStock(
	ctx context.Context,
	experimentID int,
	stock model.Stock,
	window model.DateRange,
	rules model.TradingRules,
	initialCapital float64,
) (*model.BacktestResult, error) {
	f.mu.Lock()
	f.running++
	if f.running > f.peak {
		f.peak = f.running
	}
	f.mu.Unlock()

	time.Sleep(5 * time.Millisecond)

	f.mu.Lock()
	f.running--
	f.mu.Unlock()

	if err, ok := f.failFor[stock.Symbol]; ok {
		return nil, err
	}

	return &model.BacktestResult{
		Symbol:         stock.Symbol,
		StockID:        stock.ID,
		StartDate:      window.Start,
		EndDate:        window.End,
		InitialCapital: initialCapital,
		FinalCapital:   initialCapital + 100,
		Trades:         []model.Trade{{Symbol: stock.Symbol, ProfitLoss: 100, WasCorrect: true}},
		Metrics: model.BacktestMetrics{
			TotalTrades:    1,
			WinningTrades:  1,
			WinRate:        100,
			AccuracyPct:    100,
			TotalReturnPct: 1,
		},
	}, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []kafka.ExperimentEvent
}

func (f *fakePublisher) PublishExperimentEvent(ctx context.Context, event kafka.ExperimentEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	return nil
}

func (f *fakePublisher) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.events))
	for i, e := range f.events {
		out[i] = e.Type
	}
	return out
}

func testExperiment(n int) (*fakeStore, *fakeStocks) {
	stocks := make([]model.Stock, 0, n)
	ids := make([]int64, 0, n)
	for i := 1; i <= n; i++ {
		stocks = append(stocks, model.Stock{ID: i, Symbol: fmt.Sprintf("STK%d", i)})
		ids = append(ids, int64(i))
	}

	store := &fakeStore{
		experiment: &model.Experiment{
			ID:             1,
			StockIDs:       ids,
			Rules:          model.TradingRules{ConfidenceThreshold: 0.6, MaxPositionSizePct: 100},
			StartDate:      time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
			EndDate:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			InitialCapital: 10000,
			Status:         model.ExperimentPending,
		},
	}
	return store, &fakeStocks{stocks: stocks}
}

func TestRunCompletesAndAggregates(t *testing.T) {
	store, stocks := testExperiment(6)
	runner := &fakeRunner{}
	publisher := &fakePublisher{}

	svc := NewExperimentService(store, stocks, runner, publisher, 2, zap.NewNop())
	if err := svc.Run(context.Background(), 1); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if store.status != model.ExperimentCompleted {
		t.Errorf("status = %q, want completed", store.status)
	}
	if store.results == nil {
		t.Fatal("no aggregate stored")
	}
	if !store.results.IsPortfolio() {
		t.Error("aggregate should be a portfolio result")
	}
	if store.results.Metrics.TotalTrades != 6 {
		t.Errorf("aggregate trades = %d, want 6", store.results.Metrics.TotalTrades)
	}
	if got := store.progress[len(store.progress)-1]; got != 100 {
		t.Errorf("final progress = %d, want 100", got)
	}
}

func TestRunBoundsWorkerPool(t *testing.T) {
	store, stocks := testExperiment(10)
	runner := &fakeRunner{}

	svc := NewExperimentService(store, stocks, runner, &fakePublisher{}, 3, zap.NewNop())
	if err := svc.Run(context.Background(), 1); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if runner.peak > 3 {
		t.Errorf("peak concurrency = %d, want at most 3", runner.peak)
	}
}

func TestRunToleratesPartialFailure(t *testing.T) {
	store, stocks := testExperiment(4)
	runner := &fakeRunner{failFor: map[string]error{
		"STK2": errors.New("insufficient history"),
	}}
	publisher := &fakePublisher{}

	svc := NewExperimentService(store, stocks, runner, publisher, 2, zap.NewNop())
	if err := svc.Run(context.Background(), 1); err != nil {
		t.Fatalf("Run should tolerate one failing stock: %v", err)
	}

	if store.status != model.ExperimentCompleted {
		t.Errorf("status = %q, want completed", store.status)
	}
	if store.results.StocksTested != 3 {
		t.Errorf("StocksTested = %d, want 3 (failed stock excluded)", store.results.StocksTested)
	}
}

func TestRunFailsWhenAllStocksFail(t *testing.T) {
	store, stocks := testExperiment(3)
	failures := map[string]error{}
	for _, s := range stocks.stocks {
		failures[s.Symbol] = errors.New("no data")
	}
	runner := &fakeRunner{failFor: failures}
	publisher := &fakePublisher{}

	svc := NewExperimentService(store, stocks, runner, publisher, 2, zap.NewNop())
	if err := svc.Run(context.Background(), 1); err == nil {
		t.Fatal("Run should fail when every stock fails")
	}

	if store.status != model.ExperimentFailed {
		t.Errorf("status = %q, want failed", store.status)
	}
	if store.errorMsg == "" {
		t.Error("failure message should be recorded")
	}

	types := publisher.types()
	if types[len(types)-1] != kafka.EventExperimentFailed {
		t.Errorf("last event = %q, want %q", types[len(types)-1], kafka.EventExperimentFailed)
	}
}

func TestRunPublishesLifecycleEvents(t *testing.T) {
	store, stocks := testExperiment(2)
	publisher := &fakePublisher{}

	svc := NewExperimentService(store, stocks, &fakeRunner{}, publisher, 2, zap.NewNop())
	if err := svc.Run(context.Background(), 1); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	types := publisher.types()
	if types[0] != kafka.EventExperimentStarted {
		t.Errorf("first event = %q, want started", types[0])
	}
	if types[len(types)-1] != kafka.EventExperimentCompleted {
		t.Errorf("last event = %q, want completed", types[len(types)-1])
	}

	progressEvents := 0
	for _, tp := range types {
		if tp == kafka.EventExperimentProgress {
			progressEvents++
		}
	}
	if progressEvents != 2 {
		t.Errorf("progress events = %d, want one per stock", progressEvents)
	}
}

func TestCreateRejectsInvertedDates(t *testing.T) {
	store, stocks := testExperiment(1)
	svc := NewExperimentService(store, stocks, &fakeRunner{}, &fakePublisher{}, 2, zap.NewNop())

	_, err := svc.Create(context.Background(), &model.ExperimentRequest{
		StockIDs:       []int{1},
		Rules:          model.TradingRules{ConfidenceThreshold: 0.6, MaxPositionSizePct: 100},
		StartDate:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:        time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		InitialCapital: 10000,
	})
	if err == nil {
		t.Fatal("expected error for inverted date range")
	}
}
