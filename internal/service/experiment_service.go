package service

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Frankie813/smart-stock-trader/internal/engine"
	"github.com/Frankie813/smart-stock-trader/internal/kafka"
	"github.com/Frankie813/smart-stock-trader/internal/model"
)

// DefaultWorkers bounds concurrent per-stock backtests within one
// experiment.
const DefaultWorkers = 4

// ExperimentStore is the slice of the experiment repository the service
// needs.
type ExperimentStore interface {
	Create(ctx context.Context, exp *model.Experiment) (int, error)
	Get(ctx context.Context, id int) (*model.Experiment, error)
	List(ctx context.Context, page, limit int) ([]model.Experiment, int, error)
	MarkRunning(ctx context.Context, id int) error
	UpdateProgress(ctx context.Context, id, progress int) error
	Complete(ctx context.Context, id int, results *model.BacktestResult) error
	Fail(ctx context.Context, id int, errorMessage string) error
}

// StockLister resolves experiment stock IDs to stocks.
type StockLister interface {
	GetByIDs(ctx context.Context, ids []int) ([]model.Stock, error)
}

// StockRunner runs one per-stock backtest.
type StockRunner interface {
	RunForStock(
		ctx context.Context,
		experimentID int,
		stock model.Stock,
		window model.DateRange,
		rules model.TradingRules,
		initialCapital float64,
	) (*model.BacktestResult, error)
}

// EventPublisher publishes experiment lifecycle events.
type EventPublisher interface {
	PublishExperimentEvent(ctx context.Context, event kafka.ExperimentEvent) error
}

// ExperimentService orchestrates multi-stock experiments: fan out one
// backtest per stock across a bounded worker pool, track progress, and
// reduce the per-stock outcomes into a portfolio aggregate.
type ExperimentService struct {
	store     ExperimentStore
	stocks    StockLister
	runner    StockRunner
	publisher EventPublisher
	workers   int
	logger    *zap.Logger
}

// NewExperimentService creates a new experiment service. A non-positive
// workers falls back to DefaultWorkers.
func NewExperimentService(
	store ExperimentStore,
	stocks StockLister,
	runner StockRunner,
	publisher EventPublisher,
	workers int,
	logger *zap.Logger,
) *ExperimentService {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &ExperimentService{
		store:     store,
		stocks:    stocks,
		runner:    runner,
		publisher: publisher,
		workers:   workers,
		logger:    logger,
	}
}

// Create validates and persists a new experiment in pending status
func (s *ExperimentService) Create(ctx context.Context, req *model.ExperimentRequest) (*model.Experiment, error) {
	if req.EndDate.Before(req.StartDate) {
		return nil, fmt.Errorf("end date precedes start date")
	}

	stockIDs := make([]int, len(req.StockIDs))
	copy(stockIDs, req.StockIDs)

	stocks, err := s.stocks.GetByIDs(ctx, stockIDs)
	if err != nil {
		return nil, err
	}
	if len(stocks) != len(stockIDs) {
		return nil, fmt.Errorf("experiment references unknown stocks: requested %d, found %d", len(stockIDs), len(stocks))
	}

	ids := make([]int64, len(stockIDs))
	for i, id := range stockIDs {
		ids[i] = int64(id)
	}

	name := req.Name
	if name == "" {
		name = fmt.Sprintf("Experiment over %d stocks", len(stockIDs))
	}

	exp := &model.Experiment{
		Name:           name,
		StockIDs:       ids,
		Rules:          req.Rules,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		InitialCapital: req.InitialCapital,
		Status:         model.ExperimentPending,
	}

	id, err := s.store.Create(ctx, exp)
	if err != nil {
		return nil, err
	}
	exp.ID = id

	return exp, nil
}

// Get retrieves an experiment by ID
func (s *ExperimentService) Get(ctx context.Context, id int) (*model.Experiment, error) {
	return s.store.Get(ctx, id)
}

// List retrieves experiments, newest first
func (s *ExperimentService) List(ctx context.Context, page, limit int) ([]model.Experiment, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.store.List(ctx, page, limit)
}

// stockOutcome carries one worker's result back to the collector
type stockOutcome struct {
	symbol string
	result *model.BacktestResult
	err    error
}

// Run executes an experiment to completion. Per-stock failures are
// logged and excluded from the aggregate; the experiment as a whole
// fails only when every stock fails.
func (s *ExperimentService) Run(ctx context.Context, experimentID int) error {
	exp, err := s.store.Get(ctx, experimentID)
	if err != nil {
		return err
	}

	stockIDs := make([]int, len(exp.StockIDs))
	for i, id := range exp.StockIDs {
		stockIDs[i] = int(id)
	}

	stocks, err := s.stocks.GetByIDs(ctx, stockIDs)
	if err != nil {
		return s.fail(ctx, experimentID, fmt.Sprintf("resolving stocks: %v", err))
	}
	if len(stocks) == 0 {
		return s.fail(ctx, experimentID, "experiment has no resolvable stocks")
	}

	if err := s.store.MarkRunning(ctx, experimentID); err != nil {
		return err
	}
	s.publish(ctx, kafka.ExperimentEvent{
		Type:         kafka.EventExperimentStarted,
		ExperimentID: experimentID,
	})

	window := model.DateRange{Start: exp.StartDate, End: exp.EndDate}

	jobs := make(chan model.Stock)
	outcomes := make(chan stockOutcome)

	var wg sync.WaitGroup
	for w := 0; w < s.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for stock := range jobs {
				result, err := s.runner.RunForStock(ctx, experimentID, stock, window, exp.Rules, exp.InitialCapital)
				outcomes <- stockOutcome{symbol: stock.Symbol, result: result, err: err}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, stock := range stocks {
			select {
			case jobs <- stock:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	var (
		results   []*model.BacktestResult
		failures  []string
		completed int
		total     = len(stocks)
	)
	for outcome := range outcomes {
		completed++
		if outcome.err != nil {
			s.logger.Warn("Stock excluded from experiment",
				zap.Int("experiment_id", experimentID),
				zap.String("symbol", outcome.symbol),
				zap.Error(outcome.err))
			failures = append(failures, fmt.Sprintf("%s: %v", outcome.symbol, outcome.err))
		} else {
			results = append(results, outcome.result)
		}

		progress := completed * 100 / total
		if err := s.store.UpdateProgress(ctx, experimentID, progress); err != nil {
			s.logger.Warn("Failed to persist progress",
				zap.Int("experiment_id", experimentID),
				zap.Error(err))
		}
		s.publish(ctx, kafka.ExperimentEvent{
			Type:         kafka.EventExperimentProgress,
			ExperimentID: experimentID,
			Progress:     progress,
		})
	}

	if ctx.Err() != nil {
		return s.fail(ctx, experimentID, fmt.Sprintf("experiment interrupted: %v", ctx.Err()))
	}

	if len(results) == 0 {
		msg := fmt.Sprintf("all %d stocks failed; first error: %s", total, failures[0])
		return s.fail(ctx, experimentID, msg)
	}

	aggregate, err := engine.Reduce(results)
	if err != nil {
		return s.fail(ctx, experimentID, fmt.Sprintf("aggregating results: %v", err))
	}
	aggregate.ExperimentID = experimentID

	if err := s.store.Complete(ctx, experimentID, aggregate); err != nil {
		return err
	}
	s.publish(ctx, kafka.ExperimentEvent{
		Type:         kafka.EventExperimentCompleted,
		ExperimentID: experimentID,
		Progress:     100,
	})

	s.logger.Info("Experiment completed",
		zap.Int("experiment_id", experimentID),
		zap.Int("stocks_succeeded", len(results)),
		zap.Int("stocks_failed", len(failures)))

	return nil
}

// fail marks the experiment failed and publishes the matching event
func (s *ExperimentService) fail(ctx context.Context, experimentID int, msg string) error {
	s.logger.Error("Experiment failed",
		zap.Int("experiment_id", experimentID),
		zap.String("reason", msg))

	if err := s.store.Fail(ctx, experimentID, msg); err != nil {
		return err
	}
	s.publish(ctx, kafka.ExperimentEvent{
		Type:         kafka.EventExperimentFailed,
		ExperimentID: experimentID,
		Error:        msg,
	})
	return fmt.Errorf("experiment %d failed: %s", experimentID, msg)
}

// publish sends a lifecycle event, logging instead of failing the run
// when the broker is unavailable.
func (s *ExperimentService) publish(ctx context.Context, event kafka.ExperimentEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishExperimentEvent(ctx, event); err != nil {
		s.logger.Warn("Failed to publish experiment event",
			zap.String("type", event.Type),
			zap.Int("experiment_id", event.ExperimentID),
			zap.Error(err))
	}
}
