package main

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/HatiCode/latencyscaler/cmd/latencyscaler/metrics"
	"github.com/HatiCode/latencyscaler/cmd/latencyscaler/store"
	"github.com/HatiCode/latencyscaler/pkg/decay"
	"github.com/HatiCode/latencyscaler/pkg/evaluate"
	"github.com/HatiCode/latencyscaler/pkg/metric"
)

// StoreProvider hands out the decay store of a resource.
type StoreProvider interface {
	For(resource string) (decay.Store, error)
}

// Evaluator runs the decision engine for many resources, each with its own
// decay record. Evaluations run one at a time.
type Evaluator struct {
	cfg     *evaluate.Config
	stores  StoreProvider
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu sync.Mutex
}

// NewEvaluator creates an Evaluator. m may be nil to disable instrumentation.
func NewEvaluator(cfg *evaluate.Config, stores StoreProvider, logger *slog.Logger, m *metrics.Metrics) *Evaluator {
	return &Evaluator{
		cfg:     cfg,
		stores:  stores,
		logger:  logger,
		metrics: m,
	}
}

// Evaluate returns the target replica count of resource for snapshot. The
// evaluation duration is observed for failed evaluations too.
func (e *Evaluator) Evaluate(ctx context.Context, resource string, snapshot metric.Snapshot, mode evaluate.RunMode) (int, error) {
	start := time.Now()
	defer e.observeDuration(start)

	s, err := e.stores.For(resource)
	if err != nil {
		e.recordError(err)
		return 0, err
	}

	e.mu.Lock()
	d, err := evaluate.New(e.cfg, s, e.logger.With("resource", resource)).Decide(ctx, snapshot, mode)
	e.mu.Unlock()

	if err != nil {
		e.logger.Error("evaluation failed", "resource", resource, "error", err)
		e.recordError(err)
		return 0, err
	}

	e.logger.Info("evaluation completed",
		"resource", resource,
		"current_replicas", d.Current,
		"target_replicas", d.Target,
		"breaches", len(d.Breaches),
		"decayed", d.Decayed,
		"run_mode", string(mode),
	)
	e.record(resource, mode, d)

	return d.Target, nil
}

func (e *Evaluator) observeDuration(start time.Time) {
	if e.metrics == nil {
		return
	}
	e.metrics.ObserveEvaluationDuration(time.Since(start).Seconds())
}

func (e *Evaluator) record(resource string, mode evaluate.RunMode, d evaluate.Decision) {
	if e.metrics == nil {
		return
	}
	e.metrics.RecordEvaluation(string(mode), outcome(d))
	e.metrics.SetTargetReplicas(resource, d.Target)
	for _, key := range d.Breaches {
		e.metrics.RecordBreach(key)
	}
	if d.Decayed {
		e.metrics.RecordDecay(resource)
	}
	if d.Persisted {
		e.metrics.SetRunsSinceChange(resource, d.Next.RunsSinceChange)
	}
}

func (e *Evaluator) recordError(err error) {
	if e.metrics == nil {
		return
	}
	e.metrics.RecordError(errorKind(err))
}

func outcome(d evaluate.Decision) string {
	switch {
	case d.Target > d.Current:
		return "up"
	case d.Target < d.Current:
		return "down"
	default:
		return "unchanged"
	}
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, store.ErrInvalidResource):
		return "resource"
	case errors.Is(err, evaluate.ErrConfigMismatch), errors.Is(err, evaluate.ErrUnknownTargetType):
		return "config"
	case errors.Is(err, decay.ErrStorageRead), errors.Is(err, decay.ErrStorageWrite), errors.Is(err, decay.ErrStorageParse):
		return "storage"
	default:
		return "other"
	}
}
