// Package evaluate decides the target replica count of a workload from its
// latency snapshot and drives the decay counter kept in a decay.Store.
//
// One evaluation goes through three phases, always in this order:
//
//  1. Targets: any request whose observed statistic exceeds its threshold
//     raises the target to current+1. Breaches never compound.
//  2. Decay: when no target breached and the stored counter has reached
//     Decay.UnchangedRuns, the target drops by Decay.Replicas. No floor is
//     applied; clamping belongs to the caller.
//  3. Persist: outside dry-run, the counter is incremented when the target
//     equals the current count and reset to zero otherwise.
//
// Any error aborts the evaluation before phase 3, so a failed evaluation
// never writes state.
package evaluate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/HatiCode/latencyscaler/pkg/decay"
	"github.com/HatiCode/latencyscaler/pkg/metric"
)

// RunMode distinguishes real evaluations from speculative ones.
type RunMode string

// DryRun evaluates without touching the decay record.
const DryRun RunMode = "api_dry_run"

// IsDryRun reports whether m suppresses decay state mutation.
func (m RunMode) IsDryRun() bool { return m == DryRun }

// Decision is the full outcome of an evaluation.
type Decision struct {
	Current int
	Target  int
	// Breaches lists the request keys whose threshold was exceeded.
	Breaches []string
	// Decayed is true when the decay step lowered the target.
	Decayed bool
	// Previous is the decay state read before deciding.
	Previous decay.State
	// Next is the state written back; equal to Previous when not persisted.
	Next      decay.State
	Persisted bool
}

// Changed reports whether the decision moves away from the current count.
func (d Decision) Changed() bool { return d.Target != d.Current }

// Engine evaluates one resource against its configuration.
type Engine struct {
	cfg    *Config
	store  decay.Store
	logger *slog.Logger
}

// New creates an Engine. A nil logger falls back to slog.Default.
func New(cfg *Config, store decay.Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		cfg:    cfg,
		store:  store,
		logger: logger,
	}
}

// Evaluate returns the target replica count for snapshot.
func (e *Engine) Evaluate(ctx context.Context, snapshot metric.Snapshot, mode RunMode) (int, error) {
	d, err := e.Decide(ctx, snapshot, mode)
	if err != nil {
		return 0, err
	}
	return d.Target, nil
}

// Decide runs the evaluation and returns every intermediate result.
func (e *Engine) Decide(ctx context.Context, snapshot metric.Snapshot, mode RunMode) (Decision, error) {
	d := Decision{Current: snapshot.CurrentReplicas}

	target, breaches, err := determineTarget(snapshot, e.cfg.Targets)
	if err != nil {
		return Decision{}, err
	}
	d.Target = target
	d.Breaches = breaches

	prev, err := e.store.Get(ctx)
	if err != nil {
		return Decision{}, fmt.Errorf("get decay state: %w", err)
	}
	d.Previous = prev
	d.Next = prev

	if d.Target == d.Current && prev.RunsSinceChange >= e.cfg.Decay.UnchangedRuns {
		d.Target = d.Current - e.cfg.Decay.Replicas
		d.Decayed = true
	}

	if !mode.IsDryRun() {
		next := decay.State{RunsSinceChange: 0}
		if d.Target == d.Current {
			next.RunsSinceChange = prev.RunsSinceChange + 1
		}
		if err := e.store.Update(ctx, next); err != nil {
			return Decision{}, fmt.Errorf("update decay state: %w", err)
		}
		d.Next = next
		d.Persisted = true
	}

	e.logger.Debug("evaluation decided",
		"current", d.Current,
		"target", d.Target,
		"breaches", d.Breaches,
		"decayed", d.Decayed,
		"runs_since_change", d.Next.RunsSinceChange,
		"run_mode", string(mode),
	)

	return d, nil
}

// determineTarget compares every target with its observed statistic.
func determineTarget(snapshot metric.Snapshot, targets []Target) (int, []string, error) {
	current := snapshot.CurrentReplicas
	target := current
	var breaches []string

	for _, t := range targets {
		key := metric.RequestKey(t.Method, t.Endpoint)
		stats, ok := snapshot.Requests[key]
		if !ok {
			return 0, nil, &ConfigMismatchError{Key: key}
		}

		observed, err := observedValue(stats, t.Type)
		if err != nil {
			return 0, nil, err
		}

		if observed > t.Target {
			target = current + 1
			breaches = append(breaches, key)
		}
	}

	return target, breaches, nil
}

func observedValue(stats metric.RequestStats, typ TargetType) (float64, error) {
	switch typ {
	case TargetMean:
		return stats.AvgResponseTime, nil
	case TargetMedian:
		return stats.MedianResponseTime, nil
	case TargetMax:
		return stats.MaxResponseTime, nil
	default:
		return 0, &UnknownTargetTypeError{Type: typ}
	}
}
