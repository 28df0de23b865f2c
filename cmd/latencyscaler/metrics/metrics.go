// Package metrics provides Prometheus metrics instrumentation for latencyscaler.
//
// It exposes operational metrics about evaluations, breached targets and the
// cooldown (decay) state of every scaled resource. All metrics are exposed
// via the /metrics HTTP endpoint of serve mode for Prometheus scraping.
//
// Metrics exposed:
//   - latencyscaler_evaluations_total: Counter of evaluations by run mode and outcome
//   - latencyscaler_evaluation_duration_seconds: Histogram of evaluation durations
//   - latencyscaler_target_replicas: Gauge of the last target returned per resource
//   - latencyscaler_runs_since_change: Gauge of the persisted decay counter per resource
//   - latencyscaler_target_breaches_total: Counter of breached targets by request key
//   - latencyscaler_decay_events_total: Counter of scale-downs caused by decay
//   - latencyscaler_errors_total: Counter of failed evaluations by error kind
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	EvaluationsTotal   *prometheus.CounterVec
	EvaluationDuration prometheus.Histogram
	TargetReplicas     *prometheus.GaugeVec
	RunsSinceChange    *prometheus.GaugeVec
	TargetBreaches     *prometheus.CounterVec
	DecayEvents        *prometheus.CounterVec
	Errors             *prometheus.CounterVec
}

func New() *Metrics {
	return &Metrics{
		EvaluationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "latencyscaler_evaluations_total",
			Help: "Total number of evaluations by run mode and outcome (up, down, unchanged)",
		}, []string{"run_mode", "outcome"}),

		EvaluationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "latencyscaler_evaluation_duration_seconds",
			Help:    "Duration of evaluations including decay store access",
			Buckets: prometheus.DefBuckets,
		}),

		TargetReplicas: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "latencyscaler_target_replicas",
			Help: "Last target replica count returned per resource",
		}, []string{"resource"}),

		RunsSinceChange: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "latencyscaler_runs_since_change",
			Help: "Consecutive evaluations without a replica change per resource",
		}, []string{"resource"}),

		TargetBreaches: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "latencyscaler_target_breaches_total",
			Help: "Total number of breached latency targets by request key",
		}, []string{"request"}),

		DecayEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "latencyscaler_decay_events_total",
			Help: "Total number of scale-downs applied by decay per resource",
		}, []string{"resource"}),

		Errors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "latencyscaler_errors_total",
			Help: "Total number of failed evaluations by error kind",
		}, []string{"kind"}),
	}
}

func (m *Metrics) RecordEvaluation(runMode, outcome string) {
	m.EvaluationsTotal.WithLabelValues(runMode, outcome).Inc()
}

func (m *Metrics) ObserveEvaluationDuration(seconds float64) {
	m.EvaluationDuration.Observe(seconds)
}

func (m *Metrics) SetTargetReplicas(resource string, replicas int) {
	m.TargetReplicas.WithLabelValues(resource).Set(float64(replicas))
}

func (m *Metrics) SetRunsSinceChange(resource string, runs int) {
	m.RunsSinceChange.WithLabelValues(resource).Set(float64(runs))
}

func (m *Metrics) RecordBreach(request string) {
	m.TargetBreaches.WithLabelValues(request).Inc()
}

func (m *Metrics) RecordDecay(resource string) {
	m.DecayEvents.WithLabelValues(resource).Inc()
}

func (m *Metrics) RecordError(kind string) {
	m.Errors.WithLabelValues(kind).Inc()
}
