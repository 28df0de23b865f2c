// Package metric gathers the per-tick metric snapshot fed to the decision engine.
//
// A load source executes a measurement pass and reports aggregated latency
// statistics per request. The Gatherer attaches the current replica count read
// from the Kubernetes resource being scaled.
package metric

import (
	"context"
	"fmt"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	utiljson "k8s.io/apimachinery/pkg/util/json"
)

// RequestStats holds aggregated response times, in milliseconds, for one request.
type RequestStats struct {
	AvgResponseTime    float64 `json:"avg_response_time"`
	MedianResponseTime float64 `json:"median_response_time"`
	MaxResponseTime    float64 `json:"max_response_time"`
}

// Snapshot is the input of a single evaluation.
type Snapshot struct {
	CurrentReplicas int                     `json:"current_replicas"`
	Requests        map[string]RequestStats `json:"requests"`
}

// RequestKey builds the snapshot key of a request, e.g. "GET_/login".
func RequestKey(method, endpoint string) string {
	return fmt.Sprintf("%s_%s", method, endpoint)
}

// LoadTester is a source of request statistics.
type LoadTester interface {
	// Run executes a measurement pass.
	Run(ctx context.Context) error
	// Stats returns the statistics of the last pass keyed by RequestKey.
	Stats(ctx context.Context) (map[string]RequestStats, error)
}

// Gatherer produces snapshots from a LoadTester.
type Gatherer struct {
	tester LoadTester
}

// NewGatherer returns a Gatherer backed by tester.
func NewGatherer(tester LoadTester) *Gatherer {
	return &Gatherer{tester: tester}
}

// Get runs a measurement pass and returns its snapshot. resource is the JSON
// definition of the scaled Kubernetes resource; its spec.replicas becomes the
// snapshot's current replica count.
func (g *Gatherer) Get(ctx context.Context, resource []byte) (Snapshot, error) {
	replicas, err := CurrentReplicas(resource)
	if err != nil {
		return Snapshot{}, err
	}

	if err := g.tester.Run(ctx); err != nil {
		return Snapshot{}, fmt.Errorf("run load test: %w", err)
	}

	stats, err := g.tester.Stats(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("get load test stats: %w", err)
	}
	if stats == nil {
		stats = map[string]RequestStats{}
	}

	return Snapshot{
		CurrentReplicas: replicas,
		Requests:        stats,
	}, nil
}

// CurrentReplicas reads spec.replicas from a Kubernetes resource definition.
func CurrentReplicas(resource []byte) (int, error) {
	// utiljson keeps whole numbers as int64, which NestedInt64 requires.
	obj := &unstructured.Unstructured{}
	if err := utiljson.Unmarshal(resource, &obj.Object); err != nil {
		return 0, fmt.Errorf("decode resource: %w", err)
	}

	replicas, found, err := unstructured.NestedInt64(obj.Object, "spec", "replicas")
	if err != nil {
		return 0, fmt.Errorf("read spec.replicas of %s/%s: %w", obj.GetKind(), obj.GetName(), err)
	}
	if !found {
		return 0, fmt.Errorf("resource %s/%s has no spec.replicas", obj.GetKind(), obj.GetName())
	}
	if replicas < 0 {
		return 0, fmt.Errorf("resource %s/%s has negative spec.replicas %d", obj.GetKind(), obj.GetName(), replicas)
	}

	return int(replicas), nil
}
