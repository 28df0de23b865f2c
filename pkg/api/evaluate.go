// Package api defines the JSON payloads exchanged with the evaluate command
// and the evaluate endpoint of serve mode. The shapes follow the Custom Pod
// Autoscaler contract: metric values travel as JSON-encoded strings.
package api

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/HatiCode/latencyscaler/pkg/metric"
)

// ErrNoMetrics is returned when an evaluation request carries no metric value.
var ErrNoMetrics = errors.New("no metrics in evaluation request")

// MetricValue holds one gathered snapshot, JSON-encoded as a string.
type MetricValue struct {
	Resource string `json:"resource,omitempty"`
	Value    string `json:"value"`
}

// EvaluateRequest is the input of an evaluation.
type EvaluateRequest struct {
	Metrics []MetricValue `json:"metrics"`
	RunType string        `json:"run_type"`
}

// EvaluateResponse is the output of an evaluation.
type EvaluateResponse struct {
	TargetReplicas int `json:"target_replicas"`
}

// NewEvaluateRequest encodes snapshot into a request for the given run type.
func NewEvaluateRequest(snapshot metric.Snapshot, runType string) (*EvaluateRequest, error) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return &EvaluateRequest{
		Metrics: []MetricValue{{Value: string(data)}},
		RunType: runType,
	}, nil
}

// Snapshot decodes the first metric value. Further values are ignored.
func (r *EvaluateRequest) Snapshot() (metric.Snapshot, error) {
	if len(r.Metrics) == 0 {
		return metric.Snapshot{}, ErrNoMetrics
	}
	var snapshot metric.Snapshot
	if err := json.Unmarshal([]byte(r.Metrics[0].Value), &snapshot); err != nil {
		return metric.Snapshot{}, fmt.Errorf("decode metric value: %w", err)
	}
	return snapshot, nil
}

// DecodeEvaluateRequest parses data into a request.
func DecodeEvaluateRequest(data []byte) (*EvaluateRequest, error) {
	var req EvaluateRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("decode evaluation request: %w", err)
	}
	return &req, nil
}
