package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HatiCode/latencyscaler/pkg/metric"
)

func TestDecodeEvaluateRequest(t *testing.T) {
	payload := `{
		"metrics": [{"resource": "api", "value": "{\"current_replicas\":3,\"requests\":{\"GET_/login\":{\"avg_response_time\":120,\"median_response_time\":100,\"max_response_time\":400}}}"}],
		"run_type": "scaler"
	}`

	req, err := DecodeEvaluateRequest([]byte(payload))
	require.NoError(t, err)
	assert.Equal(t, "scaler", req.RunType)

	snapshot, err := req.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 3, snapshot.CurrentReplicas)
	assert.Equal(t, metric.RequestStats{AvgResponseTime: 120, MedianResponseTime: 100, MaxResponseTime: 400}, snapshot.Requests["GET_/login"])
}

func TestEvaluateRequest_SnapshotErrors(t *testing.T) {
	tests := []struct {
		name    string
		req     EvaluateRequest
		wantErr error
	}{
		{name: "no metrics", req: EvaluateRequest{RunType: "scaler"}, wantErr: ErrNoMetrics},
		{name: "value is not json", req: EvaluateRequest{Metrics: []MetricValue{{Value: "fast"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.req.Snapshot()
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestDecodeEvaluateRequest_Malformed(t *testing.T) {
	_, err := DecodeEvaluateRequest([]byte(`{"metrics":`))
	assert.Error(t, err)
}

func TestNewEvaluateRequest(t *testing.T) {
	snapshot := metric.Snapshot{
		CurrentReplicas: 2,
		Requests:        map[string]metric.RequestStats{"POST_/checkout": {MaxResponseTime: 900}},
	}

	req, err := NewEvaluateRequest(snapshot, "api_dry_run")
	require.NoError(t, err)
	require.Len(t, req.Metrics, 1)
	assert.Equal(t, "api_dry_run", req.RunType)

	got, err := req.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, snapshot, got)
}
