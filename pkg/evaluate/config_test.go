package evaluate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
targets:
  - method: GET
    endpoint: /
    type: mean
    target: 50
  - method: POST
    endpoint: /login
    type: max
    target: 250.5
decay:
  replicas: 1
  unchangedRuns: 5
`

func TestParseConfig(t *testing.T) {
	cfg, err := ParseConfig([]byte(sampleConfig))
	require.NoError(t, err)

	want := &Config{
		Targets: []Target{
			{Method: "GET", Endpoint: "/", Type: TargetMean, Target: 50},
			{Method: "POST", Endpoint: "/login", Type: TargetMax, Target: 250.5},
		},
		Decay: DecayConfig{Replicas: 1, UnchangedRuns: 5},
	}
	assert.Equal(t, want, cfg)
}

func TestParseConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{
			name: "not yaml",
			data: "targets: [",
		},
		{
			name: "missing decay",
			data: "targets: []",
		},
		{
			name: "zero decay replicas",
			data: "decay: {replicas: 0, unchangedRuns: 3}",
		},
		{
			name: "negative unchanged runs",
			data: "decay: {replicas: 1, unchangedRuns: -1}",
		},
		{
			name: "target without endpoint",
			data: "targets: [{method: GET, type: mean, target: 1}]\ndecay: {replicas: 1, unchangedRuns: 3}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestParseConfig_UnknownTypeIsDeferred(t *testing.T) {
	data := "targets: [{method: GET, endpoint: /, type: p99, target: 1}]\ndecay: {replicas: 1, unchangedRuns: 3}"

	cfg, err := ParseConfig([]byte(data))
	require.NoError(t, err)
	assert.Equal(t, TargetType("p99"), cfg.Targets[0].Type)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "evaluation_config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Targets, 2)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "os.ReadFile")
}
