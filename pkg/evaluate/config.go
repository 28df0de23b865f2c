package evaluate

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// TargetType selects which latency statistic a Target is compared against.
type TargetType string

const (
	TargetMean   TargetType = "mean"
	TargetMedian TargetType = "median"
	TargetMax    TargetType = "max"
)

// Target is a latency threshold for a single request.
type Target struct {
	Method   string     `yaml:"method" json:"method" validate:"required"`
	Endpoint string     `yaml:"endpoint" json:"endpoint" validate:"required"`
	Type     TargetType `yaml:"type" json:"type"`
	Target   float64    `yaml:"target" json:"target"`
}

// DecayConfig controls scale-down after a quiet period.
type DecayConfig struct {
	// Replicas is how many replicas are removed when decay fires.
	Replicas int `yaml:"replicas" json:"replicas" validate:"gt=0"`
	// UnchangedRuns is how many consecutive unchanged evaluations must pass
	// before decay fires.
	UnchangedRuns int `yaml:"unchangedRuns" json:"unchangedRuns" validate:"gt=0"`
}

// Config is the static evaluation configuration of one resource.
type Config struct {
	Targets []Target    `yaml:"targets" json:"targets" validate:"dive"`
	Decay   DecayConfig `yaml:"decay" json:"decay"`
}

var validate = validator.New()

// Validate checks the structural rules of the configuration. Target types are
// not checked here; an unknown type fails the evaluation that meets it.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid evaluation config: %w", err)
	}
	return nil
}

// ParseConfig decodes and validates a YAML evaluation configuration.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("yaml.Unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadConfig reads the YAML evaluation configuration at path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path) // nolint: gosec
	if err != nil {
		return nil, fmt.Errorf("os.ReadFile: %w", err)
	}
	return ParseConfig(data)
}
