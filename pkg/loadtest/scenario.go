package loadtest

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Request is one HTTP call issued by a virtual user.
type Request struct {
	Method  string            `yaml:"method" validate:"required"`
	Path    string            `yaml:"path" validate:"required,startswith=/"`
	Body    string            `yaml:"body"`
	Headers map[string]string `yaml:"headers"`
}

// Scenario is the ordered list of requests each virtual user cycles through.
type Scenario struct {
	Requests []Request `yaml:"requests" validate:"min=1,dive"`
}

var validate = validator.New()

// ParseScenario decodes and validates a YAML scenario.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("yaml.Unmarshal: %w", err)
	}
	if err := validate.Struct(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

// LoadScenario reads the YAML scenario at path.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path) // nolint: gosec
	if err != nil {
		return nil, fmt.Errorf("os.ReadFile: %w", err)
	}
	return ParseScenario(data)
}
