package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/meteor-ke-sweep/internal/domain"
)

// Scenarios resolves the scenarios to sweep: SCENARIO_FILE when set,
// otherwise the SCENARIO preset. Every scenario is validated before return.
func (c *Config) Scenarios() ([]domain.ScenarioConfig, error) {
	var (
		scenarios []domain.ScenarioConfig
		err       error
	)
	if c.ScenarioFile != "" {
		scenarios, err = LoadScenarioFile(c.ScenarioFile)
	} else {
		scenarios, err = domain.Preset(c.Scenario)
	}
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(scenarios))
	for _, sc := range scenarios {
		if err := sc.Validate(); err != nil {
			return nil, err
		}
		// A repeated namespace would reset away the earlier scenario's output.
		if seen[sc.Name] {
			return nil, fmt.Errorf("%w: namespace %q listed twice", domain.ErrInvalidScenario, sc.Name)
		}
		seen[sc.Name] = true
	}
	return scenarios, nil
}

// LoadScenarioFile reads a YAML list of scenarios.
func LoadScenarioFile(path string) ([]domain.ScenarioConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}
	return ParseScenarios(data)
}

// ParseScenarios decodes a YAML list of scenarios.
func ParseScenarios(data []byte) ([]domain.ScenarioConfig, error) {
	var scenarios []domain.ScenarioConfig
	if err := yaml.Unmarshal(data, &scenarios); err != nil {
		return nil, fmt.Errorf("parse scenarios: %w", err)
	}
	if len(scenarios) == 0 {
		return nil, fmt.Errorf("%w: scenario file lists no scenarios", domain.ErrInvalidScenario)
	}
	return scenarios, nil
}
