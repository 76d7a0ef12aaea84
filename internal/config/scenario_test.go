package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/meteor-ke-sweep/internal/domain"
)

const scenarioYAML = `
- name: june_ke
  years: [2020]
  months: [6]
  tods: [0, 12]
  dt: 1
  heights: [90, 100]
  ds_h: 50
  dcos_thresh: 0.8
- name: july_ke
  years: [2019, 2020]
  months: [7]
  tods: [6]
  dt: 0.5
  heights: [85]
  ds_h: 500
  dcos_thresh: 0.7
`

func TestParseScenarios(t *testing.T) {
	scenarios, err := ParseScenarios([]byte(scenarioYAML))
	require.NoError(t, err)

	want := []domain.ScenarioConfig{
		{Name: "june_ke", Years: []int{2020}, Months: []int{6}, Tods: []float64{0, 12}, DT: 1, Heights: []float64{90, 100}, HorizontalScale: 50, DCosThreshold: 0.8},
		{Name: "july_ke", Years: []int{2019, 2020}, Months: []int{7}, Tods: []float64{6}, DT: 0.5, Heights: []float64{85}, HorizontalScale: 500, DCosThreshold: 0.7},
	}
	if diff := cmp.Diff(want, scenarios); diff != "" {
		t.Fatalf("scenarios mismatch (-want +got):\n%s", diff)
	}
}

func TestParseScenarios_Empty(t *testing.T) {
	_, err := ParseScenarios([]byte("[]"))
	assert.ErrorIs(t, err, domain.ErrInvalidScenario)
}

func TestParseScenarios_Malformed(t *testing.T) {
	_, err := ParseScenarios([]byte("name: [unterminated"))
	require.Error(t, err)
}

func TestConfig_ScenariosFromFileValidates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenarios.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- name: bad\n  years: []\n  months: [6]\n"), 0o600))

	cfg := &Config{ScenarioFile: path, Scenario: "summer_small"}
	_, err := cfg.Scenarios()
	assert.ErrorIs(t, err, domain.ErrInvalidScenario)
}

func TestConfig_ScenariosRejectsRepeatedNamespace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenarios.yaml")
	doc := scenarioYAML + `- name: june_ke
  years: [2021]
  months: [6]
  tods: [0]
  dt: 1
  heights: [90]
  ds_h: 50
  dcos_thresh: 0.8
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	cfg := &Config{ScenarioFile: path}
	_, err := cfg.Scenarios()
	assert.ErrorIs(t, err, domain.ErrInvalidScenario)
}

func TestConfig_ScenariosFromPreset(t *testing.T) {
	cfg := &Config{Scenario: "monthly_small"}
	scenarios, err := cfg.Scenarios()
	require.NoError(t, err)
	assert.Len(t, scenarios, 12)
}

func TestConfig_ScenariosRejectsNonFinite(t *testing.T) {
	tests := map[string]string{
		"nan dt":      "dt: .nan\n  ds_h: 50\n  heights: [90]\n  tods: [0]",
		"inf ds_h":    "dt: 1\n  ds_h: .inf\n  heights: [90]\n  tods: [0]",
		"nan height":  "dt: 1\n  ds_h: 50\n  heights: [90, .nan]\n  tods: [0]",
		"neg inf tod": "dt: 1\n  ds_h: 50\n  heights: [90]\n  tods: [-.inf]",
	}
	for name, fields := range tests {
		t.Run(name, func(t *testing.T) {
			doc := "- name: odd_ke\n  years: [2020]\n  months: [6]\n  dcos_thresh: 0.8\n  " + fields + "\n"
			path := filepath.Join(t.TempDir(), "scenarios.yaml")
			require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

			cfg := &Config{ScenarioFile: path}
			_, err := cfg.Scenarios()
			assert.ErrorIs(t, err, domain.ErrInvalidScenario)
		})
	}
}
