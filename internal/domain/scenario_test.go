package domain

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validScenario() ScenarioConfig {
	return ScenarioConfig{
		Name:            "test_ke",
		Years:           []int{2020},
		Months:          []int{6},
		Tods:            []float64{0, 12},
		DT:              1,
		Heights:         []float64{90, 100},
		HorizontalScale: 50,
		DCosThreshold:   0.8,
	}
}

func TestScenarioConfig_Validate(t *testing.T) {
	require.NoError(t, validScenario().Validate())

	cases := map[string]func(*ScenarioConfig){
		"no years":        func(sc *ScenarioConfig) { sc.Years = nil },
		"no months":       func(sc *ScenarioConfig) { sc.Months = []int{} },
		"month 13":        func(sc *ScenarioConfig) { sc.Months = []int{13} },
		"no tods":         func(sc *ScenarioConfig) { sc.Tods = nil },
		"tod 24":          func(sc *ScenarioConfig) { sc.Tods = []float64{24} },
		"no heights":      func(sc *ScenarioConfig) { sc.Heights = nil },
		"zero dt":         func(sc *ScenarioConfig) { sc.DT = 0 },
		"zero ds_h":       func(sc *ScenarioConfig) { sc.HorizontalScale = 0 },
		"dcos above one":  func(sc *ScenarioConfig) { sc.DCosThreshold = 1.5 },
		"nan dt":          func(sc *ScenarioConfig) { sc.DT = math.NaN() },
		"inf dt":          func(sc *ScenarioConfig) { sc.DT = math.Inf(1) },
		"nan ds_h":        func(sc *ScenarioConfig) { sc.HorizontalScale = math.NaN() },
		"inf ds_h":        func(sc *ScenarioConfig) { sc.HorizontalScale = math.Inf(1) },
		"nan dcos":        func(sc *ScenarioConfig) { sc.DCosThreshold = math.NaN() },
		"nan tod":         func(sc *ScenarioConfig) { sc.Tods = []float64{1, math.NaN()} },
		"nan height":      func(sc *ScenarioConfig) { sc.Heights = []float64{math.NaN(), 90} },
		"inf height":      func(sc *ScenarioConfig) { sc.Heights = []float64{90, math.Inf(-1)} },
		"empty name":      func(sc *ScenarioConfig) { sc.Name = "" },
		"name with slash": func(sc *ScenarioConfig) { sc.Name = "../etc" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			sc := validScenario()
			mutate(&sc)
			err := sc.Validate()
			require.Error(t, err)
			assert.True(t, errorIsAny(err, ErrInvalidScenario, ErrInvalidNamespace), "unexpected error %v", err)
		})
	}
}

func TestScenarioConfig_Shape(t *testing.T) {
	nTod, nHeight := validScenario().Shape()
	assert.Equal(t, 2, nTod)
	assert.Equal(t, 2, nHeight)
}

func TestWorkerIdentity(t *testing.T) {
	id := NewWorkerIdentity(0, 3)
	assert.True(t, id.IsCoordinator)
	require.NoError(t, id.Validate())
	assert.Equal(t, "0/3", id.String())

	assert.False(t, NewWorkerIdentity(2, 3).IsCoordinator)
	assert.ErrorIs(t, NewWorkerIdentity(3, 3).Validate(), ErrInvalidIdentity)
	assert.ErrorIs(t, NewWorkerIdentity(0, 0).Validate(), ErrInvalidIdentity)
	assert.ErrorIs(t, NewWorkerIdentity(-1, 2).Validate(), ErrInvalidIdentity)
}

func errorIsAny(err error, targets ...error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
