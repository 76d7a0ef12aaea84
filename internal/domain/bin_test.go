package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(hour, minute int) float64 {
	return float64(time.Date(2020, 6, 1, hour, minute, 0, 0, time.UTC).Unix())
}

func TestHourDistance(t *testing.T) {
	assert.InDelta(t, 1.0, HourDistance(23, 0), 1e-12)
	assert.InDelta(t, 1.0, HourDistance(0, 23), 1e-12)
	assert.InDelta(t, 12.0, HourDistance(0, 12), 1e-12)
	assert.InDelta(t, 0.5, HourDistance(11.5, 12), 1e-12)
}

func TestBinSpec_Contains(t *testing.T) {
	bin := NewBinSpec(validScenario(), 0, 90, time.UTC)

	assert.True(t, bin.Contains(Measurement{T: at(0, 30), Up: 91.5}))
	assert.True(t, bin.Contains(Measurement{T: at(23, 15), Up: 88.0}), "time of day wraps at midnight")
	assert.False(t, bin.Contains(Measurement{T: at(2, 0), Up: 90}), "outside dt")
	assert.False(t, bin.Contains(Measurement{T: at(0, 0), Up: 92.5}), "outside height slab")
}

func TestNewBinSpec(t *testing.T) {
	sc := validScenario()
	sc.DT = 0.5

	bin := NewBinSpec(sc, 12, 100, time.UTC)

	assert.InDelta(t, 100.0, bin.Height, 0)
	assert.InDelta(t, HeightHalfWidth, bin.HeightHalfWidth, 0)
	assert.InDelta(t, VerticalResolution, bin.VerticalResolution, 0)
	assert.InDelta(t, 50.0, bin.HorizontalScale, 0)
	assert.Equal(t, 30*time.Minute, bin.TimeLag)
	assert.True(t, bin.HorizontalWeighting)
	assert.InDelta(t, 12.0, bin.TimeOfDay, 0)
	assert.InDelta(t, 0.5, bin.TimeOfDayHalfWidth, 0)
}

func TestJobResult_Store(t *testing.T) {
	res := NewJobResult(Job{Year: 2020, Month: 6, Day: 1}, validScenario())

	res.Store(1, 0, Estimate{ACF: [6]float64{1, 2, 3, 4, 5, 6}, Err: [6]float64{.1, .2, .3, .4, .5, .6}, Solved: true})
	res.Store(0, 1, Estimate{})

	assert.Equal(t, []int{NumACFComponents, 2, 2}, res.Result.Shape)
	assert.InDelta(t, 3.0, res.Result.Get(2, 1, 0), 0)
	assert.InDelta(t, 0.6, res.Error.Get(5, 1, 0), 0)
	assert.InDelta(t, 1.0, res.Valid.Get(1, 0), 0)
	assert.InDelta(t, 0.0, res.Valid.Get(0, 1), 0, "unsolved estimate is not valid")
}
