package domain

import (
	"math"
	"time"
)

// NumACFComponents is the length of an ACF estimate: the six independent
// entries of the symmetric wind covariance (uu, vv, ww, uv, uw, vw).
const NumACFComponents = 6

// Fixed bin geometry shared by every sweep.
const (
	HeightHalfWidth    = 2.0 // km
	VerticalResolution = 1.0 // km
)

// BinSpec is the request handed to an ACFEstimator for one (tod, height) cell.
type BinSpec struct {
	Height              float64       // bin centre, km
	HeightHalfWidth     float64       // km
	VerticalResolution  float64       // km
	HorizontalScale     float64       // same unit as measurement positions
	TimeLag             time.Duration // temporal pair half-width
	HorizontalWeighting bool
	TimeOfDay           float64 // hours
	TimeOfDayHalfWidth  float64 // hours
	Location            *time.Location
}

// NewBinSpec builds the bin request for one cell of sc's grid.
func NewBinSpec(sc ScenarioConfig, tod, height float64, loc *time.Location) BinSpec {
	return BinSpec{
		Height:              height,
		HeightHalfWidth:     HeightHalfWidth,
		VerticalResolution:  VerticalResolution,
		HorizontalScale:     sc.HorizontalScale,
		TimeLag:             time.Duration(sc.DT * float64(time.Hour)),
		HorizontalWeighting: true,
		TimeOfDay:           tod,
		TimeOfDayHalfWidth:  sc.DT,
		Location:            loc,
	}
}

// Contains reports whether m falls inside the bin's height slab and
// time-of-day window. Time of day wraps at midnight.
func (b BinSpec) Contains(m Measurement) bool {
	if math.Abs(m.Up-b.Height) > b.HeightHalfWidth {
		return false
	}
	return HourDistance(m.HourOfDay(b.Location), b.TimeOfDay) <= b.TimeOfDayHalfWidth
}

// HourDistance is the circular distance between two hours of day.
func HourDistance(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 24)
	if d > 12 {
		d = 24 - d
	}
	return d
}

// Estimate is an ACFEstimator result for one bin.
type Estimate struct {
	ACF          [NumACFComponents]float64
	Err          [NumACFComponents]float64
	Measurements int  // bin members used
	Pairs        int  // pairs entering the fit
	Solved       bool // false when the fit was underdetermined
}
