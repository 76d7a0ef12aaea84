package domain

import (
	"math"
	"time"
)

// Measurement is one radar-derived wind observation: a radial Doppler
// velocity along the unit vector K, seen at a position and time.
type Measurement struct {
	T     float64    // epoch seconds
	East  float64    // km
	North float64    // km
	Up    float64    // km
	K     [3]float64 // direction cosines (east, north, up)
	V     float64    // radial Doppler velocity, m/s
}

// Time returns T as a time.Time.
func (m Measurement) Time() time.Time {
	sec, frac := math.Modf(m.T)
	return time.Unix(int64(sec), int64(frac*1e9))
}

// HourOfDay returns the time of day of the measurement in hours, [0, 24).
func (m Measurement) HourOfDay(loc *time.Location) float64 {
	if loc == nil {
		loc = time.UTC
	}
	t := m.Time().In(loc)
	h := float64(t.Hour()) + float64(t.Minute())/60 + (float64(t.Second())+float64(t.Nanosecond())/1e9)/3600
	return h
}

// HorizontalCosine is the magnitude of the horizontal part of K.
func (m Measurement) HorizontalCosine() float64 {
	return math.Hypot(m.K[0], m.K[1])
}

// MeasurementSet is the collection of observations read for one time range.
// It is owned by a single worker for the duration of one job.
type MeasurementSet struct {
	From         time.Time
	To           time.Time
	Measurements []Measurement
}

// Len returns the number of measurements in the set.
func (s MeasurementSet) Len() int {
	return len(s.Measurements)
}
