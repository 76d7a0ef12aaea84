package domain

import (
	"context"
	"time"
)

// MeasurementStore serves wind measurements by time range.
type MeasurementStore interface {
	// Bounds returns the global time extent of available data.
	Bounds(ctx context.Context) (time.Time, time.Time, error)

	// Read returns every measurement with t0 <= t <= t1. Implementations
	// should order them by time; consumers must not rely on it.
	Read(ctx context.Context, t0, t1 time.Time) (MeasurementSet, error)
}

// DirectionCosineFilter drops measurements whose viewing geometry is too poor
// to constrain the wind components.
type DirectionCosineFilter interface {
	Apply(set MeasurementSet, threshold float64) MeasurementSet
}

// ACFEstimator computes the six-component ACF of one bin.
type ACFEstimator interface {
	Compute(ctx context.Context, set MeasurementSet, bin BinSpec) (Estimate, error)
}
