// Package acf holds reference implementations of the sweep's numerical
// collaborators: the direction-cosine filter and a pair-covariance ACF
// estimator.
package acf

import "github.com/couchcryptid/meteor-ke-sweep/internal/domain"

// HorizontalCosineFilter keeps measurements whose horizontal direction cosine
// magnitude is at least the threshold. Near-vertical echoes carry almost no
// horizontal wind information.
type HorizontalCosineFilter struct{}

func (HorizontalCosineFilter) Apply(set domain.MeasurementSet, threshold float64) domain.MeasurementSet {
	out := domain.MeasurementSet{From: set.From, To: set.To}
	out.Measurements = make([]domain.Measurement, 0, len(set.Measurements))
	for _, m := range set.Measurements {
		if m.HorizontalCosine() >= threshold {
			out.Measurements = append(out.Measurements, m)
		}
	}
	return out
}
