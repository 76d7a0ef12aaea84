package store

import (
	"context"
	"sort"
	"time"

	"github.com/couchcryptid/meteor-ke-sweep/internal/domain"
)

// Memory is an in-memory MeasurementStore.
type Memory struct {
	ms []domain.Measurement // sorted by T
}

// NewMemory returns a store serving a sorted copy of ms.
func NewMemory(ms ...domain.Measurement) *Memory {
	sorted := append([]domain.Measurement(nil), ms...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].T < sorted[j].T })
	return &Memory{ms: sorted}
}

func (s *Memory) Bounds(_ context.Context) (time.Time, time.Time, error) {
	if len(s.ms) == 0 {
		return time.Time{}, time.Time{}, ErrNoData
	}
	return s.ms[0].Time(), s.ms[len(s.ms)-1].Time(), nil
}

func (s *Memory) Read(_ context.Context, t0, t1 time.Time) (domain.MeasurementSet, error) {
	lo, hi := float64(t0.UnixNano())/1e9, float64(t1.UnixNano())/1e9
	i := sort.Search(len(s.ms), func(i int) bool { return s.ms[i].T >= lo })
	j := sort.Search(len(s.ms), func(j int) bool { return s.ms[j].T > hi })
	set := domain.MeasurementSet{From: t0, To: t1}
	if i < j {
		set.Measurements = append([]domain.Measurement(nil), s.ms[i:j]...)
	}
	return set, nil
}
