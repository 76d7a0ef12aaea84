package sweep_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/meteor-ke-sweep/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// windowStore serves a fixed number of synthetic measurements per job window,
// keyed by the job's start day. Measurements alternate between tods 0 and 12
// and heights 90 and 100 so every bin of testScenario has members.
type windowStore struct {
	counts map[int]int // day of month -> measurements
	err    error

	mu    sync.Mutex
	reads [][2]time.Time
}

func (s *windowStore) Bounds(context.Context) (time.Time, time.Time, error) {
	return time.Time{}, time.Time{}, errors.New("not used")
}

func (s *windowStore) Read(_ context.Context, t0, t1 time.Time) (domain.MeasurementSet, error) {
	s.mu.Lock()
	s.reads = append(s.reads, [2]time.Time{t0, t1})
	s.mu.Unlock()
	if s.err != nil {
		return domain.MeasurementSet{}, s.err
	}

	start := t0.Add(domain.WindowPad)
	n := s.counts[start.Day()]
	set := domain.MeasurementSet{From: t0, To: t1, Measurements: make([]domain.Measurement, 0, n)}
	for k := 0; k < n; k++ {
		hour := []int{0, 12}[k%2]
		up := []float64{90, 100}[(k/2)%2]
		at := start.AddDate(0, 0, (k/4)%7).Add(time.Duration(hour)*time.Hour + time.Duration(k)*time.Second)
		set.Measurements = append(set.Measurements, domain.Measurement{
			T:  float64(at.Unix()),
			Up: up,
			K:  [3]float64{1, 0, 0},
			V:  1,
		})
	}
	return set, nil
}

type recordingFilter struct {
	mu         sync.Mutex
	thresholds []float64
}

func (f *recordingFilter) Apply(set domain.MeasurementSet, threshold float64) domain.MeasurementSet {
	f.mu.Lock()
	f.thresholds = append(f.thresholds, threshold)
	f.mu.Unlock()
	return set
}

type binCall struct {
	From time.Time
	Bin  domain.BinSpec
}

// constEstimator returns ACF[c] = 1000*tod + height + c so tests can tell
// which bin produced a cell.
type constEstimator struct {
	fail func(set domain.MeasurementSet, bin domain.BinSpec) error

	mu    sync.Mutex
	calls []binCall
}

func (e *constEstimator) Compute(_ context.Context, set domain.MeasurementSet, bin domain.BinSpec) (domain.Estimate, error) {
	e.mu.Lock()
	e.calls = append(e.calls, binCall{From: set.From, Bin: bin})
	e.mu.Unlock()
	if e.fail != nil {
		if err := e.fail(set, bin); err != nil {
			return domain.Estimate{}, err
		}
	}
	est := domain.Estimate{Measurements: set.Len(), Pairs: set.Len(), Solved: true}
	for c := 0; c < domain.NumACFComponents; c++ {
		est.ACF[c] = 1000*bin.TimeOfDay + bin.Height + float64(c)
		est.Err[c] = 0.25
	}
	return est, nil
}

func (e *constEstimator) Calls() []binCall {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]binCall(nil), e.calls...)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.JobEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event domain.JobEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) Events() []domain.JobEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.JobEvent(nil), p.events...)
}

func testScenario() domain.ScenarioConfig {
	return domain.ScenarioConfig{
		Name:            "june_ke",
		Years:           []int{2020},
		Months:          []int{6},
		Tods:            []float64{0, 12},
		DT:              1,
		Heights:         []float64{90, 100},
		HorizontalScale: 50,
		DCosThreshold:   0.8,
	}
}
