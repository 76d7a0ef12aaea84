package sweep_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/meteor-ke-sweep/internal/artifact"
	"github.com/couchcryptid/meteor-ke-sweep/internal/domain"
	"github.com/couchcryptid/meteor-ke-sweep/internal/observability"
	"github.com/couchcryptid/meteor-ke-sweep/internal/sweep"
)

type harness struct {
	root    string
	store   *windowStore
	est     *constEstimator
	events  *recordingPublisher
	coord   *artifact.Coordinator
	metrics *observability.Metrics
}

func newHarness(t *testing.T, counts map[int]int) *harness {
	t.Helper()
	h := &harness{
		root:    t.TempDir(),
		store:   &windowStore{counts: counts},
		est:     &constEstimator{},
		events:  &recordingPublisher{},
		metrics: observability.NewMetricsForTesting(),
	}
	h.coord = artifact.NewCoordinator(h.root, artifact.NewLocalBarrier(), nil, discardLogger())
	return h
}

func (h *harness) worker(index, count int) *sweep.Worker {
	runner := sweep.NewRunner(h.store, &recordingFilter{}, h.est, time.UTC, discardLogger(), h.metrics)
	return sweep.NewWorker(domain.NewWorkerIdentity(index, count), runner, h.coord, h.events, discardLogger(), h.metrics)
}

func TestWorker_SweepWritesArtifact(t *testing.T) {
	clk := clockwork.NewFakeClockAt(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	domain.SetClock(clk)
	t.Cleanup(func() { domain.SetClock(nil) })

	h := newHarness(t, map[int]int{1: 150, 8: 50, 15: 150, 22: 150})
	w := h.worker(0, 1)
	require.Error(t, w.CheckReadiness(context.Background()))

	sum, err := w.Sweep(context.Background(), testScenario())
	require.NoError(t, err)
	assert.Equal(t, sweep.Summary{
		Jobs:     4,
		Complete: 3,
		Skipped:  1,
		Artifact: filepath.Join(h.root, "june_ke", "ke_res-000000.nc"),
	}, sum)
	require.NoError(t, w.CheckReadiness(context.Background()))

	a, err := artifact.ReadFile(sum.Artifact)
	require.NoError(t, err)
	assert.Equal(t, sweep.Enumerate([]int{2020}, []int{6}), a.Jobs)
	assert.Equal(t, []domain.JobStatus{domain.JobComplete, domain.JobSkipped, domain.JobComplete, domain.JobComplete}, a.Status)
	assert.Equal(t, 1000*12+100.0+5, a.Result.Get(0, 5, 1, 1))
	assert.Zero(t, a.Result.Get(1, 5, 1, 1))
	assert.Equal(t, 1.0, a.Valid.Get(2, 0, 0))
	assert.Zero(t, a.Valid.Get(1, 0, 0))

	events := h.events.Events()
	require.Len(t, events, 4)
	assert.Equal(t, domain.JobEvent{
		Namespace:    "june_ke",
		Worker:       0,
		Workers:      1,
		Job:          domain.Job{Year: 2020, Month: 6, Day: 8},
		Status:       "skipped",
		Measurements: 50,
		At:           clk.Now(),
	}, events[1])
	assert.Equal(t, 4, events[0].BinsComputed)
}

func TestWorker_InvalidScenarioLeavesNamespaceAlone(t *testing.T) {
	h := newHarness(t, nil)
	keep := filepath.Join(h.root, "june_ke", "ke_res-000000.nc")
	require.NoError(t, os.MkdirAll(filepath.Dir(keep), 0o755))
	require.NoError(t, os.WriteFile(keep, []byte("previous run"), 0o600))

	sc := testScenario()
	sc.Months = nil
	_, err := h.worker(0, 1).Sweep(context.Background(), sc)
	require.ErrorIs(t, err, domain.ErrInvalidScenario)

	_, err = h.worker(0, 0).Sweep(context.Background(), testScenario())
	require.ErrorIs(t, err, domain.ErrInvalidIdentity)

	data, err := os.ReadFile(keep)
	require.NoError(t, err)
	assert.Equal(t, "previous run", string(data))
	assert.Empty(t, h.store.reads)
}

func TestWorker_FailedJobIsMarked(t *testing.T) {
	h := newHarness(t, map[int]int{1: 150, 8: 150, 15: 150, 22: 150})
	boom := errors.New("estimator crashed")
	second := time.Date(2020, 6, 8, 0, 0, 0, 0, time.UTC).Add(-time.Hour)
	h.est.fail = func(set domain.MeasurementSet, _ domain.BinSpec) error {
		if set.From.Equal(second) {
			return boom
		}
		return nil
	}

	sum, err := h.worker(0, 1).Sweep(context.Background(), testScenario())
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, sum.Complete)
	assert.Equal(t, 1, sum.Failed)

	a, err := artifact.ReadFile(filepath.Join(h.root, "june_ke", artifact.FileName(0)))
	require.NoError(t, err)
	assert.Equal(t, []domain.JobStatus{domain.JobComplete, domain.JobFailed, domain.JobPending, domain.JobPending}, a.Status)

	events := h.events.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "failed", events[1].Status)
	assert.Contains(t, events[1].Error, "estimator crashed")
	assert.Len(t, h.store.reads, 2, "remaining jobs are abandoned")
}

func TestWorker_CancelledJobIsMarked(t *testing.T) {
	h := newHarness(t, map[int]int{1: 150, 8: 150, 15: 150, 22: 150})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.est.fail = func(domain.MeasurementSet, domain.BinSpec) error {
		cancel()
		return nil
	}

	_, err := h.worker(0, 1).Sweep(ctx, testScenario())
	require.ErrorIs(t, err, context.Canceled)

	a, err := artifact.ReadFile(filepath.Join(h.root, "june_ke", artifact.FileName(0)))
	require.NoError(t, err)
	assert.Equal(t, domain.JobFailed, a.Status[0])
}

func TestWorker_NoJobsWritesNothing(t *testing.T) {
	h := newHarness(t, nil)
	coordinator := h.worker(0, 6)
	idle := h.worker(5, 6)

	// The coordinator resets first so the idle worker's barrier opens.
	done := make(chan error, 1)
	go func() {
		_, err := idle.Sweep(context.Background(), testScenario())
		done <- err
	}()
	_, err := coordinator.Sweep(context.Background(), testScenario())
	require.NoError(t, err)
	require.NoError(t, <-done)

	require.NoError(t, idle.CheckReadiness(context.Background()))
	_, err = os.Stat(filepath.Join(h.root, "june_ke", artifact.FileName(5)))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(h.root, "june_ke", artifact.FileName(0)))
	assert.NoError(t, err)
}

func TestWorker_PublishFailureDoesNotStopSweep(t *testing.T) {
	h := newHarness(t, map[int]int{1: 150})
	h.events.err = errors.New("broker down")

	sum, err := h.worker(0, 1).Sweep(context.Background(), testScenario())
	require.NoError(t, err)
	assert.Equal(t, 4, sum.Complete+sum.Skipped)
	assert.Len(t, h.events.Events(), 4)
}
