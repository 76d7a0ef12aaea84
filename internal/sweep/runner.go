package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/meteor-ke-sweep/internal/domain"
	"github.com/couchcryptid/meteor-ke-sweep/internal/observability"
)

// MinJobMeasurements is the raw window count a job must exceed to be swept.
const MinJobMeasurements = 100

// Runner sweeps the bin grid of one job.
type Runner struct {
	store     domain.MeasurementStore
	filter    domain.DirectionCosineFilter
	estimator domain.ACFEstimator
	loc       *time.Location
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewRunner creates a Runner. Windows and times of day are computed in loc.
func NewRunner(store domain.MeasurementStore, filter domain.DirectionCosineFilter, estimator domain.ACFEstimator, loc *time.Location, logger *slog.Logger, metrics *observability.Metrics) *Runner {
	if loc == nil {
		loc = time.UTC
	}
	return &Runner{
		store:     store,
		filter:    filter,
		estimator: estimator,
		loc:       loc,
		logger:    logger,
		metrics:   metrics,
	}
}

// Run reads the job's padded window and fills one result cell per
// (tod, height) bin. A window with too few raw measurements is returned
// skipped with every cell zero. Store and estimator errors abort the job.
func (r *Runner) Run(ctx context.Context, job domain.Job, sc domain.ScenarioConfig) (domain.JobResult, error) {
	t0, t1 := job.Window(r.loc)
	set, err := r.store.Read(ctx, t0, t1)
	if err != nil {
		return domain.JobResult{}, fmt.Errorf("read window of %s: %w", job, err)
	}

	result := domain.NewJobResult(job, sc)
	result.Measurements = set.Len()
	r.metrics.JobMeasurement.Observe(float64(set.Len()))

	if set.Len() <= MinJobMeasurements {
		result.Status = domain.JobSkipped
		return result, nil
	}

	filtered := r.filter.Apply(set, sc.DCosThreshold)
	for ti, tod := range sc.Tods {
		for hi, h := range sc.Heights {
			if err := ctx.Err(); err != nil {
				return domain.JobResult{}, fmt.Errorf("sweep %s: %w", job, err)
			}
			bin := domain.NewBinSpec(sc, tod, h, r.loc)
			if !anyInBin(filtered, bin) {
				r.metrics.Bins.WithLabelValues("empty").Inc()
				continue
			}

			start := domain.Now()
			est, err := r.estimator.Compute(ctx, filtered, bin)
			r.metrics.EstimatorTime.Observe(domain.Since(start).Seconds())
			if err != nil {
				return domain.JobResult{}, fmt.Errorf("estimate %s tod=%g h=%g: %w", job, tod, h, err)
			}
			result.Store(ti, hi, est)
			result.BinsComputed++
			r.metrics.Bins.WithLabelValues("computed").Inc()
		}
	}
	return result, nil
}

func anyInBin(set domain.MeasurementSet, bin domain.BinSpec) bool {
	for _, m := range set.Measurements {
		if bin.Contains(m) {
			return true
		}
	}
	return false
}
