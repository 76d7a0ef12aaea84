package sweep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/meteor-ke-sweep/internal/artifact"
	"github.com/couchcryptid/meteor-ke-sweep/internal/domain"
	"github.com/couchcryptid/meteor-ke-sweep/internal/observability"
)

// EventPublisher receives one event per finished or failed job.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.JobEvent) error
}

// Summary counts a worker's jobs for one scenario.
type Summary struct {
	Jobs     int
	Complete int
	Skipped  int
	Failed   int
	Artifact string // empty when the worker had no jobs
}

// Worker sweeps its share of a scenario's jobs.
type Worker struct {
	id      domain.WorkerIdentity
	runner  *Runner
	coord   *artifact.Coordinator
	events  EventPublisher
	logger  *slog.Logger
	metrics *observability.Metrics
	ready   atomic.Bool
}

// NewWorker creates a worker. events may be nil.
func NewWorker(id domain.WorkerIdentity, runner *Runner, coord *artifact.Coordinator, events EventPublisher, logger *slog.Logger, metrics *observability.Metrics) *Worker {
	return &Worker{
		id:      id,
		runner:  runner,
		coord:   coord,
		events:  events,
		logger:  logger.With("worker", id.Index, "workers", id.Count),
		metrics: metrics,
	}
}

// Identity returns the worker's slot in the pool.
func (w *Worker) Identity() domain.WorkerIdentity {
	return w.id
}

// CheckReadiness returns nil once the worker has passed the namespace reset
// of its current scenario.
func (w *Worker) CheckReadiness(_ context.Context) error {
	if !w.ready.Load() {
		return fmt.Errorf("worker %s has not passed the namespace reset", w.id)
	}
	return nil
}

// Sweep runs every job assigned to this worker. The scenario and identity are
// validated before the namespace is touched. The first failing job stops the
// worker; it is recorded as failed in the artifact and its error returned.
func (w *Worker) Sweep(ctx context.Context, sc domain.ScenarioConfig) (Summary, error) {
	if err := sc.Validate(); err != nil {
		return Summary{}, err
	}
	if err := w.id.Validate(); err != nil {
		return Summary{}, err
	}

	w.ready.Store(false)
	jobs := Assign(Enumerate(sc.Years, sc.Months), w.id.Count, w.id.Index)
	logger := w.logger.With("namespace", sc.Name)

	if err := w.coord.Prepare(ctx, w.id, sc.Name); err != nil {
		return Summary{}, err
	}
	w.ready.Store(true)

	if len(jobs) == 0 {
		logger.Info("no jobs assigned")
		return Summary{}, nil
	}

	w.metrics.WorkersRunning.Inc()
	defer w.metrics.WorkersRunning.Dec()

	art := artifact.New(sc, w.id, jobs)
	summary := Summary{Jobs: len(jobs), Artifact: w.coord.Path(sc.Name, w.id.Index)}
	if err := w.checkpoint(ctx, art); err != nil {
		return summary, err
	}
	logger.Info("sweep started", "jobs", len(jobs))

	for i, job := range jobs {
		start := domain.Now()
		result, err := w.runner.Run(ctx, job, sc)
		elapsed := domain.Since(start)
		w.metrics.JobDuration.Observe(elapsed.Seconds())

		if err != nil {
			summary.Failed++
			w.metrics.Jobs.WithLabelValues(domain.JobFailed.String()).Inc()
			art.MarkFailed(i)
			// Cancellation still leaves a checkpoint naming the failed job.
			bg := context.WithoutCancel(ctx)
			if werr := w.checkpoint(bg, art); werr != nil {
				err = errors.Join(err, werr)
			}
			w.publish(bg, sc, domain.JobResult{Job: job, Status: domain.JobFailed}, elapsed, err)
			logger.Error("job failed", "job", job.Key(), "error", err)
			return summary, fmt.Errorf("worker %s job %s: %w", w.id, job, err)
		}

		if err := art.Record(i, result); err != nil {
			return summary, err
		}
		if err := w.checkpoint(ctx, art); err != nil {
			return summary, err
		}

		switch result.Status {
		case domain.JobSkipped:
			summary.Skipped++
		default:
			summary.Complete++
		}
		w.metrics.Jobs.WithLabelValues(result.Status.String()).Inc()
		w.publish(ctx, sc, result, elapsed, nil)
		logger.Info("job finished",
			"year", job.Year,
			"month", job.Month,
			"day", job.Day,
			"measurements", result.Measurements,
			"bins", result.BinsComputed,
			"skipped", result.Status == domain.JobSkipped,
			"duration", elapsed,
		)
	}

	logger.Info("sweep finished", "complete", summary.Complete, "skipped", summary.Skipped, "artifact", summary.Artifact)
	return summary, nil
}

func (w *Worker) checkpoint(ctx context.Context, art *artifact.Artifact) error {
	if err := w.coord.Write(ctx, art); err != nil {
		w.metrics.ArtifactWrites.WithLabelValues("error").Inc()
		return fmt.Errorf("checkpoint worker %s: %w", w.id, err)
	}
	w.metrics.ArtifactWrites.WithLabelValues("success").Inc()
	return nil
}

func (w *Worker) publish(ctx context.Context, sc domain.ScenarioConfig, r domain.JobResult, elapsed time.Duration, jobErr error) {
	if w.events == nil {
		return
	}
	event := domain.JobEvent{
		Namespace:    sc.Name,
		Worker:       w.id.Index,
		Workers:      w.id.Count,
		Job:          r.Job,
		Status:       r.Status.String(),
		Measurements: r.Measurements,
		BinsComputed: r.BinsComputed,
		Duration:     elapsed,
		At:           domain.Now(),
	}
	if jobErr != nil {
		event.Error = jobErr.Error()
	}
	if err := w.events.Publish(ctx, event); err != nil {
		w.logger.Warn("publish job event failed", "job", r.Job.Key(), "error", err)
	}
}
