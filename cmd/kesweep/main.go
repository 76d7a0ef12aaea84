// Command kesweep runs the binned ACF sweep for the configured scenarios.
//
// Without WORKER_INDEX every worker of WORKER_COUNT runs in this process.
// With WORKER_INDEX set the process is that one worker and coordinates with
// its peers through the NATS barrier, sharing RUN_ID.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/meteor-ke-sweep/internal/acf"
	"github.com/couchcryptid/meteor-ke-sweep/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/meteor-ke-sweep/internal/adapter/kafka"
	"github.com/couchcryptid/meteor-ke-sweep/internal/adapter/natsbarrier"
	"github.com/couchcryptid/meteor-ke-sweep/internal/adapter/s3"
	"github.com/couchcryptid/meteor-ke-sweep/internal/artifact"
	"github.com/couchcryptid/meteor-ke-sweep/internal/config"
	"github.com/couchcryptid/meteor-ke-sweep/internal/domain"
	"github.com/couchcryptid/meteor-ke-sweep/internal/observability"
	"github.com/couchcryptid/meteor-ke-sweep/internal/store"
	"github.com/couchcryptid/meteor-ke-sweep/internal/sweep"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	logger := observability.NewLogger(cfg)

	// Scenario errors surface before anything is reset.
	scenarios, err := cfg.Scenarios()
	if err != nil {
		logger.Error("invalid scenarios", "error", err)
		return 1
	}

	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	measurements := store.NewDirStore(cfg.DataDir, cfg.StoreCacheSize, logger)
	if first, last, err := measurements.Bounds(ctx); err != nil {
		logger.Warn("measurement store has no data", "dir", cfg.DataDir, "error", err)
	} else {
		logger.Info("measurement store opened", "dir", cfg.DataDir, "from", first, "to", last)
	}

	var barrier artifact.Barrier
	if cfg.Distributed() && cfg.WorkerCount > 1 {
		nb, err := natsbarrier.Connect(ctx, cfg.NATSURL, cfg.NATSBucket, cfg.RunID, logger)
		if err != nil {
			logger.Error("failed to open nats barrier", "error", err)
			return 1
		}
		defer nb.Close()
		barrier = nb
		logger.Info("nats barrier enabled", "bucket", cfg.NATSBucket, "run_id", cfg.RunID)
	} else {
		barrier = artifact.NewLocalBarrier()
	}

	var mirror artifact.Mirror
	if cfg.S3Endpoint != "" {
		m, err := s3.NewMirror(s3.Options{
			Endpoint:  cfg.S3Endpoint,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Secure:    cfg.S3Secure,
		})
		if err != nil {
			logger.Error("failed to create artifact mirror", "error", err)
			return 1
		}
		if err := m.EnsureBucket(ctx); err != nil {
			logger.Error("failed to prepare artifact bucket", "error", err)
			return 1
		}
		mirror = m
		logger.Info("artifact mirror enabled", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)
	}

	var events sweep.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		publisher := kafkaadapter.NewPublisher(cfg, logger)
		defer func() {
			if err := publisher.Close(); err != nil {
				logger.Error("kafka publisher close error", "error", err)
			}
		}()
		events = publisher
		logger.Info("job events enabled", "topic", cfg.KafkaTopic)
	}

	coord := artifact.NewCoordinator(cfg.OutputDir, barrier, mirror, logger).WithAwaitTimeout(cfg.BarrierTimeout)

	indices := make([]int, 0, cfg.WorkerCount)
	if cfg.Distributed() {
		indices = append(indices, cfg.WorkerIndex)
	} else {
		for i := 0; i < cfg.WorkerCount; i++ {
			indices = append(indices, i)
		}
	}
	workers := make([]*sweep.Worker, 0, len(indices))
	for _, i := range indices {
		runner := sweep.NewRunner(measurements, acf.HorizontalCosineFilter{}, acf.PairEstimator{}, cfg.Location, logger, metrics)
		workers = append(workers, sweep.NewWorker(domain.NewWorkerIdentity(i, cfg.WorkerCount), runner, coord, events, logger, metrics))
	}
	pool := sweep.NewPool(workers...)

	srv := httpadapter.NewServer(cfg.HTTPAddr, pool, cfg.OutputDir, logger)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
	}()

	logger.Info("sweep starting",
		"scenarios", len(scenarios),
		"workers", cfg.WorkerCount,
		"local_workers", len(workers),
		"run_id", cfg.RunID,
	)

	code := 0
	for _, sc := range scenarios {
		summaries, err := pool.Sweep(ctx, sc)
		if err != nil {
			logger.Error("scenario failed", "namespace", sc.Name, "error", err)
			code = 1
			break
		}
		var complete, skipped int
		for _, s := range summaries {
			complete += s.Complete
			skipped += s.Skipped
		}
		logger.Info("scenario finished", "namespace", sc.Name, "complete", complete, "skipped", skipped)
	}

	logger.Info("shutting down")
	return code
}
