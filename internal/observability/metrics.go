package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ke_sweep"

// Metrics holds the Prometheus counters, histograms, and gauges for the sweep.
type Metrics struct {
	Jobs           *prometheus.CounterVec // labels: status={complete,skipped,failed}
	Bins           *prometheus.CounterVec // labels: outcome={computed,empty}
	JobDuration    prometheus.Histogram
	JobMeasurement prometheus.Histogram
	EstimatorTime  prometheus.Histogram
	ArtifactWrites *prometheus.CounterVec // labels: outcome={success,error}
	WorkersRunning prometheus.Gauge
}

func newMetrics(withHelp bool) *Metrics {
	help := func(s string) string {
		if withHelp {
			return s
		}
		return ""
	}
	return &Metrics{
		Jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_total",
			Help:      help("Calendar-window jobs finished, by status."),
		}, []string{"status"}),
		Bins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bins_total",
			Help:      help("Grid cells visited, by outcome."),
		}, []string{"outcome"}),
		JobDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      help("Wall time of one job from read to checkpoint."),
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
		}),
		JobMeasurement: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "job_measurements",
			Help:      help("Raw measurements read per job window."),
			Buckets:   prometheus.ExponentialBuckets(10, 4, 8),
		}),
		EstimatorTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "estimator_duration_seconds",
			Help:      help("Duration of one ACF estimator call."),
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		ArtifactWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "artifact_writes_total",
			Help:      help("Worker artifact checkpoints, by outcome."),
		}, []string{"outcome"}),
		WorkersRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "workers_running",
			Help:      help("Workers currently sweeping in this process."),
		}),
	}
}

// NewMetrics creates and registers all sweep metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics(true)

	prometheus.MustRegister(
		m.Jobs,
		m.Bins,
		m.JobDuration,
		m.JobMeasurement,
		m.EstimatorTime,
		m.ArtifactWrites,
		m.WorkersRunning,
	)

	return m
}

// NewMetricsForTesting creates Metrics that are not registered anywhere, to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics(false)
}
