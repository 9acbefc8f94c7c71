package worker

import (
	"inkwell/internal/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks the re-render sweep and, through the embedded config
// metrics, the worker's configuration health. Everything registers under the
// worker_ prefix.
type Metrics struct {
	*config.Metrics

	// SweepRunsTotal counts sweep runs by status ("success" or "failure").
	SweepRunsTotal *prometheus.CounterVec

	// SweepDurationSeconds observes how long each sweep took. Buckets run
	// from one second to the 30-minute ceiling.
	SweepDurationSeconds prometheus.Histogram

	// SweepEntriesRefreshedTotal counts entries whose stored HTML was
	// rewritten across all sweeps.
	SweepEntriesRefreshedTotal prometheus.Counter

	// SweepLastSuccessTimestamp is the Unix time of the last clean sweep.
	// Alert when it falls more than a day behind.
	SweepLastSuccessTimestamp prometheus.Gauge
}

// NewMetrics registers the sweep metrics on the default registry.
func NewMetrics() *Metrics {
	return NewMetricsOn(prometheus.DefaultRegisterer)
}

// NewMetricsOn registers on reg so tests can use an isolated registry.
func NewMetricsOn(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Metrics: config.NewMetricsOn("worker", reg),

		SweepRunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_sweep_runs_total",
			Help: "Total re-render sweep runs by status",
		}, []string{"status"}),

		SweepDurationSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "worker_sweep_duration_seconds",
			Help:    "Duration of re-render sweeps in seconds",
			Buckets: []float64{1, 5, 30, 60, 300, 900, 1800},
		}),

		SweepEntriesRefreshedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "worker_sweep_entries_refreshed_total",
			Help: "Total entries re-rendered across all sweep runs",
		}),

		SweepLastSuccessTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Name: "worker_sweep_last_success_timestamp",
			Help: "Unix timestamp of the last successful re-render sweep",
		}),
	}
}

// RecordSweepRun counts one sweep with status "success" or "failure".
func (m *Metrics) RecordSweepRun(status string) {
	m.SweepRunsTotal.WithLabelValues(status).Inc()
}

// RecordSweepDuration observes one sweep's wall time.
func (m *Metrics) RecordSweepDuration(seconds float64) {
	m.SweepDurationSeconds.Observe(seconds)
}

// RecordEntriesRefreshed adds a sweep's refreshed-entry count.
func (m *Metrics) RecordEntriesRefreshed(count int) {
	m.SweepEntriesRefreshedTotal.Add(float64(count))
}

// RecordLastSuccess marks now as the last clean sweep.
func (m *Metrics) RecordLastSuccess() {
	m.SweepLastSuccessTimestamp.SetToCurrentTime()
}
