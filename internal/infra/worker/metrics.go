package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks scheduled refresh runs.
//
//   - newsdesk_refresh_runs_total: runs by status (success, failure)
//   - newsdesk_refresh_duration_seconds: duration of each run
//   - newsdesk_refresh_last_success_timestamp: Unix time of the last successful run
type Metrics struct {
	RunsTotal            *prometheus.CounterVec
	DurationSeconds      prometheus.Histogram
	LastSuccessTimestamp prometheus.Gauge
}

// NewMetrics creates the refresh metrics and registers them with reg.
// Tests pass a fresh prometheus.NewRegistry().
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "newsdesk_refresh_runs_total",
			Help: "Total number of scheduled refresh runs by status",
		}, []string{"status"}),

		DurationSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "newsdesk_refresh_duration_seconds",
			Help:    "Duration of scheduled refresh runs in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120},
		}),

		LastSuccessTimestamp: f.NewGauge(prometheus.GaugeOpts{
			Name: "newsdesk_refresh_last_success_timestamp",
			Help: "Unix timestamp of the last successful scheduled refresh",
		}),
	}
}

// RecordRun increments the run counter for status.
func (m *Metrics) RecordRun(status string) {
	m.RunsTotal.WithLabelValues(status).Inc()
}

// RecordDuration observes the duration of one run.
func (m *Metrics) RecordDuration(seconds float64) {
	m.DurationSeconds.Observe(seconds)
}

// RecordLastSuccess records the current time as the last successful run.
func (m *Metrics) RecordLastSuccess() {
	m.LastSuccessTimestamp.SetToCurrentTime()
}
