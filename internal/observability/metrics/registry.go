// Package metrics provides centralized Prometheus metrics for the application.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics track requests to the local JSON API
var (
	// HTTPRequestsTotal counts total HTTP requests by method, path, and status
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration measures HTTP request duration in seconds
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// EventStreamsActive tracks the number of connected /events subscribers
	EventStreamsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "newsdesk_event_streams_active",
			Help: "Number of connected server-sent event streams",
		},
	)
)

// Remote source metrics
var (
	// RemoteRequestDuration measures one remote call including retries.
	// outcome is "success" or the error kind (no_connection, invalid_url, no_data, transport, decode).
	RemoteRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "newsdesk_remote_request_duration_seconds",
			Help:    "Remote news source request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"endpoint", "outcome"},
	)

	// ArticlesFetchedTotal counts articles returned by the remote source
	ArticlesFetchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsdesk_articles_fetched_total",
			Help: "Total number of articles returned by the remote source",
		},
		[]string{"endpoint"},
	)

	// Connected is 1 while the connectivity signal reports a usable network
	Connected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "newsdesk_connectivity_up",
			Help: "1 when the network is reachable, 0 otherwise",
		},
	)

	// CircuitBreakerOpen is 1 while the named breaker is open
	CircuitBreakerOpen = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "newsdesk_circuit_breaker_open",
			Help: "1 when the named circuit breaker is open",
		},
		[]string{"circuit"},
	)
)

// Cache and sync metrics
var (
	// SyncOperationsTotal counts coordinator operations by result (ready, fallback, empty, failed)
	SyncOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsdesk_sync_operations_total",
			Help: "Total number of load and search operations by result",
		},
		[]string{"op", "result"},
	)

	// StorageErrorsTotal counts storage failures absorbed by the cache layer
	StorageErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "newsdesk_storage_errors_total",
			Help: "Total number of storage errors swallowed by the cache",
		},
		[]string{"op"},
	)

	// ArticlesInserted counts rows actually inserted by upserts
	ArticlesInserted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "newsdesk_articles_inserted_total",
			Help: "Total number of new articles written to the local store",
		},
	)

	// ArticlesCached tracks the number of stored articles
	ArticlesCached = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "newsdesk_articles_cached",
			Help: "Number of articles in the local store",
		},
	)

	// StoreOperationDuration measures cache-layer store calls
	StoreOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "newsdesk_store_operation_duration_seconds",
			Help:    "Local store operation duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"op"},
	)
)

// RecordHTTPRequest records an HTTP request with its metadata
func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}
