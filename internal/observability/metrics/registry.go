// Package metrics provides the process-wide Prometheus registry: HTTP
// transport metrics and feed-domain metrics (sweeps, refresh-task outcomes,
// ingestion), shared by the HTTP handler layer and the refresh/ingest
// usecases.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics track request volume, latency, and concurrency.
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of HTTP requests being served",
		},
	)
)

// Domain metrics track the scheduler's sweep loop and the per-feed refresh
// tasks it spawns.
var (
	// SweepsTotal counts scheduler sweeps run.
	SweepsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feedkeep_sweeps_total",
			Help: "Total number of scheduler sweeps run",
		},
	)

	// SweepFeedsSpawned tracks how many per-feed refresh tasks a sweep spawns.
	SweepFeedsSpawned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feedkeep_sweep_feeds_spawned",
			Help:    "Number of per-feed refresh tasks spawned per sweep",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
	)

	// TaskOutcomesTotal counts refresh-task attempt outcomes by attempt
	// number (1-based) and result (success, retry, failure, store_error).
	TaskOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedkeep_task_outcomes_total",
			Help: "Outcome of a per-feed refresh task, by attempt number and result",
		},
		[]string{"attempt", "result"},
	)

	// FeedsActive tracks the current count of active feeds.
	FeedsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feedkeep_feeds_active",
			Help: "Number of feeds currently marked active",
		},
	)

	// IngestDuration tracks how long a single fetch-and-upsert takes, by
	// result (success, fetch_failure, store_failure).
	IngestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feedkeep_ingest_duration_seconds",
			Help:    "Time taken to fetch and upsert a single feed",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
		[]string{"result"},
	)
)

// Database metrics track query latency and connection pool usage.
var (
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 10),
		},
		[]string{"operation"},
	)

	DBConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_active",
			Help: "Number of active database connections",
		},
	)

	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_idle",
			Help: "Number of idle database connections",
		},
	)
)

// RecordHTTPRequest records one completed HTTP request.
func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordSweep records that a scheduler sweep ran and spawned n per-feed tasks.
func RecordSweep(feedsSpawned int) {
	SweepsTotal.Inc()
	SweepFeedsSpawned.Observe(float64(feedsSpawned))
}

// RecordTaskOutcome records the result of a single refresh-task attempt.
func RecordTaskOutcome(attempt int, result string) {
	TaskOutcomesTotal.WithLabelValues(strconv.Itoa(attempt), result).Inc()
}

// RecordIngestDuration records how long a single Ingest call took.
func RecordIngestDuration(result string, duration time.Duration) {
	IngestDuration.WithLabelValues(result).Observe(duration.Seconds())
}

// RecordOperationDuration records the duration of a named database operation.
func RecordOperationDuration(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
