package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_index_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_index_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// Store metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_index_db_queries_total",
			Help: "Total number of index store queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_index_db_query_duration_seconds",
			Help:    "Index store query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBTransactionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_index_db_transaction_duration_seconds",
			Help:    "Index store transaction duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		},
		[]string{"outcome"}, // "commit", "rollback"
	)

	DBRowsAffected = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_index_db_rows_affected",
			Help:    "Rows affected by index store write operations",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000},
		},
		[]string{"operation"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_index_db_connections_open",
			Help: "Number of open index store connections",
		},
	)
)

// Sync engine metrics
var (
	SyncRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_index_sync_runs_total",
			Help: "Total number of sync passes",
		},
	)

	SyncCoalescedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_index_sync_coalesced_total",
			Help: "Sync requests coalesced into an in-flight pass",
		},
	)

	SyncErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_index_sync_errors_total",
			Help: "Total number of sync pass errors",
		},
	)

	SyncLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_index_sync_last_run_timestamp",
			Help: "Timestamp of the last completed sync pass",
		},
	)

	SyncLastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_index_sync_last_run_duration_seconds",
			Help: "Duration of the last sync pass in seconds",
		},
	)

	SyncItemsUpserted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_index_sync_items_upserted_total",
			Help: "Total number of items upserted by sync passes",
		},
	)

	SyncItemsRemoved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_index_sync_items_removed_total",
			Help: "Total number of vanished items removed by sync passes",
		},
	)

	SyncIsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_index_sync_running",
			Help: "Whether a sync pass is currently running (1 = running, 0 = idle)",
		},
	)
)

// Lifecycle metrics
var (
	LifecycleOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_index_lifecycle_operations_total",
			Help: "Total number of lifecycle flag operations",
		},
		[]string{"operation", "status"},
	)

	SweepRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_index_sweep_runs_total",
			Help: "Total number of trash expiry sweeps",
		},
	)

	SweepExpiredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_index_sweep_expired_total",
			Help: "Total number of expired records removed by sweeps",
		},
	)

	SweepErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_index_sweep_errors_total",
			Help: "Total number of sweep errors",
		},
	)
)

// Snapshot metrics
var (
	SnapshotPagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_index_snapshot_pages_total",
			Help: "Total number of snapshot pages served",
		},
		[]string{"view"},
	)

	SnapshotPageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_index_snapshot_page_duration_seconds",
			Help:    "Snapshot page computation duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"view"},
	)
)
