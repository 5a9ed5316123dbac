package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// APICallsTotal tracks upstream calls per service and response status
	APICallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rankcheck_api_calls_total",
			Help: "Total number of upstream API calls",
		},
		[]string{"service", "operation", "status"},
	)

	// APIErrorsTotal tracks failed upstream calls by failure kind
	APIErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rankcheck_api_errors_total",
			Help: "Total number of failed upstream API calls",
		},
		[]string{"service", "operation", "kind"},
	)

	// APILatency tracks upstream call latency
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rankcheck_api_latency_seconds",
			Help:    "Upstream API call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "operation"},
	)

	// RetryRoundsTotal tracks completed recheck rounds
	RetryRoundsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rankcheck_retry_rounds_total",
			Help: "Total number of rate-limit recheck rounds run",
		},
	)

	// RetryQueueDepth tracks entries waiting for a recheck
	RetryQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rankcheck_retry_queue_depth",
			Help: "Entries currently queued for a rate-limit recheck",
		},
	)

	// FilesCopiedTotal tracks files placed into category folders
	FilesCopiedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rankcheck_files_copied_total",
			Help: "Total number of files copied into category folders",
		},
		[]string{"category", "result"},
	)

	// DBConnectionPoolUsage tracks ledger connection pool usage percentage
	DBConnectionPoolUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rankcheck_db_connection_pool_usage_percent",
			Help: "Results ledger connection pool usage percentage",
		},
	)
)
