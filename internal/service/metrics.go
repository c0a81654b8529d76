package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors for the collection pipeline.
// HTTP-level collectors live in the handler package; these cover the
// fetch, classify and compute stages shared by the server worker and
// the one-shot collector.
var Metrics = struct {
	APICallsTotal     *prometheus.CounterVec
	APIRetriesTotal   *prometheus.CounterVec
	QuotaUsedTotal    prometheus.Counter
	RowsWrittenTotal  *prometheus.CounterVec
	RunsTotal         *prometheus.CounterVec
	RunDuration       prometheus.Histogram
	ItemsSkippedTotal *prometheus.CounterVec
	AmbiguousMentions prometheus.Counter
}{}

// InitMetrics registers the pipeline collectors. Call once at startup.
func InitMetrics() {
	Metrics.APICallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytca_api_calls_total",
			Help: "YouTube Data API calls, by endpoint and outcome.",
		},
		[]string{"endpoint", "outcome"},
	)

	Metrics.APIRetriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytca_api_retries_total",
			Help: "Retried YouTube Data API calls, by endpoint.",
		},
		[]string{"endpoint"},
	)

	Metrics.QuotaUsedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ytca_api_quota_units_total",
			Help: "YouTube Data API quota units consumed.",
		},
	)

	Metrics.RowsWrittenTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytca_rows_written_total",
			Help: "Rows written to Postgres, by table.",
		},
		[]string{"table"},
	)

	Metrics.RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytca_collection_runs_total",
			Help: "Completed collection runs, by final status.",
		},
		[]string{"status"},
	)

	Metrics.RunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ytca_collection_run_duration_seconds",
			Help:    "Wall-clock duration of collection runs.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
	)

	Metrics.ItemsSkippedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytca_items_skipped_total",
			Help: "Items skipped during collection, by reason.",
		},
		[]string{"reason"},
	)

	Metrics.AmbiguousMentions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ytca_ambiguous_mentions_total",
			Help: "Brand mentions written with an ambiguity flag.",
		},
	)

	prometheus.MustRegister(
		Metrics.APICallsTotal,
		Metrics.APIRetriesTotal,
		Metrics.QuotaUsedTotal,
		Metrics.RowsWrittenTotal,
		Metrics.RunsTotal,
		Metrics.RunDuration,
		Metrics.ItemsSkippedTotal,
		Metrics.AmbiguousMentions,
	)
}

// The observe helpers tolerate uninitialized collectors so that unit
// tests can exercise the pipeline without touching the registry.

func observeAPICall(endpoint, outcome string) {
	if Metrics.APICallsTotal != nil {
		Metrics.APICallsTotal.WithLabelValues(endpoint, outcome).Inc()
	}
}

func observeAPIRetry(endpoint string) {
	if Metrics.APIRetriesTotal != nil {
		Metrics.APIRetriesTotal.WithLabelValues(endpoint).Inc()
	}
}

func observeQuota(units int) {
	if Metrics.QuotaUsedTotal != nil && units > 0 {
		Metrics.QuotaUsedTotal.Add(float64(units))
	}
}

func observeRows(table string, n int) {
	if Metrics.RowsWrittenTotal != nil && n > 0 {
		Metrics.RowsWrittenTotal.WithLabelValues(table).Add(float64(n))
	}
}

func observeRun(status string, elapsed time.Duration) {
	if Metrics.RunsTotal != nil {
		Metrics.RunsTotal.WithLabelValues(status).Inc()
	}
	if Metrics.RunDuration != nil {
		Metrics.RunDuration.Observe(elapsed.Seconds())
	}
}

func observeSkip(reason string) {
	if Metrics.ItemsSkippedTotal != nil {
		Metrics.ItemsSkippedTotal.WithLabelValues(reason).Inc()
	}
}

func observeAmbiguous(n int) {
	if Metrics.AmbiguousMentions != nil && n > 0 {
		Metrics.AmbiguousMentions.Add(float64(n))
	}
}
