package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Search and auto-index Prometheus metrics.
var (
	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "semindex",
			Name:      "search_requests_total",
			Help:      "Total number of search requests",
		},
		[]string{"mode", "outcome"}, // mode: single/aggregated/separate
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "semindex",
			Name:      "search_duration_seconds",
			Help:      "Search duration in seconds, embedding included",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"mode"},
	)

	SearchCandidatesScanned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "semindex",
			Name:      "search_candidates_scanned",
			Help:      "Stored vectors compared per collection search",
			Buckets:   []float64{0, 10, 50, 100, 250, 500, 1000},
		},
	)

	SearchCollectionErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "semindex",
			Name:      "search_collection_errors_total",
			Help:      "Per-collection failures inside multi-collection search",
		},
		[]string{"kind"},
	)

	AutoIndexTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "semindex",
			Name:      "autoindex_total",
			Help:      "Write-path embedding outcomes",
		},
		[]string{"outcome"}, // embedded/skipped_short/skipped_collection/skipped_cycle/failed
	)

	ReindexDocumentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "semindex",
			Name:      "reindex_documents_total",
			Help:      "Documents processed by reindex runs",
		},
		[]string{"outcome"}, // embedded/skipped/failed
	)
)

var searchMetricsOnce sync.Once

// RegisterSearchMetrics registers search, auto-index and reindex metrics. Safe to call more than once.
func RegisterSearchMetrics() {
	searchMetricsOnce.Do(func() {
		prometheus.MustRegister(SearchRequestsTotal)
		prometheus.MustRegister(SearchDuration)
		prometheus.MustRegister(SearchCandidatesScanned)
		prometheus.MustRegister(SearchCollectionErrorsTotal)
		prometheus.MustRegister(AutoIndexTotal)
		prometheus.MustRegister(ReindexDocumentsTotal)
	})
}
