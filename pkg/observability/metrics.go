package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics must be global for registration
var (
	// EvaluationsTotal tracks the total number of measure evaluations
	EvaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "measures_evaluations_total",
			Help: "Total number of measure evaluations",
		},
		[]string{"measure", "status"}, // status: success, failed, memoized
	)

	// EvaluationDuration measures single-measure evaluation duration in seconds
	EvaluationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "measures_evaluation_duration_seconds",
			Help:    "Measure evaluation duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"measure"},
	)

	// BatchesTotal tracks batch execution calls
	BatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "measures_batches_total",
			Help: "Total number of batch executions",
		},
		[]string{"status"}, // status: success, failed
	)

	// BatchSize observes how many measures each batch resolves, including dependencies
	BatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "measures_batch_size",
			Help:    "Number of measures resolved per batch, including dependencies",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
	)

	// ComponentResolutionsTotal tracks per-component source resolutions
	ComponentResolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "measures_component_resolutions_total",
			Help: "Total number of component source resolutions",
		},
		[]string{"source_type", "status"}, // status: success, failed
	)

	// DatasetFetchesTotal tracks raw record fetches from the tabular collaborator
	DatasetFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "measures_dataset_fetches_total",
			Help: "Total number of raw record fetches",
		},
		[]string{"dataset", "status"},
	)

	// CacheRequestsTotal tracks dataset record cache lookups
	CacheRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "measures_dataset_cache_requests_total",
			Help: "Total number of dataset cache lookups",
		},
		[]string{"result"}, // result: hit, miss, error
	)
)
