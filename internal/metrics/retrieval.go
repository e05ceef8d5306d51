package metrics

import "github.com/prometheus/client_golang/prometheus"

// Similarity search and analysis Prometheus metrics.
var (
	SimilaritySearchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "similarity_search_total",
			Help:      "Similarity searches by outcome",
		},
		[]string{"type", "status"}, // status: "ok" / "degraded"
	)

	SimilaritySearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "similarity_search_duration_seconds",
			Help:      "Similarity search duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"type"},
	)

	SimilarityResultsCount = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "similarity_results_count",
			Help:      "Number of hits returned per similarity search",
			Buckets:   []float64{0, 1, 3, 5, 10, 20, 50},
		},
		[]string{"type"},
	)

	SearchRecordErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_record_errors_total",
			Help:      "Search analytics records that failed to persist",
		},
	)

	AnalysisRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_requests_total",
			Help:      "Analysis requests by type and outcome",
		},
		[]string{"analysis_type", "status"},
	)

	AnalysisDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "End-to-end analysis duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"analysis_type"},
	)

	BatchEmbeddingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_embeddings_total",
			Help:      "Per-entity outcomes of batch embedding generation",
		},
		[]string{"status"},
	)
)

var retrievalMetricsRegistered bool

// RegisterRetrievalMetrics registers similarity and analysis metrics. Must be called once from main.
func RegisterRetrievalMetrics() {
	if retrievalMetricsRegistered {
		return
	}
	prometheus.MustRegister(SimilaritySearchTotal)
	prometheus.MustRegister(SimilaritySearchDuration)
	prometheus.MustRegister(SimilarityResultsCount)
	prometheus.MustRegister(SearchRecordErrorsTotal)
	prometheus.MustRegister(AnalysisRequestsTotal)
	prometheus.MustRegister(AnalysisDuration)
	prometheus.MustRegister(BatchEmbeddingsTotal)
	retrievalMetricsRegistered = true
}
