package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search Prometheus metrics.
var (
	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchd",
			Name:      "searches_total",
			Help:      "Total number of search queries served",
		},
		[]string{"types", "sort"},
	)

	SearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "searchd",
			Name:      "search_duration_seconds",
			Help:      "Search pipeline duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"types"},
	)

	SearchResultsTotal = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "searchd",
			Name:      "search_results_total",
			Help:      "Result-set sizes before pagination",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
		},
		[]string{"types"},
	)

	IndexRebuildsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchd",
			Name:      "index_rebuilds_total",
			Help:      "Total number of index snapshot rebuilds",
		},
		[]string{"type"},
	)

	QueryCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchd",
			Name:      "query_cache_total",
			Help:      "Query result cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	InvalidationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "searchd",
			Name:      "invalidations_total",
			Help:      "Total number of index invalidation events processed",
		},
		[]string{"type", "event"},
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers Prometheus search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(SearchesTotal)
	prometheus.MustRegister(SearchDuration)
	prometheus.MustRegister(SearchResultsTotal)
	prometheus.MustRegister(IndexRebuildsTotal)
	prometheus.MustRegister(QueryCacheTotal)
	prometheus.MustRegister(InvalidationsTotal)
	searchMetricsRegistered = true
}
