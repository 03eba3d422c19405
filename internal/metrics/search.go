package metrics

import "github.com/prometheus/client_golang/prometheus"

// Search engine and index Prometheus metrics.
var (
	EngineRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "osfsearch",
			Name:      "engine_requests_total",
			Help:      "Total number of search engine requests",
		},
		[]string{"op", "outcome"}, // outcome: ok / unavailable / index_not_found / malformed_query / error
	)

	EngineRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "osfsearch",
			Name:      "engine_request_duration_seconds",
			Help:      "Search engine request duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"op"},
	)

	EngineAvailable = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "osfsearch",
			Name:      "engine_available",
			Help:      "1 while the search engine connection is usable, 0 once it is marked unavailable",
		},
	)

	IndexWritesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "osfsearch",
			Name:      "index_writes_total",
			Help:      "Index write instructions applied",
		},
		[]string{"op", "result"}, // op: upsert / delete / bulk_contributors; result: ok / error / skipped
	)

	ParentLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "osfsearch",
			Name:      "parent_lookups_total",
			Help:      "Live parent lookups made while formatting results",
		},
		[]string{"result"}, // public / private / missing / cached / error
	)
)

var searchMetricsRegistered bool

// RegisterSearchMetrics registers the search metrics. Must be called once from main.
func RegisterSearchMetrics() {
	if searchMetricsRegistered {
		return
	}
	prometheus.MustRegister(EngineRequestsTotal)
	prometheus.MustRegister(EngineRequestDuration)
	prometheus.MustRegister(EngineAvailable)
	prometheus.MustRegister(IndexWritesTotal)
	prometheus.MustRegister(ParentLookupsTotal)
	searchMetricsRegistered = true
}
