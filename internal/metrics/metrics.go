package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sidedish_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sidedish_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	GenerationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sidedish_ai_generations_total",
			Help: "Total number of AI generation attempts by outcome.",
		},
		[]string{"outcome"},
	)

	CacheRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sidedish_cache_requests_total",
			Help: "Total number of cache lookups by result.",
		},
		[]string{"result"},
	)

	DedupSharedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sidedish_dedup_shared_fetches_total",
			Help: "Total number of fetches that joined an existing in-flight request.",
		},
	)

	EventsPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sidedish_events_published_total",
			Help: "Total number of platform events published to NATS.",
		},
		[]string{"subject"},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		GenerationsTotal,
		CacheRequestsTotal,
		DedupSharedTotal,
		EventsPublishedTotal,
	)
}
