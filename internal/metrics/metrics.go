package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus metrics
var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "factcheck_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "factcheck_request_duration_seconds",
			Help:    "Duration of API requests",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"method", "endpoint"},
	)
	ExternalAPICallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "external_api_calls_total",
			Help: "Total number of external API calls",
		},
		[]string{"provider", "status"},
	)
	ExternalAPIDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "external_api_call_duration_seconds",
			Help: "Duration of external API calls, retries included",
		},
		[]string{"provider"},
	)
	CacheHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache"},
	)
	CacheMissesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache"},
	)
	ClaimsCheckedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "claims_checked_total",
			Help: "Total number of adjudicated claims by assessment",
		},
		[]string{"assessment"},
	)
	ClaimFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "claim_failures_total",
			Help: "Total number of claims dropped from a report, by pipeline stage",
		},
		[]string{"stage"},
	)
	FeedbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedback_submissions_total",
			Help: "Total number of feedback submissions",
		},
		[]string{"type"},
	)
)

func init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(ExternalAPICallsTotal)
	prometheus.MustRegister(ExternalAPIDuration)
	prometheus.MustRegister(CacheHitsTotal)
	prometheus.MustRegister(CacheMissesTotal)
	prometheus.MustRegister(ClaimsCheckedTotal)
	prometheus.MustRegister(ClaimFailuresTotal)
	prometheus.MustRegister(FeedbackTotal)
}

// Status turns an error into the status label used across counters.
func Status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
