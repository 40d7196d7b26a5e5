// Package metrics provides Prometheus metrics for the medbot HTTP server and
// the lookups it serves:
//   - http_request_total / http_request_duration_seconds / http_request_in_flight
//   - medbot_diagnoses_total by diagnosis label
//   - medbot_symptoms_matched_total by symptom key
//   - medbot_unmatched_queries_total
//   - medbot_chat_sessions_active
//   - rate_limiter_buckets_total
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	DiagnosesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medbot_diagnoses_total",
			Help: "Diagnoses served, by label",
		},
		[]string{"diagnosis"},
	)

	SymptomsMatchedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "medbot_symptoms_matched_total",
			Help: "Symptoms recognized in user input, by catalog key",
		},
		[]string{"symptom"},
	)

	UnmatchedQueriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "medbot_unmatched_queries_total",
			Help: "Queries in which no known symptom was recognized",
		},
	)

	ChatSessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "medbot_chat_sessions_active",
			Help: "Open chat sessions",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Total number of rate limiter buckets (clients seen since the last cleanup)",
		},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestTotals,
		HTTPRequestDuration,
		HTTPRequestInFlight,
		DiagnosesTotal,
		SymptomsMatchedTotal,
		UnmatchedQueriesTotal,
		ChatSessionsActive,
		RateLimiterBucketsTotal,
	)
}

// RecordLookup counts one identify/diagnose round
func RecordLookup(matched []string, diagnosis string) {
	if len(matched) == 0 {
		UnmatchedQueriesTotal.Inc()
		return
	}
	for _, key := range matched {
		SymptomsMatchedTotal.WithLabelValues(key).Inc()
	}
	DiagnosesTotal.WithLabelValues(diagnosis).Inc()
}
