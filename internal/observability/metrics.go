// Package observability wires tracing, domain metrics and context logging.
//
// This file declares the Prometheus collectors for the HTTP layer and the
// horoscope engine. Labels are small closed sets (route, stage, outcome,
// path, task) so cardinality stays bounded regardless of user count.
package observability

import "github.com/prometheus/client_golang/prometheus"

// Outcome label values.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

var (
	// HTTPRequests counts requests by method, route and status code.
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPLatency records request duration by method and route. Status is
	// left out to keep the histogram small.
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "Duration of HTTP requests in seconds.",
			// Generation endpoints wait on the language model.
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"method", "path"},
	)

	// HTTPInflight gauges requests currently being served.
	HTTPInflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_inflight",
			Help: "Current number of in-flight HTTP requests.",
		},
	)

	// HTTPResponseSize records response sizes by method and route.
	HTTPResponseSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "Size of HTTP responses in bytes.",
			Buckets: prometheus.ExponentialBuckets(256, 2, 12), // 256B..512KiB
		},
		[]string{"method", "path"},
	)

	// RateLimited counts requests rejected by the generation rate limiter.
	RateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "horoscope_rate_limited_total",
			Help: "Generation requests rejected by the per-user rate limiter.",
		},
	)

	// LLMRequests counts provider calls by stage (generate|extract) and outcome.
	LLMRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "horoscope_llm_requests_total",
			Help: "Language model calls by stage and outcome.",
		},
		[]string{"stage", "outcome"},
	)

	// LLMLatency records provider call duration in seconds by stage.
	LLMLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "horoscope_llm_request_duration_seconds",
			Help:    "Duration of language model calls in seconds.",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30, 60},
		},
		[]string{"stage"},
	)

	// ScoreFallbacks counts readings that fell back to default scores.
	ScoreFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "horoscope_score_fallbacks_total",
			Help: "Readings whose score extraction failed and used defaults.",
		},
	)

	// SectionsPadded counts readings that came back with fewer than five sections.
	SectionsPadded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "horoscope_sections_padded_total",
			Help: "Readings padded because the model returned too few sections.",
		},
	)

	// CacheLookups counts daily cache lookups by result (hit|miss).
	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "horoscope_cache_lookups_total",
			Help: "Daily horoscope cache lookups by result.",
		},
		[]string{"result"},
	)

	// Generations counts engine-level generations by path (ephemeral|persisted|preview).
	Generations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "horoscope_generations_total",
			Help: "Horoscope generations by path and outcome.",
		},
		[]string{"path", "outcome"},
	)

	// MaintenanceRuns counts scheduled maintenance tasks by task and outcome.
	MaintenanceRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "horoscope_maintenance_runs_total",
			Help: "Maintenance task executions by task and outcome.",
		},
		[]string{"task", "outcome"},
	)

	// HistoryPurged counts history rows removed by retention.
	HistoryPurged = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "horoscope_history_purged_total",
			Help: "History entries deleted by the retention sweep.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequests, HTTPLatency, HTTPInflight, HTTPResponseSize, RateLimited,
		LLMRequests, LLMLatency, ScoreFallbacks, SectionsPadded,
		CacheLookups, Generations, MaintenanceRuns, HistoryPurged,
	)
}

// Outcome maps an error to the outcome label.
func Outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}
