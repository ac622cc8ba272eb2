// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MatchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_requests_total",
			Help: "Total number of match scoring calls by path (llm or lexical)",
		},
		[]string{"path"},
	)

	MatchFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_fallbacks_total",
			Help: "Total number of match calls that fell back to the lexical scorer",
		},
		[]string{"reason"},
	)

	MatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "match_duration_seconds",
			Help: "Duration of a full match scoring call in seconds",
		},
		[]string{"path"},
	)

	ComparisonRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "comparison_requests_total",
			Help: "Total number of comparison calls by path (llm or baseline)",
		},
		[]string{"path"},
	)

	ComparisonFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "comparison_fallbacks_total",
			Help: "Total number of comparison calls that fell back to baseline",
		},
		[]string{"reason"},
	)

	ComparisonDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "comparison_duration_seconds",
			Help: "Duration of a full comparison call in seconds",
		},
		[]string{"path"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "http_request_duration_seconds",
			Help: "Duration of HTTP API requests in seconds",
		},
		[]string{"route", "status"},
	)
)
