// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MatchScores = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "roomeo_match_score",
			Help:    "Distribution of computed match scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)

	MatchQuality = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roomeo_match_quality_total",
			Help: "Total number of computed matches by quality label",
		},
		[]string{"quality"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roomeo_match_cache_lookups_total",
			Help: "Match cache lookups by outcome",
		},
		[]string{"outcome"},
	)

	AIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roomeo_ai_requests_total",
			Help: "Total number of AI requests by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	AIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "roomeo_ai_request_duration_seconds",
			Help: "Duration of AI requests in seconds",
		},
		[]string{"operation"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roomeo_http_requests_total",
			Help: "Total number of API requests by route and status code",
		},
		[]string{"route", "code"},
	)
)

// Cache lookup outcomes.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
	CacheSkip  = "skip"
)

// AI request outcomes.
const (
	AISuccess  = "success"
	AIFallback = "fallback"
)
