package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks cache hits by layer (memory, redis)
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rsywx_cache_hits_total",
			Help: "Total number of response cache hits",
		},
		[]string{"layer"},
	)

	// CacheMisses tracks lookups no layer could serve
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rsywx_cache_misses_total",
			Help: "Total number of response cache misses",
		},
	)

	// StaleHits tracks expired entries returned for revalidation
	StaleHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rsywx_cache_stale_total",
			Help: "Total number of stale entries returned for revalidation",
		},
	)

	// NotModifiedResponses tracks 304 Not Modified responses
	NotModifiedResponses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rsywx_cache_304_responses_total",
			Help: "Total number of gateway 304 Not Modified responses",
		},
	)

	// CacheErrors tracks cache operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rsywx_cache_errors_total",
			Help: "Total number of cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete", "decode"
	)
)
