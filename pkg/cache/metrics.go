package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks pages served from Redis
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "userdir_page_cache_hits_total",
			Help: "Total number of page cache hits",
		},
	)

	// CacheMisses tracks pages not found in Redis
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "userdir_page_cache_misses_total",
			Help: "Total number of page cache misses",
		},
	)

	// CacheInvalidations tracks generation bumps
	CacheInvalidations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "userdir_page_cache_invalidations_total",
			Help: "Total number of page cache invalidations",
		},
	)

	// CacheErrors tracks cache operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "userdir_page_cache_errors_total",
			Help: "Total number of page cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "invalidate"
	)
)
