package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hatchways-assessment/posts-api/pkg/metrics"
)

var (
	// CacheHits tracks lookups answered from the store
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of response cache hits",
		},
	)

	// CacheMisses tracks lookups that found nothing fresh
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of response cache misses",
		},
	)

	// CacheStores tracks captured responses by status class
	CacheStores = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Name:      "cache_stores_total",
			Help:      "Total number of responses stored in the cache by status class",
		},
		[]string{"status_class"}, // "2xx", "4xx", ...
	)

	// CacheSkips tracks captured responses the policy refused to store
	CacheSkips = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Name:      "cache_skips_total",
			Help:      "Total number of responses not stored because of the cache policy",
		},
		[]string{"status_class"},
	)

	// CacheEntries is the current number of entries held
	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: metrics.Namespace,
			Name:      "cache_entries",
			Help:      "Current number of entries in the response cache",
		},
	)

	// CachePurged counts entries removed by the janitor
	CachePurged = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: metrics.Namespace,
			Name:      "cache_purged_total",
			Help:      "Total number of expired entries removed by the janitor",
		},
	)
)
