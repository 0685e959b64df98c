package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "launch_export_cache_hits_total",
		Help: "Total number of pages served from Redis",
	})

	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "launch_export_cache_misses_total",
		Help: "Total number of page lookups that fell through to the API",
	})

	// operation: lookup, store, delete
	cacheErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "launch_export_cache_errors_total",
		Help: "Total number of cache operation errors",
	}, []string{"operation"})
)
