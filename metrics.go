package veloinfo

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	searchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "veloinfo_searches_total",
			Help: "Total number of route searches by profile and outcome",
		},
		[]string{"profile", "outcome"},
	)

	searchExpansions = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "veloinfo_search_expansions",
			Help:    "Node expansions per route search",
			Buckets: prometheus.ExponentialBuckets(10, 4, 10),
		},
		[]string{"profile"},
	)

	cacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "veloinfo_neighbor_cache_lookups_total",
			Help: "Neighbor cache lookups by result (hit or miss)",
		},
		[]string{"result"},
	)

	cacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "veloinfo_neighbor_cache_evictions_total",
			Help: "Entries evicted from neighbor cache because of capacity",
		},
	)

	cacheInvalidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "veloinfo_neighbor_cache_invalidations_total",
			Help: "Neighbor cache invalidations by kind: node, clear, skipped on lock timeout, stale population",
		},
		[]string{"kind"},
	)

	cacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "veloinfo_neighbor_cache_nodes",
			Help: "Number of nodes held by neighbor cache, by cache name",
		},
		[]string{"cache"},
	)

	storeErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "veloinfo_store_errors_total",
			Help: "Failed neighbor queries to edge store",
		},
	)
)
