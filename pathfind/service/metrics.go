package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	searchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pathfinder_searches_total",
		Help: "Total searches by heuristic and outcome",
	}, []string{"heuristic", "outcome"})

	searchExpansions = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pathfinder_search_expansions",
		Help:    "Cells expanded per search",
		Buckets: prometheus.ExponentialBuckets(1, 4, 10), // 1 to ~260k
	}, []string{"heuristic"})

	searchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pathfinder_search_duration_seconds",
		Help:    "Search wall time in seconds, step delays included",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 12), // 0.1ms to ~7min
	}, []string{"heuristic"})
)
