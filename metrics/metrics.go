// Package metrics declares the prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	StoreQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eventscout_store_query_duration_seconds",
			Help:    "Duration of document store round-trips in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventscout_store_errors_total",
			Help: "Document store errors by operation and class",
		},
		[]string{"operation", "class"}, // transient, duplicate, not_found, other
	)

	SearchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventscout_search_requests_total",
			Help: "Proximity searches by filter combination and outcome",
		},
		[]string{"filters", "outcome"},
	)

	SearchResults = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "eventscout_search_page_items",
			Help:    "Items returned per search page",
			Buckets: []float64{0, 1, 5, 10, 20, 50, 100},
		},
	)

	CheckIns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventscout_checkins_total",
			Help: "Check-in attempts by method and outcome",
		},
		[]string{"method", "outcome"}, // recorded, duplicate, invalid, error
	)

	CounterReconciliations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eventscout_counter_reconciliations_total",
			Help: "Runs of the attendance counter reconciliation job",
		},
		[]string{"outcome"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "eventscout_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	RateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eventscout_rate_limited_requests_total",
			Help: "Requests rejected by the per-IP rate limiter",
		},
	)
)
