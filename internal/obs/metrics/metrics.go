package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// StreamEventsTotal tracks events delivered per venue stream
	StreamEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentinel_stream_events_total",
			Help: "Total number of events delivered by venue streams",
		},
		[]string{"venue"},
	)

	// StreamReconnectsTotal tracks reconnect attempts per venue stream
	StreamReconnectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentinel_stream_reconnects_total",
			Help: "Total number of stream reconnect attempts",
		},
		[]string{"venue"},
	)

	// GasFetchTotal tracks gas source fetch attempts by outcome
	GasFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentinel_gas_fetch_total",
			Help: "Total number of gas source fetch attempts",
		},
		[]string{"source", "outcome"},
	)

	// GasFetchLatency tracks gas source fetch latency
	GasFetchLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sentinel_gas_fetch_latency_seconds",
			Help:    "Gas source fetch latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	// GasCacheTotal tracks oracle cache hits and misses
	GasCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentinel_gas_cache_total",
			Help: "Total number of gas cache lookups by outcome",
		},
		[]string{"outcome"},
	)

	// RouteOutcomesTotal tracks recorded route outcomes
	RouteOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentinel_route_outcomes_total",
			Help: "Total number of recorded route outcomes",
		},
		[]string{"route", "outcome"},
	)

	// RoutesByState tracks the number of routes in each health state
	RoutesByState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sentinel_routes_by_state",
			Help: "Number of tracked routes in each health state",
		},
		[]string{"state"},
	)

	// HedgeAttemptsTotal tracks hedge submission attempts by outcome
	HedgeAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentinel_hedge_attempts_total",
			Help: "Total number of hedge submission attempts",
		},
		[]string{"outcome"},
	)

	// EscalationsTotal tracks emitted escalations
	EscalationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sentinel_escalations_total",
			Help: "Total number of escalations emitted",
		},
	)
)
