// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Availability sweep metrics
	SweepsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "availability_sweeps_total",
			Help: "Total number of availability sweeps by outcome",
		},
		[]string{"trigger", "outcome"}, // trigger: "manual", "auto", "scheduled"
	)

	SweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "availability_sweep_duration_seconds",
			Help:    "Duration of completed availability sweeps in seconds",
			Buckets: []float64{0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	LastSweepCompletion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "availability_last_sweep_completion_timestamp",
			Help: "Unix time at which the most recent availability sweep finished",
		},
	)

	ProbesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "availability_probes_total",
			Help: "Total number of media server availability probes by result",
		},
		[]string{"result"}, // result: "matched", "not_found", "failed"
	)

	StatusWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "availability_status_write_failures_total",
			Help: "Total number of availability results that could not be persisted",
		},
	)

	ConnectivityUp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_server_connectivity_up",
			Help: "Last observed media server connectivity (1=reachable, 0=unreachable)",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Curated list sync
	ListSyncsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curated_list_syncs_total",
			Help: "Total number of curated list resyncs by result",
		},
		[]string{"result"},
	)

	// Progress stream
	ProgressSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "availability_progress_subscribers",
			Help: "Current number of connected sweep progress websocket clients",
		},
	)
)
