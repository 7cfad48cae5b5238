// Package metrics provides the Prometheus metrics fleetd exposes: drain,
// failover, select, and spawn histograms; preemption and failover
// counters; a known-peers gauge; circuit-breaker and quarantine state.
//
// Directly grounded on the teacher's metrics.go promauto-declared package
// variable shape — namespace renamed "tutu" -> "fleetd", metric set
// replaced wholesale to match this domain.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "fleetd"

// ─── Preemption ─────────────────────────────────────────────────────────────

// PreemptionNotices counts preemption notices received, by action.
var PreemptionNotices = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "preemption_notices_total",
	Help:      "Total preemption notices received, by spot action.",
}, []string{"action"})

// ─── Drain ──────────────────────────────────────────────────────────────────

// DrainDuration tracks how long the drain controller took, by outcome.
var DrainDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Name:      "drain_duration_seconds",
	Help:      "Time spent draining a node before termination, by outcome.",
	Buckets:   []float64{1, 5, 15, 30, 60, 90, 115, 120},
}, []string{"outcome"})

// ─── Failover ───────────────────────────────────────────────────────────────

// FailoverAttempts counts failover attempts, by outcome.
var FailoverAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "failover_attempts_total",
	Help:      "Total failover attempts, by outcome (success/failure).",
}, []string{"outcome"})

// FailoverPhaseDuration tracks elapsed seconds per failover phase.
var FailoverPhaseDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: namespace,
	Name:      "failover_phase_duration_seconds",
	Help:      "Time spent in each failover phase.",
	Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300},
}, []string{"phase"})

// SelectDuration tracks the placement engine's selection latency.
var SelectDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: namespace,
	Name:      "select_duration_seconds",
	Help:      "Time spent selecting a replacement candidate.",
	Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
})

// SpawnDuration tracks remote command dispatch-to-completion latency.
var SpawnDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: namespace,
	Name:      "spawn_duration_seconds",
	Help:      "Time spent spawning the replacement's inference container.",
	Buckets:   []float64{1, 5, 10, 30, 60, 120, 180},
})

// HealthCheckDuration tracks how long a replacement took to pass health.
var HealthCheckDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: namespace,
	Name:      "health_check_duration_seconds",
	Help:      "Time spent waiting for a replacement to become healthy.",
	Buckets:   []float64{1, 5, 15, 30, 60, 120, 180, 300},
})

// HealthCheckTimeouts counts failovers whose replacement missed the
// health-check budget (a warning, not a failure).
var HealthCheckTimeouts = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Name:      "health_check_timeouts_total",
	Help:      "Total failovers whose replacement did not pass health check in budget.",
})

// ─── Peers ──────────────────────────────────────────────────────────────────

// PeersKnown tracks the size of the last peer-registry snapshot.
var PeersKnown = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: namespace,
	Name:      "peers_known",
	Help:      "Number of fleet peers in the last registry snapshot.",
})

// ─── Engine ─────────────────────────────────────────────────────────────────

// EngineRequestsRunning mirrors the local inference engine's in-flight gauge.
var EngineRequestsRunning = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: namespace,
	Name:      "engine_requests_running",
	Help:      "Requests currently executing on the local inference engine.",
})

// EngineRequestsWaiting mirrors the local inference engine's queue depth.
var EngineRequestsWaiting = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: namespace,
	Name:      "engine_requests_waiting",
	Help:      "Requests queued on the local inference engine.",
})

// ─── Circuit breaker / quarantine ───────────────────────────────────────────

// CircuitBreakerState reports 0=closed, 1=open, 2=half-open per breaker name.
var CircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: namespace,
	Name:      "circuit_breaker_state",
	Help:      "Circuit breaker state (0=closed, 1=open, 2=half-open).",
}, []string{"name"})

// NodesQuarantined tracks the count of currently quarantined nodes.
var NodesQuarantined = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: namespace,
	Name:      "nodes_quarantined",
	Help:      "Number of nodes currently quarantined as placement candidates.",
})
