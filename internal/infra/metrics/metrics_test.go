package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func gatheredNames(t *testing.T) map[string]bool {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	return names
}

func TestDrainDurationRegistered(t *testing.T) {
	DrainDuration.WithLabelValues("drained").Observe(12.5)
	if !gatheredNames(t)["fleetd_drain_duration_seconds"] {
		t.Error("fleetd_drain_duration_seconds not found")
	}
}

func TestFailoverMetrics(t *testing.T) {
	FailoverAttempts.WithLabelValues("success").Inc()
	FailoverPhaseDuration.WithLabelValues("drain").Observe(1.2)
	SelectDuration.Observe(0.01)
	SpawnDuration.Observe(45)
	HealthCheckDuration.Observe(30)
	HealthCheckTimeouts.Inc()

	names := gatheredNames(t)
	expected := []string{
		"fleetd_failover_attempts_total",
		"fleetd_failover_phase_duration_seconds",
		"fleetd_select_duration_seconds",
		"fleetd_spawn_duration_seconds",
		"fleetd_health_check_duration_seconds",
		"fleetd_health_check_timeouts_total",
	}
	for _, name := range expected {
		if !names[name] {
			t.Errorf("metric %q not found", name)
		}
	}
}

func TestPreemptionNotices(t *testing.T) {
	PreemptionNotices.WithLabelValues("terminate").Inc()
	if !gatheredNames(t)["fleetd_preemption_notices_total"] {
		t.Error("fleetd_preemption_notices_total not found")
	}
}

func TestPeersKnownGauge(t *testing.T) {
	PeersKnown.Set(7)
	if !gatheredNames(t)["fleetd_peers_known"] {
		t.Error("fleetd_peers_known not found")
	}
}

func TestEngineGauges(t *testing.T) {
	EngineRequestsRunning.Set(3)
	EngineRequestsWaiting.Set(1)

	names := gatheredNames(t)
	if !names["fleetd_engine_requests_running"] {
		t.Error("fleetd_engine_requests_running not found")
	}
	if !names["fleetd_engine_requests_waiting"] {
		t.Error("fleetd_engine_requests_waiting not found")
	}
}

func TestCircuitBreakerAndQuarantineGauges(t *testing.T) {
	CircuitBreakerState.WithLabelValues("cloud-provider").Set(1)
	NodesQuarantined.Set(2)

	names := gatheredNames(t)
	if !names["fleetd_circuit_breaker_state"] {
		t.Error("fleetd_circuit_breaker_state not found")
	}
	if !names["fleetd_nodes_quarantined"] {
		t.Error("fleetd_nodes_quarantined not found")
	}
}

func TestAllMetricsGatherable(t *testing.T) {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}

	fleetdMetrics := 0
	for _, f := range families {
		if len(f.GetName()) >= 7 && f.GetName()[:7] == "fleetd_" {
			fleetdMetrics++
		}
	}
	if fleetdMetrics < 10 {
		t.Errorf("expected at least 10 fleetd_ metrics, got %d", fleetdMetrics)
	}
}
