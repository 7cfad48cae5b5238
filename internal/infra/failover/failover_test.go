package failover

import (
	"context"
	"testing"
	"time"

	"github.com/synkti/fleetd/internal/domain"
	"github.com/synkti/fleetd/internal/infra/placement"
)

// idleObs reports idle on the first poll — the node never had any
// in-flight requests.
type idleObs struct{}

func (idleObs) InFlightCounts(ctx context.Context) (int, int, bool) { return 0, 0, true }
func (idleObs) Healthy(ctx context.Context) bool                    { return false }

type okSpawner struct{ calls int }

func (s *okSpawner) Spawn(ctx context.Context, nodeID string, w domain.Workload) error {
	s.calls++
	return nil
}

type alwaysHealthy struct{}

func (alwaysHealthy) Healthy(ctx context.Context, nodeID string) bool { return true }

type neverHealthy struct{}

func (neverHealthy) Healthy(ctx context.Context, nodeID string) bool { return false }

func peer(id string) domain.PlacementCandidate {
	return domain.PlacementCandidate{
		Node: domain.Node{
			ID:            id,
			State:         domain.NodeRunning,
			MemoryTotalMB: 24576,
		},
	}
}

// Scenario 6: zero-seconds-until-action notice, immediate idle drain, a
// single viable peer -> success, drain_secs small, select_secs small,
// replacement is the peer.
func TestHandlePreemptionImmediateSuccess(t *testing.T) {
	cfg := Config{
		Strategy:            placement.LeastLoaded{},
		HealthCheckTimeout:  2 * time.Second,
		HealthCheckInterval: 10 * time.Millisecond,
		DrainBudget:         115 * time.Second,
		Now:                 time.Now,
	}
	spawner := &okSpawner{}
	o := New(cfg, spawner, alwaysHealthy{})

	candidates := []domain.PlacementCandidate{peer("i-peer")}
	w := domain.Workload{ModelID: "llama-7b", MemoryRequirementMB: 8000}

	rec := o.HandlePreemption(context.Background(), "i-preempted", idleObs{}, candidates, w)

	if !rec.Success {
		t.Fatalf("expected success, got %+v", rec)
	}
	if rec.ReplacementNodeID != "i-peer" {
		t.Fatalf("replacement = %q, want i-peer", rec.ReplacementNodeID)
	}
	if rec.PhaseTimes.DrainSecs > 1.0 {
		t.Fatalf("drain_secs = %v, want <= 1.0 for an idle node", rec.PhaseTimes.DrainSecs)
	}
	if rec.PhaseTimes.SelectSecs >= 0.1 {
		t.Fatalf("select_secs = %v, want < 0.1", rec.PhaseTimes.SelectSecs)
	}
	if spawner.calls != 1 {
		t.Fatalf("spawner called %d times, want 1", spawner.calls)
	}
	if rec.HealthCheckTimedOut {
		t.Fatal("expected health check to succeed immediately")
	}
}

func TestHandlePreemptionNoSuitableReplacement(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HealthCheckInterval = 10 * time.Millisecond
	o := New(cfg, &okSpawner{}, alwaysHealthy{})

	w := domain.Workload{MemoryRequirementMB: 30000}
	rec := o.HandlePreemption(context.Background(), "i-preempted", idleObs{}, []domain.PlacementCandidate{peer("i-1")}, w)

	if rec.Success {
		t.Fatalf("expected failure, got success: %+v", rec)
	}
	if rec.Error != domain.ErrNoSuitableReplacement.Error() {
		t.Fatalf("error = %q, want %q", rec.Error, domain.ErrNoSuitableReplacement)
	}
}

func TestHandlePreemptionHealthCheckTimeoutIsStillSuccess(t *testing.T) {
	cfg := Config{
		Strategy:            placement.LeastLoaded{},
		HealthCheckTimeout:  30 * time.Millisecond,
		HealthCheckInterval: 5 * time.Millisecond,
		DrainBudget:         115 * time.Second,
		Now:                 time.Now,
	}
	o := New(cfg, &okSpawner{}, neverHealthy{})

	w := domain.Workload{MemoryRequirementMB: 1000}
	rec := o.HandlePreemption(context.Background(), "i-preempted", idleObs{}, []domain.PlacementCandidate{peer("i-1")}, w)

	if !rec.Success {
		t.Fatalf("health check timeout should still be success, got %+v", rec)
	}
	if !rec.HealthCheckTimedOut {
		t.Fatal("expected HealthCheckTimedOut to be true")
	}
}

func TestHandlePreemptionIgnoresSecondNoticeInFlight(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HealthCheckInterval = 10 * time.Millisecond
	o := New(cfg, &okSpawner{}, alwaysHealthy{})

	o.mu.Lock()
	o.inFlight["i-busy"] = true
	o.mu.Unlock()

	w := domain.Workload{MemoryRequirementMB: 1000}
	rec := o.HandlePreemption(context.Background(), "i-busy", idleObs{}, []domain.PlacementCandidate{peer("i-1")}, w)

	if rec.Success {
		t.Fatal("expected failure for a node already in flight")
	}
	if rec.Error != domain.ErrFailoverAlreadyInFlight.Error() {
		t.Fatalf("error = %q, want already-in-flight", rec.Error)
	}
}
