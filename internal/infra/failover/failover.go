// Package failover sequences the whole preemption response: drain, select
// a replacement, spawn it, wait for health, optionally register with the
// load balancer.
//
// The state machine and its phase-timing record are a direct generalization
// of internal/infra/selfheal/selfheal.go's Mesh/Incident state machine
// (Detected->Isolating->Remediating->Verifying->Resolved/Escalated becomes
// Idle->Drain->Stop->Select->Spawn->HealthCheck->Done), cross-checked
// against original_source/failover.rs's FailoverManager.handle_preemption
// phase sequence and FailoverPhaseTimes struct.
package failover

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/synkti/fleetd/internal/domain"
	"github.com/synkti/fleetd/internal/infra/drain"
	"github.com/synkti/fleetd/internal/infra/elb"
	"github.com/synkti/fleetd/internal/infra/placement"
)

// HealthCheckInterval and HealthCheckTimeout are the §4.7 defaults.
const (
	HealthCheckInterval = 2 * time.Second
	HealthCheckTimeout  = 300 * time.Second
)

// Spawner invokes the remote executor to start the inference container on
// the replacement node for the given workload.
type Spawner interface {
	Spawn(ctx context.Context, nodeID string, w domain.Workload) error
}

// HealthChecker polls a replacement node's health endpoint.
type HealthChecker interface {
	Healthy(ctx context.Context, nodeID string) bool
}

// Config configures one Orchestrator.
type Config struct {
	Strategy            placement.Strategy
	HealthCheckTimeout  time.Duration
	HealthCheckInterval time.Duration
	DrainBudget         time.Duration
	Now                 func() time.Time

	// ELB is optional; when set, a successful spawn is followed, after the
	// health-check phase (whether or not it timed out), by
	// register+wait-healthy. Failure here is non-fatal.
	ELB *elb.Adapter
}

// DefaultConfig mirrors the teacher's production() constructor shape:
// WarmLeastLoaded strategy, 115s drain budget, 300s health-check timeout.
func DefaultConfig() Config {
	return Config{
		Strategy:            placement.WarmLeastLoaded{},
		HealthCheckTimeout:  HealthCheckTimeout,
		HealthCheckInterval: HealthCheckInterval,
		DrainBudget:         drain.DefaultBudget,
		Now:                 time.Now,
	}
}

// Orchestrator runs failover attempts. It is single-threaded with respect
// to a given preempted node: a second notice for a node already in flight
// is ignored, mirroring the spec's "the node is already committed to
// terminating" rule.
type Orchestrator struct {
	cfg     Config
	drain   *drain.Controller
	spawner Spawner
	health  HealthChecker

	mu       sync.Mutex
	inFlight map[string]bool
}

// New creates an Orchestrator.
func New(cfg Config, spawner Spawner, health HealthChecker) *Orchestrator {
	if cfg.HealthCheckTimeout <= 0 {
		cfg.HealthCheckTimeout = HealthCheckTimeout
	}
	if cfg.HealthCheckInterval <= 0 {
		cfg.HealthCheckInterval = HealthCheckInterval
	}
	if cfg.DrainBudget <= 0 {
		cfg.DrainBudget = drain.DefaultBudget
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Strategy == nil {
		cfg.Strategy = placement.WarmLeastLoaded{}
	}
	dc := drain.New()
	dc.Budget = cfg.DrainBudget
	dc.Now = cfg.Now
	return &Orchestrator{
		cfg:      cfg,
		drain:    dc,
		spawner:  spawner,
		health:   health,
		inFlight: make(map[string]bool),
	}
}

// tryBegin marks nodeID as in-flight. Returns false if already in flight.
func (o *Orchestrator) tryBegin(nodeID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.inFlight[nodeID] {
		return false
	}
	o.inFlight[nodeID] = true
	return true
}

func (o *Orchestrator) finish(nodeID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.inFlight, nodeID)
}

// HandlePreemption runs the full Drain->Stop->Select->Spawn->HealthCheck
// sequence for one preemption notice. It ignores notices for nodes already
// mid-failover by returning a record that carries only the node id, the
// strategy name, Success=false and an "already in flight" error, matching
// the single-flight-per-node rule.
func (o *Orchestrator) HandlePreemption(
	ctx context.Context,
	preemptedNodeID string,
	obs drain.Observability,
	candidates []domain.PlacementCandidate,
	w domain.Workload,
) domain.FailoverRecord {
	if !o.tryBegin(preemptedNodeID) {
		return domain.FailoverRecord{
			Success:            false,
			PreemptedNodeID:    preemptedNodeID,
			AssignmentStrategy: o.cfg.Strategy.Name(),
			Error:              domain.ErrFailoverAlreadyInFlight.Error(),
		}
	}
	defer o.finish(preemptedNodeID)

	rec := domain.FailoverRecord{
		PreemptedNodeID:    preemptedNodeID,
		AssignmentStrategy: o.cfg.Strategy.Name(),
	}
	overallStart := o.cfg.Now()

	// ─── Drain ──────────────────────────────────────────────────────
	drainRec := o.drain.Drain(ctx, preemptedNodeID, obs)
	rec.PhaseTimes.DrainSecs = drainRec.ElapsedSecs
	if drainRec.Status == domain.DrainStatusFailed {
		rec.Error = "drain failed"
		rec.TotalSeconds = o.cfg.Now().Sub(overallStart).Seconds()
		return rec
	}

	// ─── Stop ───────────────────────────────────────────────────────
	// No-op in the common case — the provider terminates the node.
	// Kept as a phase to preserve timing symmetry with lifecycles that
	// require an explicit stop.
	rec.PhaseTimes.StopSecs = 0

	// ─── Select ─────────────────────────────────────────────────────
	selectStart := o.cfg.Now()
	replacement, ok := o.cfg.Strategy.Select(candidates, w)
	rec.PhaseTimes.SelectSecs = o.cfg.Now().Sub(selectStart).Seconds()
	if !ok {
		rec.Error = domain.ErrNoSuitableReplacement.Error()
		rec.TotalSeconds = o.cfg.Now().Sub(overallStart).Seconds()
		return rec
	}
	rec.ReplacementNodeID = replacement.Node.ID

	// ─── Spawn ──────────────────────────────────────────────────────
	spawnStart := o.cfg.Now()
	if err := o.spawner.Spawn(ctx, replacement.Node.ID, w); err != nil {
		rec.PhaseTimes.SpawnSecs = o.cfg.Now().Sub(spawnStart).Seconds()
		rec.Error = fmt.Sprintf("%s: %v", domain.ErrSpawnFailed, err)
		rec.TotalSeconds = o.cfg.Now().Sub(overallStart).Seconds()
		return rec
	}
	rec.PhaseTimes.SpawnSecs = o.cfg.Now().Sub(spawnStart).Seconds()

	// ─── HealthCheck ────────────────────────────────────────────────
	healthStart := o.cfg.Now()
	rec.HealthCheckTimedOut = !o.waitHealthy(ctx, replacement.Node.ID)
	rec.PhaseTimes.HealthCheckSecs = o.cfg.Now().Sub(healthStart).Seconds()

	// A health-check timeout is a warning, not a failure: the replacement
	// may still come up. The record is marked success regardless.
	rec.Success = true

	// ─── Register (optional) ───────────────────────────────────────
	if o.cfg.ELB != nil {
		_ = o.cfg.ELB.Register(ctx, replacement.Node.ID)
		_ = o.cfg.ELB.WaitHealthy(ctx, replacement.Node.ID, o.cfg.HealthCheckTimeout)
	}

	rec.TotalSeconds = o.cfg.Now().Sub(overallStart).Seconds()
	return rec
}

// waitHealthy polls health every HealthCheckInterval up to
// HealthCheckTimeout. Returns true on the first successful response.
func (o *Orchestrator) waitHealthy(ctx context.Context, nodeID string) bool {
	deadline := o.cfg.Now().Add(o.cfg.HealthCheckTimeout)
	ticker := time.NewTicker(o.cfg.HealthCheckInterval)
	defer ticker.Stop()

	if o.health.Healthy(ctx, nodeID) {
		return true
	}

	for o.cfg.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
			if o.health.Healthy(ctx, nodeID) {
				return true
			}
		}
	}
	return false
}
