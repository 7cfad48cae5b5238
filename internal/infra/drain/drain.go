// Package drain implements the drain controller: bleed traffic off a
// condemned node within a hard grace-derived budget before it is
// terminated.
//
// Poll loop shaped like internal/health/checker.go's runAll ticker;
// timeout-budget semantics shaped like the teacher's incident-isolation
// timeout. The in-flight check's two branches are resolved per the
// specification's explicit ruling, not original_source/drain.rs's
// always-optimistic branch — see DESIGN.md.
package drain

import (
	"context"
	"time"

	"github.com/synkti/fleetd/internal/domain"
)

// DefaultBudget is 5s short of the typical 120s grace window. Kept
// configurable, not hard-coded — no source justifies this exact number.
const DefaultBudget = 115 * time.Second

// PollInterval is how often the controller checks in-flight counters.
const PollInterval = 500 * time.Millisecond

// Observability is the subset of the local inference-engine adapter the
// drain controller needs: readable running/waiting gauges, with a health
// fallback when gauges are unavailable.
type Observability interface {
	// InFlightCounts returns (running, waiting, ok). ok is false when the
	// gauges could not be read at all (distinct from a successful read of
	// zero).
	InFlightCounts(ctx context.Context) (running, waiting int, ok bool)
	// Healthy reports whether the engine still answers its health check.
	Healthy(ctx context.Context) bool
}

// Router is the subset of the load-balancer adapter the drain controller
// may optionally use to mark a node non-routable.
type Router interface {
	Deregister(ctx context.Context, nodeID string) error
}

// Controller drains one node at a time.
type Controller struct {
	Budget time.Duration
	Router Router // optional; nil means "log the intent only"
	Now    func() time.Time
}

// New creates a Controller with the default 115s budget.
func New() *Controller {
	return &Controller{Budget: DefaultBudget, Now: time.Now}
}

// Drain marks node non-routable, then polls its in-flight counters every
// PollInterval until idle or the budget is exhausted.
func (c *Controller) Drain(ctx context.Context, nodeID string, obs Observability) domain.DrainRecord {
	now := c.Now
	if now == nil {
		now = time.Now
	}
	start := now()

	if err := c.setDraining(ctx, nodeID); err != nil {
		return domain.DrainRecord{Status: domain.DrainStatusFailed, ElapsedSecs: now().Sub(start).Seconds(), NodeID: nodeID}
	}

	deadline := start.Add(c.Budget)
	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	for {
		if c.isIdle(ctx, obs) {
			return domain.DrainRecord{Status: domain.DrainStatusDrained, ElapsedSecs: now().Sub(start).Seconds(), NodeID: nodeID}
		}
		if !now().Before(deadline) {
			return domain.DrainRecord{Status: domain.DrainStatusTimedOut, ElapsedSecs: now().Sub(start).Seconds(), NodeID: nodeID}
		}

		select {
		case <-ctx.Done():
			return domain.DrainRecord{Status: domain.DrainStatusTimedOut, ElapsedSecs: now().Sub(start).Seconds(), NodeID: nodeID}
		case <-ticker.C:
		}
	}
}

// setDraining requests deregistration if a Router is configured; otherwise
// it only logs the intent. Safe to call twice — the second call is a
// no-op from the router's perspective (deregistering an absent target).
func (c *Controller) setDraining(ctx context.Context, nodeID string) error {
	if c.Router == nil {
		return nil
	}
	return c.Router.Deregister(ctx, nodeID)
}

// isIdle implements §4.3's three-branch rule:
//   - counters readable and non-zero -> not idle (keep waiting)
//   - counters unreadable but health check passes -> conservatively not idle
//   - health check fails or engine unreachable -> optimistically idle
func (c *Controller) isIdle(ctx context.Context, obs Observability) bool {
	running, waiting, ok := obs.InFlightCounts(ctx)
	if ok {
		return running == 0 && waiting == 0
	}
	if obs.Healthy(ctx) {
		return false // conservative: readable health, assume still in-flight
	}
	return true // optimistic: engine is already gone
}
