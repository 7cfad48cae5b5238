// Package elb adapts the external load balancer's four idempotent target
// operations, expressed against the abstract cloud.Provider boundary
// instead of a concrete aws-sdk-elasticloadbalancingv2 client.
//
// Directly grounded on original_source/elb.rs's LoadBalancerManager.
package elb

import (
	"context"
	"fmt"
	"time"

	"github.com/synkti/fleetd/internal/domain"
	"github.com/synkti/fleetd/internal/infra/cloud"
)

// PollInterval is the interval used by Wait-healthy and Wait-drained.
const PollInterval = 2 * time.Second

// Adapter wraps a cloud.Provider's target-registration capability.
type Adapter struct {
	Provider cloud.Provider
}

// New creates an Adapter over the given provider.
func New(provider cloud.Provider) *Adapter {
	return &Adapter{Provider: provider}
}

// Deregister requests removal and returns immediately. Connection draining
// is the router's job; callers that need to wait use WaitDrained.
func (a *Adapter) Deregister(ctx context.Context, nodeID string) error {
	return a.Provider.DeregisterTarget(ctx, nodeID, 0)
}

// Register requests addition.
func (a *Adapter) Register(ctx context.Context, nodeID string) error {
	return a.Provider.RegisterTarget(ctx, nodeID, 0)
}

// WaitHealthy polls every PollInterval until the target reports Healthy.
// Any transient Initial/Unhealthy/Draining state is silently retried.
// Returns a timeout error if the deadline is reached first.
func (a *Adapter) WaitHealthy(ctx context.Context, nodeID string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	for {
		health, err := a.Provider.TargetHealth(ctx, nodeID, 0)
		if err == nil && health == cloud.TargetHealthy {
			return nil
		}
		if !time.Now().Before(deadline) {
			return fmt.Errorf("elb: %w for %s", domain.ErrTargetHealthTimeout, nodeID)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// WaitDrained polls until the target disappears from the group or is
// reported Draining/Absent. Timeout is NOT an error here — it yields
// success, since the orchestrator terminates the node regardless.
func (a *Adapter) WaitDrained(ctx context.Context, nodeID string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(PollInterval)
	defer ticker.Stop()

	for {
		health, err := a.Provider.TargetHealth(ctx, nodeID, 0)
		if err == nil && (health == cloud.TargetAbsent || health == cloud.TargetDraining) {
			return nil
		}
		if !time.Now().Before(deadline) {
			return nil // timeout is success for wait-drained
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
