package registry

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/synkti/fleetd/internal/domain"
	"github.com/synkti/fleetd/internal/infra/cloud"
)

// PeerRegistry is a tag-discovered, periodically refreshed snapshot of
// fleet siblings. Readers never observe a torn snapshot: the background
// refresher builds a new slice and swaps it in under the write lock in one
// step.
//
// Modeled on the lock-protected-snapshot-plus-background-refresh shape the
// teacher uses for its peer fabric, generalized here to a tag-query poller
// against the cloud provider boundary instead of a gossip/SWIM membership
// protocol — the spec calls for tag-based discovery, not gossip.
type PeerRegistry struct {
	mu       sync.RWMutex
	snapshot []domain.Node

	provider cloud.Provider
	fleet    string
	selfID   string
	interval time.Duration
}

// NewPeerRegistry creates a registry for the given fleet label. selfID is
// excluded from every snapshot.
func NewPeerRegistry(provider cloud.Provider, fleet, selfID string, interval time.Duration) *PeerRegistry {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &PeerRegistry{
		provider: provider,
		fleet:    fleet,
		selfID:   selfID,
		interval: interval,
	}
}

// Discover performs a one-shot discovery call and returns the current set
// of fleet peers, excluding self. It does not touch the shared snapshot.
func (r *PeerRegistry) Discover(ctx context.Context) ([]domain.Node, error) {
	nodes, err := r.provider.ListInstances(ctx, map[string]string{
		domain.FleetLabelKey: r.fleet,
		domain.RoleLabelKey:  domain.RoleWorker,
	})
	if err != nil {
		return nil, err
	}
	out := make([]domain.Node, 0, len(nodes))
	for _, n := range nodes {
		if n.ID == r.selfID {
			continue
		}
		if !n.IsFleetWorker(r.fleet) {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

// Snapshot returns the current peer set. Safe for concurrent readers.
func (r *PeerRegistry) Snapshot() []domain.Node {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Node, len(r.snapshot))
	copy(out, r.snapshot)
	return out
}

// Run refreshes the snapshot every interval until ctx is cancelled. Errors
// are logged and the previous snapshot is retained.
func (r *PeerRegistry) Run(ctx context.Context) {
	r.refresh(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.refresh(ctx)
		}
	}
}

func (r *PeerRegistry) refresh(ctx context.Context) {
	nodes, err := r.Discover(ctx)
	if err != nil {
		log.Printf("registry: refresh failed, keeping previous snapshot: %v", err)
		return
	}
	r.mu.Lock()
	r.snapshot = nodes
	r.mu.Unlock()
}

// TagSelf tags this node into the fleet as a worker. Called on boot.
func TagSelf(ctx context.Context, provider cloud.Provider, nodeID, fleet string) error {
	return provider.WriteTags(ctx, nodeID, map[string]string{
		domain.FleetLabelKey: fleet,
		domain.RoleLabelKey:  domain.RoleWorker,
	})
}

// UntagSelf removes this node's fleet membership tags. Called on graceful
// shutdown — its inverse is TagSelf.
func UntagSelf(ctx context.Context, provider cloud.Provider, nodeID string) error {
	return provider.WriteTags(ctx, nodeID, map[string]string{
		domain.FleetLabelKey: "",
		domain.RoleLabelKey:  "",
	})
}
