// Package placement selects one replacement node from a set of candidates
// for a given workload.
//
// Directly grounded on internal/infra/scheduler/scheduler.go's
// NodeCandidate/ScoreNode/RankNodes shape and original_source/assign.rs's
// four-strategy NodeAssigner. Deviations from assign.rs: Earliest and
// LeastLoaded add an explicit lexicographic tie-break on node id (assign.rs's
// min_by_key has none), and Random takes an injectable *rand.Rand instead of
// assign.rs's DefaultHasher-over-wall-clock-nanos, so tests can fix the seed.
package placement

import (
	"math/rand"

	"github.com/synkti/fleetd/internal/domain"
)

// Strategy selects one viable candidate for a workload, or none.
type Strategy interface {
	Name() string
	Select(candidates []domain.PlacementCandidate, w domain.Workload) (domain.PlacementCandidate, bool)
}

// Earliest picks the candidate with the oldest launch timestamp.
type Earliest struct{}

func (Earliest) Name() string { return "earliest" }

func (Earliest) Select(candidates []domain.PlacementCandidate, w domain.Workload) (domain.PlacementCandidate, bool) {
	viable := domain.FilterViable(candidates, w)
	if len(viable) == 0 {
		return domain.PlacementCandidate{}, false
	}
	best := viable[0]
	for _, c := range viable[1:] {
		if c.Node.LaunchedAt.Before(best.Node.LaunchedAt) ||
			(c.Node.LaunchedAt.Equal(best.Node.LaunchedAt) && c.Node.ID < best.Node.ID) {
			best = c
		}
	}
	return best, true
}

// LeastLoaded picks the candidate with the fewest active requests.
type LeastLoaded struct{}

func (LeastLoaded) Name() string { return "least-loaded" }

func (LeastLoaded) Select(candidates []domain.PlacementCandidate, w domain.Workload) (domain.PlacementCandidate, bool) {
	viable := domain.FilterViable(candidates, w)
	return leastLoadedOf(viable)
}

func leastLoadedOf(viable []domain.PlacementCandidate) (domain.PlacementCandidate, bool) {
	if len(viable) == 0 {
		return domain.PlacementCandidate{}, false
	}
	best := viable[0]
	for _, c := range viable[1:] {
		if c.ActiveRequests < best.ActiveRequests ||
			(c.ActiveRequests == best.ActiveRequests && c.Node.ID < best.Node.ID) {
			best = c
		}
	}
	return best, true
}

// WarmLeastLoaded prefers candidates that already have the workload's model
// loaded; among those, LeastLoaded. Falls back to LeastLoaded over all
// viable candidates when none are warm.
type WarmLeastLoaded struct{}

func (WarmLeastLoaded) Name() string { return "warm-least-loaded" }

func (WarmLeastLoaded) Select(candidates []domain.PlacementCandidate, w domain.Workload) (domain.PlacementCandidate, bool) {
	viable := domain.FilterViable(candidates, w)
	if len(viable) == 0 {
		return domain.PlacementCandidate{}, false
	}

	warm := make([]domain.PlacementCandidate, 0, len(viable))
	for _, c := range viable {
		if c.HasModel(w.ModelID) {
			warm = append(warm, c)
		}
	}
	if len(warm) > 0 {
		return leastLoadedOf(warm)
	}
	return leastLoadedOf(viable)
}

// Random picks uniformly at random among viable candidates. Rand must be
// seeded explicitly in tests for determinism; production callers pass a
// *rand.Rand seeded from wall-clock time.
type Random struct {
	Rand *rand.Rand
}

func (Random) Name() string { return "random" }

func (r Random) Select(candidates []domain.PlacementCandidate, w domain.Workload) (domain.PlacementCandidate, bool) {
	viable := domain.FilterViable(candidates, w)
	if len(viable) == 0 {
		return domain.PlacementCandidate{}, false
	}
	src := r.Rand
	if src == nil {
		src = rand.New(rand.NewSource(0))
	}
	return viable[src.Intn(len(viable))], true
}
