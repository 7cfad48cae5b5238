package domain

// Workload is a unit of inference work bound to one model identity.
//
// Lifecycle: created at request arrival, destroyed at completion.
// MemoryRequirementMB is immutable for the life of the workload.
type Workload struct {
	ID                  string
	ModelID             string
	MemoryRequirementMB int
	ActiveRequests      int
}

// PlacementCandidate is a borrowed view of a Node plus the derived fields the
// placement engine needs: current load and the set of models already warm
// on that node. Candidates are short-lived — they do not own the Node.
type PlacementCandidate struct {
	Node           Node
	ActiveRequests int
	LoadedModels   map[string]struct{}
}

// Viable reports whether the candidate has enough free accelerator memory
// to host w. Equality (>=) counts as viable, per the boundary test.
func (c PlacementCandidate) Viable(w Workload) bool {
	return c.Node.FreeMemoryMB() >= w.MemoryRequirementMB
}

// HasModel reports whether the candidate already has modelID loaded.
func (c PlacementCandidate) HasModel(modelID string) bool {
	if c.LoadedModels == nil {
		return false
	}
	_, ok := c.LoadedModels[modelID]
	return ok
}

// FilterViable returns the subset of candidates viable for w.
func FilterViable(candidates []PlacementCandidate, w Workload) []PlacementCandidate {
	out := make([]PlacementCandidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Viable(w) {
			out = append(out, c)
		}
	}
	return out
}
