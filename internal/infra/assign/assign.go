// Package assign implements the N-to-M migration assignment planner: an
// optimal bipartite matcher (Kuhn-Munkres / Hungarian algorithm) plus a
// first-fit variant used to quantify the gain of optimal matching.
//
// Directly grounded on original_source/migration.rs's MigrationPlanner: the
// cost formula, square-padding to max(n,m) with +infinity, x1000 integer
// quantization, and the >=1e9 sentinel cap for infeasible pairs are carried
// over unchanged. migration.rs itself calls into the Rust `pathfinding`
// crate's Kuhn-Munkres; no Go library in the retrieved corpus provides
// bipartite minimum-cost matching (grepped "hungarian|munkres|kuhn" across
// every go.mod/go.sum/.go file under _examples — no hits), so the O(n^3)
// matrix algorithm below is hand-rolled on the standard library only. See
// DESIGN.md for the stdlib-justification this requires.
package assign

import "math"

// mbPerGbpsSecond converts Gb/s to MB/s: 1 Gb/s = 1000 Mb/s = 125 MB/s.
const mbPerGbpsSecond = 125.0

// infeasibleSentinel is the quantized-cost cap for pairs that cannot be
// served at all (task size exceeds target headroom).
const infeasibleSentinel = 1_000_000_000

// quantizeScale turns a floating-point seconds cost into an integer cost
// for the matcher, per migration.rs's x1000 quantization.
const quantizeScale = 1000.0

// Task is one unit of work to be migrated.
type Task struct {
	ID      string
	SizeMB  float64
}

// Target is one candidate destination node.
type Target struct {
	ID            string
	HeadroomMB    float64
	BandwidthGbps float64
}

// Pair is one task-to-target assignment in a Plan.
type Pair struct {
	TaskIndex   int
	TargetIndex int
	Seconds     float64
}

// Plan is the outcome of an assignment run.
type Plan struct {
	Pairs          []Pair
	TotalSeconds   float64
	Unplaced       int
}

// costSeconds is the seconds to transfer one task to one target, or +Inf if
// the task does not fit in the target's headroom.
func costSeconds(t Task, c Target) float64 {
	if t.SizeMB > c.HeadroomMB {
		return math.Inf(1)
	}
	if c.BandwidthGbps <= 0 {
		return math.Inf(1)
	}
	return t.SizeMB / (c.BandwidthGbps * mbPerGbpsSecond)
}

// Optimal runs Kuhn-Munkres minimum-cost bipartite matching over tasks and
// targets and returns the plan with pairs, total predicted seconds, and the
// count of tasks that could not be placed.
func Optimal(tasks []Task, targets []Target) Plan {
	n, m := len(tasks), len(targets)
	size := n
	if m > size {
		size = m
	}
	if size == 0 {
		return Plan{}
	}

	// Build the square, quantized, sentinel-capped cost matrix.
	cost := make([][]int64, size)
	for i := 0; i < size; i++ {
		cost[i] = make([]int64, size)
		for j := 0; j < size; j++ {
			if i >= n || j >= m {
				cost[i][j] = infeasibleSentinel
				continue
			}
			secs := costSeconds(tasks[i], targets[j])
			if math.IsInf(secs, 1) {
				cost[i][j] = infeasibleSentinel
				continue
			}
			q := int64(secs * quantizeScale)
			if q >= infeasibleSentinel {
				q = infeasibleSentinel
			}
			cost[i][j] = q
		}
	}

	assignment := hungarian(cost)

	plan := Plan{}
	for i := 0; i < n; i++ {
		j := assignment[i]
		if j < 0 || j >= m || cost[i][j] >= infeasibleSentinel {
			plan.Unplaced++
			continue
		}
		secs := costSeconds(tasks[i], targets[j])
		plan.Pairs = append(plan.Pairs, Pair{TaskIndex: i, TargetIndex: j, Seconds: secs})
		plan.TotalSeconds += secs
	}
	return plan
}

// FirstFit greedily assigns each task to the first target with enough
// remaining headroom and bandwidth, in task order. Kept to quantify the
// gain the optimal planner provides over a cheap heuristic.
func FirstFit(tasks []Task, targets []Target) Plan {
	remaining := make([]float64, len(targets))
	for i, c := range targets {
		remaining[i] = c.HeadroomMB
	}

	plan := Plan{}
	for i, t := range tasks {
		placed := false
		for j, c := range targets {
			if t.SizeMB <= remaining[j] && c.BandwidthGbps > 0 {
				secs := t.SizeMB / (c.BandwidthGbps * mbPerGbpsSecond)
				plan.Pairs = append(plan.Pairs, Pair{TaskIndex: i, TargetIndex: j, Seconds: secs})
				plan.TotalSeconds += secs
				remaining[j] -= t.SizeMB
				placed = true
				break
			}
		}
		if !placed {
			plan.Unplaced++
		}
	}
	return plan
}

// FeasibleWithinGrace reports whether the optimal plan's total transfer
// time fits inside the given grace budget.
func FeasibleWithinGrace(tasks []Task, targets []Target, graceSecs float64) bool {
	plan := Optimal(tasks, targets)
	return plan.Unplaced == 0 && plan.TotalSeconds <= graceSecs
}

// CheckpointRatio returns min(1, sum(bandwidth)*grace / sum(footprint)) —
// the fraction of aggregate state theoretically transferable inside the
// grace window. Informational only: the live path never transfers
// accelerator state.
func CheckpointRatio(tasks []Task, targets []Target, graceSecs float64) float64 {
	var totalFootprint, totalBandwidth float64
	for _, t := range tasks {
		totalFootprint += t.SizeMB
	}
	for _, c := range targets {
		totalBandwidth += c.BandwidthGbps
	}
	if totalFootprint <= 0 {
		return 1
	}
	ratio := (totalBandwidth * mbPerGbpsSecond * graceSecs) / totalFootprint
	if ratio > 1 {
		return 1
	}
	return ratio
}
