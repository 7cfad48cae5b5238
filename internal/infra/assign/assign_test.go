package assign

import (
	"math"
	"testing"
)

// Scenario 5: two tasks (1000MB, 4000MB), two identical candidates (24GB
// free, 10Gb/s). Both placed; total cost = 1000/1250 + 4000/1250 = 4.0s.
func TestOptimalTwoTasksTwoTargets(t *testing.T) {
	tasks := []Task{{ID: "t1", SizeMB: 1000}, {ID: "t2", SizeMB: 4000}}
	targets := []Target{
		{ID: "c1", HeadroomMB: 24576, BandwidthGbps: 10},
		{ID: "c2", HeadroomMB: 24576, BandwidthGbps: 10},
	}

	plan := Optimal(tasks, targets)
	if plan.Unplaced != 0 {
		t.Fatalf("unplaced = %d, want 0", plan.Unplaced)
	}
	if len(plan.Pairs) != 2 {
		t.Fatalf("pairs = %d, want 2", len(plan.Pairs))
	}
	if math.Abs(plan.TotalSeconds-4.0) > 0.01 {
		t.Fatalf("total seconds = %v, want ~4.0", plan.TotalSeconds)
	}
}

func TestOptimalBeatsOrMatchesFirstFit(t *testing.T) {
	tasks := []Task{{SizeMB: 5000}, {SizeMB: 3000}, {SizeMB: 9000}}
	targets := []Target{
		{HeadroomMB: 10000, BandwidthGbps: 10},
		{HeadroomMB: 10000, BandwidthGbps: 5},
		{HeadroomMB: 10000, BandwidthGbps: 20},
	}

	opt := Optimal(tasks, targets)
	ff := FirstFit(tasks, targets)

	if opt.Unplaced > ff.Unplaced {
		t.Fatalf("optimal unplaced %d worse than first-fit %d", opt.Unplaced, ff.Unplaced)
	}
	if opt.Unplaced == ff.Unplaced && opt.TotalSeconds > ff.TotalSeconds+1e-6 {
		t.Fatalf("optimal total %v should be <= first-fit total %v", opt.TotalSeconds, ff.TotalSeconds)
	}
}

func TestInfeasiblePairExcluded(t *testing.T) {
	tasks := []Task{{SizeMB: 50000}}
	targets := []Target{{HeadroomMB: 1000, BandwidthGbps: 10}}

	plan := Optimal(tasks, targets)
	if plan.Unplaced != 1 {
		t.Fatalf("unplaced = %d, want 1 (oversized task)", plan.Unplaced)
	}
}

func TestCheckpointRatioClampsToOne(t *testing.T) {
	tasks := []Task{{SizeMB: 100}}
	targets := []Target{{BandwidthGbps: 100}}
	if r := CheckpointRatio(tasks, targets, 60); r != 1 {
		t.Fatalf("ratio = %v, want clamped to 1", r)
	}
}

func TestFeasibleWithinGrace(t *testing.T) {
	tasks := []Task{{SizeMB: 1000}, {SizeMB: 4000}}
	targets := []Target{
		{HeadroomMB: 24576, BandwidthGbps: 10},
		{HeadroomMB: 24576, BandwidthGbps: 10},
	}
	if !FeasibleWithinGrace(tasks, targets, 5) {
		t.Fatal("expected feasible within 5s grace")
	}
	if FeasibleWithinGrace(tasks, targets, 1) {
		t.Fatal("expected infeasible within 1s grace")
	}
}
