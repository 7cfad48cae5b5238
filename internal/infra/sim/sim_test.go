package sim

import (
	"math/rand"
	"testing"

	"github.com/synkti/fleetd/internal/domain"
)

// Mirrors original_source/simulator.rs's test_simulator_creation: a fresh
// simulator starts at time zero with zero cost and zero completions.
func TestNewSimulatorStartsAtZero(t *testing.T) {
	cfg := DefaultConfig(rand.New(rand.NewSource(1)))
	s := New(cfg)

	if s.currentHour != 0 {
		t.Errorf("currentHour = %v, want 0", s.currentHour)
	}
	if s.totalCost != 0 {
		t.Errorf("totalCost = %v, want 0", s.totalCost)
	}
	if len(s.completedTaskIDs) != 0 {
		t.Errorf("completedTaskIDs = %v, want empty", s.completedTaskIDs)
	}
}

// Mirrors original_source/simulator.rs's test_simple_task_completion: one
// on-demand-only task over a run long enough to finish completes with zero
// preemptions and a nonzero accrued cost.
func TestSimpleTaskCompletionOnDemandOnly(t *testing.T) {
	cfg := DefaultConfig(rand.New(rand.NewSource(1)))
	cfg.Policy = OnDemandOnlyPolicy{}
	s := New(cfg)

	s.AddTask(NewTask("task-1", 0, 1))

	result := s.Run(10)

	if result.CompletedTasks != 1 {
		t.Fatalf("CompletedTasks = %d, want 1", result.CompletedTasks)
	}
	if result.TotalPreemptions != 0 {
		t.Errorf("TotalPreemptions = %d, want 0", result.TotalPreemptions)
	}
	if result.TotalCost <= 0 {
		t.Errorf("TotalCost = %v, want > 0", result.TotalCost)
	}
}

func TestRunDropsEventsBeyondDuration(t *testing.T) {
	cfg := DefaultConfig(rand.New(rand.NewSource(1)))
	cfg.Policy = OnDemandOnlyPolicy{}
	s := New(cfg)

	s.AddTask(NewTask("task-1", 0, 100)) // won't finish inside a 5-hour run

	result := s.Run(5)
	if result.CompletedTasks != 0 {
		t.Errorf("CompletedTasks = %d, want 0 (task runs past the horizon)", result.CompletedTasks)
	}
}

// Exercises the Kuhn-Munkres migration path by forcing a preemption and
// confirming the displaced task is reassigned to the only other running
// instance rather than left pending.
func TestHandlePreemptionMigratesToAnotherInstance(t *testing.T) {
	cfg := DefaultConfig(rand.New(rand.NewSource(1)))
	cfg.Policy = &GreedyPolicy{}
	s := New(cfg)

	s.instances["inst-a"] = &Instance{ID: "inst-a", State: domain.NodeRunning, GPUMemoryMB: 24576, NetworkBandwidth: 10}
	s.instances["inst-b"] = &Instance{ID: "inst-b", State: domain.NodeRunning, GPUMemoryMB: 24576, NetworkBandwidth: 10}

	task := NewTask("task-1", 0, 2)
	s.tasks[task.ID] = &task
	s.assignTaskToInstance(&task, "inst-a")

	s.handlePreemption("inst-a")

	if s.instances["inst-a"].State != domain.NodeTerminated {
		t.Fatalf("inst-a State = %v, want Terminated", s.instances["inst-a"].State)
	}
	if task.AssignedTo != "inst-b" {
		t.Fatalf("task.AssignedTo = %q, want inst-b", task.AssignedTo)
	}
	if s.totalPreemptions != 1 {
		t.Errorf("totalPreemptions = %d, want 1", s.totalPreemptions)
	}
	if s.checkpointsAttempted == 0 {
		t.Error("expected at least one checkpoint attempt for the displaced task")
	}
}

func TestGetSpotPriceAtFallsBackWhenNoTrace(t *testing.T) {
	cfg := DefaultConfig(rand.New(rand.NewSource(1)))
	s := New(cfg)

	price, ok := s.getSpotPriceAt(5)
	if ok {
		t.Error("expected ok=false with no configured trace")
	}
	if price != 0.30 {
		t.Errorf("price = %v, want 0.30 default", price)
	}
}

func TestGenerateSimpleTrace(t *testing.T) {
	prices := GenerateSimple(10, 0.30, 0.05)
	if len(prices) != 10 {
		t.Fatalf("len = %d, want 10", len(prices))
	}
	if prices[0].Price != 0.30 || prices[0].Probability != 0.05 {
		t.Errorf("prices[0] = %+v, want price=0.30 probability=0.05", prices[0])
	}
}

func TestPriceGeneratorStaysWithinBounds(t *testing.T) {
	gen := NewPriceGenerator(0.30, 1.00, 0.05, rand.New(rand.NewSource(7)))
	prices := gen.Generate(24, 1)

	if len(prices) != 24 {
		t.Fatalf("len = %d, want 24", len(prices))
	}
	for i, p := range prices {
		if p.Price <= 0 || p.Price >= 1.00 {
			t.Errorf("prices[%d].Price = %v, want in (0, 1.00)", i, p.Price)
		}
		if p.Probability < 0 || p.Probability >= 1 {
			t.Errorf("prices[%d].Probability = %v, want in [0, 1)", i, p.Probability)
		}
	}
}
