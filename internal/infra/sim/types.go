// Package sim implements the discrete-event simulator: a single-threaded
// replay engine over synthesized arrival, price, and preemption traces, so
// migration and placement policies can be compared offline before they are
// trusted on real hardware. It places tasks with its own first-fit scan and
// re-homes displaced tasks through the assign package's planners; it does
// not call the live daemon's placement or drain packages.
//
// Directly grounded on original_source/simulator.rs (tessera-simulation-engine)
// and its sibling crate's policies.rs/types.rs/spot_data.rs. The event loop,
// pending-task assignment (collapsed to one pass, see assignPendingTasks),
// exponential preemption scheduling, and
// Ornstein-Uhlenbeck price generator are carried over with Go-idiomatic
// naming; task/instance state is plain structs rather than an ECS, since the
// simulator never needs more than map lookups by id.
package sim

import "github.com/synkti/fleetd/internal/domain"

// InstanceType distinguishes a simulated instance's billing/preemption class.
type InstanceType int

const (
	Spot InstanceType = iota
	OnDemand
)

func (t InstanceType) String() string {
	if t == Spot {
		return "spot"
	}
	return "on-demand"
}

// Task is one unit of simulated inference work.
type Task struct {
	ID             string
	ArrivalHour    float64
	DurationHour   float64
	AssignedTo     string // instance ID, "" if pending
	StartHour      float64
	HasStart       bool
	CompletionHour float64
	Completed      bool

	TokensTotal     int
	TokensCompleted int
	KVCacheMB       float64

	PreemptionCount int
}

// NewTask creates a task with inference fields estimated from duration, per
// the original generator's heuristics: ~100 tokens/hour, ~200MB KV cache per
// hour of duration, capped at 8000MB.
func NewTask(id string, arrivalHour, durationHour float64) Task {
	kv := durationHour * 200
	if kv > 8000 {
		kv = 8000
	}
	return Task{
		ID:           id,
		ArrivalHour:  arrivalHour,
		DurationHour: durationHour,
		TokensTotal:  int(durationHour * 100),
		KVCacheMB:    kv,
	}
}

// CanFit reports whether the task's KV cache fits in availableMB.
func (t Task) CanFit(availableMB float64) bool {
	return t.KVCacheMB <= availableMB
}

// Instance is one simulated compute instance, spot or on-demand.
type Instance struct {
	ID         string
	Type       InstanceType
	State      domain.NodeState
	HourlyCost float64
	StartHour  float64
	EndHour    float64
	HasEnd     bool

	GPUMemoryMB      float64
	GPUMemoryUsedMB  float64
	NetworkBandwidth float64 // Gb/s
}

// AvailableMemoryMB returns the instance's unallocated GPU memory.
func (i Instance) AvailableMemoryMB() float64 {
	return i.GPUMemoryMB - i.GPUMemoryUsedMB
}

// Release frees t's KV cache allocation from the instance, floored at zero
// to absorb floating-point drift.
func (i *Instance) Release(t Task) {
	i.GPUMemoryUsedMB -= t.KVCacheMB
	if i.GPUMemoryUsedMB < 0 {
		i.GPUMemoryUsedMB = 0
	}
}

// Result is the JSON-serializable outcome of one simulation run.
type Result struct {
	PolicyName             string  `json:"policy_name"`
	TotalCost              float64 `json:"total_cost"`
	TotalTasks             int     `json:"total_tasks"`
	CompletedTasks         int     `json:"completed_tasks"`
	TotalPreemptions       int     `json:"total_preemptions"`
	AverageCompletionHours float64 `json:"average_completion_time_hours"`
	P99CompletionHours     float64 `json:"p99_completion_time_hours"`
	CheckpointsAttempted   int     `json:"checkpoints_attempted"`
	CheckpointsSuccessful  int     `json:"checkpoints_successful"`
	TotalTimeSavedHours    float64 `json:"total_time_saved_hours"`
}
