package domain

// FailoverPhaseTimes records elapsed seconds per phase of one failover
// attempt. Field names follow the spec's own vocabulary verbatim.
type FailoverPhaseTimes struct {
	DrainSecs       float64 `json:"drain_secs"`
	StopSecs        float64 `json:"stop_secs"`
	SelectSecs      float64 `json:"select_secs"`
	SpawnSecs       float64 `json:"spawn_secs"`
	HealthCheckSecs float64 `json:"health_check_secs"`
}

// FailoverRecord is the immutable, per-attempt outcome of the failover
// orchestrator. Produced once, logged, never mutated after creation.
type FailoverRecord struct {
	Success              bool               `json:"success"`
	PreemptedNodeID      string             `json:"preempted_instance_id"`
	ReplacementNodeID    string             `json:"replacement_instance_id,omitempty"`
	TotalSeconds         float64            `json:"total_time_secs"`
	PhaseTimes           FailoverPhaseTimes `json:"phase_times"`
	AssignmentStrategy   string             `json:"assignment_strategy"`
	Error                string             `json:"error,omitempty"`
	HealthCheckTimedOut  bool               `json:"health_check_timed_out,omitempty"`
}

// DrainStatus is the outcome of one drain attempt.
type DrainStatus int

const (
	DrainStatusDraining DrainStatus = iota
	DrainStatusDrained
	DrainStatusTimedOut
	DrainStatusFailed
)

func (s DrainStatus) String() string {
	switch s {
	case DrainStatusDraining:
		return "draining"
	case DrainStatusDrained:
		return "drained"
	case DrainStatusTimedOut:
		return "timed-out"
	case DrainStatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// DrainRecord is the outcome of one drain attempt on a node.
type DrainRecord struct {
	Status      DrainStatus
	ElapsedSecs float64
	NodeID      string
}
