package sim

// Policy decides which instance type to launch for a task and reacts to
// that task being preempted. Distinct from placement.Strategy: Strategy
// picks among already-running peers for the live failover path; Policy
// picks spot-vs-on-demand for a brand-new simulated launch.
//
// Directly grounded on original_source/policies.rs's SchedulingPolicy trait
// and its three implementations.
type Policy interface {
	Name() string
	SelectInstanceType(task Task, spotPrice, onDemandPrice float64) InstanceType
	HandlePreemption(task *Task)
}

// GreedyPolicy always launches spot — the cheapest option.
type GreedyPolicy struct {
	TotalPreemptions int
}

func (p *GreedyPolicy) Name() string { return "greedy" }

func (p *GreedyPolicy) SelectInstanceType(Task, float64, float64) InstanceType {
	return Spot
}

func (p *GreedyPolicy) HandlePreemption(task *Task) {
	p.TotalPreemptions++
	task.AssignedTo = ""
}

// OnDemandFallbackPolicy tries spot first, falling back to on-demand for a
// task once it has been preempted fallbackThreshold times.
type OnDemandFallbackPolicy struct {
	TotalPreemptions int
	FallbackCount    int
	threshold        int
	preemptedTimes   map[string]int
}

func NewOnDemandFallbackPolicy(threshold int) *OnDemandFallbackPolicy {
	return &OnDemandFallbackPolicy{threshold: threshold, preemptedTimes: make(map[string]int)}
}

func (p *OnDemandFallbackPolicy) Name() string { return "on-demand-fallback" }

func (p *OnDemandFallbackPolicy) SelectInstanceType(task Task, _, _ float64) InstanceType {
	if p.preemptedTimes[task.ID] >= p.threshold {
		p.FallbackCount++
		return OnDemand
	}
	return Spot
}

func (p *OnDemandFallbackPolicy) HandlePreemption(task *Task) {
	p.TotalPreemptions++
	p.preemptedTimes[task.ID]++
	task.AssignedTo = ""
}

// OnDemandOnlyPolicy never launches spot — the no-preemption baseline.
type OnDemandOnlyPolicy struct{}

func (OnDemandOnlyPolicy) Name() string { return "on-demand-only" }

func (OnDemandOnlyPolicy) SelectInstanceType(Task, float64, float64) InstanceType {
	return OnDemand
}

func (OnDemandOnlyPolicy) HandlePreemption(*Task) {
	panic("sim: on-demand instance should never be preempted")
}
