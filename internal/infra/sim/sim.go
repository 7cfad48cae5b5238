package sim

import (
	"container/heap"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/synkti/fleetd/internal/domain"
	"github.com/synkti/fleetd/internal/infra/assign"
)

// defaultInstanceClass mirrors original_source/types.rs's Instance::new
// default resource profile: an A100-class 24GB GPU on a 10Gbps link,
// which corresponds to domain.ClassG5XLarge in the fleet's own presets.
var defaultInstanceClass = domain.ClassG5XLarge

// Config parameterizes one Simulator run.
type Config struct {
	Policy            Policy
	MigrationStrategy MigrationStrategy
	SpotPrices        []domain.SpotPriceSample
	OnDemandPrice     float64
	AvgPreemptionRate float64 // per hour, used for the exponential preemption draw
	GraceHours        float64 // grace window for checkpoint planning, in hours
	Rand              *rand.Rand
}

// DefaultConfig returns a Config using the greedy policy, optimal migration,
// and the base rates named throughout the original source (0.30 spot mean /
// 1.00 on-demand / 0.05 preemptions-per-hour / 120s grace).
func DefaultConfig(rnd *rand.Rand) Config {
	return Config{
		Policy:            &GreedyPolicy{},
		MigrationStrategy: OptimalMigration{},
		OnDemandPrice:     1.00,
		AvgPreemptionRate: 0.05,
		GraceHours:        120.0 / 3600.0,
		Rand:              rnd,
	}
}

// Simulator is a single-threaded discrete-event replay engine.
//
// Concurrency: none — the event queue is popped and dispatched in a single
// goroutine, and all random draws come from the injected *rand.Rand, so a
// fixed seed makes a run bit-for-bit reproducible.
type Simulator struct {
	cfg Config

	currentHour float64
	events      eventQueue

	instances map[string]*Instance
	tasks     map[string]*Task
	pending   []string

	nextInstanceID int

	totalCost              float64
	totalPreemptions       int
	completedTaskIDs       []string
	checkpointsAttempted   int
	checkpointsSuccessful  int
	totalTimeSavedHours    float64
}

// New constructs a Simulator. A nil cfg.Rand is replaced with one seeded
// at 1.
func New(cfg Config) *Simulator {
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(1))
	}
	if cfg.MigrationStrategy == nil {
		cfg.MigrationStrategy = OptimalMigration{}
	}
	s := &Simulator{
		cfg:       cfg,
		instances: make(map[string]*Instance),
		tasks:     make(map[string]*Task),
	}
	heap.Init(&s.events)
	return s
}

// AddTask enqueues a task arrival at t.ArrivalHour.
func (s *Simulator) AddTask(t Task) {
	s.tasks[t.ID] = &t
	heap.Push(&s.events, domain.Event{
		Kind:   domain.EventTaskArrival,
		Time:   hoursToTime(t.ArrivalHour),
		TaskID: t.ID,
	})
}

// Run drains the event queue up to durationHours and returns the
// accumulated result. Events scheduled beyond durationHours are dropped —
// this mirrors a run stopping mid-flight rather than fast-forwarding.
func (s *Simulator) Run(durationHours float64) Result {
	for s.events.Len() > 0 {
		next := s.events[0]
		hour := timeToHours(next.Time)
		if hour > durationHours {
			break
		}
		ev := heap.Pop(&s.events).(domain.Event)
		s.currentHour = hour
		s.processEvent(ev)
	}
	return s.collectResults()
}

func (s *Simulator) processEvent(ev domain.Event) {
	switch ev.Kind {
	case domain.EventTaskArrival:
		s.pending = append(s.pending, ev.TaskID)
		s.assignPendingTasks()
	case domain.EventTaskCompletion:
		s.handleTaskCompletion(ev.TaskID)
	case domain.EventInstancePreemption:
		s.handlePreemption(ev.NodeID)
	case domain.EventInstanceLaunch:
		s.handleInstanceLaunch(ev.NodeID)
	}
}

// assignPendingTasks walks the pending queue once, assigning each task to
// the first instance with room and launching a fresh instance for any task
// that fits nowhere; such a task stays queued until the sweep run by that
// instance's InstanceLaunch event places it. The original three-pass description (collect
// candidates, then assign, then launch for the unassigned remainder) is
// collapsed into one pass here: decrementing an instance's free memory the
// moment a task claims it makes a second pass over the same snapshot
// unnecessary and gives an identical result.
func (s *Simulator) assignPendingTasks() {
	var stillPending []string
	for _, tid := range s.pending {
		t := s.tasks[tid]
		if t == nil || t.Completed {
			continue
		}
		if instID, ok := s.findAvailableInstance(t.KVCacheMB); ok {
			s.assignTaskToInstance(t, instID)
		} else {
			stillPending = append(stillPending, tid)
		}
	}
	for _, tid := range stillPending {
		s.launchInstanceForTask(s.tasks[tid])
	}
	s.pending = stillPending
}

// findAvailableInstance linear-scans Running instances in id order (for
// determinism) and returns the first with enough free memory.
func (s *Simulator) findAvailableInstance(requiredMB float64) (string, bool) {
	ids := make([]string, 0, len(s.instances))
	for id := range s.instances {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		inst := s.instances[id]
		if inst.State == domain.NodeRunning && inst.AvailableMemoryMB() >= requiredMB {
			return id, true
		}
	}
	return "", false
}

func (s *Simulator) assignTaskToInstance(t *Task, instID string) {
	inst := s.instances[instID]
	inst.GPUMemoryUsedMB += t.KVCacheMB
	t.AssignedTo = instID
	t.StartHour = s.currentHour
	t.HasStart = true

	completionHour := s.currentHour + t.DurationHour
	heap.Push(&s.events, domain.Event{
		Kind:   domain.EventTaskCompletion,
		Time:   hoursToTime(completionHour),
		TaskID: t.ID,
	})
}

// launchInstanceForTask asks the policy for spot vs on-demand, prices it
// at the current spot sample (or the on-demand rate), and schedules an
// immediate InstanceLaunch event. Spot instances also get a preemption
// draw scheduled at launch time.
func (s *Simulator) launchInstanceForTask(t *Task) {
	spotPrice, _ := s.getSpotPriceAt(s.currentHour)
	instType := s.cfg.Policy.SelectInstanceType(*t, spotPrice, s.cfg.OnDemandPrice)

	hourlyCost := s.cfg.OnDemandPrice
	if instType == Spot {
		hourlyCost = spotPrice
	}

	id := fmt.Sprintf("sim-inst-%d", s.nextInstanceID)
	s.nextInstanceID++

	inst := &Instance{
		ID:               id,
		Type:             instType,
		State:            domain.NodeRunning,
		HourlyCost:       hourlyCost,
		StartHour:        s.currentHour,
		GPUMemoryMB:      float64(defaultInstanceClass.GPUMemoryMB),
		NetworkBandwidth: defaultInstanceClass.NetworkBandwidth,
	}
	s.instances[id] = inst

	heap.Push(&s.events, domain.Event{
		Kind:   domain.EventInstanceLaunch,
		Time:   hoursToTime(s.currentHour),
		NodeID: id,
		Class:  defaultInstanceClass.Name,
	})

	if instType == Spot {
		s.schedulePotentialPreemption(id)
	}
}

// schedulePotentialPreemption draws an exponential interarrival time from
// the configured base rate — hours = -ln(u)/rate — and schedules the
// instance's preemption that far in the future. Not an Ornstein-Uhlenbeck
// process: the price trace is OU (see PriceGenerator), but the moment a
// given spot instance actually gets preempted is a single exponential draw
// at launch time, per original_source/simulator.rs's
// schedule_potential_preemption.
func (s *Simulator) schedulePotentialPreemption(instID string) {
	rate := s.cfg.AvgPreemptionRate
	if rate <= 0 {
		rate = 0.05
	}
	u := s.cfg.Rand.Float64()
	for u <= 0 {
		u = s.cfg.Rand.Float64()
	}
	hoursUntil := -math.Log(u) / rate

	heap.Push(&s.events, domain.Event{
		Kind:   domain.EventInstancePreemption,
		Time:   hoursToTime(s.currentHour + hoursUntil),
		NodeID: instID,
	})
}

// handleInstanceLaunch re-runs the pending-task sweep: the instance that
// just came online may absorb tasks that were waiting on capacity.
func (s *Simulator) handleInstanceLaunch(instID string) {
	if _, ok := s.instances[instID]; !ok {
		return
	}
	s.assignPendingTasks()
}

// handleTaskCompletion frees the task's memory, accrues cost for the
// runtime it occupied, and records the completion.
func (s *Simulator) handleTaskCompletion(taskID string) {
	t := s.tasks[taskID]
	if t == nil || t.Completed {
		return
	}
	inst := s.instances[t.AssignedTo]
	if inst != nil {
		runtime := s.currentHour - t.StartHour
		s.totalCost += inst.HourlyCost * runtime
		inst.Release(*t)
	}
	t.CompletionHour = s.currentHour
	t.Completed = true
	t.TokensCompleted = t.TokensTotal
	s.completedTaskIDs = append(s.completedTaskIDs, taskID)
}

// handlePreemption marks the instance preempted, plans a best-effort
// checkpoint for every task it was running, then migrates those tasks onto
// whatever capacity remains via the configured migration strategy.
func (s *Simulator) handlePreemption(instID string) {
	inst := s.instances[instID]
	if inst == nil || inst.State != domain.NodeRunning {
		return
	}

	var displaced []string
	for id, t := range s.tasks {
		if t.AssignedTo == instID && !t.Completed {
			displaced = append(displaced, id)
		}
	}
	sort.Strings(displaced)

	graceSecs := s.cfg.GraceHours * 3600
	for _, tid := range displaced {
		t := s.tasks[tid]
		plan := domain.PlanCheckpoint(t.KVCacheMB, inst.NetworkBandwidth, graceSecs, t.TokensCompleted)
		s.checkpointsAttempted++
		if plan.Decision != domain.CheckpointRestart {
			s.checkpointsSuccessful++
			s.totalTimeSavedHours += plan.EstimatedSeconds / 3600
		}
	}

	inst.State = domain.NodeTerminated
	inst.EndHour = s.currentHour
	inst.HasEnd = true
	s.totalPreemptions++

	for _, tid := range displaced {
		t := s.tasks[tid]
		s.cfg.Policy.HandlePreemption(t)
	}

	s.migrateDisplacedTasks(displaced)
}

// migrateDisplacedTasks assigns displaced tasks onto available running
// instances via the configured MigrationStrategy (first-fit or Kuhn-Munkres),
// per original_source/migration.rs's MigrationPlanner::plan_optimal_migration
// and plan_first_fit_migration. Tasks the strategy cannot place re-enter the
// pending queue and trigger another assignment sweep (which may launch fresh
// capacity for them).
func (s *Simulator) migrateDisplacedTasks(displacedIDs []string) {
	if len(displacedIDs) == 0 {
		return
	}

	var targetIDs []string
	for id := range s.instances {
		if s.instances[id].State == domain.NodeRunning {
			targetIDs = append(targetIDs, id)
		}
	}
	sort.Strings(targetIDs)

	tasks := make([]assign.Task, len(displacedIDs))
	for i, tid := range displacedIDs {
		t := s.tasks[tid]
		tasks[i] = assign.Task{ID: t.ID, SizeMB: t.KVCacheMB}
	}
	targets := make([]assign.Target, len(targetIDs))
	for i, id := range targetIDs {
		inst := s.instances[id]
		targets[i] = assign.Target{ID: id, HeadroomMB: inst.AvailableMemoryMB(), BandwidthGbps: inst.NetworkBandwidth}
	}

	plan := s.cfg.MigrationStrategy.Plan(tasks, targets)

	matched := make(map[int]bool, len(plan.Pairs))
	for _, pair := range plan.Pairs {
		matched[pair.TaskIndex] = true
		t := s.tasks[tasks[pair.TaskIndex].ID]
		s.assignTaskToInstance(t, targets[pair.TargetIndex].ID)
	}

	for i, tid := range displacedIDs {
		if !matched[i] {
			s.pending = append(s.pending, tid)
		}
	}
	if len(s.pending) > 0 {
		s.assignPendingTasks()
	}
}

// getSpotPriceAt returns the configured trace's price at or after hour,
// falling back to the last known price, or 0.30 if no trace was supplied —
// the same fallback original_source/simulator.rs uses.
func (s *Simulator) getSpotPriceAt(hour float64) (float64, bool) {
	for _, p := range s.cfg.SpotPrices {
		if timeToHours(p.Time) >= hour {
			return p.Price, true
		}
	}
	if len(s.cfg.SpotPrices) > 0 {
		return s.cfg.SpotPrices[len(s.cfg.SpotPrices)-1].Price, true
	}
	return 0.30, false
}

func (s *Simulator) collectResults() Result {
	completions := make([]float64, 0, len(s.completedTaskIDs))
	for _, tid := range s.completedTaskIDs {
		t := s.tasks[tid]
		completions = append(completions, t.CompletionHour-t.ArrivalHour)
	}
	sort.Float64s(completions)

	var avg, p99 float64
	if len(completions) > 0 {
		var sum float64
		for _, c := range completions {
			sum += c
		}
		avg = sum / float64(len(completions))

		idx := int(float64(len(completions)) * 0.99)
		if idx >= len(completions) {
			idx = len(completions) - 1
		}
		p99 = completions[idx]
	}

	return Result{
		PolicyName:             s.cfg.Policy.Name(),
		TotalCost:              s.totalCost,
		TotalTasks:             len(s.tasks),
		CompletedTasks:         len(s.completedTaskIDs),
		TotalPreemptions:       s.totalPreemptions,
		AverageCompletionHours: avg,
		P99CompletionHours:     p99,
		CheckpointsAttempted:   s.checkpointsAttempted,
		CheckpointsSuccessful:  s.checkpointsSuccessful,
		TotalTimeSavedHours:    s.totalTimeSavedHours,
	}
}
