package sim

import (
	"container/heap"
	"time"

	"github.com/synkti/fleetd/internal/domain"
)

// simEpoch maps the simulator's float64-hours clock onto domain.Event's
// time.Time field, so the domain package's Event/EventKind types drive the
// simulator's min-heap directly. Ordering is by time first; events at the
// same instant are then ordered by Kind (see eventQueue.Less).
var simEpoch = time.Unix(0, 0).UTC()

func hoursToTime(h float64) time.Time {
	return simEpoch.Add(time.Duration(h * float64(time.Hour)))
}

func timeToHours(t time.Time) float64 {
	return t.Sub(simEpoch).Hours()
}

// eventQueue is a min-heap on (Time, Kind), the tie-break order named in
// the specification: TaskArrival, TaskCompletion, InstancePreemption,
// InstanceLaunch.
type eventQueue []domain.Event

func (q eventQueue) Len() int { return len(q) }

func (q eventQueue) Less(i, j int) bool {
	if !q[i].Time.Equal(q[j].Time) {
		return q[i].Time.Before(q[j].Time)
	}
	return q[i].Kind < q[j].Kind
}

func (q eventQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *eventQueue) Push(x any) {
	*q = append(*q, x.(domain.Event))
}

func (q *eventQueue) Pop() any {
	old := *q
	n := len(old)
	ev := old[n-1]
	*q = old[:n-1]
	return ev
}

var _ heap.Interface = (*eventQueue)(nil)
