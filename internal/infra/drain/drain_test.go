package drain

import (
	"context"
	"testing"
	"time"

	"github.com/synkti/fleetd/internal/domain"
)

type fakeObs struct {
	sequence []struct {
		running, waiting int
		ok, healthy      bool
	}
	i int
}

func (f *fakeObs) InFlightCounts(context.Context) (int, int, bool) {
	s := f.sequence[min(f.i, len(f.sequence)-1)]
	f.i++
	return s.running, s.waiting, s.ok
}

func (f *fakeObs) Healthy(context.Context) bool {
	s := f.sequence[min(f.i-1, len(f.sequence)-1)]
	return s.healthy
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func TestDrainIdleOnFirstPoll(t *testing.T) {
	obs := &fakeObs{sequence: []struct {
		running, waiting int
		ok, healthy      bool
	}{{0, 0, true, true}}}

	c := &Controller{Budget: time.Second, Now: time.Now}
	rec := c.Drain(context.Background(), "i-1", obs)
	if rec.Status != domain.DrainStatusDrained {
		t.Fatalf("status = %v, want Drained", rec.Status)
	}
	if rec.ElapsedSecs > 1.0 {
		t.Fatalf("elapsed = %v, want <= 1.0s", rec.ElapsedSecs)
	}
}

func TestDrainTimesOutWhenBusy(t *testing.T) {
	obs := &fakeObs{sequence: []struct {
		running, waiting int
		ok, healthy      bool
	}{{3, 0, true, true}}}

	c := &Controller{Budget: 50 * time.Millisecond, Now: time.Now}
	rec := c.Drain(context.Background(), "i-1", obs)
	if rec.Status != domain.DrainStatusTimedOut {
		t.Fatalf("status = %v, want TimedOut", rec.Status)
	}
}

func TestDrainOptimisticWhenUnhealthy(t *testing.T) {
	obs := &fakeObs{sequence: []struct {
		running, waiting int
		ok, healthy      bool
	}{{0, 0, false, false}}}

	c := &Controller{Budget: time.Second, Now: time.Now}
	rec := c.Drain(context.Background(), "i-1", obs)
	if rec.Status != domain.DrainStatusDrained {
		t.Fatalf("status = %v, want Drained (optimistic path)", rec.Status)
	}
}

func TestDrainConservativeWhenGaugesUnreadableButHealthy(t *testing.T) {
	obs := &fakeObs{sequence: []struct {
		running, waiting int
		ok, healthy      bool
	}{{0, 0, false, true}}}

	c := &Controller{Budget: 50 * time.Millisecond, Now: time.Now}
	rec := c.Drain(context.Background(), "i-1", obs)
	if rec.Status != domain.DrainStatusTimedOut {
		t.Fatalf("status = %v, want TimedOut (conservative path never becomes idle here)", rec.Status)
	}
}
