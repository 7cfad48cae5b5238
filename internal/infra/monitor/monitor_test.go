package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/synkti/fleetd/internal/domain"
)

type fakeChecker struct {
	notices []*domain.Notice
	errs    []error
	i       int
}

func (f *fakeChecker) CheckNotice(context.Context) (*domain.Notice, error) {
	if f.i >= len(f.notices) {
		return nil, nil
	}
	n, err := f.notices[f.i], f.errs[f.i]
	f.i++
	return n, err
}

func TestMonitorEmitsNotice(t *testing.T) {
	notice := &domain.Notice{Action: domain.ActionTerminate, SecondsUntilAction: 0}
	checker := &fakeChecker{notices: []*domain.Notice{notice}, errs: []error{nil}}

	m := New(checker, Config{Interval: 10 * time.Millisecond, RequestTimeout: time.Second})
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	ch := m.Run(ctx)
	select {
	case got := <-ch:
		if got.Action != domain.ActionTerminate {
			t.Fatalf("got action %v, want terminate", got.Action)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatal("timed out waiting for notice")
	}
}

func TestMonitorSilentOn404(t *testing.T) {
	checker := &fakeChecker{notices: []*domain.Notice{nil}, errs: []error{nil}}
	m := New(checker, Config{Interval: 10 * time.Millisecond, RequestTimeout: time.Second})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	ch := m.Run(ctx)
	select {
	case n, ok := <-ch:
		if ok {
			t.Fatalf("expected no notice, got %+v", n)
		}
	case <-time.After(80 * time.Millisecond):
	}
}
