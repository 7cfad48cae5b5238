// Package monitor polls the cloud metadata endpoint for preemption notices.
//
// Structured like internal/health/checker.go's ticker-driven Run loop: a
// background goroutine produces a channel of domain.Notice the caller
// ranges over — the idiomatic Go rendering of the original monitor_stream's
// infinite async stream.
package monitor

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/synkti/fleetd/internal/domain"
)

// NoticeChecker is the subset of cloud.Provider the monitor depends on.
type NoticeChecker interface {
	CheckNotice(ctx context.Context) (*domain.Notice, error)
}

// Config controls the monitor's poll cadence.
type Config struct {
	Interval       time.Duration // default 5s
	RequestTimeout time.Duration // default 2s
}

// DefaultConfig returns the spec's documented defaults.
func DefaultConfig() Config {
	return Config{Interval: 5 * time.Second, RequestTimeout: 2 * time.Second}
}

// Monitor polls NoticeChecker at Config.Interval and emits each distinct
// observation on its notice channel. It never retries internally on a
// notice — upstream consumers decide when to act.
type Monitor struct {
	checker NoticeChecker
	cfg     Config

	once sync.Once // logs "not on preemptible hardware" exactly once
}

// New creates a Monitor. A zero Config is replaced with DefaultConfig.
func New(checker NoticeChecker, cfg Config) *Monitor {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultConfig().RequestTimeout
	}
	return &Monitor{checker: checker, cfg: cfg}
}

// Run starts the poll loop and returns a buffered channel of notices. The
// channel is closed when ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) <-chan domain.Notice {
	out := make(chan domain.Notice, 4)

	go func() {
		defer close(out)

		ticker := time.NewTicker(m.cfg.Interval)
		defer ticker.Stop()

		m.poll(ctx, out)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.poll(ctx, out)
			}
		}
	}()

	return out
}

func (m *Monitor) poll(ctx context.Context, out chan<- domain.Notice) {
	reqCtx, cancel := context.WithTimeout(ctx, m.cfg.RequestTimeout)
	defer cancel()

	notice, err := m.checker.CheckNotice(reqCtx)
	if err != nil {
		if errors.Is(err, domain.ErrNotPreemptibleHardware) {
			m.once.Do(func() {
				log.Printf("monitor: metadata endpoint unreachable — not on preemptible hardware")
			})
			return
		}
		log.Printf("monitor: malformed notice, skipping: %v", err)
		return
	}
	if notice == nil {
		return // 404 — no notice
	}

	select {
	case out <- *notice:
	case <-ctx.Done():
	}
}
