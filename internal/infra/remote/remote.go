// Package remote dispatches shell commands to nodes through the abstract
// cloud.Provider boundary and polls for completion.
//
// Grounded on internal/infra/engine/subprocess.go's exec.Command-plus-poll
// shape (start, then poll a readiness/exit signal with a bounded stderr
// capture for diagnostics) — generalized from a local subprocess to a
// remote command dispatched through cloud.Provider.SendCommand/PollCommand,
// since the orchestration core never has a local handle on the node it is
// commanding.
package remote

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/synkti/fleetd/internal/domain"
	"github.com/synkti/fleetd/internal/infra/cloud"
)

// DefaultTimeout bounds one command dispatch; DefaultPollInterval governs
// how often PollCommand is re-checked.
const (
	DefaultTimeout      = 3 * time.Minute
	DefaultPollInterval = 2 * time.Second

	// stderrTailBytes is how much of a failed command's stderr is kept
	// in the returned error, mirroring subprocess.go's limitedBuffer cap.
	stderrTailBytes = 4096
)

// Executor runs commands on remote nodes and waits for them to finish.
type Executor struct {
	Provider     cloud.Provider
	Timeout      time.Duration
	PollInterval time.Duration
}

// New creates an Executor with the default timeout and poll interval.
func New(provider cloud.Provider) *Executor {
	return &Executor{Provider: provider, Timeout: DefaultTimeout, PollInterval: DefaultPollInterval}
}

// Run dispatches commands to nodeID and blocks until they finish, fail, or
// the executor's timeout elapses.
func (e *Executor) Run(ctx context.Context, nodeID string, commands []string) (cloud.CommandResult, error) {
	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	interval := e.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	cmdID, err := e.Provider.SendCommand(ctx, nodeID, commands, timeout)
	if err != nil {
		return cloud.CommandResult{}, fmt.Errorf("remote: send command to %s: %w", nodeID, err)
	}

	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		result, err := e.Provider.PollCommand(ctx, cmdID)
		if err != nil {
			return cloud.CommandResult{}, fmt.Errorf("remote: poll command %s: %w", cmdID, err)
		}

		switch result.Status {
		case cloud.CommandSuccess:
			return result, nil
		case cloud.CommandFailed:
			return result, fmt.Errorf("remote: command %s on %s failed (exit %d): %s",
				cmdID, nodeID, result.ExitCode, tail(result.Stderr, stderrTailBytes))
		case cloud.CommandCancelled:
			return result, fmt.Errorf("remote: %w (command %s on %s)", domain.ErrCommandCancelled, cmdID, nodeID)
		case cloud.CommandTimedOut:
			return result, fmt.Errorf("remote: %w (command %s on %s)", domain.ErrCommandTimedOut, cmdID, nodeID)
		}

		if !time.Now().Before(deadline) {
			return result, fmt.Errorf("remote: %w (command %s on %s)", domain.ErrCommandTimedOut, cmdID, nodeID)
		}

		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-ticker.C:
		}
	}
}

// tail returns the last n bytes of s, for bounding diagnostic output the
// same way subprocess.go's limitedBuffer bounds captured stderr.
func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
