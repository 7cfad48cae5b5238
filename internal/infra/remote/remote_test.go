package remote

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/synkti/fleetd/internal/domain"
	"github.com/synkti/fleetd/internal/infra/cloud"
)

func newMemoryProviderWithNode(id string) *cloud.MemoryProvider {
	p := cloud.NewMemoryProvider()
	p.Seed(domain.Node{ID: id, State: domain.NodeRunning})
	return p
}

// presetCommand hands out a fixed command id so a test can stage that
// command's result before Executor.Run polls it.
type presetCommand struct {
	*cloud.MemoryProvider
	id string
}

func (p presetCommand) SendCommand(context.Context, string, []string, time.Duration) (string, error) {
	return p.id, nil
}

func TestExecutorRunSucceeds(t *testing.T) {
	p := newMemoryProviderWithNode("i-1")
	e := New(p)
	e.PollInterval = time.Millisecond

	result, err := e.Run(context.Background(), "i-1", []string{"echo hello"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != cloud.CommandSuccess {
		t.Fatalf("status = %v, want success", result.Status)
	}
}

func TestExecutorRunFailurePropagatesStderr(t *testing.T) {
	p := newMemoryProviderWithNode("i-1")
	e := New(p)
	e.PollInterval = time.Millisecond

	cmdID, _ := p.SendCommand(context.Background(), "i-1", []string{"false"}, time.Minute)
	p.SetCommandResult(cmdID, cloud.CommandResult{
		ID:       cmdID,
		Status:   cloud.CommandFailed,
		Stderr:   "boom",
		ExitCode: 1,
	})
	e.Provider = presetCommand{MemoryProvider: p, id: cmdID}

	result, err := e.Run(context.Background(), "i-1", []string{"false"})
	if err == nil {
		t.Fatal("expected an error for a failed command")
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Fatalf("error %q does not carry stderr %q", err, "boom")
	}
	if result.Status != cloud.CommandFailed {
		t.Fatalf("status = %v, want failed", result.Status)
	}
}

func TestTailBoundsLength(t *testing.T) {
	long := make([]byte, 10000)
	for i := range long {
		long[i] = 'x'
	}
	got := tail(string(long), 100)
	if len(got) != 100 {
		t.Fatalf("tail length = %d, want 100", len(got))
	}
}
