// Package cloud defines the abstract boundary between the orchestration core
// and the cloud control plane. A production caller wires HTTPProvider; tests
// and the simulator wire MemoryProvider — both satisfy the same interface,
// so the orchestrator, drain controller, and placement engine compile and
// run with zero cloud dependency.
package cloud

import (
	"context"
	"time"

	"github.com/synkti/fleetd/internal/domain"
)

// TargetHealth is the load-balancer's reported state for one target.
type TargetHealth int

const (
	TargetInitial TargetHealth = iota
	TargetHealthy
	TargetUnhealthy
	TargetDraining
	TargetAbsent
)

// CommandStatus is the outcome of a dispatched remote command.
type CommandStatus int

const (
	CommandPending CommandStatus = iota
	CommandSuccess
	CommandFailed
	CommandCancelled
	CommandTimedOut
)

// CommandResult is the polled outcome of one remote command invocation.
type CommandResult struct {
	ID       string
	Status   CommandStatus
	Stdout   string
	Stderr   string
	ExitCode int
}

// Provider is the capability set the orchestration core requires from a
// cloud backend: instance lifecycle, tag-based discovery, load-balancer
// target registration, remote command dispatch, and a content-addressed
// blob store for checkpoint-plan artifacts. No AWS SDK (or any other
// cloud SDK) is required by this interface — see DESIGN.md for why none
// is wired despite original_source depending on aws-sdk-ec2/elasticloadbalancingv2.
type Provider interface {
	// LaunchInstance requests a new node of the given class, tagged with
	// the given key/value pairs, and returns its assigned id.
	LaunchInstance(ctx context.Context, class string, tags map[string]string) (string, error)

	// TerminateInstance requests termination of the named node.
	TerminateInstance(ctx context.Context, nodeID string) error

	// ListInstances returns running nodes carrying all of the given tags.
	ListInstances(ctx context.Context, tags map[string]string) ([]domain.Node, error)

	// ReadTags/WriteTags manage a node's tag set.
	ReadTags(ctx context.Context, nodeID string) (map[string]string, error)
	WriteTags(ctx context.Context, nodeID string, tags map[string]string) error

	// RegisterTarget/DeregisterTarget add or remove a node from the
	// external router. port is optional; zero means "use the default".
	RegisterTarget(ctx context.Context, nodeID string, port int) error
	DeregisterTarget(ctx context.Context, nodeID string, port int) error

	// TargetHealth reports the router's current view of a target.
	TargetHealth(ctx context.Context, nodeID string, port int) (TargetHealth, error)

	// SendCommand dispatches an ordered list of shell commands to a node
	// and returns a command id to poll.
	SendCommand(ctx context.Context, nodeID string, commands []string, timeout time.Duration) (string, error)

	// PollCommand returns the current status of a dispatched command.
	PollCommand(ctx context.Context, commandID string) (CommandResult, error)

	// WriteBlob/ReadBlob persist and retrieve content-addressed artifacts
	// (checkpoint-plan records, spawn script payloads) keyed by their
	// SHA-256 digest.
	WriteBlob(ctx context.Context, content []byte) (digest string, err error)
	ReadBlob(ctx context.Context, digest string) ([]byte, error)

	// CheckNotice polls for a pending spot preemption notice targeting
	// this node. A nil *domain.Notice with a nil error means no notice
	// is currently pending.
	CheckNotice(ctx context.Context) (*domain.Notice, error)
}
