package cloud

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/synkti/fleetd/internal/domain"
)

// MemoryProvider is an in-memory Provider for tests and the daemon's
// "memory" provider setting. It
// holds no network state; the blob store's content-addressing discipline
// (SHA-256 digest keys, write-once semantics) mirrors registry.BlobStore
// scaled down to a map.
type MemoryProvider struct {
	mu sync.Mutex

	nodes    map[string]domain.Node
	health   map[string]TargetHealth
	commands map[string]CommandResult
	blobs    map[string][]byte
	notice   *domain.Notice

	nextNodeID int
	nextCmdID  int
}

// NewMemoryProvider creates an empty in-memory provider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		nodes:    make(map[string]domain.Node),
		health:   make(map[string]TargetHealth),
		commands: make(map[string]CommandResult),
		blobs:    make(map[string][]byte),
	}
}

// Seed inserts a node directly, bypassing LaunchInstance. Useful for test
// fixtures that need specific node states.
func (p *MemoryProvider) Seed(n domain.Node) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nodes[n.ID] = n
}

func (p *MemoryProvider) LaunchInstance(_ context.Context, class string, tags map[string]string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	class_, known := domain.LookupNodeClass(class)
	if !known {
		class_ = domain.NodeClass{Name: class, GPUMemoryMB: 16384, NetworkBandwidth: 10}
	}

	p.nextNodeID++
	id := fmt.Sprintf("i-%08x", p.nextNodeID)
	p.nodes[id] = domain.Node{
		ID:               id,
		InstanceClass:    class_.Name,
		State:            domain.NodeRunning,
		LaunchedAt:       time.Now(),
		MemoryTotalMB:    class_.GPUMemoryMB,
		NetworkBandwidth: class_.NetworkBandwidth,
		Tags:             copyTags(tags),
	}
	return id, nil
}

func (p *MemoryProvider) TerminateInstance(_ context.Context, nodeID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	n, ok := p.nodes[nodeID]
	if !ok {
		return domain.ErrInstanceNotFound
	}
	n.State = domain.NodeTerminated
	p.nodes[nodeID] = n
	return nil
}

func (p *MemoryProvider) ListInstances(_ context.Context, tags map[string]string) ([]domain.Node, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []domain.Node
	for _, n := range p.nodes {
		if n.State != domain.NodeRunning {
			continue
		}
		match := true
		for k, v := range tags {
			if got, ok := n.Tag(k); !ok || got != v {
				match = false
				break
			}
		}
		if match {
			out = append(out, n)
		}
	}
	return out, nil
}

func (p *MemoryProvider) ReadTags(_ context.Context, nodeID string) (map[string]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n, ok := p.nodes[nodeID]
	if !ok {
		return nil, domain.ErrInstanceNotFound
	}
	return copyTags(n.Tags), nil
}

func (p *MemoryProvider) WriteTags(_ context.Context, nodeID string, tags map[string]string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	n, ok := p.nodes[nodeID]
	if !ok {
		return domain.ErrInstanceNotFound
	}
	if n.Tags == nil {
		n.Tags = make(map[string]string)
	}
	for k, v := range tags {
		if v == "" {
			delete(n.Tags, k)
			continue
		}
		n.Tags[k] = v
	}
	p.nodes[nodeID] = n
	return nil
}

func (p *MemoryProvider) RegisterTarget(_ context.Context, nodeID string, port int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.health[targetKey(nodeID, port)] = TargetHealthy
	return nil
}

func (p *MemoryProvider) DeregisterTarget(_ context.Context, nodeID string, port int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.health, targetKey(nodeID, port))
	return nil
}

func (p *MemoryProvider) TargetHealth(_ context.Context, nodeID string, port int) (TargetHealth, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	h, ok := p.health[targetKey(nodeID, port)]
	if !ok {
		return TargetAbsent, nil
	}
	return h, nil
}

// SetTargetHealth lets tests drive the reported health state directly.
func (p *MemoryProvider) SetTargetHealth(nodeID string, port int, h TargetHealth) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.health[targetKey(nodeID, port)] = h
}

func (p *MemoryProvider) SendCommand(_ context.Context, nodeID string, commands []string, _ time.Duration) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextCmdID++
	id := fmt.Sprintf("cmd-%06x", p.nextCmdID)
	p.commands[id] = CommandResult{ID: id, Status: CommandSuccess}
	return id, nil
}

func (p *MemoryProvider) PollCommand(_ context.Context, commandID string) (CommandResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	r, ok := p.commands[commandID]
	if !ok {
		return CommandResult{}, fmt.Errorf("command %s: not found", commandID)
	}
	return r, nil
}

// SetCommandResult lets tests drive a specific command's outcome.
func (p *MemoryProvider) SetCommandResult(commandID string, r CommandResult) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.commands[commandID] = r
}

func (p *MemoryProvider) WriteBlob(_ context.Context, content []byte) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	sum := sha256.Sum256(content)
	digest := "sha256:" + hex.EncodeToString(sum[:])
	p.blobs[digest] = append([]byte(nil), content...)
	return digest, nil
}

func (p *MemoryProvider) ReadBlob(_ context.Context, digest string) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	b, ok := p.blobs[digest]
	if !ok {
		return nil, domain.ErrBlobNotFound
	}
	return append([]byte(nil), b...), nil
}

// SetNotice arms (or clears, with nil) the preemption notice CheckNotice
// returns. There is no real metadata endpoint to poll in tests, so the
// notice is driven directly.
func (p *MemoryProvider) SetNotice(n *domain.Notice) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notice = n
}

// CheckNotice satisfies monitor.NoticeChecker so MemoryProvider can stand
// in for HTTPProvider in tests and in a daemon run against the memory
// provider.
func (p *MemoryProvider) CheckNotice(_ context.Context) (*domain.Notice, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.notice == nil {
		return nil, nil
	}
	n := *p.notice
	return &n, nil
}

func targetKey(nodeID string, port int) string {
	return fmt.Sprintf("%s:%d", nodeID, port)
}

func copyTags(tags map[string]string) map[string]string {
	if tags == nil {
		return nil
	}
	out := make(map[string]string, len(tags))
	for k, v := range tags {
		out[k] = v
	}
	return out
}

var _ Provider = (*MemoryProvider)(nil)
