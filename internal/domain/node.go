package domain

import "time"

// NodeState is the lifecycle state of a compute node.
type NodeState int

const (
	NodePending NodeState = iota
	NodeRunning
	NodeStopping
	NodeStopped
	NodeShuttingDown
	NodeTerminated
)

func (s NodeState) String() string {
	switch s {
	case NodePending:
		return "pending"
	case NodeRunning:
		return "running"
	case NodeStopping:
		return "stopping"
	case NodeStopped:
		return "stopped"
	case NodeShuttingDown:
		return "shutting-down"
	case NodeTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// NodeClass is a named instance class with a GPU-memory and network-bandwidth
// profile, mirroring the g4dn/g5/p3 presets a cloud provider exposes.
type NodeClass struct {
	Name             string
	GPUMemoryMB      int
	NetworkBandwidth float64 // Gb/s
	OnDemandPrice    float64 // USD/hr, used by the simulator
	SpotDiscount     float64 // fraction of on-demand, e.g. 0.3 = spot runs ~30% of on-demand
}

// Well-known node classes. Values approximate the instance.rs presets from
// the original source (g4dn.xlarge/g4dn.2xlarge/g5.xlarge/g5.2xlarge/p3.2xlarge).
var (
	ClassG4DNXLarge  = NodeClass{Name: "g4dn.xlarge", GPUMemoryMB: 16384, NetworkBandwidth: 10, OnDemandPrice: 0.526, SpotDiscount: 0.30}
	ClassG4DN2XLarge = NodeClass{Name: "g4dn.2xlarge", GPUMemoryMB: 16384, NetworkBandwidth: 10, OnDemandPrice: 0.752, SpotDiscount: 0.30}
	ClassG5XLarge    = NodeClass{Name: "g5.xlarge", GPUMemoryMB: 24576, NetworkBandwidth: 10, OnDemandPrice: 1.006, SpotDiscount: 0.35}
	ClassG52XLarge   = NodeClass{Name: "g5.2xlarge", GPUMemoryMB: 24576, NetworkBandwidth: 10, OnDemandPrice: 1.212, SpotDiscount: 0.35}
	ClassP32XLarge   = NodeClass{Name: "p3.2xlarge", GPUMemoryMB: 16384, NetworkBandwidth: 25, OnDemandPrice: 3.06, SpotDiscount: 0.28}

	nodeClasses = map[string]NodeClass{
		ClassG4DNXLarge.Name:  ClassG4DNXLarge,
		ClassG4DN2XLarge.Name: ClassG4DN2XLarge,
		ClassG5XLarge.Name:    ClassG5XLarge,
		ClassG52XLarge.Name:   ClassG52XLarge,
		ClassP32XLarge.Name:   ClassP32XLarge,
	}
)

// LookupNodeClass returns the named class and whether it is known.
func LookupNodeClass(name string) (NodeClass, bool) {
	c, ok := nodeClasses[name]
	return c, ok
}

// Node is one compute instance, preemptible or on-demand.
//
// Invariants: MemoryUsedMB <= MemoryTotalMB; only NodeRunning accepts
// placement; LaunchedAt is monotone per node id (never rewritten backwards).
type Node struct {
	ID               string
	InstanceClass    string
	State            NodeState
	PublicAddr       string
	PrivateAddr      string
	LaunchedAt       time.Time
	MemoryTotalMB    int
	MemoryUsedMB     int
	NetworkBandwidth float64 // Gb/s
	Tags             map[string]string
}

// FreeMemoryMB returns the node's unallocated accelerator memory.
func (n Node) FreeMemoryMB() int {
	return n.MemoryTotalMB - n.MemoryUsedMB
}

// CanFit reports whether the node has enough free memory for requiredMB.
func (n Node) CanFit(requiredMB int) bool {
	return n.FreeMemoryMB() >= requiredMB
}

// AcceptsPlacement reports whether the node is eligible to receive new work.
func (n Node) AcceptsPlacement() bool {
	return n.State == NodeRunning
}

// Tag returns the value of a tag key and whether it was present.
func (n Node) Tag(key string) (string, bool) {
	if n.Tags == nil {
		return "", false
	}
	v, ok := n.Tags[key]
	return v, ok
}

// FleetLabelKey and RoleLabelKey are the two tag keys that define fleet
// membership: presence of both, plus State == NodeRunning.
const (
	FleetLabelKey = "fleet"
	RoleLabelKey  = "role"
	RoleWorker    = "worker"
)

// IsFleetWorker reports whether the node carries the fleet/worker tags for
// the given fleet label and is currently running.
func (n Node) IsFleetWorker(fleet string) bool {
	if n.State != NodeRunning {
		return false
	}
	f, ok := n.Tag(FleetLabelKey)
	if !ok || f != fleet {
		return false
	}
	r, ok := n.Tag(RoleLabelKey)
	return ok && r == RoleWorker
}
