package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency.

var (
	// Preemption monitor errors
	ErrNotPreemptibleHardware = errors.New("metadata endpoint unreachable — not preemptible hardware")
	ErrNoticeMalformed        = errors.New("preemption notice payload malformed")
	ErrUnknownSpotAction      = errors.New("unrecognized spot action in notice")

	// Peer registry errors
	ErrNoPeersDiscovered = errors.New("no peers discovered for fleet")
	ErrFleetLabelMissing = errors.New("fleet label not configured")

	// Drain controller errors
	ErrDrainFailed = errors.New("drain failed — hard error on deregistration")

	// Placement engine errors
	ErrNoSuitableReplacement = errors.New("no candidate has sufficient free memory for workload")
	ErrNoViableCandidates    = errors.New("no viable candidates supplied to placement engine")

	// Assignment planner errors
	ErrNoAvailableTargets = errors.New("no available migration targets")

	// Load-balancer adapter errors
	ErrTargetHealthTimeout = errors.New("timed out waiting for target to become healthy")

	// Failover orchestrator errors
	ErrSpawnFailed          = errors.New("remote command to spawn replacement returned non-zero")
	ErrHealthCheckTimeout   = errors.New("replacement never passed health check inside budget")
	ErrFailoverAlreadyInFlight = errors.New("failover already in flight for this node — notice ignored")

	// Remote executor errors
	ErrCommandTimedOut  = errors.New("remote command timed out")
	ErrCommandCancelled = errors.New("remote command cancelled")

	// Inference-engine adapter errors
	ErrEngineNotRunning  = errors.New("inference engine container not running")
	ErrMetricsUnreadable = errors.New("metrics body unparseable — falling back to health check")
	ErrReadyTimeout      = errors.New("engine did not become ready inside budget")

	// Cloud provider adapter errors
	ErrProviderUnavailable = errors.New("cloud provider API transiently unavailable")
	ErrInstanceNotFound    = errors.New("instance not found")
	ErrBlobNotFound        = errors.New("blob not found in content-addressed store")

	// Config errors — caught at boot, fail fast
	ErrConfigInvalid = errors.New("configuration invalid")

	// Circuit breaker / quarantine (infra/healing, generalized from the
	// teacher's node-anomaly quarantine to placement-candidate eligibility)
	ErrCircuitOpen     = errors.New("circuit breaker open — failover attempts suspended")
	ErrNodeQuarantined = errors.New("node is quarantined — ineligible as placement candidate")
)
