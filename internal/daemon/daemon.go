package daemon

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/synkti/fleetd/internal/domain"
	"github.com/synkti/fleetd/internal/infra/cloud"
	"github.com/synkti/fleetd/internal/infra/elb"
	"github.com/synkti/fleetd/internal/infra/engine"
	"github.com/synkti/fleetd/internal/infra/failover"
	"github.com/synkti/fleetd/internal/infra/healing"
	"github.com/synkti/fleetd/internal/infra/httpapi"
	"github.com/synkti/fleetd/internal/infra/metrics"
	"github.com/synkti/fleetd/internal/infra/monitor"
	"github.com/synkti/fleetd/internal/infra/placement"
	"github.com/synkti/fleetd/internal/infra/registry"
	"github.com/synkti/fleetd/internal/infra/remote"
	"github.com/synkti/fleetd/internal/security"
)

// Daemon is the per-node agent: it watches for preemption notices on this
// node and, on receiving one, drains its own workload and orchestrates a
// failover onto a healthy peer. It also maintains this node's membership
// in the peer registry so it is itself a candidate for other nodes'
// failovers.
type Daemon struct {
	cfg      Config
	provider cloud.Provider
	keypair  *security.Keypair
	selfID   string

	peers      *registry.PeerRegistry
	blobs      *registry.BlobStore
	mon        *monitor.Monitor
	elb        *elb.Adapter
	engine     *engine.Adapter
	exec       *remote.Executor
	breaker    *healing.CircuitBreaker
	quarantine *healing.QuarantineManager
	orch       *failover.Orchestrator
	http       *httpapi.Server

	workload domain.Workload
}

// New builds a Daemon from cfg. It loads (or creates) this node's identity
// keypair, selects the cloud.Provider backend, and wires the monitor,
// registry, drain, placement, and failover components together.
func New(cfg Config) (*Daemon, error) {
	kp, err := security.LoadOrCreateKeypair(FleetdHome())
	if err != nil {
		return nil, fmt.Errorf("load node identity: %w", err)
	}

	selfID := cfg.Node.ID
	if selfID == "" {
		selfID = kp.PublicKeyHex()
	}

	var provider cloud.Provider
	switch cfg.Cloud.Provider {
	case "memory":
		provider = cloud.NewMemoryProvider()
	default:
		provider = cloud.NewHTTPProvider(cfg.Cloud.MetadataBase)
	}

	pollInterval, err := time.ParseDuration(cfg.Monitor.PollInterval)
	if err != nil {
		return nil, fmt.Errorf("parse monitor.poll_interval: %w", err)
	}
	reqTimeout, err := time.ParseDuration(cfg.Monitor.RequestTimeout)
	if err != nil {
		return nil, fmt.Errorf("parse monitor.request_timeout: %w", err)
	}
	mon := monitor.New(provider, monitor.Config{Interval: pollInterval, RequestTimeout: reqTimeout})

	registryInterval, err := time.ParseDuration(cfg.Registry.PollInterval)
	if err != nil {
		return nil, fmt.Errorf("parse registry.poll_interval: %w", err)
	}
	peers := registry.NewPeerRegistry(provider, cfg.Node.Fleet, selfID, registryInterval)

	blobs := registry.NewBlobStore(cfg.Registry.BlobDir)
	if err := blobs.Init(); err != nil {
		return nil, fmt.Errorf("init blob store: %w", err)
	}

	elbAdapter := elb.New(provider)
	execAdapter := remote.New(provider)
	localEngine := engine.New(cfg.Engine.BaseURL)

	strategy, err := resolveStrategy(cfg.Failover.Strategy)
	if err != nil {
		return nil, err
	}

	spawner := &remote.ContainerSpawner{
		Exec:          execAdapter,
		Image:         cfg.Engine.Image,
		Port:          cfg.Engine.Port,
		ContextLength: cfg.Engine.ContextLength,
		DevicePath:    cfg.Engine.DevicePath,
	}

	breaker := healing.NewCircuitBreaker("failover-"+cfg.Node.Fleet, healing.DefaultCircuitBreakerConfig())
	quarantineMgr := healing.NewQuarantineManager(healing.DefaultQuarantineConfig())

	foCfg := failover.DefaultConfig()
	foCfg.Strategy = strategy
	foCfg.ELB = elbAdapter
	if cfg.Failover.HealthCheckTimeoutSecs > 0 {
		foCfg.HealthCheckTimeout = time.Duration(cfg.Failover.HealthCheckTimeoutSecs) * time.Second
	}
	if cfg.Failover.HealthCheckIntervalSecs > 0 {
		foCfg.HealthCheckInterval = time.Duration(cfg.Failover.HealthCheckIntervalSecs) * time.Second
	}
	if cfg.Drain.BudgetSeconds > 0 {
		foCfg.DrainBudget = time.Duration(cfg.Drain.BudgetSeconds) * time.Second
	}

	healthChecker := &peerHealthChecker{peers: peers, port: cfg.Engine.Port}
	orch := failover.New(foCfg, spawner, healthChecker)

	d := &Daemon{
		cfg:        cfg,
		provider:   provider,
		keypair:    kp,
		selfID:     selfID,
		peers:      peers,
		blobs:      blobs,
		mon:        mon,
		elb:        elbAdapter,
		engine:     localEngine,
		exec:       execAdapter,
		breaker:    breaker,
		quarantine: quarantineMgr,
		orch:       orch,
	}

	httpSrv := httpapi.NewServer(selfID, d)
	if cfg.Telemetry.Prometheus {
		httpSrv.EnableMetrics()
	}
	d.http = httpSrv

	return d, nil
}

// Status reports a point-in-time snapshot of this node's agent state for
// the httpapi /api/status endpoint.
func (d *Daemon) Status() map[string]any {
	return map[string]any{
		"fleet":             d.cfg.Node.Fleet,
		"circuit_breaker":   d.breaker.State().String(),
		"known_peers":       len(d.peers.Snapshot()),
		"failover_strategy": d.cfg.Failover.Strategy,
	}
}

func resolveStrategy(name string) (placement.Strategy, error) {
	switch name {
	case "earliest":
		return placement.Earliest{}, nil
	case "least-loaded":
		return placement.LeastLoaded{}, nil
	case "warm-least-loaded", "":
		return placement.WarmLeastLoaded{}, nil
	case "random":
		return placement.Random{Rand: rand.New(rand.NewSource(time.Now().UnixNano()))}, nil
	default:
		return nil, fmt.Errorf("unknown failover.strategy %q", name)
	}
}

// SetWorkload records the workload this node is currently serving, used
// when a failover is triggered for this node.
func (d *Daemon) SetWorkload(w domain.Workload) {
	d.workload = w
}

// Serve tags this node into the fleet registry, starts the background
// peer-discovery loop, and blocks watching for preemption notices until
// ctx is cancelled.
//
// It installs its own SIGINT/SIGTERM handler, independent of whatever
// context the caller wired up, mirroring the teacher's shutdown sequence
// (cancel background work, let anything in flight finish, close adapters):
// a raw signal cancels the monitor/registry loops the same way ctx
// cancellation does, and the notice loop only returns once handleNotice —
// and, if a Terminate notice is being acted on, its terminal guard — has
// run to completion.
func (d *Daemon) Serve(ctx context.Context) error {
	if err := registry.TagSelf(ctx, d.provider, d.selfID, d.cfg.Node.Fleet); err != nil {
		return fmt.Errorf("tag self into fleet: %w", err)
	}
	defer func() {
		untagCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := registry.UntagSelf(untagCtx, d.provider, d.selfID); err != nil {
			log.Printf("untag self on shutdown: %v", err)
		}
	}()

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			cancelRun()
		case <-runCtx.Done():
		}
	}()

	go d.peers.Run(runCtx)

	if d.cfg.Telemetry.Prometheus && d.cfg.Telemetry.PrometheusPort > 0 {
		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", d.cfg.Telemetry.PrometheusPort),
			Handler: d.http.Handler(),
		}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http status server: %v", err)
			}
		}()
		go func() {
			<-runCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	notices := d.mon.Run(runCtx)
	for {
		select {
		case <-runCtx.Done():
			return nil
		case notice, ok := <-notices:
			if !ok {
				return nil
			}
			metrics.PreemptionNotices.WithLabelValues(notice.Action.String()).Inc()
			d.handleNotice(runCtx, notice)
		}
	}
}

// handleNotice is this node's entry point into the orchestrator role. It
// acts only on ActionTerminate — Stop and Hibernate notices are observed
// (counted in metrics.PreemptionNotices above) but never trigger a
// failover, per the data model's notice invariant.
//
// Once committed to a Terminate notice, it installs the RAII terminal
// guard: the deferred call below fires on every exit from this function —
// HandlePreemption returning normally, returning an error, or panicking —
// and issues this node's own terminate request to the provider. A node
// that observed a Terminate notice never leaves this function without
// having asked to be terminated.
func (d *Daemon) handleNotice(ctx context.Context, notice domain.Notice) {
	if notice.Action != domain.ActionTerminate {
		return
	}

	if err := d.breaker.Allow(); err != nil {
		log.Printf("failover circuit open, skipping: %v", err)
		return
	}

	defer d.terminateSelf()

	candidates := d.buildCandidates()
	start := time.Now()
	rec := d.orch.HandlePreemption(ctx, d.selfID, d.engine, candidates, d.workload)

	outcome := "failure"
	if rec.Success {
		outcome = "success"
		d.breaker.RecordSuccess()
	} else {
		d.breaker.RecordFailure()
		if rec.ReplacementNodeID != "" {
			d.quarantine.RecordFailure(rec.ReplacementNodeID)
		}
	}
	metrics.FailoverAttempts.WithLabelValues(outcome).Inc()
	metrics.FailoverPhaseDuration.WithLabelValues("drain").Observe(rec.PhaseTimes.DrainSecs)
	metrics.FailoverPhaseDuration.WithLabelValues("select").Observe(rec.PhaseTimes.SelectSecs)
	metrics.FailoverPhaseDuration.WithLabelValues("spawn").Observe(rec.PhaseTimes.SpawnSecs)
	metrics.FailoverPhaseDuration.WithLabelValues("health_check").Observe(rec.PhaseTimes.HealthCheckSecs)

	log.Printf("failover for %s: success=%v replacement=%s total=%s",
		d.selfID, rec.Success, rec.ReplacementNodeID, time.Since(start))
}

// terminateSelf issues this node's own terminate request to the provider.
// It runs on a background context with its own bound, since the notice's
// ctx may already be cancelled (shutdown-in-progress) by the time this
// fires — the terminal guard must still go out.
func (d *Daemon) terminateSelf() {
	termCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := d.provider.TerminateInstance(termCtx, d.selfID); err != nil {
		log.Printf("terminate-self for %s: %v", d.selfID, err)
	}
}

// buildCandidates turns the current peer snapshot into placement
// candidates, excluding this node and any peer currently quarantined.
func (d *Daemon) buildCandidates() []domain.PlacementCandidate {
	snapshot := d.peers.Snapshot()
	candidates := make([]domain.PlacementCandidate, 0, len(snapshot))
	for _, n := range snapshot {
		if n.ID == d.selfID {
			continue
		}
		if d.quarantine.IsQuarantined(n.ID) {
			continue
		}
		if !n.AcceptsPlacement() {
			continue
		}
		candidates = append(candidates, domain.PlacementCandidate{Node: n})
	}
	return candidates
}

// Close releases the daemon's resources.
func (d *Daemon) Close() error {
	return nil
}

// peerHealthChecker adapts a per-node engine.Adapter, built on demand from
// the registry snapshot's PrivateAddr, into failover.HealthChecker. The
// local-node engine.Adapter is constructed once against a fixed base URL;
// a replacement node's health must be checked over the network instead,
// so this wraps a fresh Adapter per call rather than reusing engine.New's
// fixed-URL assumption.
type peerHealthChecker struct {
	peers *registry.PeerRegistry
	port  int
}

func (h *peerHealthChecker) Healthy(ctx context.Context, nodeID string) bool {
	for _, n := range h.peers.Snapshot() {
		if n.ID == nodeID {
			addr := n.PrivateAddr
			if addr == "" {
				addr = n.PublicAddr
			}
			return engine.New(fmt.Sprintf("http://%s:%d", addr, h.port)).Healthy(ctx)
		}
	}
	return false
}
