// Package engine adapts the local inference-engine container's HTTP
// surface: a health endpoint and a Prometheus metrics endpoint exposing
// num_requests_running/num_requests_waiting gauges.
//
// Generalized from internal/infra/engine/subprocess.go's llama-server
// process wrapper (LoadModel starts one process, exposes an HTTP API,
// Close tears it down) — a fleet node runs exactly one containerized
// engine rather than a swappable pool of CGO-loaded models, so the
// LRU/refcount Pool (pool.go) and the CGO backend abstraction (mock.go)
// have no home here and were dropped; see DESIGN.md.
package engine

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/synkti/fleetd/internal/domain"
)

// LaunchConfig describes how to start the inference-engine container on a
// node. The remote executor (internal/infra/remote) is what actually issues
// the docker run invocation; this struct is its typed input.
type LaunchConfig struct {
	Image                     string
	ModelID                   string
	Port                      int
	ContextLength             int
	TensorParallelDegree      int
	Quantization              string
	AcceleratorMemoryFraction float64
	BindHost                  string
	ContainerName             string
	HostMount                 string // host path mounted into the container for weights/cache
}

// gaugeRunning and gaugeWaiting are the two Prometheus gauge names the
// engine exposes on /metrics.
const (
	gaugeRunning = "num_requests_running"
	gaugeWaiting = "num_requests_waiting"
)

// Adapter queries one node's local engine container over HTTP. It
// satisfies internal/infra/drain.Observability.
type Adapter struct {
	BaseURL string // e.g. "http://127.0.0.1:8080"
	Client  *http.Client
}

// New creates an Adapter with a 5s-timeout HTTP client.
func New(baseURL string) *Adapter {
	return &Adapter{BaseURL: baseURL, Client: &http.Client{Timeout: 5 * time.Second}}
}

// Healthy reports whether the engine's /health endpoint returns 200.
func (a *Adapter) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.BaseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := a.Client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// InFlightCounts scrapes /metrics and returns the running/waiting request
// gauges. ok is false when the endpoint is unreachable or the body can't be
// parsed — callers (the drain controller) fall back to Healthy in that case.
func (a *Adapter) InFlightCounts(ctx context.Context) (running, waiting int, ok bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.BaseURL+"/metrics", nil)
	if err != nil {
		return 0, 0, false
	}
	resp, err := a.Client.Do(req)
	if err != nil {
		return 0, 0, false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, 0, false
	}

	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(resp.Body)
	if err != nil {
		return 0, 0, false
	}

	runningVal, runningOK := gaugeValue(families, gaugeRunning)
	waitingVal, waitingOK := gaugeValue(families, gaugeWaiting)
	if !runningOK || !waitingOK {
		return 0, 0, false
	}
	return int(runningVal), int(waitingVal), true
}

// gaugeValue returns the value of the first family whose name matches
// "name" exactly or carries it as a suffix after ":" or "_" — real engines
// (vLLM) prefix these with an engine identifier, e.g. "vllm:num_requests_running".
func gaugeValue(families map[string]*dto.MetricFamily, name string) (float64, bool) {
	for famName, fam := range families {
		if famName != name && !strings.HasSuffix(famName, ":"+name) && !strings.HasSuffix(famName, "_"+name) {
			continue
		}
		if len(fam.GetMetric()) == 0 {
			continue
		}
		g := fam.GetMetric()[0].GetGauge()
		if g == nil {
			continue
		}
		return g.GetValue(), true
	}
	return 0, false
}

// WaitForReady polls Healthy every 2s until it succeeds or timeout elapses.
func (a *Adapter) WaitForReady(ctx context.Context, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	if a.Healthy(ctx) {
		return nil
	}
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if a.Healthy(ctx) {
				return nil
			}
		}
	}
	return fmt.Errorf("engine: %w after %s", domain.ErrReadyTimeout, timeout)
}
