// Package httpapi serves this node's local observability surface: a
// liveness probe, a point-in-time status snapshot, and the Prometheus
// metrics registered in internal/infra/metrics.
//
// Directly grounded on the teacher's internal/api/server.go Handler():
// the chi router, request-id/real-ip/recoverer/timeout middleware stack,
// and the /health, /api/status liveness-style endpoints are carried over
// unchanged in shape. The OpenAI/Ollama inference routes, MCP transport,
// engagement API, and earnings SSE feed have no equivalent here and are
// dropped; /metrics is kept and is the only route that actually matters
// for a production deployment of this daemon.
package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StatusSource reports a point-in-time view of this node's agent state
// for the /api/status endpoint.
type StatusSource interface {
	Status() map[string]any
}

// Server is the node agent's local HTTP surface.
type Server struct {
	nodeID         string
	status         StatusSource
	metricsEnabled bool
}

// NewServer creates a Server for nodeID. status may be nil.
func NewServer(nodeID string, status StatusSource) *Server {
	return &Server{nodeID: nodeID, status: status}
}

// EnableMetrics mounts the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/api/status", func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{"node_id": s.nodeID}
		if s.status != nil {
			for k, v := range s.status.Status() {
				body[k] = v
			}
		}
		writeJSON(w, http.StatusOK, body)
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
