package handlers

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/freema/agentlink/internal/clients"
)

// HealthHandler serves /health and /ready endpoints.
type HealthHandler struct {
	registry  *clients.Registry
	startTime time.Time
	version   string
	ready     *atomic.Bool
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(registry *clients.Registry, version string) *HealthHandler {
	ready := &atomic.Bool{}
	ready.Store(true)
	return &HealthHandler{
		registry:  registry,
		startTime: time.Now(),
		version:   version,
		ready:     ready,
	}
}

// SetReady sets the readiness state (false during shutdown).
func (h *HealthHandler) SetReady(v bool) {
	h.ready.Store(v)
}

type healthResponse struct {
	Status  string `json:"status"`
	Clients int    `json:"clients"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// Health reports registry state and uptime.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Clients: len(h.registry.List()),
		Version: h.version,
		Uptime:  time.Since(h.startTime).Round(time.Second).String(),
	})
}

// Ready returns 200 if the server is accepting traffic, 503 during shutdown.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if !h.ready.Load() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "shutting_down"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
