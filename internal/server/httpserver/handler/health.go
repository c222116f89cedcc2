package handler

import (
	"net/http"
	"time"

	"github.com/yndnr/meterd/internal/core/domain"
)

// handleHealth handles GET /health.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, HealthResponse{
		Status: "healthy",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// handleReady handles GET /ready. The server is ready once the registry's
// probes are running.
func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	if !h.ready.Load() {
		h.handleServiceError(w, r, domain.ErrNotReady.WithDetails("probes not started"))
		return
	}
	h.writeJSON(w, r, http.StatusOK, HealthResponse{
		Status: "ready",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}
