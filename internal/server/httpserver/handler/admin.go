package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/yndnr/meterd/internal/infra/buildinfo"
)

// handleAdminStatus handles GET /admin/v1/status.
func (h *Handler) handleAdminStatus(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, StatusResponse{
		Status:     "running",
		Build:      buildinfo.Get(),
		StartedAt:  h.started.UTC().Format(time.RFC3339),
		Uptime:     time.Since(h.started).Round(time.Second).String(),
		Goroutines: runtime.NumGoroutine(),
		Ready:      h.ready.Load(),
	})
}
