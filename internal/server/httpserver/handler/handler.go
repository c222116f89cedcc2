// Package handler provides the HTTP request handlers of meterd-server.
//
// Snapshot endpoints wrap the coordinator's JSON reports in the standard
// response envelope; health endpoints report liveness and readiness.
package handler

import (
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/yndnr/meterd/internal/core/domain"
	"github.com/yndnr/meterd/internal/core/service"
	"github.com/yndnr/meterd/internal/telemetry/logger"
)

// Handler is the main HTTP handler that routes requests to appropriate handlers.
type Handler struct {
	coord   *service.Coordinator
	logger  *slog.Logger
	mux     *http.ServeMux
	started time.Time
	ready   atomic.Bool
}

// New creates a new Handler over the snapshot coordinator. A nil logger
// uses slog.Default().
func New(coord *service.Coordinator, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	h := &Handler{
		coord:   coord,
		logger:  log,
		mux:     http.NewServeMux(),
		started: time.Now(),
	}

	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// SetReady flips the readiness reported by GET /ready.
func (h *Handler) SetReady(ready bool) {
	h.ready.Store(ready)
}

// registerRoutes registers all HTTP routes.
func (h *Handler) registerRoutes() {
	// Health endpoints
	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("GET /ready", h.handleReady)

	// Snapshot endpoints
	h.mux.HandleFunc("GET /v1/metrics", h.handleGetAll)
	h.mux.HandleFunc("GET /v1/metrics/process", h.handleProcess)
	h.mux.HandleFunc("GET /v1/metrics/internal", h.handleInternal)
	h.mux.HandleFunc("GET /v1/metrics/api", h.handleAPI)

	// Admin endpoints
	h.mux.HandleFunc("GET /admin/v1/status", h.handleAdminStatus)
}

// writeJSON writes data in a success envelope.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	if err := send(w, status, Success(getRequestID(r), data)); err != nil {
		h.logger.WarnContext(r.Context(), "failed to encode response", "error", err)
	}
}

// WriteError writes err in a failure envelope with the status its code
// maps to.
func WriteError(w http.ResponseWriter, r *http.Request, err *domain.DomainError) {
	_ = send(w, err.HTTPStatus(), Failure(getRequestID(r), err))
}

// getRequestID extracts request ID from context or header.
func getRequestID(r *http.Request) string {
	if reqID := logger.RequestIDFromContext(r.Context()); reqID != "" {
		return reqID
	}
	return r.Header.Get("X-Request-ID")
}

// handleServiceError converts service errors to HTTP responses. Errors
// without a code are logged and reported as MD-SYS-5000.
func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	de, ok := domain.AsDomainError(err)
	if !ok {
		h.logger.ErrorContext(r.Context(), "internal error", "error", err, "path", r.URL.Path)
		de = domain.ErrInternalServer
	}
	WriteError(w, r, de)
}
