package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/yndnr/meterd/internal/core/domain"
)

// Query parameters that request read-then-clear snapshots.
const (
	ParamReset         = "reset"
	ParamResetInternal = "resetInternal"
	ParamResetAPI      = "resetApi"
)

// WantsReset reports whether r asks for any family to be cleared. Values
// that do not parse are treated as false here; the handler rejects them.
func WantsReset(r *http.Request) bool {
	q := r.URL.Query()
	for _, p := range []string{ParamReset, ParamResetInternal, ParamResetAPI} {
		if v, err := strconv.ParseBool(q.Get(p)); err == nil && v {
			return true
		}
	}
	return false
}

// queryBool parses an optional boolean query parameter. Absent means false.
func queryBool(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, domain.ErrInvalidArgument.WithDetails(name + " must be a boolean")
	}
	return v, nil
}

// handleGetAll handles GET /v1/metrics.
// reset=true clears both families; resetInternal and resetApi select one.
func (h *Handler) handleGetAll(w http.ResponseWriter, r *http.Request) {
	reset, err := queryBool(r, ParamReset)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	resetInternal, err := queryBool(r, ParamResetInternal)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	resetAPI, err := queryBool(r, ParamResetAPI)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	b, err := h.coord.GetAll(reset || resetInternal, reset || resetAPI)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, json.RawMessage(b))
}

// handleProcess handles GET /v1/metrics/process.
func (h *Handler) handleProcess(w http.ResponseWriter, r *http.Request) {
	reset, err := queryBool(r, ParamReset)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	b, err := h.coord.ProcessMetrics(reset)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, json.RawMessage(b))
}

// handleInternal handles GET /v1/metrics/internal. An absent family
// answers 204 No Content.
func (h *Handler) handleInternal(w http.ResponseWriter, r *http.Request) {
	h.writeFamily(w, r, h.coord.InternalMetrics)
}

// handleAPI handles GET /v1/metrics/api. An absent family answers 204 No
// Content.
func (h *Handler) handleAPI(w http.ResponseWriter, r *http.Request) {
	h.writeFamily(w, r, h.coord.APIMetrics)
}

func (h *Handler) writeFamily(w http.ResponseWriter, r *http.Request, read func(bool) ([]byte, bool, error)) {
	reset, err := queryBool(r, ParamReset)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	b, ok, err := read(reset)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	if !ok {
		w.Header().Set("X-Request-ID", getRequestID(r))
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.writeJSON(w, r, http.StatusOK, json.RawMessage(b))
}
