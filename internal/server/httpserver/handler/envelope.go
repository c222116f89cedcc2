package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/yndnr/meterd/internal/core/domain"
	"github.com/yndnr/meterd/internal/infra/buildinfo"
)

// CodeOK is the envelope code of every successful response.
const CodeOK = "OK"

// Envelope wraps every JSON body except /metrics. Data is set on success,
// Code and Message carry the DomainError otherwise.
type Envelope struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data,omitempty"`
	Details   any    `json:"details,omitempty"`
}

// Success wraps data.
func Success(requestID string, data any) Envelope {
	return Envelope{
		Code:      CodeOK,
		Message:   "Success",
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	}
}

// Failure reports err. Its details are folded into the message.
func Failure(requestID string, err *domain.DomainError) Envelope {
	return Envelope{
		Code:      err.Code,
		Message:   err.Text(),
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
	}
}

func send(w http.ResponseWriter, status int, env Envelope) error {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Request-ID", env.RequestID)
	if env.Code != CodeOK {
		w.Header().Set("X-Error-Code", env.Code)
	}
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(env)
}

// HealthResponse is the data of GET /health and GET /ready.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// StatusResponse is the data of GET /admin/v1/status.
type StatusResponse struct {
	Status     string         `json:"status"`
	Build      buildinfo.Info `json:"build"`
	StartedAt  string         `json:"started_at"`
	Uptime     string         `json:"uptime"`
	Goroutines int            `json:"goroutines"`
	Ready      bool           `json:"ready"`
}
