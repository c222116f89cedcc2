package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/yndnr/meterd/internal/core/domain"
)

// APIRecorder receives one event per served request.
type APIRecorder interface {
	RecordAPI(ev domain.APIEvent) error
}

// RequestObserver receives request latencies.
type RequestObserver interface {
	ObserveRequest(route, method, status string, d time.Duration)
}

// AuditConfig holds configuration for the Audit middleware.
type AuditConfig struct {
	Logger *slog.Logger

	// Recorder, when set, is fed every completed request.
	Recorder APIRecorder

	// Observer, when set, receives request durations.
	Observer RequestObserver
}

// Audit logs each completed request and reports it to the API family and
// the request histogram. The route is the matched pattern, never the raw
// path, so the number of distinct endpoints stays bounded.
func Audit(cfg AuditConfig) Middleware {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			note := &auditNote{}
			ctx := context.WithValue(r.Context(), noteKey{}, note)
			start := requestStart(ctx)

			sw := &statusWriter{ResponseWriter: w}
			next.ServeHTTP(sw, r.WithContext(ctx))

			status := sw.Status()
			elapsed := time.Since(start)
			route := routeOf(r)

			if cfg.Recorder != nil {
				if err := cfg.Recorder.RecordAPI(domain.NewAPIEvent(route, r.Method, status, elapsed)); err != nil {
					log.DebugContext(ctx, "api event rejected", "route", route, "error", err)
				}
			}
			if cfg.Observer != nil {
				cfg.Observer.ObserveRequest(route, r.Method, strconv.Itoa(status), elapsed)
			}

			logRequest(ctx, log, r, route, status, elapsed, note.admin)
		})
	}
}

// auditNote collects facts learned further down the chain.
type auditNote struct {
	admin bool
}

func logRequest(ctx context.Context, log *slog.Logger, r *http.Request, route string, status int, elapsed time.Duration, admin bool) {
	level, msg := slog.LevelInfo, "request served"
	switch {
	case status >= 500:
		level, msg = slog.LevelError, "request failed"
	case status >= 400:
		level, msg = slog.LevelWarn, "request rejected"
	}
	if !log.Enabled(ctx, level) {
		return
	}

	attrs := []slog.Attr{
		slog.String("method", r.Method),
		slog.String("route", route),
		slog.String("path", r.URL.Path),
		slog.Int("status", status),
		slog.Int64("duration_ms", elapsed.Milliseconds()),
		slog.String("client_ip", getClientIP(r)),
	}
	if admin {
		attrs = append(attrs, slog.Bool("admin", true))
	}
	log.LogAttrs(ctx, level, msg, attrs...)
}

// routeOf returns the path part of the matched ServeMux pattern.
func routeOf(r *http.Request) string {
	_, path, found := strings.Cut(r.Pattern, " ")
	if !found {
		path = r.Pattern
	}
	if path == "" {
		return "unmatched"
	}
	return path
}

// statusWriter remembers the first status sent. A body written without
// WriteHeader counts as 200.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

// Status is the response status, 200 when the handler wrote nothing.
func (w *statusWriter) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
