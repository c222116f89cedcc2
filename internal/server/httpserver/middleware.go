package httpserver

import (
	"context"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/yndnr/meterd/internal/core/domain"
	"github.com/yndnr/meterd/internal/server/httpserver/handler"
	"github.com/yndnr/meterd/internal/telemetry/logger"
)

// maxRequestIDLen bounds client-supplied request IDs.
const maxRequestIDLen = 128

type (
	startKey struct{}
	adminKey struct{}
	noteKey  struct{}
)

// Middleware wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain wraps h so that middlewares run in the order given.
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// OnlyIf applies middlewares to requests matching pred and lets the rest
// through untouched.
func OnlyIf(pred func(*http.Request) bool, middlewares ...Middleware) Middleware {
	return func(next http.Handler) http.Handler {
		guarded := Chain(next, middlewares...)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if pred(r) {
				guarded.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// IsAdmin reports whether the request presented a valid admin key.
func IsAdmin(ctx context.Context) bool {
	v, _ := ctx.Value(adminKey{}).(bool)
	return v
}

// withAdmin marks ctx as admin and tells an enclosing Audit about it.
func withAdmin(ctx context.Context) context.Context {
	if n, ok := ctx.Value(noteKey{}).(*auditNote); ok {
		n.admin = true
	}
	return context.WithValue(ctx, adminKey{}, true)
}

func requestStart(ctx context.Context) time.Time {
	if t, ok := ctx.Value(startKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// RequestID tags the request with an ID, echoed in X-Request-ID and in
// every log line written with the request context. A client ID is kept
// when it is short printable ASCII; otherwise a ULID is minted.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-Request-ID")
			if !validRequestID(id) {
				id = "req-" + ulid.Make().String()
			}
			w.Header().Set("X-Request-ID", id)

			ctx := context.WithValue(logger.WithRequestID(r.Context(), id), startKey{}, time.Now())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] <= ' ' || id[i] > '~' {
			return false
		}
	}
	return true
}

// Recover turns a handler panic into MD-SYS-5000 and logs the stack.
// http.ErrAbortHandler is re-raised for net/http to handle.
func Recover(log *slog.Logger) Middleware {
	if log == nil {
		log = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if v == http.ErrAbortHandler {
					panic(v)
				}
				log.ErrorContext(r.Context(), "panic recovered",
					"panic", v,
					"path", r.URL.Path,
					"stack", string(debug.Stack()),
				)
				handler.WriteError(w, r, domain.ErrInternalServer)
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// CORS answers browser origins found in allowedOrigins. An empty list or
// "*" allows any origin. OPTIONS requests end here with 204.
func CORS(allowedOrigins []string) Middleware {
	anyOrigin := len(allowedOrigins) == 0
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			anyOrigin = true
		}
		origins[o] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin := r.Header.Get("Origin"); origin != "" && (anyOrigin || origins[origin]) {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Methods", "GET, OPTIONS")
				h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-API-Key, X-Request-ID")
				h.Set("Access-Control-Expose-Headers", "X-Request-ID, X-Error-Code, Retry-After")
				h.Set("Access-Control-Max-Age", "86400")
				h.Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
