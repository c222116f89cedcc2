package httpserver

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/yndnr/meterd/internal/core/domain"
	"github.com/yndnr/meterd/internal/server/httpserver/handler"
	"github.com/yndnr/meterd/pkg/token"
)

// AdminAuthConfig holds configuration for the AdminAuth middleware.
type AdminAuthConfig struct {
	// KeyHash is the argon2id hash of the admin key. Empty disables the check.
	KeyHash string

	Logger *slog.Logger
}

// AdminAuth requires the admin key, sent as "Authorization: Bearer <key>"
// or X-API-Key, and marks accepted requests for IsAdmin.
func AdminAuth(cfg *AdminAuthConfig) Middleware {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.KeyHash == "" {
				next.ServeHTTP(w, r)
				return
			}

			key := extractAPIKey(r)
			switch {
			case key == "":
				handler.WriteError(w, r, domain.ErrAPIKeyMissing)
			case !token.Verify(key, cfg.KeyHash):
				log.WarnContext(r.Context(), "admin key rejected",
					"client_ip", getClientIP(r),
					"path", r.URL.Path,
				)
				handler.WriteError(w, r, domain.ErrAPIKeyInvalid)
			default:
				next.ServeHTTP(w, r.WithContext(withAdmin(r.Context())))
			}
		})
	}
}

// extractAPIKey reads the bearer token, falling back to X-API-Key.
func extractAPIKey(r *http.Request) string {
	if scheme, key, ok := strings.Cut(r.Header.Get("Authorization"), " "); ok && strings.EqualFold(scheme, "Bearer") {
		return strings.TrimSpace(key)
	}
	return strings.TrimSpace(r.Header.Get("X-API-Key"))
}
