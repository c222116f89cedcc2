package httpserver

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/yndnr/meterd/internal/server/httpserver/handler"
	"github.com/yndnr/meterd/internal/telemetry/metric"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Handler serves the JSON endpoints. Required.
	Handler *handler.Handler

	// Recorder receives one API event per request when RecordAPI is set.
	Recorder APIRecorder

	// RecordAPI feeds served requests into the API family.
	RecordAPI bool

	// Metrics exposes GET /metrics and the request histogram. Nil disables both.
	Metrics *metric.Registry

	// Logger for request logging.
	Logger *slog.Logger

	// AdminKeyHash is the argon2id hash guarding resets and admin endpoints
	// (empty = no key required).
	AdminKeyHash string

	// AdminAllowList is the IP/CIDR allowlist for the same requests (empty = no restriction).
	AdminAllowList []string

	// TrustedProxies lists the peers (IPs/CIDRs) whose forwarding headers
	// name the client. Empty trusts none.
	TrustedProxies []string

	// CORSAllowedOrigins is the list of allowed CORS origins (empty = allow all).
	CORSAllowedOrigins []string

	// RateLimit is the per-IP rate limit in requests/second (0 = off).
	RateLimit float64

	// RateBurst is the per-IP burst size.
	RateBurst int

	// EnableAudit enables request logging and API event recording.
	EnableAudit bool
}

// DefaultRouterConfig returns default router configuration.
func DefaultRouterConfig() *RouterConfig {
	return &RouterConfig{
		RecordAPI:   true,
		RateLimit:   100,
		RateBurst:   20,
		EnableAudit: true,
	}
}

// NewRouter creates and configures the HTTP router with all routes and middleware.
//
// Order per route: Recover -> RequestID -> RealIP -> CORS -> RateLimit -> Audit -> (admin guard) -> Handler.
func NewRouter(cfg *RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	h := cfg.Handler

	trusted, err := ParsePrefixes(cfg.TrustedProxies)
	if err != nil {
		log.Warn("ignoring invalid trusted proxies", "error", err)
	}

	base := []Middleware{
		Recover(log),
		RequestID(),
		RealIP(trusted),
		CORS(cfg.CORSAllowedOrigins),
	}
	if cfg.RateLimit > 0 {
		base = append(base, RateLimit(cfg.RateLimit, cfg.RateBurst))
	}
	if cfg.EnableAudit {
		audit := AuditConfig{Logger: log}
		if cfg.RecordAPI {
			audit.Recorder = cfg.Recorder
		}
		if cfg.Metrics != nil {
			audit.Observer = cfg.Metrics
		}
		base = append(base, Audit(audit))
	}

	adminGuard := []Middleware{
		NetworkACL(&NetworkACLConfig{AllowList: cfg.AdminAllowList, Logger: log}),
		AdminAuth(&AdminAuthConfig{KeyHash: cfg.AdminKeyHash, Logger: log}),
	}

	public := Chain(h, base...)
	snapshots := Chain(h, slices.Concat(base, []Middleware{OnlyIf(handler.WantsReset, adminGuard...)})...)
	admin := Chain(h, slices.Concat(base, adminGuard)...)

	mux := http.NewServeMux()

	// Health endpoints - no authentication required
	mux.Handle("GET /health", public)
	mux.Handle("GET /ready", public)

	// Snapshot endpoints - resetting reads need the admin key
	mux.Handle("GET /v1/metrics", snapshots)
	mux.Handle("GET /v1/metrics/process", snapshots)
	mux.Handle("GET /v1/metrics/internal", snapshots)
	mux.Handle("GET /v1/metrics/api", snapshots)

	// Admin endpoints
	mux.Handle("GET /admin/v1/status", admin)

	// Prometheus exposition
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", Chain(cfg.Metrics.Handler(), base...))
	}

	return mux
}
