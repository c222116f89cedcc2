package httpserver

import (
	"log/slog"
	"net/http"
	"net/netip"

	"github.com/yndnr/meterd/internal/core/domain"
	"github.com/yndnr/meterd/internal/server/httpserver/handler"
)

// NetworkACLConfig holds configuration for the NetworkACL middleware.
type NetworkACLConfig struct {
	// AllowList holds IPs and CIDRs. Empty means no restriction.
	AllowList []string

	Logger *slog.Logger
}

// allowList is nil when unrestricted. A non-nil empty list admits nobody.
type allowList []netip.Prefix

func (l allowList) permits(ip string) bool {
	if l == nil {
		return true
	}
	addr, err := netip.ParseAddr(ip)
	return err == nil && containsAddr(l, addr)
}

// NetworkACL rejects clients outside the allow list with MD-AUTH-4031.
// Invalid entries are logged and skipped; a list with no valid entry
// rejects everyone.
func NetworkACL(cfg *NetworkACLConfig) Middleware {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	var list allowList
	if len(cfg.AllowList) > 0 {
		prefixes, err := ParsePrefixes(cfg.AllowList)
		if err != nil {
			log.Warn("ignoring invalid allow list entries", "error", err)
		}
		list = append(allowList{}, prefixes...)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := getClientIP(r)
			if list.permits(ip) {
				next.ServeHTTP(w, r)
				return
			}
			log.WarnContext(r.Context(), "request denied by allow list", "client_ip", ip, "path", r.URL.Path)
			handler.WriteError(w, r, domain.ErrIPNotAllowed)
		})
	}
}
