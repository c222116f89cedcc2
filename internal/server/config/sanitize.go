package config

import (
	"slices"
	"strings"
)

const redactedValue = "<redacted>"

// Sanitize returns a deep copy of cfg that is safe to log or print. The
// admin key hash keeps its algorithm and cost parameters so operators can
// still tell which settings produced it.
func Sanitize(cfg *ServerConfig) *ServerConfig {
	out := *cfg
	out.Admin.AllowList = slices.Clone(cfg.Admin.AllowList)
	out.Server.HTTP.CORSAllowedOrigins = slices.Clone(cfg.Server.HTTP.CORSAllowedOrigins)
	out.Server.HTTP.TrustedProxies = slices.Clone(cfg.Server.HTTP.TrustedProxies)
	out.Admin.APIKeyHash = redactHash(cfg.Admin.APIKeyHash)
	return &out
}

// redactHash keeps "$argon2id$v=19$m=...,t=...,p=...$" and drops the salt
// and digest. Values that are not PHC strings are dropped entirely.
func redactHash(h string) string {
	if h == "" {
		return ""
	}
	parts := strings.Split(h, "$")
	if len(parts) != 6 || parts[0] != "" {
		return redactedValue
	}
	return strings.Join(parts[:4], "$") + "$" + redactedValue
}
