package logger

import (
	"log/slog"
	"strings"

	"github.com/yndnr/meterd/pkg/token"
)

// Values starting with these are partially masked wherever they appear.
var secretPrefixes = []string{
	token.KeyPrefix, // plaintext admin key
	"$argon2id$",    // admin key hash
}

// Attributes whose key contains one of these are fully masked.
var secretKeyParts = []string{
	"password",
	"secret",
	"token",
	"key",
	"credential",
	"auth",
	"bearer",
}

const redacted = "***REDACTED***"

func redactAttr(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		v := a.Value.String()
		if masked, ok := maskKnown(v); ok {
			return slog.String(a.Key, masked)
		}
		if v != "" && IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redacted)
		}
	case slog.KindGroup:
		group := a.Value.Group()
		out := make([]slog.Attr, len(group))
		for i, ga := range group {
			out[i] = redactAttr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	}
	return a
}

// maskKnown masks v when it carries a known secret prefix, keeping the
// prefix and three characters at each end of the body.
func maskKnown(v string) (string, bool) {
	for _, p := range secretPrefixes {
		if !strings.HasPrefix(v, p) {
			continue
		}
		body := v[len(p):]
		if len(body) <= 6 {
			return p + "***", true
		}
		return p + body[:3] + "..." + body[len(body)-3:], true
	}
	return v, false
}

// Redact masks s if it looks like an admin key or key hash.
func Redact(s string) string {
	masked, _ := maskKnown(s)
	return masked
}

// IsSensitiveKey reports whether an attribute key names a credential.
func IsSensitiveKey(key string) bool {
	k := strings.ToLower(key)
	for _, part := range secretKeyParts {
		if strings.Contains(k, part) {
			return true
		}
	}
	return false
}
