package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/yndnr/meterd/pkg/token"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Server.HTTP.Addr != DefaultHTTPAddr {
		t.Errorf("HTTP.Addr = %q, want %q", cfg.Server.HTTP.Addr, DefaultHTTPAddr)
	}
	if cfg.Server.HTTP.RateLimit != 0 {
		t.Error("rate limiting should be disabled by default")
	}
	if !cfg.Metrics.PrometheusEnabled || !cfg.Metrics.RecordAPI {
		t.Error("prometheus and api recording should be enabled by default")
	}
	if cfg.Metrics.Shards != DefaultShards {
		t.Errorf("Shards = %d, want %d", cfg.Metrics.Shards, DefaultShards)
	}
	if cfg.Health.LeakGCCycles != DefaultLeakGCCycles {
		t.Errorf("LeakGCCycles = %d, want %d", cfg.Health.LeakGCCycles, DefaultLeakGCCycles)
	}
	if cfg.Log.Level != DefaultLogLevel {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, DefaultLogLevel)
	}
	if cfg.Log.Format != DefaultLogFormat {
		t.Errorf("Log.Format = %q, want %q", cfg.Log.Format, DefaultLogFormat)
	}

	if err := Verify(cfg); err != nil {
		t.Errorf("Verify(Default()) error = %v", err)
	}
}

func TestSanitize(t *testing.T) {
	hash, err := token.Hash("mdk_secret")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	cfg := &ServerConfig{Admin: AdminSection{APIKeyHash: hash, AllowList: []string{"127.0.0.1"}}}

	sanitized := Sanitize(cfg)

	if cfg.Admin.APIKeyHash != hash {
		t.Error("Original config should not be modified")
	}
	if !strings.HasPrefix(sanitized.Admin.APIKeyHash, "$argon2id$v=19$m=") {
		t.Errorf("masked hash lost its parameters: %q", sanitized.Admin.APIKeyHash)
	}
	if !strings.HasSuffix(sanitized.Admin.APIKeyHash, "$"+redactedValue) {
		t.Errorf("masked hash = %q, want salt and digest redacted", sanitized.Admin.APIKeyHash)
	}

	sanitized.Admin.AllowList[0] = "10.0.0.1"
	if cfg.Admin.AllowList[0] != "127.0.0.1" {
		t.Error("Sanitize should not share slices with the original")
	}
}

func TestRedactHash(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"plaintext", redactedValue},
		{"$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$ZGlnZXN0", "$argon2id$v=19$m=65536,t=1,p=4$" + redactedValue},
		{"$argon2id$v=19$m=65536", redactedValue},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := redactHash(tt.input); got != tt.want {
				t.Errorf("redactHash(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ServerConfig)
		wantErr string
	}{
		{"valid", func(*ServerConfig) {}, ""},
		{"missing addr", func(c *ServerConfig) { c.Server.HTTP.Addr = "" }, "server.http.addr is required"},
		{"bad addr", func(c *ServerConfig) { c.Server.HTTP.Addr = "localhost" }, "server.http.addr"},
		{"cert without key", func(c *ServerConfig) { c.Server.HTTP.TLSCertFile = "cert.pem" }, "must be set together"},
		{"missing tls files", func(c *ServerConfig) {
			c.Server.HTTP.TLSCertFile = "/nonexistent/cert.pem"
			c.Server.HTTP.TLSKeyFile = "/nonexistent/key.pem"
		}, "tls file"},
		{"negative rate", func(c *ServerConfig) { c.Server.HTTP.RateLimit = -1 }, "rate_limit"},
		{"rate without burst", func(c *ServerConfig) {
			c.Server.HTTP.RateLimit = 10
			c.Server.HTTP.RateBurst = 0
		}, "rate_burst"},
		{"bad key hash", func(c *ServerConfig) { c.Admin.APIKeyHash = "plaintext" }, "admin.api_key_hash"},
		{"bad allow list", func(c *ServerConfig) { c.Admin.AllowList = []string{"10.0.0.0/33"} }, "admin.allow_list"},
		{"bad trusted proxy", func(c *ServerConfig) { c.Server.HTTP.TrustedProxies = []string{"proxy.local"} }, "server.http.trusted_proxies"},
		{"allow list ok", func(c *ServerConfig) { c.Admin.AllowList = []string{"10.0.0.1", "192.168.0.0/16"} }, ""},
		{"socket dir missing", func(c *ServerConfig) { c.Server.Local.SocketPath = "/nonexistent/meterd.sock" }, "server.local.socket_path"},
		{"socket ok", func(c *ServerConfig) { c.Server.Local.SocketPath = filepath.Join(os.TempDir(), "meterd.sock") }, ""},
		{"shards not power of two", func(c *ServerConfig) { c.Metrics.Shards = 12 }, "metrics.shards"},
		{"zero interval", func(c *ServerConfig) { c.Health.LagInterval = 0 }, "health.lag_interval"},
		{"zero leak cycles", func(c *ServerConfig) { c.Health.LeakGCCycles = 0 }, "leak_gc_cycles"},
		{"bad log level", func(c *ServerConfig) { c.Log.Level = "verbose" }, "log.level"},
		{"bad log format", func(c *ServerConfig) { c.Log.Format = "xml" }, "log.format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := Verify(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Verify() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Verify() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "meterd.yaml")
	content := `
server:
  http:
    addr: "0.0.0.0:7000"
    rate_limit: 50
health:
  lag_interval: 250ms
log:
  level: warn
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	t.Setenv("METERD_LOG_LEVEL", "debug")
	t.Setenv("METERD_HEALTH_LEAK_GC_CYCLES", "9")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.HTTP.Addr != "0.0.0.0:7000" {
		t.Errorf("Addr = %q, want %q", cfg.Server.HTTP.Addr, "0.0.0.0:7000")
	}
	if cfg.Server.HTTP.RateLimit != 50 {
		t.Errorf("RateLimit = %v, want 50", cfg.Server.HTTP.RateLimit)
	}
	if cfg.Health.LagInterval != 250*time.Millisecond {
		t.Errorf("LagInterval = %v, want 250ms", cfg.Health.LagInterval)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want env override %q", cfg.Log.Level, "debug")
	}
	if cfg.Health.LeakGCCycles != 9 {
		t.Errorf("LeakGCCycles = %d, want 9", cfg.Health.LeakGCCycles)
	}

	// Untouched values keep their defaults.
	if cfg.Health.MemoryInterval != DefaultMemoryInterval {
		t.Errorf("MemoryInterval = %v, want default %v", cfg.Health.MemoryInterval, DefaultMemoryInterval)
	}
	if cfg.Metrics.Shards != DefaultShards {
		t.Errorf("Shards = %d, want default %d", cfg.Metrics.Shards, DefaultShards)
	}
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	if cfg.Server.HTTP.Addr != DefaultHTTPAddr {
		t.Errorf("Addr = %q, want default", cfg.Server.HTTP.Addr)
	}
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("METERD_METRICS_SHARDS", "3")

	if _, err := Load(""); err == nil {
		t.Error("Load() should reject an invalid shard count")
	}
}

func TestKeys(t *testing.T) {
	keys := Keys()

	for _, want := range []string{
		"server.http.addr",
		"server.http.rate_limit",
		"server.http.cors_allowed_origins",
		"server.local.socket_path",
		"admin.api_key_hash",
		"metrics.prometheus_enabled",
		"health.leak_gc_cycles",
		"log.level",
	} {
		if !slices.Contains(keys, want) {
			t.Errorf("Keys() missing %q", want)
		}
	}
}

func TestToRegistryConfig(t *testing.T) {
	cfg := Default()
	cfg.Health.LeakGCCycles = 7

	rc := ToRegistryConfig(cfg, nil)
	if rc.Shards != cfg.Metrics.Shards {
		t.Errorf("Shards = %d, want %d", rc.Shards, cfg.Metrics.Shards)
	}
	if rc.LeakGCCycles != 7 {
		t.Errorf("LeakGCCycles = %d, want 7", rc.LeakGCCycles)
	}
	if rc.LagInterval != cfg.Health.LagInterval {
		t.Errorf("LagInterval = %v, want %v", rc.LagInterval, cfg.Health.LagInterval)
	}
}

func TestEnvName(t *testing.T) {
	if got := EnvName("health.leak_gc_cycles"); got != "METERD_HEALTH_LEAK_GC_CYCLES" {
		t.Errorf("EnvName() = %q", got)
	}
}

func TestLoad_UnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meterd.yaml")
	if err := os.WriteFile(path, []byte("metrics:\n  shard: 8\n"), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "metrics.shard") {
		t.Errorf("Load() error = %v, want unknown key metrics.shard", err)
	}
}

func TestLoad_ListFromEnv(t *testing.T) {
	t.Setenv("METERD_ADMIN_ALLOW_LIST", "127.0.0.1, 10.0.0.0/8")
	t.Setenv("METERD_SERVER", "http://127.0.0.1:5090")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := []string{"127.0.0.1", "10.0.0.0/8"}
	if !slices.Equal(cfg.Admin.AllowList, want) {
		t.Errorf("AllowList = %v, want %v", cfg.Admin.AllowList, want)
	}
}
