package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/yndnr/meterd/pkg/token"
)

// Verify validates the configuration.
func Verify(cfg *ServerConfig) error {
	if err := verifyHTTP(&cfg.Server.HTTP); err != nil {
		return err
	}
	if err := verifyLocal(&cfg.Server.Local); err != nil {
		return err
	}
	if err := verifyAdmin(&cfg.Admin); err != nil {
		return err
	}
	if err := verifyMetrics(&cfg.Metrics); err != nil {
		return err
	}
	if err := verifyHealth(&cfg.Health); err != nil {
		return err
	}
	return verifyLog(&cfg.Log)
}

func verifyHTTP(cfg *HTTPConfig) error {
	if cfg.Addr == "" {
		return errors.New("server.http.addr is required")
	}
	if _, _, err := net.SplitHostPort(cfg.Addr); err != nil {
		return fmt.Errorf("server.http.addr: %w", err)
	}

	if (cfg.TLSCertFile == "") != (cfg.TLSKeyFile == "") {
		return errors.New("server.http.tls_cert_file and tls_key_file must be set together")
	}
	for _, f := range []string{cfg.TLSCertFile, cfg.TLSKeyFile} {
		if f == "" {
			continue
		}
		if _, err := os.Stat(f); err != nil {
			return fmt.Errorf("server.http tls file: %w", err)
		}
	}

	if cfg.RateLimit < 0 {
		return errors.New("server.http.rate_limit must not be negative")
	}
	if cfg.RateLimit > 0 && cfg.RateBurst < 1 {
		return errors.New("server.http.rate_burst must be at least 1 when rate_limit is set")
	}
	return verifyAddrs("server.http.trusted_proxies", cfg.TrustedProxies)
}

func verifyLocal(cfg *LocalConfig) error {
	if cfg.SocketPath == "" {
		return nil
	}
	dir := filepath.Dir(cfg.SocketPath)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return fmt.Errorf("server.local.socket_path: directory %s does not exist", dir)
	}
	return nil
}

func verifyAdmin(cfg *AdminSection) error {
	if cfg.APIKeyHash != "" {
		if err := token.Validate(cfg.APIKeyHash); err != nil {
			return fmt.Errorf("admin.api_key_hash: %w", err)
		}
	}
	return verifyAddrs("admin.allow_list", cfg.AllowList)
}

// verifyAddrs checks that every entry is an IP address or a CIDR block.
func verifyAddrs(key string, entries []string) error {
	for _, entry := range entries {
		if net.ParseIP(entry) != nil {
			continue
		}
		if _, _, err := net.ParseCIDR(entry); err != nil {
			return fmt.Errorf("%s: invalid entry %q", key, entry)
		}
	}
	return nil
}

func verifyMetrics(cfg *MetricsSection) error {
	if cfg.Shards < 1 || cfg.Shards&(cfg.Shards-1) != 0 {
		return fmt.Errorf("metrics.shards must be a power of two, got %d", cfg.Shards)
	}
	return nil
}

func verifyHealth(cfg *HealthSection) error {
	intervals := map[string]int64{
		"health.memory_interval": int64(cfg.MemoryInterval),
		"health.cpu_interval":    int64(cfg.CPUInterval),
		"health.lag_interval":    int64(cfg.LagInterval),
		"health.leak_interval":   int64(cfg.LeakInterval),
	}
	for name, d := range intervals {
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	if cfg.LeakGCCycles < 1 {
		return errors.New("health.leak_gc_cycles must be at least 1")
	}
	return nil
}

func verifyLog(cfg *LogSection) error {
	switch strings.ToLower(cfg.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log.level: unknown level %q", cfg.Level)
	}
	switch strings.ToLower(cfg.Format) {
	case "json", "text", "console":
	default:
		return fmt.Errorf("log.format: unknown format %q", cfg.Format)
	}
	return nil
}
