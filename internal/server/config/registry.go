package config

import (
	"log/slog"

	"github.com/yndnr/meterd/internal/core/service"
)

// ToRegistryConfig converts the metrics and health sections into the
// registry configuration.
func ToRegistryConfig(cfg *ServerConfig, logger *slog.Logger) service.RegistryConfig {
	return service.RegistryConfig{
		Logger:         logger,
		Shards:         cfg.Metrics.Shards,
		MemoryInterval: cfg.Health.MemoryInterval,
		CPUInterval:    cfg.Health.CPUInterval,
		LagInterval:    cfg.Health.LagInterval,
		LeakInterval:   cfg.Health.LeakInterval,
		LeakGCCycles:   cfg.Health.LeakGCCycles,
	}
}
