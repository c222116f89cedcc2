package config

import "time"

// Default configuration values.
const (
	DefaultHTTPAddr        = "127.0.0.1:5090"
	DefaultRateBurst       = 20
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 10 * time.Second
	DefaultShutdownTimeout = 15 * time.Second

	DefaultShards = 16

	DefaultMemoryInterval = 5 * time.Second
	DefaultCPUInterval    = 5 * time.Second
	DefaultLagInterval    = 500 * time.Millisecond
	DefaultLeakInterval   = 10 * time.Second
	DefaultLeakGCCycles   = 5

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Addr:            DefaultHTTPAddr,
				RateBurst:       DefaultRateBurst,
				ReadTimeout:     DefaultReadTimeout,
				WriteTimeout:    DefaultWriteTimeout,
				ShutdownTimeout: DefaultShutdownTimeout,
			},
		},
		Metrics: MetricsSection{
			Shards:            DefaultShards,
			PrometheusEnabled: true,
			RecordAPI:         true,
		},
		Health: HealthSection{
			MemoryInterval: DefaultMemoryInterval,
			CPUInterval:    DefaultCPUInterval,
			LagInterval:    DefaultLagInterval,
			LeakInterval:   DefaultLeakInterval,
			LeakGCCycles:   DefaultLeakGCCycles,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
