package config

import "time"

// ServerConfig is the root configuration for meterd-server.
type ServerConfig struct {
	Server  ServerSection  `koanf:"server" json:"server" yaml:"server"`
	Admin   AdminSection   `koanf:"admin" json:"admin" yaml:"admin"`
	Metrics MetricsSection `koanf:"metrics" json:"metrics" yaml:"metrics"`
	Health  HealthSection  `koanf:"health" json:"health" yaml:"health"`
	Log     LogSection     `koanf:"log" json:"log" yaml:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	HTTP  HTTPConfig  `koanf:"http" json:"http" yaml:"http"`
	Local LocalConfig `koanf:"local" json:"local" yaml:"local"`
}

// LocalConfig configures the Unix socket listener. Requests on it skip the
// admin key and allow list; file permissions (0600) guard it instead.
type LocalConfig struct {
	// SocketPath enables the listener when set.
	SocketPath string `koanf:"socket_path" json:"socket_path" yaml:"socket_path"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr        string `koanf:"addr" json:"addr" yaml:"addr"`
	TLSCertFile string `koanf:"tls_cert_file" json:"tls_cert_file" yaml:"tls_cert_file"`
	TLSKeyFile  string `koanf:"tls_key_file" json:"tls_key_file" yaml:"tls_key_file"`

	// RateLimit is the per-client request rate in requests/second. 0 disables it.
	RateLimit float64 `koanf:"rate_limit" json:"rate_limit" yaml:"rate_limit"`
	RateBurst int     `koanf:"rate_burst" json:"rate_burst" yaml:"rate_burst"`

	// TrustedProxies lists the reverse proxies (IPs/CIDRs) whose
	// X-Forwarded-For and X-Real-IP headers are believed.
	TrustedProxies []string `koanf:"trusted_proxies" json:"trusted_proxies" yaml:"trusted_proxies"`

	// CORSAllowedOrigins lists origins allowed for browser access. "*" allows any.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins" json:"cors_allowed_origins" yaml:"cors_allowed_origins"`

	ReadTimeout     time.Duration `koanf:"read_timeout" json:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout" json:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" json:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// AdminSection protects the resetting reads.
type AdminSection struct {
	// APIKeyHash is the argon2id PHC hash of the admin key. Empty leaves
	// resets open.
	APIKeyHash string `koanf:"api_key_hash" json:"api_key_hash" yaml:"api_key_hash"`

	// AllowList restricts resetting reads and /admin endpoints to these
	// IPs/CIDRs. Empty allows all.
	AllowList []string `koanf:"allow_list" json:"allow_list" yaml:"allow_list"`
}

// MetricsSection configures aggregation and exposition.
type MetricsSection struct {
	// Shards is the shard count of each aggregation tree (power of two).
	Shards int `koanf:"shards" json:"shards" yaml:"shards"`

	// PrometheusEnabled exposes GET /metrics.
	PrometheusEnabled bool `koanf:"prometheus_enabled" json:"prometheus_enabled" yaml:"prometheus_enabled"`

	// RecordAPI feeds served HTTP requests into the API family.
	RecordAPI bool `koanf:"record_api" json:"record_api" yaml:"record_api"`
}

// HealthSection configures the process probes.
type HealthSection struct {
	MemoryInterval time.Duration `koanf:"memory_interval" json:"memory_interval" yaml:"memory_interval"`
	CPUInterval    time.Duration `koanf:"cpu_interval" json:"cpu_interval" yaml:"cpu_interval"`
	LagInterval    time.Duration `koanf:"lag_interval" json:"lag_interval" yaml:"lag_interval"`
	LeakInterval   time.Duration `koanf:"leak_interval" json:"leak_interval" yaml:"leak_interval"`

	// LeakGCCycles is the number of consecutive growing GC cycles reported
	// as a leak.
	LeakGCCycles int `koanf:"leak_gc_cycles" json:"leak_gc_cycles" yaml:"leak_gc_cycles"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level" json:"level" yaml:"level"`
	Format string `koanf:"format" json:"format" yaml:"format"`
}
