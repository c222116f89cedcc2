package config

import "time"

// CLIConfig is the configuration for meterd-cli.
type CLIConfig struct {
	DefaultServer  string        `yaml:"default_server"`
	DefaultOutput  string        `yaml:"default_output"` // table, json, yaml
	DefaultTimeout time.Duration `yaml:"default_timeout"`

	// Named profiles
	Profiles map[string]Profile `yaml:"profiles"`

	// CurrentProfile is used when --profile is not given.
	CurrentProfile string `yaml:"current_profile"`
}

// Profile stores the connection details of one server.
type Profile struct {
	Server string `yaml:"server"`
	APIKey string `yaml:"api_key"`

	// CAFile is an extra PEM bundle trusted for https servers.
	CAFile string `yaml:"ca_file,omitempty"`
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		DefaultServer:  "http://127.0.0.1:5090",
		DefaultOutput:  "table",
		DefaultTimeout: 30 * time.Second,
		Profiles:       make(map[string]Profile),
	}
}
