package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigPath returns the default CLI config file path.
func DefaultConfigPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".meterd", "cli.yaml")
}

// Load loads CLI configuration from file. A missing file yields the
// defaults; fields absent from the file keep their default values.
func Load(path string) (*CLIConfig, error) {
	if path == "" {
		path = DefaultConfigPath()
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cli config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse cli config %s: %w", path, err)
	}
	if cfg.Profiles == nil {
		cfg.Profiles = make(map[string]Profile)
	}
	if cfg.CurrentProfile != "" {
		if _, ok := cfg.Profiles[cfg.CurrentProfile]; !ok {
			return nil, fmt.Errorf("cli config %s: current_profile %q is not defined", path, cfg.CurrentProfile)
		}
	}
	return cfg, nil
}

// Save saves CLI configuration to file. The file holds admin keys and is
// written with mode 0600.
func Save(cfg *CLIConfig, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode cli config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write cli config: %w", err)
	}
	return nil
}

// Resolve returns the server and key of the named profile, falling back to
// the current profile and then to DefaultServer.
func (c *CLIConfig) Resolve(profile string) (Profile, error) {
	if profile == "" {
		profile = c.CurrentProfile
	}
	if profile == "" {
		return Profile{Server: c.DefaultServer}, nil
	}

	p, ok := c.Profiles[profile]
	if !ok {
		return Profile{}, fmt.Errorf("unknown profile %q", profile)
	}
	if p.Server == "" {
		p.Server = c.DefaultServer
	}
	return p, nil
}
