// Package config provides server configuration for meterd.
//
// This package defines the server configuration structure and validation:
//
//   - spec.go: ServerConfig struct definition
//   - default.go: Default configuration values
//   - verify.go: Business validation (addresses, TLS files, key hash)
//   - sanitize.go: Log sanitization (hide sensitive values)
//   - load.go: File + METERD_* environment loading via confloader
//   - registry.go: Mapping onto service.RegistryConfig
package config
