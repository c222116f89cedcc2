// Package main provides the entry point for meterd-cli.
//
// The CLI reads snapshots from a meterd server and manages local settings:
//
//   - Metric snapshots (all, process, internal, api), optionally resetting
//   - Health, readiness and status checks
//   - Admin key hashing for the server configuration
//   - Server configuration checks and saved profiles
//
// Usage:
//
//	meterd-cli [command] [flags]
//	meterd-cli --server localhost:5090 metrics all -o json
//	meterd-cli --api-key $KEY metrics api --reset
package main
