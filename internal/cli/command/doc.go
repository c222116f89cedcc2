// Package command provides CLI command definitions for meterd-cli.
//
// This package defines all CLI commands using urfave/cli/v2:
//
//   - root.go: Root command, global flags, connection resolution
//   - metrics.go: Metric snapshot subcommand group
//   - system.go: Health, readiness and status
//   - admin.go: Admin key generation and verification
//   - config.go: Server configuration checks
//   - profile.go: Saved connection profiles
//
// Commands follow a consistent pattern of parsing flags,
// calling the server, and formatting output.
package command
