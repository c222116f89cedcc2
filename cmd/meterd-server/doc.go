// Package main provides the entry point for meterd-server.
//
// meterd-server hosts the metrics registry: it samples process health,
// aggregates API requests it serves, and exposes snapshots over HTTP.
//
// Usage:
//
//	meterd-server -config /etc/meterd/meterd.yaml
//	meterd-server -version
//
// SIGHUP and edits to the configuration file re-read log.level. SIGINT and
// SIGTERM stop the server gracefully.
package main
