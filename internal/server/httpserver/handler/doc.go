// Package handler provides HTTP request handlers for meterd.
//
// This package contains handlers for all HTTP endpoints:
//
//   - metrics.go: Snapshot reads, optionally resetting
//   - admin.go: Server status
//   - health.go: Health and readiness checks
//
// All handlers follow a consistent pattern:
//
//   - Parse and validate query parameters
//   - Call the snapshot coordinator
//   - Format and return response
//   - Handle errors with appropriate HTTP status codes
package handler
