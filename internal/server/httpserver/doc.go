// Package httpserver provides the HTTP/HTTPS server of meterd-server.
//
// Endpoints:
//
//   - Health: GET /health, GET /ready
//   - Snapshots: GET /v1/metrics, /v1/metrics/process, /v1/metrics/internal, /v1/metrics/api
//   - Admin: GET /admin/v1/status
//   - Prometheus: GET /metrics
//
// Every route runs Recover, RequestID, CORS, RateLimit and Audit. Audit
// records each request into the API family using the matched route
// pattern. Snapshot reads that clear data, and the admin endpoints, are
// guarded by the network allowlist and the admin key.
package httpserver
