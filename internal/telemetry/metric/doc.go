// Package metric exposes meterd state in Prometheus format.
//
//   - prometheus.go: registry with Go/process collectors, HTTP request
//     histogram and the /metrics handler
//   - collector.go: collector mirroring the aggregation families and the
//     process health sampler
//
// The collector reads without resetting, so scraping never disturbs the
// JSON snapshot protocol.
package metric
