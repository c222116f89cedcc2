package metric

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "meterd"

// Registry holds the Prometheus registry and the metrics meterd owns.
type Registry struct {
	registry *prometheus.Registry

	// RequestDuration observes served HTTP requests by route, method and status.
	RequestDuration *prometheus.HistogramVec
}

// NewRegistry creates a registry with the Go runtime and process
// collectors registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of served HTTP requests.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route", "method", "status"},
	)
	reg.MustRegister(duration)

	return &Registry{
		registry:        reg,
		RequestDuration: duration,
	}
}

// Register adds a collector.
func (r *Registry) Register(c prometheus.Collector) error {
	return r.registry.Register(c)
}

// ObserveRequest records one served request.
func (r *Registry) ObserveRequest(route, method, status string, d time.Duration) {
	r.RequestDuration.WithLabelValues(route, method, status).Observe(d.Seconds())
}

// Handler returns the /metrics handler.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
