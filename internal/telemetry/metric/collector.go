package metric

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/meterd/internal/core/aggregate"
	"github.com/yndnr/meterd/internal/core/health"
)

// Source is what the collector reads. *service.Registry implements it.
type Source interface {
	Internal() *aggregate.InternalFamily
	API() *aggregate.APIFamily
	Sampler() *health.Sampler
}

// Collector mirrors the families and process health as gauges. Counts are
// gauges because a reset through the snapshot protocol brings them back
// to zero.
type Collector struct {
	src Source

	internalCount *prometheus.Desc
	internalRate  *prometheus.Desc
	apiCount      *prometheus.Desc
	apiRate       *prometheus.Desc

	rss       *prometheus.Desc
	heapUsed  *prometheus.Desc
	heapTotal *prometheus.Desc
	lag       *prometheus.Desc
	cpu       *prometheus.Desc
	lastLeak  *prometheus.Desc
}

// NewCollector creates a collector over src.
func NewCollector(src Source) *Collector {
	fq := func(sub, name string) string {
		return prometheus.BuildFQName(namespace, sub, name)
	}
	return &Collector{
		src: src,

		internalCount: prometheus.NewDesc(fq("internal", "events"),
			"Internal operation completions since the last reset.",
			[]string{"source", "dimension", "value"}, nil),
		internalRate: prometheus.NewDesc(fq("internal", "rate_1m"),
			"One-minute rate of internal operation completions per second.",
			[]string{"source", "dimension", "value"}, nil),
		apiCount: prometheus.NewDesc(fq("api", "requests"),
			"API requests since the last reset.",
			[]string{"dimension", "value"}, nil),
		apiRate: prometheus.NewDesc(fq("api", "rate_1m"),
			"One-minute rate of API requests per second.",
			[]string{"dimension", "value"}, nil),

		rss: prometheus.NewDesc(fq("process", "rss_bytes"),
			"Resident set size.", nil, nil),
		heapUsed: prometheus.NewDesc(fq("process", "heap_used_bytes"),
			"Allocated heap objects.", nil, nil),
		heapTotal: prometheus.NewDesc(fq("process", "heap_total_bytes"),
			"Heap memory obtained from the OS.", nil, nil),
		lag: prometheus.NewDesc(fq("process", "scheduler_lag_seconds"),
			"Latest timer overshoot.", nil, nil),
		cpu: prometheus.NewDesc(fq("process", "cpu_usage_percent"),
			"CPU utilisation in percent of one core.", nil, nil),
		lastLeak: prometheus.NewDesc(fq("process", "last_leak_timestamp_seconds"),
			"Time the last leak event was received.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.internalCount
	ch <- c.internalRate
	ch <- c.apiCount
	ch <- c.apiRate
	ch <- c.rss
	ch <- c.heapUsed
	ch <- c.heapTotal
	ch <- c.lag
	ch <- c.cpu
	ch <- c.lastLeak
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	if s, ok := c.src.Internal().Snapshot(false); ok {
		for source, group := range s {
			eachLeaf(group, func(dim, value string, leaf aggregate.Leaf) {
				ch <- prometheus.MustNewConstMetric(c.internalCount, prometheus.GaugeValue,
					float64(leaf.Meter.Count), source, dim, value)
				ch <- prometheus.MustNewConstMetric(c.internalRate, prometheus.GaugeValue,
					leaf.Meter.M1, source, dim, value)
			})
		}
	}

	if g, ok := c.src.API().Snapshot(false); ok {
		eachLeaf(g, func(dim, value string, leaf aggregate.Leaf) {
			ch <- prometheus.MustNewConstMetric(c.apiCount, prometheus.GaugeValue,
				float64(leaf.Meter.Count), dim, value)
			ch <- prometheus.MustNewConstMetric(c.apiRate, prometheus.GaugeValue,
				leaf.Meter.M1, dim, value)
		})
	}

	sampler := c.src.Sampler()
	snap := sampler.Reading()
	if u := snap.Memory.Usage; u != nil {
		if u.RSS > 0 {
			ch <- prometheus.MustNewConstMetric(c.rss, prometheus.GaugeValue, float64(u.RSS))
		}
		ch <- prometheus.MustNewConstMetric(c.heapUsed, prometheus.GaugeValue, float64(u.HeapUsed))
		ch <- prometheus.MustNewConstMetric(c.heapTotal, prometheus.GaugeValue, float64(u.HeapTotal))
	}
	if ms := snap.EventLoop.Latency; ms != nil {
		ch <- prometheus.MustNewConstMetric(c.lag, prometheus.GaugeValue, *ms/1000)
	}
	if pct := snap.CPU.Usage; pct != nil {
		ch <- prometheus.MustNewConstMetric(c.cpu, prometheus.GaugeValue, *pct)
	}
	if _, at, ok := sampler.LastLeak(); ok {
		ch <- prometheus.MustNewConstMetric(c.lastLeak, prometheus.GaugeValue,
			float64(at.UnixNano())/1e9)
	}
}

func eachLeaf(g aggregate.Group, fn func(dim, value string, leaf aggregate.Leaf)) {
	for dim, values := range g {
		for value, leaf := range values {
			fn(dim, value, leaf)
		}
	}
}
