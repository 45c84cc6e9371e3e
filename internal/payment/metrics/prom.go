package metrics

import "github.com/prometheus/client_golang/prometheus"

// PromExporter bridges a Collector's per-gateway Snapshots into
// Prometheus gauges, refreshed on every scrape via a Collect hook
// rather than pushed synchronously with every Record.
type PromExporter struct {
	collector *Collector
	gateways  func() []string

	successRate *prometheus.GaugeVec
	avgLatency  *prometheus.GaugeVec
	p95Latency  *prometheus.GaugeVec
	p99Latency  *prometheus.GaugeVec
	totalCalls  *prometheus.GaugeVec
}

// NewPromExporter builds an exporter over collector. gateways returns
// the current set of registered gateway names at scrape time.
func NewPromExporter(collector *Collector, gateways func() []string) *PromExporter {
	labels := []string{"gateway"}
	return &PromExporter{
		collector: collector,
		gateways:  gateways,
		successRate: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "orchestra_pay",
			Subsystem: "gateway",
			Name:      "success_rate",
			Help:      "Rolling success rate for a payment gateway.",
		}, labels),
		avgLatency: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "orchestra_pay",
			Subsystem: "gateway",
			Name:      "avg_latency_ms",
			Help:      "Average gateway call latency in milliseconds.",
		}, labels),
		p95Latency: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "orchestra_pay",
			Subsystem: "gateway",
			Name:      "p95_latency_ms",
			Help:      "P95 gateway call latency in milliseconds.",
		}, labels),
		p99Latency: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "orchestra_pay",
			Subsystem: "gateway",
			Name:      "p99_latency_ms",
			Help:      "P99 gateway call latency in milliseconds.",
		}, labels),
		totalCalls: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "orchestra_pay",
			Subsystem: "gateway",
			Name:      "total_calls",
			Help:      "Total gateway calls observed.",
		}, labels),
	}
}

// Describe implements prometheus.Collector.
func (p *PromExporter) Describe(ch chan<- *prometheus.Desc) {
	p.successRate.Describe(ch)
	p.avgLatency.Describe(ch)
	p.p95Latency.Describe(ch)
	p.p99Latency.Describe(ch)
	p.totalCalls.Describe(ch)
}

// Collect implements prometheus.Collector, refreshing every gauge from
// the live Collector right before Prometheus scrapes it.
func (p *PromExporter) Collect(ch chan<- prometheus.Metric) {
	for _, gw := range p.gateways() {
		snap := p.collector.Snapshot(gw)
		p.successRate.WithLabelValues(gw).Set(snap.SuccessRate)
		p.avgLatency.WithLabelValues(gw).Set(snap.AvgLatencyMs)
		p.p95Latency.WithLabelValues(gw).Set(snap.P95LatencyMs)
		p.p99Latency.WithLabelValues(gw).Set(snap.P99LatencyMs)
		p.totalCalls.WithLabelValues(gw).Set(float64(snap.TotalCalls))
	}
	p.successRate.Collect(ch)
	p.avgLatency.Collect(ch)
	p.p95Latency.Collect(ch)
	p.p99Latency.Collect(ch)
	p.totalCalls.Collect(ch)
}
