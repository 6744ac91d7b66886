package commbus

import "github.com/prometheus/client_golang/prometheus"

// StatsSource is anything that can report sequence-ordered reorder-buffer
// diagnostics, satisfied by *SeqOrderedExecutor.
type StatsSource interface {
	Stats() ReorderBufferStats
	PendingSize() int
	FallbackSize() int
}

// PrometheusCollector exports a StatsSource's diagnostics as Prometheus
// gauges/counters: ring hit/reject rates, fallback usage, and discard
// counts, the same shape of metric the sequence-ordered executor already
// tracks internally for test assertions.
type PrometheusCollector struct {
	source StatsSource
	name   string

	ringPutOK           *prometheus.Desc
	ringRejectTooFar    *prometheus.Desc
	ringRejectCollision *prometheus.Desc
	fallbackPut         *prometheus.Desc
	maxWindow           *prometheus.Desc
	discardedOld        *prometheus.Desc
	pendingSize         *prometheus.Desc
	fallbackSize        *prometheus.Desc
}

// NewPrometheusCollector wraps source (usually a *SeqOrderedExecutor) as a
// prometheus.Collector under the given executor name label.
func NewPrometheusCollector(name string, source StatsSource) *PrometheusCollector {
	labels := prometheus.Labels{"executor": name}
	mk := func(metric, help string) *prometheus.Desc {
		return prometheus.NewDesc("commbus_reorder_"+metric, help, nil, labels)
	}
	return &PrometheusCollector{
		source:              source,
		name:                name,
		ringPutOK:           mk("ring_put_ok_total", "entries accepted directly into the reorder ring"),
		ringRejectTooFar:    mk("ring_reject_too_far_total", "entries rejected as too far ahead of the ring window"),
		ringRejectCollision: mk("ring_reject_collision_total", "entries rejected due to an occupied, not-yet-drained slot"),
		fallbackPut:         mk("fallback_put_total", "entries placed in the hashmap fallback"),
		maxWindow:           mk("fallback_max_window", "largest fallback map size observed"),
		discardedOld:        mk("discarded_old_total", "entries silently discarded as older than the next expected sequence"),
		pendingSize:         mk("ring_pending_size", "entries currently held in the ring"),
		fallbackSize:        mk("fallback_size", "entries currently held in the fallback map"),
	}
}

// Describe implements prometheus.Collector.
func (c *PrometheusCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.ringPutOK
	ch <- c.ringRejectTooFar
	ch <- c.ringRejectCollision
	ch <- c.fallbackPut
	ch <- c.maxWindow
	ch <- c.discardedOld
	ch <- c.pendingSize
	ch <- c.fallbackSize
}

// Collect implements prometheus.Collector.
func (c *PrometheusCollector) Collect(ch chan<- prometheus.Metric) {
	stats := c.source.Stats()
	ch <- prometheus.MustNewConstMetric(c.ringPutOK, prometheus.CounterValue, float64(stats.RingPutOK))
	ch <- prometheus.MustNewConstMetric(c.ringRejectTooFar, prometheus.CounterValue, float64(stats.RingRejectTooFar))
	ch <- prometheus.MustNewConstMetric(c.ringRejectCollision, prometheus.CounterValue, float64(stats.RingRejectCollision))
	ch <- prometheus.MustNewConstMetric(c.fallbackPut, prometheus.CounterValue, float64(stats.FallbackPut))
	ch <- prometheus.MustNewConstMetric(c.maxWindow, prometheus.GaugeValue, float64(stats.MaxWindow))
	ch <- prometheus.MustNewConstMetric(c.discardedOld, prometheus.CounterValue, float64(stats.DiscardedOld))
	ch <- prometheus.MustNewConstMetric(c.pendingSize, prometheus.GaugeValue, float64(c.source.PendingSize()))
	ch <- prometheus.MustNewConstMetric(c.fallbackSize, prometheus.GaugeValue, float64(c.source.FallbackSize()))
}
