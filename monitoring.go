package substrate

import "github.com/prometheus/client_golang/prometheus"

const metricsNamespace = "substrate"

type metrics struct {
	mergesTotal   prometheus.Counter
	mergeOps      prometheus.Counter
	mergeDuration prometheus.Histogram
	generation    prometheus.Gauge

	migrationBatches prometheus.Counter
	migrationKeys    prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		mergesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "merges_total",
			Help:      "Number of patches merged into the backend.",
		}),
		mergeOps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "merge_ops_total",
			Help:      "Number of key operations applied by merges.",
		}),
		mergeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "merge_duration_seconds",
			Help:      "Wall time of atomic batch application.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
		generation: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "generation",
			Help:      "Current merge generation.",
		}),
		migrationBatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "migration",
			Name:      "batches_total",
			Help:      "Number of migration batches merged.",
		}),
		migrationKeys: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "migration",
			Name:      "keys_total",
			Help:      "Number of keys rewritten by migrations.",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.mergesTotal, m.mergeOps, m.mergeDuration, m.generation,
			m.migrationBatches, m.migrationKeys,
		)
	}
	return m
}
