package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the instrumentation for the lookup service and the importer.
type Metrics struct {
	Lookups         *prometheus.CounterVec
	BatchSizes      prometheus.Histogram
	RegistryEntries prometheus.Gauge
	LastImportUnix  prometheus.Gauge
	ImportRuns      *prometheus.CounterVec
}

// New registers the metric set against the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Lookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ibanregistry_lookups_total",
			Help: "Total number of registry lookups by kind and outcome",
		}, []string{"kind", "outcome"}),
		BatchSizes: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "ibanregistry_batch_lookup_size",
			Help:    "Number of IBANs per batch lookup request",
			Buckets: prometheus.ExponentialBuckets(1, 2, 8),
		}),
		RegistryEntries: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ibanregistry_registry_entries",
			Help: "Number of bank directory entries currently in the registry",
		}),
		LastImportUnix: factory.NewGauge(prometheus.GaugeOpts{
			Name: "ibanregistry_last_import_timestamp_seconds",
			Help: "Unix timestamp of the last successful directory import",
		}),
		ImportRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "ibanregistry_import_runs_total",
			Help: "Total number of directory import runs by result",
		}, []string{"result"}),
	}
}

// RecordLookup counts one lookup by kind and outcome.
func (m *Metrics) RecordLookup(kind, outcome string) {
	if m == nil {
		return
	}
	m.Lookups.WithLabelValues(kind, outcome).Inc()
}

// RecordBatchSize tracks the size of a batch lookup request.
func (m *Metrics) RecordBatchSize(n int) {
	if m == nil {
		return
	}
	m.BatchSizes.Observe(float64(n))
}

// RecordImport updates the registry gauges after an import run.
func (m *Metrics) RecordImport(totalEntries int64, unixTime int64, success bool) {
	if m == nil {
		return
	}
	result := "success"
	if !success {
		result = "failure"
	}
	m.ImportRuns.WithLabelValues(result).Inc()
	if success {
		m.RegistryEntries.Set(float64(totalEntries))
		m.LastImportUnix.Set(float64(unixTime))
	}
}
