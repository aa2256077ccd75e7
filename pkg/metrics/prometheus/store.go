// Package prometheus provides the Prometheus-backed implementations of the
// metric interfaces in pkg/metrics. Importing this package for side effects
// installs the constructors.
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/dittostore/pkg/metrics"
)

func init() {
	metrics.RegisterStoreMetricsConstructor(newStoreMetrics)
}

type storeMetrics struct {
	writesTotal       *prometheus.CounterVec
	readsTotal        *prometheus.CounterVec
	payloadBytesTotal prometheus.Counter
	paddedBytesTotal  prometheus.Counter
	readBytesTotal    prometheus.Counter
	writeDuration     prometheus.Histogram
	readDuration      prometheus.Histogram
	indexEntries      prometheus.Gauge
	storeSizeBytes    prometheus.Gauge
}

func newStoreMetrics() metrics.StoreMetrics {
	factory := promauto.With(metrics.GetRegistry())

	return &storeMetrics{
		writesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dittostore_writes_total",
			Help: "Total number of write operations by outcome",
		}, []string{"outcome"}),
		readsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dittostore_reads_total",
			Help: "Total number of read operations by outcome",
		}, []string{"outcome"}),
		payloadBytesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "dittostore_write_payload_bytes_total",
			Help: "Total payload bytes accepted from clients",
		}),
		paddedBytesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "dittostore_write_padded_bytes_total",
			Help: "Total bytes written to disk including block padding",
		}),
		readBytesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "dittostore_read_bytes_total",
			Help: "Total payload bytes returned to clients",
		}),
		writeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "dittostore_write_duration_seconds",
			Help:    "Write operation latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16),
		}),
		readDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "dittostore_read_duration_seconds",
			Help:    "Read operation latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16),
		}),
		indexEntries: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dittostore_index_entries",
			Help: "Number of identifiers currently tracked by the in-memory index",
		}),
		storeSizeBytes: factory.NewGauge(prometheus.GaugeOpts{
			Name: "dittostore_store_size_bytes",
			Help: "Current end of data of the backing store file",
		}),
	}
}

func (m *storeMetrics) ObserveWrite(payloadBytes, paddedBytes int64, duration time.Duration, outcome string) {
	if m == nil {
		return
	}
	m.writesTotal.WithLabelValues(outcome).Inc()
	if outcome == metrics.OutcomeOK {
		m.payloadBytesTotal.Add(float64(payloadBytes))
		m.paddedBytesTotal.Add(float64(paddedBytes))
	}
	m.writeDuration.Observe(duration.Seconds())
}

func (m *storeMetrics) ObserveRead(bytes int64, duration time.Duration, outcome string) {
	if m == nil {
		return
	}
	m.readsTotal.WithLabelValues(outcome).Inc()
	if outcome == metrics.OutcomeOK {
		m.readBytesTotal.Add(float64(bytes))
	}
	m.readDuration.Observe(duration.Seconds())
}

func (m *storeMetrics) SetIndexEntries(n int) {
	if m == nil {
		return
	}
	m.indexEntries.Set(float64(n))
}

func (m *storeMetrics) SetStoreSize(bytes uint64) {
	if m == nil {
		return
	}
	m.storeSizeBytes.Set(float64(bytes))
}
