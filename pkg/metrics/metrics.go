// Package metrics provides the Prometheus registry and the metric interfaces
// used by the storage engine.
//
// Metrics are opt-in: nothing is collected until InitRegistry is called. The
// Prometheus-backed implementations live in pkg/metrics/prometheus and hook
// themselves in via init(), which avoids an import cycle between this package
// and the implementation. Callers import the prometheus subpackage for side
// effects:
//
//	import _ "github.com/marmos91/dittostore/pkg/metrics/prometheus"
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	mu       sync.RWMutex
	registry *prometheus.Registry
)

// InitRegistry creates the process-wide metrics registry with the standard Go
// and process collectors. Calling it more than once is a no-op.
func InitRegistry() {
	mu.Lock()
	defer mu.Unlock()

	if registry != nil {
		return
	}

	registry = prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// IsEnabled reports whether InitRegistry has been called.
func IsEnabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return registry != nil
}

// GetRegistry returns the process-wide registry, or nil when metrics are disabled.
func GetRegistry() *prometheus.Registry {
	mu.RLock()
	defer mu.RUnlock()
	return registry
}

// Handler returns the HTTP handler serving the /metrics endpoint.
func Handler() http.Handler {
	reg := GetRegistry()
	if reg == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// StoreMetrics records storage engine operations.
//
// Implementations must tolerate being nil so that disabled metrics cost
// nothing; use the package-level Observe helpers when holding an interface
// value that may be nil.
type StoreMetrics interface {
	// ObserveWrite records one write: the caller's payload size, the padded
	// size actually written, the duration, and the outcome label.
	ObserveWrite(payloadBytes, paddedBytes int64, duration time.Duration, outcome string)

	// ObserveRead records one read with its payload size, duration, and outcome.
	ObserveRead(bytes int64, duration time.Duration, outcome string)

	// SetIndexEntries records the current number of identifiers in the index.
	SetIndexEntries(n int)

	// SetStoreSize records the current end of data of the backing file.
	SetStoreSize(bytes uint64)
}

// Outcome labels used by StoreMetrics implementations.
const (
	OutcomeOK       = "ok"
	OutcomeError    = "error"
	OutcomeNotFound = "not_found"
)

// newPrometheusStoreMetrics is installed by pkg/metrics/prometheus during
// package initialization. The indirection avoids an import cycle while
// keeping the API in one place.
var newPrometheusStoreMetrics func() StoreMetrics

// RegisterStoreMetricsConstructor installs the Prometheus-backed constructor.
// Called by pkg/metrics/prometheus from init().
func RegisterStoreMetricsConstructor(constructor func() StoreMetrics) {
	newPrometheusStoreMetrics = constructor
}

// NewStoreMetrics returns a Prometheus-backed StoreMetrics instance, or nil
// when metrics are disabled (zero overhead for callers that check).
func NewStoreMetrics() StoreMetrics {
	if !IsEnabled() || newPrometheusStoreMetrics == nil {
		return nil
	}
	return newPrometheusStoreMetrics()
}

// ObserveWrite records a write on m, tolerating a nil interface.
func ObserveWrite(m StoreMetrics, payloadBytes, paddedBytes int64, duration time.Duration, outcome string) {
	if m != nil {
		m.ObserveWrite(payloadBytes, paddedBytes, duration, outcome)
	}
}

// ObserveRead records a read on m, tolerating a nil interface.
func ObserveRead(m StoreMetrics, bytes int64, duration time.Duration, outcome string) {
	if m != nil {
		m.ObserveRead(bytes, duration, outcome)
	}
}
