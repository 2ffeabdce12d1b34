// Package metrics exposes Prometheus collectors for the archiver and an
// optional ops listener serving them.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	resourcesTotal  *prometheus.CounterVec
	bytesWritten    prometheus.Counter
	documentsTotal  *prometheus.CounterVec
	inFlightFetches prometheus.Gauge

	once sync.Once
)

// Init initializes the Prometheus collectors. Safe to call multiple times.
func Init() {
	once.Do(func() {
		resourcesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webvault_resources_total",
				Help: "Resources processed, labeled by kind and outcome status.",
			},
			[]string{"kind", "status"},
		)

		bytesWritten = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "webvault_bytes_written_total",
				Help: "Bytes committed by the persistence engine.",
			},
		)

		documentsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webvault_document_commits_total",
				Help: "Document commits, labeled by capture kind and status.",
			},
			[]string{"kind", "status"},
		)

		inFlightFetches = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "webvault_inflight_fetches",
				Help: "Number of fetch workers currently downloading.",
			},
		)
	})
}

// ObserveResource counts one processed resource.
func ObserveResource(kind, status string) {
	if resourcesTotal != nil {
		resourcesTotal.WithLabelValues(kind, status).Inc()
	}
}

// AddResources counts n processed resources at once.
func AddResources(kind, status string, n int) {
	if resourcesTotal != nil && n > 0 {
		resourcesTotal.WithLabelValues(kind, status).Add(float64(n))
	}
}

// AddBytesWritten counts bytes committed by the engine.
func AddBytesWritten(n int) {
	if bytesWritten != nil {
		bytesWritten.Add(float64(n))
	}
}

// ObserveDocument counts one document commit attempt.
func ObserveDocument(kind, status string) {
	if documentsTotal != nil {
		documentsTotal.WithLabelValues(kind, status).Inc()
	}
}

// FetchStarted marks a fetch worker as busy.
func FetchStarted() {
	if inFlightFetches != nil {
		inFlightFetches.Inc()
	}
}

// FetchFinished marks a fetch worker as idle.
func FetchFinished() {
	if inFlightFetches != nil {
		inFlightFetches.Dec()
	}
}
