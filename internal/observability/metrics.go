package observability

import (
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects Prometheus metrics for the record stores, the catalog
// watcher and the checkout path. All record methods are nil-safe so
// callers may run without metrics wired.
type Metrics struct {
	registry       *prometheus.Registry
	storeReads     *prometheus.CounterVec
	storeWrites    *prometheus.CounterVec
	storeFailures  *prometheus.CounterVec
	watcherReloads prometheus.Counter
	checkouts      *prometheus.CounterVec
}

// NewMetrics initialises the registry and base metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	reads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "meridian_store_reads_total",
		Help: "Store file reads by file name.",
	}, []string{"file"})
	writes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "meridian_store_writes_total",
		Help: "Store file appends and rewrites by file name.",
	}, []string{"file"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "meridian_store_failures_total",
		Help: "Store I/O failures by file name.",
	}, []string{"file"})
	reloads := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "meridian_catalog_reloads_total",
		Help: "Catalog reloads triggered by the file watcher.",
	})
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "meridian_checkouts_total",
		Help: "Checkout attempts by outcome.",
	}, []string{"outcome"})
	registry.MustRegister(reads, writes, failures, reloads, checkouts)
	return &Metrics{
		registry:       registry,
		storeReads:     reads,
		storeWrites:    writes,
		storeFailures:  failures,
		watcherReloads: reloads,
		checkouts:      checkouts,
	}
}

// Registry exposes the registry for scraping or custom registration.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordStoreRead counts one read of a store file.
func (m *Metrics) RecordStoreRead(path string) {
	if m == nil {
		return
	}
	m.storeReads.WithLabelValues(filepath.Base(path)).Inc()
}

// RecordStoreWrite counts one append or rewrite of a store file.
func (m *Metrics) RecordStoreWrite(path string) {
	if m == nil {
		return
	}
	m.storeWrites.WithLabelValues(filepath.Base(path)).Inc()
}

// RecordStoreFailure counts one failed store operation.
func (m *Metrics) RecordStoreFailure(path string) {
	if m == nil {
		return
	}
	m.storeFailures.WithLabelValues(filepath.Base(path)).Inc()
}

// RecordWatcherReload counts one watcher-triggered catalog reload.
func (m *Metrics) RecordWatcherReload() {
	if m == nil {
		return
	}
	m.watcherReloads.Inc()
}

// RecordCheckout counts one checkout attempt with its outcome label.
func (m *Metrics) RecordCheckout(outcome string) {
	if m == nil {
		return
	}
	m.checkouts.WithLabelValues(outcome).Inc()
}
