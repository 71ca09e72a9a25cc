// Package metrics exposes Prometheus metrics for the conformance harness,
// the client retry loop, the wire protocol, and the reference store.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the application
type Registry struct {
	// Scenario metrics
	ScenarioStepsTotal   *prometheus.CounterVec
	ScenarioStepDuration *prometheus.HistogramVec
	ScenarioRunsTotal    *prometheus.CounterVec

	// Transaction metrics
	TransactionsTotal        *prometheus.CounterVec
	TransactionRetriesTotal  prometheus.Counter
	TransactionMutationBytes prometheus.Histogram

	// Wire metrics
	WireRequestsTotal   *prometheus.CounterVec
	WireRequestDuration *prometheus.HistogramVec
	WireFrameBytes      *prometheus.HistogramVec

	// Store metrics
	StoreKeysTotal    prometheus.Gauge
	StoreCommitsTotal *prometheus.CounterVec

	registry *prometheus.Registry
}

var (
	// Global registry instance
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
	}

	r.initScenarioMetrics()
	r.initTransactionMetrics()
	r.initWireMetrics()
	r.initStoreMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
