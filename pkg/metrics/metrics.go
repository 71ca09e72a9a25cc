package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RecordScenarioStep records one scenario step with its outcome and duration
func (r *Registry) RecordScenarioStep(step, outcome string, duration time.Duration) {
	r.ScenarioStepsTotal.WithLabelValues(step, outcome).Inc()
	r.ScenarioStepDuration.WithLabelValues(step).Observe(duration.Seconds())
}

// RecordScenarioRun records the outcome of a full scenario run
func (r *Registry) RecordScenarioRun(outcome string) {
	r.ScenarioRunsTotal.WithLabelValues(outcome).Inc()
}

// RecordTransaction records a transaction's final status
func (r *Registry) RecordTransaction(status string) {
	r.TransactionsTotal.WithLabelValues(status).Inc()
}

// RecordTransactionRetry records one automatic retry
func (r *Registry) RecordTransactionRetry() {
	r.TransactionRetriesTotal.Inc()
}

// RecordCommitSize records the mutation size of a committed transaction
func (r *Registry) RecordCommitSize(bytes int64) {
	r.TransactionMutationBytes.Observe(float64(bytes))
}

// RecordWireRequest records one handled wire request
func (r *Registry) RecordWireRequest(operation, status string, duration time.Duration) {
	r.WireRequestsTotal.WithLabelValues(operation, status).Inc()
	r.WireRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordWireFrame records an encoded frame size
func (r *Registry) RecordWireFrame(direction string, bytes int) {
	r.WireFrameBytes.WithLabelValues(direction).Observe(float64(bytes))
}

// RecordStoreCommit records a commit attempt against the reference store
func (r *Registry) RecordStoreCommit(status string) {
	r.StoreCommitsTotal.WithLabelValues(status).Inc()
}

// SetStoreKeys updates the live key gauge
func (r *Registry) SetStoreKeys(n int) {
	r.StoreKeysTotal.Set(float64(n))
}

// Handler returns an HTTP handler serving this registry in the Prometheus
// exposition format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
