package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initTransactionMetrics() {
	r.TransactionsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "kvconform_transactions_total",
			Help: "Total number of transactions by final status",
		},
		[]string{"status"},
	)

	r.TransactionRetriesTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "kvconform_transaction_retries_total",
			Help: "Total number of automatic transaction retries",
		},
	)

	r.TransactionMutationBytes = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kvconform_transaction_mutation_bytes",
			Help:    "Accumulated mutation size of committed transactions",
			Buckets: prometheus.ExponentialBuckets(64, 4, 10),
		},
	)
}
