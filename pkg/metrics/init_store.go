package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initStoreMetrics() {
	r.StoreKeysTotal = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "kvconform_store_keys_total",
			Help: "Number of live keys in the reference store",
		},
	)

	r.StoreCommitsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "kvconform_store_commits_total",
			Help: "Total number of commit attempts against the reference store",
		},
		[]string{"status"},
	)
}
