package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initWireMetrics() {
	r.WireRequestsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "kvconform_wire_requests_total",
			Help: "Total number of wire requests handled by the store server",
		},
		[]string{"operation", "status"},
	)

	r.WireRequestDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kvconform_wire_request_duration_seconds",
			Help:    "Wire request handling duration in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		},
		[]string{"operation"},
	)

	r.WireFrameBytes = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kvconform_wire_frame_bytes",
			Help:    "Encoded frame sizes by direction",
			Buckets: prometheus.ExponentialBuckets(32, 4, 8),
		},
		[]string{"direction"},
	)
}
