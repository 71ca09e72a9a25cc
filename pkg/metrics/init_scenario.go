package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initScenarioMetrics() {
	r.ScenarioStepsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "kvconform_scenario_steps_total",
			Help: "Total number of scenario steps executed",
		},
		[]string{"step", "outcome"},
	)

	r.ScenarioStepDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kvconform_scenario_step_duration_seconds",
			Help:    "Scenario step duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		},
		[]string{"step"},
	)

	r.ScenarioRunsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "kvconform_scenario_runs_total",
			Help: "Total number of full scenario runs",
		},
		[]string{"outcome"},
	)
}
