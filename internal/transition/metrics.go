package transition

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts transition outcomes by kind, grounded on the teacher's
// lazily-initialized global metrics instance.
type Metrics struct {
	outcomes *prometheus.CounterVec
}

var (
	globalMetrics     *Metrics
	globalMetricsOnce sync.Once
)

// GetMetrics returns the process-wide transition Metrics instance.
func GetMetrics() *Metrics {
	globalMetricsOnce.Do(func() {
		globalMetrics = &Metrics{
			outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "garrison_transition_outcome_total",
				Help: "Count of transition engine runs by outcome.",
			}, []string{"outcome"}),
		}
		prometheus.MustRegister(globalMetrics.outcomes)
	})
	return globalMetrics
}

// Observe records one transition run's outcome.
func (m *Metrics) Observe(o Outcome) {
	m.outcomes.WithLabelValues(o.String()).Inc()
}
