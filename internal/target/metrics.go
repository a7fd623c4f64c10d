package target

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes per-target concurrency-budget gauges. Grounded on the
// teacher's lazily-initialized, mutex-guarded global metrics instance.
type Metrics struct {
	availableCores *prometheus.GaugeVec
}

var (
	globalMetrics     *Metrics
	globalMetricsOnce sync.Once
)

// GetMetrics returns the process-wide target Metrics instance,
// registering its collectors with the default registry on first use.
func GetMetrics() *Metrics {
	globalMetricsOnce.Do(func() {
		globalMetrics = &Metrics{
			availableCores: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "garrison_target_available_cores",
				Help: "Current concurrency budget remaining on a deployment target.",
			}, []string{"target"}),
		}
		prometheus.MustRegister(globalMetrics.availableCores)
	})
	return globalMetrics
}

// Observe publishes rt's current available-core count under its name.
func (m *Metrics) Observe(rt *Runtime) {
	m.availableCores.WithLabelValues(rt.Name).Set(float64(rt.AvailableCores()))
}
