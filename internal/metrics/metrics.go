// Package metrics exposes assignment counters to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/splithub/splithub/internal/assigner"
)

type Metrics struct {
	assignments *prometheus.CounterVec
	dispatches  *prometheus.CounterVec
	failures    *prometheus.CounterVec
}

var _ assigner.Observer = (*Metrics)(nil)

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		assignments: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "splithub",
			Name:      "assignments_total",
			Help:      "Variant resolutions by test, variant and whether the variant was stored or freshly drawn.",
		}, []string{"test", "variant", "source"}),
		dispatches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "splithub",
			Name:      "dispatch_total",
			Help:      "Variant effects dispatched by test and test type.",
		}, []string{"test", "type"}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "splithub",
			Name:      "test_failures_total",
			Help:      "Tests that failed while processing a page view.",
		}, []string{"test"}),
	}
}

func (m *Metrics) Assigned(testID, variant string, fresh bool) {
	source := "stored"
	if fresh {
		source = "random"
	}
	m.assignments.WithLabelValues(testID, variant, source).Inc()
}

func (m *Metrics) Dispatched(testID string, kind assigner.Type) {
	m.dispatches.WithLabelValues(testID, string(kind)).Inc()
}

func (m *Metrics) Failed(testID string, _ error) {
	m.failures.WithLabelValues(testID).Inc()
}

func (m *Metrics) AssignmentsCounter() *prometheus.CounterVec { return m.assignments }
func (m *Metrics) DispatchCounter() *prometheus.CounterVec    { return m.dispatches }
func (m *Metrics) FailureCounter() *prometheus.CounterVec     { return m.failures }
