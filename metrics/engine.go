// Package metrics holds the Prometheus collectors for the price store API and
// the catalog engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"pricecatalog/catalog"
)

// EngineMetrics counts catalog session outcomes. It implements
// catalog.Observer.
type EngineMetrics struct {
	outcomes *prometheus.CounterVec
}

var _ catalog.Observer = (*EngineMetrics)(nil)

// NewEngineMetrics registers the engine metrics on the provided registerer.
func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	if reg == nil {
		return &EngineMetrics{}
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_operations_total",
		Help: "Catalog engine operations by outcome.",
	}, []string{"op", "outcome"})
	reg.MustRegister(outcomes)
	return &EngineMetrics{outcomes: outcomes}
}

// Observe increments the counter for op and outcome.
func (m *EngineMetrics) Observe(op, outcome string) {
	if m == nil || m.outcomes == nil {
		return
	}
	m.outcomes.WithLabelValues(normalizeLabel(op), normalizeLabel(outcome)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
