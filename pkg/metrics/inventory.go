package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// InventoryMetrics tracks stock mutations and reconciliation outcomes.
// A nil *InventoryMetrics is valid and records nothing.
type InventoryMetrics struct {
	adjustments       *prometheus.CounterVec
	versionConflicts  prometheus.Counter
	insufficientStock *prometheus.CounterVec
	reconcileItems    *prometheus.CounterVec
	drift             *prometheus.GaugeVec
}

// NewInventoryMetrics registers the inventory metrics on the provided registerer.
func NewInventoryMetrics(reg prometheus.Registerer) *InventoryMetrics {
	if reg == nil {
		return &InventoryMetrics{}
	}
	m := &InventoryMetrics{
		adjustments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "inventory",
			Name:      "adjustments_total",
			Help:      "Committed stock mutations by field and reason.",
		}, []string{"field", "reason"}),
		versionConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "inventory",
			Name:      "version_conflicts_total",
			Help:      "Optimistic version checks lost by stock mutations.",
		}),
		insufficientStock: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "inventory",
			Name:      "insufficient_stock_total",
			Help:      "Stock mutations rejected by the non-negative guard.",
		}, []string{"field"}),
		reconcileItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "inventory",
			Name:      "reconcile_items_total",
			Help:      "Per-variant outcomes of inventory repair sweeps.",
		}, []string{"outcome"}),
		drift: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "inventory",
			Name:      "drift_records",
			Help:      "Latest diagnostics counts of orphans, zombies and duplicates.",
		}, []string{"kind"}),
	}
	reg.MustRegister(m.adjustments, m.versionConflicts, m.insufficientStock, m.reconcileItems, m.drift)
	return m
}

func (m *InventoryMetrics) IncAdjustment(field, reason string) {
	if m == nil || m.adjustments == nil {
		return
	}
	m.adjustments.WithLabelValues(normalizeLabel(field), normalizeLabel(reason)).Inc()
}

func (m *InventoryMetrics) IncVersionConflict() {
	if m == nil || m.versionConflicts == nil {
		return
	}
	m.versionConflicts.Inc()
}

func (m *InventoryMetrics) IncInsufficientStock(field string) {
	if m == nil || m.insufficientStock == nil {
		return
	}
	m.insufficientStock.WithLabelValues(normalizeLabel(field)).Inc()
}

// AddReconcile records created, failed and skipped counts from one sweep.
func (m *InventoryMetrics) AddReconcile(created, failed, skipped int) {
	if m == nil || m.reconcileItems == nil {
		return
	}
	m.reconcileItems.WithLabelValues("created").Add(float64(created))
	m.reconcileItems.WithLabelValues("failed").Add(float64(failed))
	m.reconcileItems.WithLabelValues("skipped").Add(float64(skipped))
}

// SetDrift publishes the latest diagnostics counts.
func (m *InventoryMetrics) SetDrift(orphans, zombies, duplicates int) {
	if m == nil || m.drift == nil {
		return
	}
	m.drift.WithLabelValues("orphans").Set(float64(orphans))
	m.drift.WithLabelValues("zombies").Set(float64(zombies))
	m.drift.WithLabelValues("duplicates").Set(float64(duplicates))
}
