package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// OrderMetrics records the order lifecycle: placement and status edges.
type OrderMetrics struct {
	placed      *prometheus.CounterVec
	placement   *prometheus.HistogramVec
	transitions *prometheus.CounterVec
}

// NewOrderMetrics registers the order metrics on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	placed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_orders_placed_total",
		Help: "Orders created by checkout.",
	}, []string{"payment_method"})
	placement := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "storefront_order_placement_duration_seconds",
		Help:    "Duration of order placement in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_order_transitions_total",
		Help: "Order status transitions applied.",
	}, []string{"from", "to"})
	reg.MustRegister(placed, placement, transitions)
	return &OrderMetrics{
		placed:      placed,
		placement:   placement,
		transitions: transitions,
	}
}

// IncPlaced counts a committed order.
func (m *OrderMetrics) IncPlaced(paymentMethod string) {
	if m == nil || m.placed == nil {
		return
	}
	m.placed.WithLabelValues(normalizeLabel(paymentMethod)).Inc()
}

// ObservePlacement records how long a placement attempt took.
func (m *OrderMetrics) ObservePlacement(outcome string, duration time.Duration) {
	if m == nil || m.placement == nil {
		return
	}
	m.placement.WithLabelValues(normalizeLabel(outcome)).Observe(duration.Seconds())
}

// IncTransition counts a committed status change.
func (m *OrderMetrics) IncTransition(from, to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
