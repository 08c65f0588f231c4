package metrics

import "github.com/prometheus/client_golang/prometheus"

// OutboxMetrics tracks the relay from outbox_events to Pub/Sub.
type OutboxMetrics struct {
	published *prometheus.CounterVec
	pending   prometheus.Gauge
}

// NewOutboxMetrics registers the publisher metrics on the provided registerer.
func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	published := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "storefront_outbox_publish_total",
		Help: "Outbox publish attempts by event type and outcome.",
	}, []string{"event_type", "outcome"})
	pending := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "storefront_outbox_pending",
		Help: "Outbox rows not yet published.",
	})
	reg.MustRegister(published, pending)
	return &OutboxMetrics{published: published, pending: pending}
}

func (m *OutboxMetrics) IncPublished(eventType, outcome string) {
	if m == nil || m.published == nil {
		return
	}
	m.published.WithLabelValues(normalizeLabel(eventType), normalizeLabel(outcome)).Inc()
}

func (m *OutboxMetrics) SetPending(count int64) {
	if m == nil || m.pending == nil {
		return
	}
	m.pending.Set(float64(count))
}
