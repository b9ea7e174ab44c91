package metrics

import "github.com/prometheus/client_golang/prometheus"

// QuotaMetrics counts quota decisions and Stripe webhook outcomes.
type QuotaMetrics struct {
	denied       *prometheus.CounterVec
	stripeEvents *prometheus.CounterVec
}

// NewQuotaMetrics registers the quota metrics on the provided registerer.
func NewQuotaMetrics(reg prometheus.Registerer) *QuotaMetrics {
	if reg == nil {
		return &QuotaMetrics{}
	}
	denied := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quota_denied_total",
		Help: "Chat requests denied by the daily quota.",
	}, []string{"plan"})
	stripeEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stripe_events_total",
		Help: "Stripe webhook events processed, by type and outcome.",
	}, []string{"type", "outcome"})
	reg.MustRegister(denied, stripeEvents)
	return &QuotaMetrics{
		denied:       denied,
		stripeEvents: stripeEvents,
	}
}

// IncDenied increments the denial counter for the named plan.
func (m *QuotaMetrics) IncDenied(plan string) {
	if m == nil || m.denied == nil {
		return
	}
	m.denied.WithLabelValues(normalizeLabel(plan)).Inc()
}

// IncStripeEvent increments the webhook counter for an event type and outcome.
func (m *QuotaMetrics) IncStripeEvent(eventType, outcome string) {
	if m == nil || m.stripeEvents == nil {
		return
	}
	m.stripeEvents.WithLabelValues(normalizeLabel(eventType), normalizeLabel(outcome)).Inc()
}
