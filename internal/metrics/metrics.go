// Package metrics holds the Prometheus collectors for billing and access
// decisions.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "paywall"

// Webhook outcomes.
const (
	OutcomeApplied        = "applied"
	OutcomeStale          = "stale"
	OutcomeIgnored        = "ignored"
	OutcomeNoCustomer     = "no_customer"
	OutcomeUnknownAccount = "unknown_account"
	OutcomeBadSignature   = "bad_signature"
	OutcomeBadPayload     = "bad_payload"
	OutcomeError          = "error"
)

// Guard decisions.
const (
	GuardAllow     = "allow"
	GuardLogin     = "login"
	GuardSubscribe = "subscribe"
	GuardError     = "error"
)

// Metrics is safe to use through a nil pointer; every method is then a no-op.
type Metrics struct {
	webhookEvents   *prometheus.CounterVec
	webhookDuration *prometheus.HistogramVec
	guardDecisions  *prometheus.CounterVec
	statusChanges   *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		webhookEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "billing",
			Name:      "webhook_events_total",
			Help:      "Stripe webhook deliveries by event type and outcome.",
		}, []string{"event_type", "outcome"}),
		webhookDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "billing",
			Name:      "webhook_duration_seconds",
			Help:      "Stripe webhook processing duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"event_type"}),
		guardDecisions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "access",
			Name:      "guard_decisions_total",
			Help:      "Route guard decisions for the protected area.",
		}, []string{"decision"}),
		statusChanges: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "billing",
			Name:      "status_changes_total",
			Help:      "Subscription status writes by resulting status.",
		}, []string{"status"}),
	}
}

func (m *Metrics) ObserveWebhook(eventType, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	if eventType == "" {
		eventType = "unknown"
	}
	m.webhookEvents.WithLabelValues(eventType, outcome).Inc()
	m.webhookDuration.WithLabelValues(eventType).Observe(took.Seconds())
}

func (m *Metrics) ObserveGuard(decision string) {
	if m == nil {
		return
	}
	m.guardDecisions.WithLabelValues(decision).Inc()
}

func (m *Metrics) ObserveStatusChange(status string) {
	if m == nil {
		return
	}
	m.statusChanges.WithLabelValues(status).Inc()
}

// Handler serves the gatherer in the Prometheus exposition format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
