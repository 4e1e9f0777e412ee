package telemetry

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/courtage/backend/internal/domain/bordereau"
	"github.com/courtage/backend/internal/domain/certificate"
	"github.com/courtage/backend/internal/domain/contract"
	"github.com/courtage/backend/internal/domain/shared"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsNamespace prefixes every business metric
const MetricsNamespace = "courtage"

// Outcome label values
const (
	OutcomeSuccess     = "success"
	OutcomeError       = "error"
	OutcomeUnavailable = "unavailable"
)

// BusinessMetrics exposes domain counters in Prometheus format on a private
// registry. It subscribes to the event bus, observes the outbox relay and
// the certificate platform client.
type BusinessMetrics struct {
	registry *prometheus.Registry

	domainEvents     *prometheus.CounterVec
	deduplicated     *prometheus.CounterVec
	outboxRelayed    *prometheus.CounterVec
	platformCalls    *prometheus.CounterVec
	platformDuration *prometheus.HistogramVec
	transitions      *prometheus.CounterVec
}

// NewBusinessMetrics creates the collectors along with the Go runtime and
// process collectors.
func NewBusinessMetrics() *BusinessMetrics {
	m := &BusinessMetrics{
		registry: prometheus.NewRegistry(),
		domainEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "domain_events_total",
			Help:      "Domain events delivered to the in-process bus.",
		}, []string{"event_type"}),
		deduplicated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "domain_events_deduplicated_total",
			Help:      "Redelivered domain events skipped by a subscriber.",
		}, []string{"handler", "event_type"}),
		outboxRelayed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: "outbox",
			Name:      "relayed_total",
			Help:      "Outbox delivery attempts by event type and outcome.",
		}, []string{"event_type", "outcome"}),
		platformCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: "certificate_platform",
			Name:      "calls_total",
			Help:      "Calls to the certificate platform by operation and outcome.",
		}, []string{"operation", "outcome"}),
		platformDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: MetricsNamespace,
			Subsystem: "certificate_platform",
			Name:      "call_duration_seconds",
			Help:      "Certificate platform call latency.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"operation"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Subsystem: "contract",
			Name:      "transitions_total",
			Help:      "Contract status transitions by target status.",
		}, []string{"to_status"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.domainEvents,
		m.deduplicated,
		m.outboxRelayed,
		m.platformCalls,
		m.platformDuration,
		m.transitions,
	)
	return m
}

// Registry returns the private registry
func (m *BusinessMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *BusinessMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Handle counts one domain event
func (m *BusinessMetrics) Handle(_ context.Context, event shared.DomainEvent) error {
	m.domainEvents.WithLabelValues(event.EventType()).Inc()
	if e, ok := event.(*contract.ContractStatusChangedEvent); ok {
		m.transitions.WithLabelValues(string(e.NewStatus)).Inc()
	}
	return nil
}

// EventTypes lists the events counted when subscribed without an explicit list
func (m *BusinessMetrics) EventTypes() []string {
	return []string{
		contract.EventTypeContractCreated,
		contract.EventTypeContractValidated,
		contract.EventTypeContractActivated,
		contract.EventTypeContractExpired,
		contract.EventTypeContractCancelled,
		contract.EventTypeContractRenewed,
		certificate.EventTypeCertificateIssued,
		certificate.EventTypeCertificateCancelled,
		bordereau.EventTypeBordereauGenerated,
		bordereau.EventTypeBordereauClosed,
	}
}

// EventDeduplicated counts one skipped redelivery
func (m *BusinessMetrics) EventDeduplicated(handler, eventType string) {
	m.deduplicated.WithLabelValues(handler, eventType).Inc()
}

// OutboxRelayed records one delivery attempt
func (m *BusinessMetrics) OutboxRelayed(eventType string, err error) {
	m.outboxRelayed.WithLabelValues(eventType, outcomeOf(err)).Inc()
}

// PlatformCalled records one certificate platform call
func (m *BusinessMetrics) PlatformCalled(operation string, elapsed time.Duration, err error) {
	m.platformCalls.WithLabelValues(operation, outcomeOf(err)).Inc()
	m.platformDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, certificate.ErrProviderUnavailable):
		return OutcomeUnavailable
	default:
		return OutcomeError
	}
}

var _ shared.EventHandler = (*BusinessMetrics)(nil)
