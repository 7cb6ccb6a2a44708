package events

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/thmjiya022/nnhair/internal/obs"
)

// LogNotifier writes every emitted event to the structured log.
type LogNotifier struct {
	Logger zerolog.Logger
}

func (n LogNotifier) Notify(_ context.Context, event Event) error {
	n.Logger.Info().
		Str("topic", event.Topic).
		Str("aggregateId", event.AggregateID.String()).
		Time("occurredAt", event.OccurredAt).
		RawJSON("payload", event.Payload).
		Msg("domain event")
	return nil
}

// MetricsNotifier feeds emitted events into the domain Prometheus counters.
// Collectors must be registered via obs.MustRegisterDomainMetrics first.
type MetricsNotifier struct{}

func (MetricsNotifier) Notify(_ context.Context, event Event) error {
	switch event.Topic {
	case TopicOrderCreated:
		if obs.OrdersCreatedTotal != nil {
			obs.OrdersCreatedTotal.Inc()
		}
	case TopicOrderStatusChanged, TopicOrderCancelled:
		if obs.OrderTransitionsTotal != nil {
			var p struct {
				To string `json:"to"`
			}
			if err := json.Unmarshal(event.Payload, &p); err == nil && p.To != "" {
				obs.OrderTransitionsTotal.WithLabelValues(p.To).Inc()
			}
		}
	case TopicPaymentEvent:
		if obs.PaymentEventsTotal != nil {
			var p struct {
				PaymentStatus string `json:"paymentStatus"`
			}
			if err := json.Unmarshal(event.Payload, &p); err == nil && p.PaymentStatus != "" {
				obs.PaymentEventsTotal.WithLabelValues(p.PaymentStatus).Inc()
			}
		}
	}
	return nil
}
