package workerpresentation

import (
	"context"
	"time"

	domoutbox "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability/logctx"
	"go.opentelemetry.io/otel/trace"
)

// AuditTrail writes one domain_event line per event delivered on the bus.
type AuditTrail struct {
	service string
	tel     observability.Observability
	log     observability.Logger
}

func NewAuditTrail(service string, tel observability.Observability) *AuditTrail {
	tel = observability.OrNop(tel)
	return &AuditTrail{
		service: service,
		tel:     tel,
		log:     tel.Logger().With(observability.F("component", "audit")),
	}
}

// Subscribe registers the trail for every event name given.
func (a *AuditTrail) Subscribe(sub domoutbox.Subscriber, eventNames ...string) {
	for _, name := range eventNames {
		sub.Subscribe(name, a.Handle)
	}
}

func (a *AuditTrail) Handle(ctx context.Context, e domoutbox.Event) error {
	sc := trace.SpanContextFromContext(ctx)
	ctx = WithEventContext(ctx, a.log, a.tel, sc.TraceID(), sc.SpanID(), map[string]string{
		"event":        e.EventName(),
		"aggregate_id": domoutbox.KeyOf(e),
		"service":      a.service,
	})
	logctx.FromOr(ctx, a.log).Info("domain_event",
		observability.F("received_at", time.Now().UTC().Format(time.RFC3339Nano)),
	)
	return nil
}
