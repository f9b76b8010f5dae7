package application

import (
	"context"
	"time"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/apperr"
	domoutbox "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	spanPrefix     = "UC."
	publishPeer    = "outbox"
	publishTimeout = 300 * time.Millisecond
)

// Instruments holds the tracer, base logger and RED metrics a use case reports to.
// Build it once in the constructor; do not create metrics inside Execute.
type Instruments struct {
	tracer observability.Tracer
	log    observability.Logger

	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
}

func NewInstruments(tel observability.Observability, service string) Instruments {
	tel = observability.OrNop(tel)
	m := tel.Metrics()
	return Instruments{
		tracer:       tel.Tracer(),
		log:          tel.Logger().With(observability.F("service", service)),
		reqCounter:   m.Counter(observability.MUsecaseRequests),
		durHistogram: m.Histogram(observability.MUsecaseDuration),
		extCounter:   m.Counter(observability.MExternalRequests),
		extHistogram: m.Histogram(observability.MExternalRequestDuration),
	}
}

func (in Instruments) Logger() observability.Logger { return in.log }

// Run is one instrumented execution. Call End exactly once, from a defer.
type Run struct {
	ctx     context.Context
	useCase string
	span    trace.Span
	start   time.Time
	logger  observability.Logger
	inst    Instruments

	outcome string
	status  string
	fields  []observability.Field
}

// Begin opens the span "UC.<spanName>" and binds a logger carrying use_case.
func (in Instruments) Begin(ctx context.Context, useCase, spanName string, attrs ...attribute.KeyValue) (context.Context, *Run) {
	logger := logctx.FromOr(ctx, in.log).With(observability.F("use_case", useCase))
	attrs = append([]attribute.KeyValue{attribute.String("use_case", useCase)}, attrs...)
	ctx, span := in.tracer.Start(ctx, spanPrefix+spanName, attrs...)
	return ctx, &Run{
		ctx:     ctx,
		useCase: useCase,
		span:    span,
		start:   time.Now(),
		logger:  logger,
		inst:    in,
		outcome: "success",
		status:  "OK",
	}
}

func (r *Run) Span() trace.Span { return r.span }

func (r *Run) Logger() observability.Logger { return r.logger }

// Fail marks the run as failed with a machine-readable status.
func (r *Run) Fail(status string) {
	r.outcome, r.status = "error", status
}

// Status overrides the status text without changing the outcome.
func (r *Run) Status(status string) {
	r.status = status
}

func (r *Run) Field(fields ...observability.Field) {
	r.fields = append(r.fields, fields...)
}

// End closes the span, records metrics and writes the use_case_done line.
func (r *Run) End(err error) {
	lat := time.Since(r.start).Seconds()
	if err != nil && r.outcome == "success" {
		r.outcome, r.status = "error", string(apperr.KindOf(err))
	}

	if r.span != nil {
		if err != nil {
			r.span.RecordError(err)
			r.span.SetStatus(codes.Error, r.status)
		} else {
			r.span.SetStatus(codes.Ok, r.status)
		}
		r.span.End()
	}

	r.inst.reqCounter.Add(1,
		observability.L("use_case", r.useCase),
		observability.L("outcome", r.outcome),
	)
	r.inst.durHistogram.Observe(lat,
		observability.L("use_case", r.useCase),
	)

	fields := append([]observability.Field{
		observability.F("outcome", r.outcome),
		observability.F("status", r.status),
		observability.F("latency_seconds", lat),
	}, r.fields...)
	if sc := trace.SpanContextFromContext(r.ctx); sc.IsValid() {
		fields = append(fields,
			observability.F("trace_id", sc.TraceID().String()),
			observability.F("span_id", sc.SpanID().String()),
		)
	}
	if err != nil {
		fields = append(fields, observability.F("error", err.Error()))
	}
	r.logger.Info("use_case_done", fields...)
}

// Publish emits a domain event without letting a slow publisher stall the caller.
// The error is returned for logging only; events are never part of a use case's outcome.
func (in Instruments) Publish(ctx context.Context, publisher domoutbox.Publisher, e domoutbox.Event) error {
	if publisher == nil || e == nil {
		return nil
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	start := time.Now()
	outcome := "success"
	err := publisher.Publish(pubCtx, e)
	if err != nil {
		outcome = "error"
	}
	in.ObserveExternal(publishPeer, e.EventName(), outcome, start)
	return err
}

// ObserveExternal records one call to a collaborator outside the process.
func (in Instruments) ObserveExternal(peer, endpoint, outcome string, start time.Time) {
	in.extCounter.Add(1,
		observability.L("peer", peer),
		observability.L("endpoint", endpoint),
		observability.L("outcome", outcome),
	)
	in.extHistogram.Observe(time.Since(start).Seconds(),
		observability.L("peer", peer),
		observability.L("endpoint", endpoint),
	)
}
