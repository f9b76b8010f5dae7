package order

import (
	"context"
	"errors"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/apperr"
	domain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const useCaseOrderTransition = "order.transition_status"

type TransitionStatusInput struct {
	OrderID string
	Status  string
}

type TransitionStatusUseCase struct {
	orders    domain.Repository
	publisher domoutbox.Publisher
	inst      application.Instruments
}

func NewTransitionStatusUseCase(orders domain.Repository, publisher domoutbox.Publisher, tel observability.Observability) *TransitionStatusUseCase {
	return &TransitionStatusUseCase{
		orders:    orders,
		publisher: publisher,
		inst:      application.NewInstruments(tel, orderService),
	}
}

// Execute moves an order along its state machine. Terminal orders reject
// every request, and the write is a compare-and-set so concurrent callers
// cannot both leave AWAITING_PAYMENT.
func (uc *TransitionStatusUseCase) Execute(ctx context.Context, cmd TransitionStatusInput) (_ *domain.Order, err error) {
	ctx, run := uc.inst.Begin(ctx, useCaseOrderTransition, "TransitionStatus",
		attribute.String("order.id", cmd.OrderID),
		attribute.String("order.target_status", cmd.Status),
	)
	run.Field(
		observability.F("order_id", cmd.OrderID),
		observability.F("target_status", cmd.Status),
	)
	defer func() { run.End(err) }()

	if cmd.OrderID == "" {
		run.Fail("ORDER_ID_REQUIRED")
		return nil, apperr.Validation("order id is required")
	}
	next, perr := domain.ParseStatus(cmd.Status)
	if perr != nil {
		run.Fail("STATUS_INVALID")
		return nil, apperr.Wrap(apperr.KindValidation, "status", perr)
	}

	current, err := uc.orders.Get(ctx, cmd.OrderID)
	if err != nil {
		return nil, classifyRepo(cmd.OrderID, err)
	}

	candidate := current.Clone()
	if terr := candidate.TransitionTo(next); terr != nil {
		run.Fail("INVALID_TRANSITION")
		return nil, apperr.Wrap(apperr.KindInvalidTransition, "order "+cmd.OrderID, terr)
	}

	updated, err := uc.orders.UpdateStatus(ctx, cmd.OrderID, current.Status, candidate.Status)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			run.Fail("CONCURRENT_TRANSITION")
			return nil, apperr.Wrap(apperr.KindInvalidTransition, "order "+cmd.OrderID+" changed concurrently", domain.ErrInvalidTransition)
		}
		return nil, classifyRepo(cmd.OrderID, err)
	}

	if pubErr := uc.inst.Publish(ctx, uc.publisher, domain.NewOrderStatusChangedEvent(updated, current.Status)); pubErr != nil {
		run.Status("EVENT_PUBLISH_FAILED")
		run.Field(observability.F("event_publish_error", pubErr.Error()))
	}
	run.Span().SetAttributes(attribute.String("order.status", string(updated.Status)))
	return updated, nil
}

func classifyRepo(orderID string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return apperr.NotFound("order "+orderID, err)
	}
	return apperr.Internal("order repository", err)
}
