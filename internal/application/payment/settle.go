package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/apperr"
	domorder "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/order"
	dompay "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	paymentService = "payment-service"
	useCaseSettle  = "payment.settle"
	defaultTimeout = 3 * time.Second
	msgConfirmed   = "Payment confirmed for order %s"
	msgDeclined    = "Payment declined for order %s; order cancelled"
)

type SettleInput struct {
	OrderID     string
	Instruments []dompay.Instrument
}

type SettlementResult struct {
	OrderID     string
	Approved    bool
	OrderStatus domorder.Status
	Attempts    []dompay.Attempt
}

type SettleConfig struct {
	CallTimeout   time.Duration
	NotifyTimeout time.Duration
}

// SettleUseCase evaluates every instrument, settles the order to PAID only
// when all of them are approved, and notifies the client in the background.
type SettleUseCase struct {
	orders   OrderClient
	attempts dompay.Repository
	policy   dompay.ApprovalPolicy
	notifier Notifier
	idGen    IDGenerator
	inst     application.Instruments
	cfg      SettleConfig

	pending sync.WaitGroup
}

func NewSettleUseCase(
	orders OrderClient,
	attempts dompay.Repository,
	policy dompay.ApprovalPolicy,
	notifier Notifier,
	idGen IDGenerator,
	tel observability.Observability,
	cfg SettleConfig,
) *SettleUseCase {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = defaultTimeout
	}
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = defaultTimeout
	}
	if policy == nil {
		policy = dompay.NewRandomPolicy(dompay.DefaultSuccessRate, 0)
	}
	return &SettleUseCase{
		orders:   orders,
		attempts: attempts,
		policy:   policy,
		notifier: notifier,
		idGen:    idGen,
		inst:     application.NewInstruments(tel, paymentService),
		cfg:      cfg,
	}
}

func (uc *SettleUseCase) Execute(ctx context.Context, cmd SettleInput) (_ *SettlementResult, err error) {
	ctx, run := uc.inst.Begin(ctx, useCaseSettle, "Settle",
		attribute.String("order.id", cmd.OrderID),
		attribute.Int("payment.instruments", len(cmd.Instruments)),
	)
	run.Field(observability.F("order_id", cmd.OrderID))
	defer func() { run.End(err) }()

	if strings.TrimSpace(cmd.OrderID) == "" {
		run.Fail("ORDER_ID_REQUIRED")
		return nil, apperr.Validation("order id is required")
	}
	if verr := dompay.ValidateInstruments(cmd.Instruments); verr != nil {
		run.Fail("INSTRUMENTS_INVALID")
		return nil, apperr.Wrap(apperr.KindValidation, "instruments", verr)
	}

	remote := context.WithoutCancel(ctx)

	var order *domorder.Order
	err = uc.within(remote, func(ctx context.Context) error {
		o, err := uc.orders.GetOrder(ctx, cmd.OrderID)
		order = o
		return err
	})
	if err != nil {
		run.Fail("ORDER_LOOKUP_FAILED")
		return nil, orderFailure(cmd.OrderID, err)
	}
	if order.Status.Terminal() {
		run.Fail("ORDER_ALREADY_SETTLED")
		return nil, apperr.Wrap(apperr.KindInvalidTransition,
			fmt.Sprintf("order %s is already %s", order.ID, order.Status), domorder.ErrInvalidTransition)
	}

	attempts := make([]dompay.Attempt, 0, len(cmd.Instruments))
	for _, in := range cmd.Instruments {
		attempts = append(attempts, dompay.NewAttempt(uc.idGen.NewID(), order.ID, in, uc.policy.Approve(remote, in)))
	}
	if err := uc.attempts.Append(remote, attempts...); err != nil {
		run.Fail("ATTEMPT_PERSIST_FAILED")
		return nil, apperr.Internal("persist payment attempts", err)
	}

	approved := dompay.AllApproved(attempts)
	target := domorder.StatusCancelled
	if approved {
		target = domorder.StatusPaid
	}
	run.Field(
		observability.F("approved", approved),
		observability.F("target_status", string(target)),
	)

	var settled *domorder.Order
	err = uc.within(remote, func(ctx context.Context) error {
		o, err := uc.orders.TransitionStatus(ctx, order.ID, target)
		settled = o
		return err
	})
	if err != nil {
		run.Fail("ORDER_TRANSITION_FAILED")
		return nil, orderFailure(order.ID, err)
	}

	uc.notifyAsync(ctx, run.Logger(), settled)

	run.Span().SetAttributes(
		attribute.Bool("payment.approved", approved),
		attribute.String("order.status", string(settled.Status)),
	)
	return &SettlementResult{
		OrderID:     settled.ID,
		Approved:    approved,
		OrderStatus: settled.Status,
		Attempts:    attempts,
	}, nil
}

// notifyAsync informs the client after the transition committed. It runs
// detached from the request and its failure never reaches the caller.
func (uc *SettleUseCase) notifyAsync(ctx context.Context, logger observability.Logger, o *domorder.Order) {
	if uc.notifier == nil {
		return
	}
	msg := fmt.Sprintf(msgDeclined, o.ID)
	if o.Status == domorder.StatusPaid {
		msg = fmt.Sprintf(msgConfirmed, o.ID)
	}

	detached := context.WithoutCancel(ctx)
	uc.pending.Add(1)
	go func() {
		defer uc.pending.Done()
		nctx, cancel := context.WithTimeout(detached, uc.cfg.NotifyTimeout)
		defer cancel()

		if err := uc.notifier.Notify(nctx, o.ClientID, msg); err != nil {
			logger.Warn("client_notification_failed",
				observability.F("order_id", o.ID),
				observability.F("client_id", o.ClientID),
				observability.F("error", err.Error()),
			)
		} else {
			logger.Info("client_notification_sent",
				observability.F("order_id", o.ID),
				observability.F("client_id", o.ClientID),
			)
		}
	}()
}

// Drain blocks until in-flight notifications finish or ctx expires.
func (uc *SettleUseCase) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		uc.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (uc *SettleUseCase) within(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, uc.cfg.CallTimeout)
	defer cancel()
	return fn(ctx)
}

func orderFailure(orderID string, err error) error {
	switch {
	case apperr.Is(err, apperr.KindNotFound), errors.Is(err, domorder.ErrNotFound):
		return apperr.NotFound("order "+orderID, domorder.ErrNotFound)
	case apperr.Is(err, apperr.KindInvalidTransition), errors.Is(err, domorder.ErrInvalidTransition):
		return apperr.Wrap(apperr.KindInvalidTransition, "order "+orderID, domorder.ErrInvalidTransition)
	default:
		return apperr.Upstream("order service", err)
	}
}
