package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/apperr"
	domclient "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/client"
	dominv "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/inventory"
	domain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/saga"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const (
	orderService       = "order-service"
	useCaseOrderCreate = "order.create"

	defaultCallTimeout      = 3 * time.Second
	defaultFetchConcurrency = 4
)

var ErrClientNotFound = errors.New("order: client not found")

type ItemInput struct {
	ProductID string
	Quantity  int
}

type CreateOrderInput struct {
	ClientID string
	Items    []ItemInput
}

type CreateOrderConfig struct {
	// CallTimeout bounds every remote call; a timeout counts as a failure.
	CallTimeout      time.Duration
	FetchConcurrency int
}

// CreateOrderUseCase reserves stock item by item against the ledger and only
// then persists the order. Any failure after the first decrement is undone by
// compensating adjustments recorded in the saga log.
type CreateOrderUseCase struct {
	orders    domain.Repository
	inventory InventoryClient
	clients   ClientDirectory
	sagaLog   saga.Log
	idGen     IDGenerator
	publisher domoutbox.Publisher
	inst      application.Instruments
	cfg       CreateOrderConfig

	compensations observability.Counter // saga_compensations_total{outcome}
}

func NewCreateOrderUseCase(
	orders domain.Repository,
	inventory InventoryClient,
	clients ClientDirectory,
	sagaLog saga.Log,
	idGen IDGenerator,
	publisher domoutbox.Publisher,
	tel observability.Observability,
	cfg CreateOrderConfig,
) *CreateOrderUseCase {
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = defaultCallTimeout
	}
	if cfg.FetchConcurrency <= 0 {
		cfg.FetchConcurrency = defaultFetchConcurrency
	}
	return &CreateOrderUseCase{
		orders:        orders,
		inventory:     inventory,
		clients:       clients,
		sagaLog:       sagaLog,
		idGen:         idGen,
		publisher:     publisher,
		inst:          application.NewInstruments(tel, orderService),
		cfg:           cfg,
		compensations: observability.OrNop(tel).Metrics().Counter(observability.MSagaCompensations),
	}
}

func (uc *CreateOrderUseCase) Execute(ctx context.Context, cmd CreateOrderInput) (_ *domain.Order, err error) {
	ctx, run := uc.inst.Begin(ctx, useCaseOrderCreate, "CreateOrder",
		attribute.String("order.client_id", cmd.ClientID),
		attribute.Int("order.items", len(cmd.Items)),
	)
	run.Field(observability.F("client_id", cmd.ClientID))
	defer func() { run.End(err) }()

	if verr := validateShape(cmd); verr != nil {
		run.Fail("INVALID_REQUEST")
		return nil, verr.WithSideEffects(apperr.SideEffectsNone)
	}

	// Remote work is detached from the caller: once a call is issued it runs
	// to completion or timeout even if the inbound request goes away.
	remote := context.WithoutCancel(ctx)

	if err := uc.verifyClient(remote, cmd.ClientID); err != nil {
		run.Fail("CLIENT_CHECK_FAILED")
		return nil, err
	}

	products, err := uc.fetchProducts(remote, cmd.Items)
	if err != nil {
		run.Fail("PRODUCT_LOOKUP_FAILED")
		return nil, err
	}

	wanted := make(map[string]int, len(cmd.Items))
	for _, it := range cmd.Items {
		wanted[it.ProductID] += it.Quantity
	}
	for id, qty := range wanted {
		if !products[id].Covers(qty) {
			run.Fail("INSUFFICIENT_STOCK")
			return nil, apperr.Wrap(apperr.KindInsufficientStock,
				fmt.Sprintf("product %s has %d in stock, %d requested", id, products[id].StockQuantity, qty),
				dominv.ErrInsufficientStock,
			).WithSideEffects(apperr.SideEffectsNone)
		}
	}

	lineItems := make([]domain.LineItem, 0, len(cmd.Items))
	for _, it := range cmd.Items {
		lineItems = append(lineItems, domain.LineItem{
			ProductID:            it.ProductID,
			Quantity:             it.Quantity,
			UnitPriceAtOrderTime: products[it.ProductID].UnitPrice,
		})
	}

	orderID := uc.idGen.NewID()
	exec := saga.NewExecution(orderID)
	run.Field(observability.F("order_id", orderID))
	run.Span().SetAttributes(attribute.String("order.id", orderID))

	for _, li := range lineItems {
		productID, qty := li.ProductID, li.Quantity
		if _, adjErr := uc.adjust(remote, productID, -qty); adjErr != nil {
			uc.record(remote, run, exec, productID, -qty, saga.ActionReserve, saga.StatusFailed, reasonOf(adjErr))
			effects := uc.compensate(remote, run, exec)
			run.Fail("RESERVATION_FAILED")
			return nil, withSaga(reservationFailure(productID, adjErr).WithSideEffects(effects), exec.ID)
		}
		uc.record(remote, run, exec, productID, -qty, saga.ActionReserve, saga.StatusApplied, "")
		exec.Push(saga.Compensation{
			ProductID: productID,
			Delta:     qty,
			Undo: func(ctx context.Context) error {
				_, err := uc.adjust(ctx, productID, qty)
				return err
			},
		})
	}

	entity, derr := domain.New(orderID, cmd.ClientID, lineItems)
	if derr == nil {
		derr = uc.orders.Insert(remote, entity)
	}
	if derr != nil {
		effects := uc.compensate(remote, run, exec)
		run.Fail("ORDER_PERSIST_FAILED")
		return nil, withSaga(apperr.Internal("persist order", derr).WithSideEffects(effects), exec.ID)
	}

	if pubErr := uc.inst.Publish(ctx, uc.publisher, domain.NewOrderCreatedEvent(entity)); pubErr != nil {
		run.Status("EVENT_PUBLISH_FAILED")
		run.Field(observability.F("event_publish_error", pubErr.Error()))
	}

	run.Span().SetAttributes(
		attribute.String("order.status", string(entity.Status)),
		attribute.String("order.total", entity.TotalAmount.String()),
	)
	run.Span().AddEvent("order.created", trace.WithAttributes(attribute.String("order.id", orderID)))
	return entity, nil
}

func validateShape(cmd CreateOrderInput) *apperr.Error {
	fields := map[string]string{}
	if strings.TrimSpace(cmd.ClientID) == "" {
		fields["clientId"] = "clientId is required"
	}
	if len(cmd.Items) == 0 {
		fields["items"] = "at least one item is required"
	}
	for i, it := range cmd.Items {
		if strings.TrimSpace(it.ProductID) == "" {
			fields[fmt.Sprintf("items[%d].productId", i)] = "productId is required"
		}
		if it.Quantity <= 0 {
			fields[fmt.Sprintf("items[%d].quantity", i)] = "quantity must be greater than zero"
		}
	}
	if len(fields) == 0 {
		return nil
	}
	e := apperr.Validation("invalid order request")
	e.Fields = fields
	if len(cmd.Items) == 0 {
		e.Err = domain.ErrEmptyOrder
	}
	return e
}

func (uc *CreateOrderUseCase) verifyClient(ctx context.Context, clientID string) error {
	err := uc.within(ctx, func(ctx context.Context) error {
		_, err := uc.clients.GetClient(ctx, clientID)
		return err
	})
	switch {
	case err == nil:
		return nil
	case apperr.Is(err, apperr.KindNotFound), errors.Is(err, domclient.ErrNotFound):
		return apperr.Wrap(apperr.KindValidation, "client "+clientID, ErrClientNotFound).
			WithSideEffects(apperr.SideEffectsNone)
	default:
		return apperr.Upstream("client service", err).WithSideEffects(apperr.SideEffectsNone)
	}
}

// fetchProducts reads every distinct product concurrently. Nothing has been
// mutated yet, so the first failure cancels the remaining reads.
func (uc *CreateOrderUseCase) fetchProducts(ctx context.Context, items []ItemInput) (map[string]*dominv.Product, error) {
	ids := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, it := range items {
		if _, ok := seen[it.ProductID]; ok {
			continue
		}
		seen[it.ProductID] = struct{}{}
		ids = append(ids, it.ProductID)
	}

	found := make([]*dominv.Product, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.cfg.FetchConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			return uc.within(gctx, func(ctx context.Context) error {
				p, err := uc.inventory.GetProduct(ctx, id)
				if err != nil {
					return fetchFailure(id, err)
				}
				found[i] = p
				return nil
			})
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]*dominv.Product, len(ids))
	for i, id := range ids {
		out[id] = found[i]
	}
	return out, nil
}

func fetchFailure(productID string, err error) error {
	if apperr.Is(err, apperr.KindNotFound) || errors.Is(err, dominv.ErrNotFound) {
		return apperr.NotFound("product "+productID, dominv.ErrNotFound).WithSideEffects(apperr.SideEffectsNone)
	}
	return apperr.Upstream("product service", err).WithSideEffects(apperr.SideEffectsNone)
}

func (uc *CreateOrderUseCase) adjust(ctx context.Context, productID string, delta int) (*dominv.Product, error) {
	var out *dominv.Product
	err := uc.within(ctx, func(ctx context.Context) error {
		p, err := uc.inventory.AdjustStock(ctx, productID, delta)
		out = p
		return err
	})
	return out, err
}

func (uc *CreateOrderUseCase) within(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, uc.cfg.CallTimeout)
	defer cancel()
	return fn(ctx)
}

// compensate undoes every applied reservation and reports what it left behind.
// Each compensation is attempted once; a failure is logged as an inconsistency.
func (uc *CreateOrderUseCase) compensate(ctx context.Context, run *application.Run, exec *saga.Execution) apperr.SideEffects {
	if exec.Pending() == 0 {
		return apperr.SideEffectsNone
	}

	results := exec.Compensate(ctx)
	for _, r := range results {
		if r.Err != nil {
			uc.compensations.Add(1, observability.L("outcome", "failed"))
			uc.record(ctx, run, exec, r.ProductID, r.Delta, saga.ActionCompensate, saga.StatusCompensationFailed, r.Err.Error())
			run.Logger().Error("inventory_inconsistency",
				observability.F("saga_id", exec.ID),
				observability.F("product_id", r.ProductID),
				observability.F("delta", r.Delta),
				observability.F("error", r.Err.Error()),
			)
			continue
		}
		uc.compensations.Add(1, observability.L("outcome", "success"))
		uc.record(ctx, run, exec, r.ProductID, r.Delta, saga.ActionCompensate, saga.StatusCompensated, "")
	}

	run.Span().AddEvent("saga.compensated", trace.WithAttributes(
		attribute.Int("saga.compensations", len(results)),
		attribute.Bool("saga.consistent", !saga.Failed(results)),
	))
	if saga.Failed(results) {
		return apperr.SideEffectsInconsistent
	}
	return apperr.SideEffectsCompensated
}

func (uc *CreateOrderUseCase) record(ctx context.Context, run *application.Run, exec *saga.Execution, productID string, delta int, action saga.Action, status saga.StepStatus, reason string) {
	if uc.sagaLog == nil {
		return
	}
	step := saga.Step{
		SagaID:    exec.ID,
		Seq:       exec.NextSeq(),
		ProductID: productID,
		Delta:     delta,
		Action:    action,
		Status:    status,
		Reason:    reason,
		At:        time.Now().UTC(),
	}
	if err := uc.sagaLog.Append(ctx, step); err != nil {
		run.Logger().Warn("saga_log_append_failed",
			observability.F("saga_id", exec.ID),
			observability.F("error", err.Error()),
		)
	}
}

// reservationFailure maps a failed decrement to the error the caller sees.
// Business rejections surface as InsufficientStock, transport trouble as
// UpstreamUnavailable.
func reservationFailure(productID string, err error) *apperr.Error {
	switch {
	case apperr.Is(err, apperr.KindInsufficientStock), errors.Is(err, dominv.ErrInsufficientStock),
		apperr.Is(err, apperr.KindNotFound), errors.Is(err, dominv.ErrNotFound):
		return apperr.Wrap(apperr.KindInsufficientStock, "reserve stock for product "+productID, err)
	default:
		return apperr.Upstream("reserve stock for product "+productID, err)
	}
}

// withSaga exposes the saga id so the caller can inspect the compensation log.
func withSaga(e *apperr.Error, sagaID string) *apperr.Error {
	e.Fields = map[string]string{"sagaId": sagaID}
	return e
}

func reasonOf(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	return err.Error()
}
