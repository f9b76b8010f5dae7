package order_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	apporder "github.com/Zhima-Mochi/minishop-fulfillment/internal/application/order"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/apperr"
	dominv "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/inventory"
	domorder "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/saga"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	ledger  *ledger
	dir     *directory
	orders  *memory.OrderRepository
	sagaLog *memory.SagaLog
	events  *events
	uc      *apporder.CreateOrderUseCase
}

func newHarness(t *testing.T, stock map[string]int, cfg apporder.CreateOrderConfig) *harness {
	t.Helper()
	h := &harness{
		ledger:  newLedger(t, stock),
		dir:     &directory{known: map[string]bool{"cliente-1": true}},
		orders:  memory.NewOrderRepository(),
		sagaLog: memory.NewSagaLog(),
		events:  &events{},
	}
	h.uc = apporder.NewCreateOrderUseCase(h.orders, h.ledger, h.dir, h.sagaLog, &ids{}, h.events, observability.Nop(), cfg)
	return h
}

func (h *harness) orderCount(t *testing.T) int {
	t.Helper()
	all, err := h.orders.List(context.Background(), domorder.ListFilter{})
	require.NoError(t, err)
	return len(all)
}

func TestCreateOrderReservesStockAndPricesOrder(t *testing.T) {
	h := newHarness(t, map[string]int{"prod-abc": 10}, apporder.CreateOrderConfig{})

	o, err := h.uc.Execute(context.Background(), apporder.CreateOrderInput{
		ClientID: "cliente-1",
		Items:    []apporder.ItemInput{{ProductID: "prod-abc", Quantity: 4}},
	})
	require.NoError(t, err)

	assert.Equal(t, 6, h.ledger.stock(t, "prod-abc"))
	assert.Equal(t, domorder.StatusAwaitingPayment, o.Status)
	assert.True(t, o.TotalAmount.Equal(decimal.NewFromInt(1000)), o.TotalAmount.String())
	assert.True(t, o.TotalAmount.Equal(o.ComputeTotal()))
	require.Len(t, o.LineItems, 1)
	assert.True(t, o.LineItems[0].UnitPriceAtOrderTime.Equal(decimal.NewFromInt(250)))

	stored, err := h.orders.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.ID, stored.ID)

	steps, err := h.sagaLog.List(context.Background(), o.ID)
	require.NoError(t, err)
	require.Len(t, steps, 1)
	assert.Equal(t, saga.StatusApplied, steps[0].Status)
	assert.Equal(t, -4, steps[0].Delta)

	assert.Equal(t, []string{"order.created"}, h.events.names())
}

func TestCreateOrderCapturesPriceAtOrderTime(t *testing.T) {
	h := newHarness(t, map[string]int{"prod-abc": 10}, apporder.CreateOrderConfig{})
	o, err := h.uc.Execute(context.Background(), apporder.CreateOrderInput{
		ClientID: "cliente-1",
		Items:    []apporder.ItemInput{{ProductID: "prod-abc", Quantity: 1}},
	})
	require.NoError(t, err)

	price := decimal.NewFromInt(1)
	_, err = h.ledger.repo.UpdateDetails(context.Background(), "prod-abc", dominv.Details{UnitPrice: &price})
	require.NoError(t, err)

	stored, err := h.orders.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.True(t, stored.TotalAmount.Equal(decimal.NewFromInt(250)))
}

func TestCreateOrderOversizedItemLeavesNoTrace(t *testing.T) {
	h := newHarness(t, map[string]int{"A": 10, "B": 3}, apporder.CreateOrderConfig{})

	_, err := h.uc.Execute(context.Background(), apporder.CreateOrderInput{
		ClientID: "cliente-1",
		Items:    []apporder.ItemInput{{ProductID: "A", Quantity: 5}, {ProductID: "B", Quantity: 999}},
	})

	require.Error(t, err)
	assert.Equal(t, apperr.KindInsufficientStock, apperr.KindOf(err))
	assert.Equal(t, 10, h.ledger.stock(t, "A"))
	assert.Equal(t, 3, h.ledger.stock(t, "B"))
	assert.Zero(t, h.orderCount(t))
}

func TestCreateOrderCompensatesWhenLaterReservationFails(t *testing.T) {
	h := newHarness(t, map[string]int{"A": 10, "B": 3}, apporder.CreateOrderConfig{})
	// B is drained by a competing order between the advisory read and the decrement.
	h.ledger.beforeAdjust = func(ctx context.Context, id string, delta int) error {
		if id == "B" && delta < 0 {
			_, err := h.ledger.repo.Adjust(ctx, "B", -3)
			return err
		}
		return nil
	}

	_, err := h.uc.Execute(context.Background(), apporder.CreateOrderInput{
		ClientID: "cliente-1",
		Items:    []apporder.ItemInput{{ProductID: "A", Quantity: 5}, {ProductID: "B", Quantity: 2}},
	})

	require.Error(t, err)
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindInsufficientStock, ae.Kind)
	assert.Equal(t, apperr.SideEffectsCompensated, ae.SideEffects)
	assert.Equal(t, 10, h.ledger.stock(t, "A"), "A must be restored")
	assert.Zero(t, h.orderCount(t))

	steps, err := h.sagaLog.List(context.Background(), ae.Fields["sagaId"])
	require.NoError(t, err)
	require.Len(t, steps, 3)
	assert.Equal(t, saga.ActionReserve, steps[0].Action)
	assert.Equal(t, saga.StatusApplied, steps[0].Status)
	assert.Equal(t, "B", steps[1].ProductID)
	assert.Equal(t, saga.StatusFailed, steps[1].Status)
	assert.Equal(t, saga.ActionCompensate, steps[2].Action)
	assert.Equal(t, saga.StatusCompensated, steps[2].Status)
	assert.Equal(t, 5, steps[2].Delta)
}

func TestCreateOrderCompensatesInReverseOrder(t *testing.T) {
	h := newHarness(t, map[string]int{"A": 10, "B": 10, "C": 10}, apporder.CreateOrderConfig{})
	var mu sync.Mutex
	var restored []string
	h.ledger.beforeAdjust = func(_ context.Context, id string, delta int) error {
		if id == "C" && delta < 0 {
			return apperr.Upstream("product service", errors.New("connection reset"))
		}
		if delta > 0 {
			mu.Lock()
			restored = append(restored, id)
			mu.Unlock()
		}
		return nil
	}

	_, err := h.uc.Execute(context.Background(), apporder.CreateOrderInput{
		ClientID: "cliente-1",
		Items: []apporder.ItemInput{
			{ProductID: "A", Quantity: 1}, {ProductID: "B", Quantity: 2}, {ProductID: "C", Quantity: 3},
		},
	})

	require.Error(t, err)
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindUpstreamUnavailable, ae.Kind)
	assert.Equal(t, apperr.SideEffectsCompensated, ae.SideEffects)
	assert.Equal(t, []string{"B", "A"}, restored)
	for _, id := range []string{"A", "B", "C"} {
		assert.Equal(t, 10, h.ledger.stock(t, id), id)
	}
}

func TestCreateOrderTimeoutIsAFailure(t *testing.T) {
	h := newHarness(t, map[string]int{"A": 10, "B": 10}, apporder.CreateOrderConfig{CallTimeout: 20 * time.Millisecond})
	h.ledger.beforeAdjust = func(ctx context.Context, id string, delta int) error {
		if id == "B" && delta < 0 {
			<-ctx.Done()
			return ctx.Err()
		}
		return nil
	}

	_, err := h.uc.Execute(context.Background(), apporder.CreateOrderInput{
		ClientID: "cliente-1",
		Items:    []apporder.ItemInput{{ProductID: "A", Quantity: 4}, {ProductID: "B", Quantity: 1}},
	})

	require.Error(t, err)
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindUpstreamUnavailable, ae.Kind)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 10, h.ledger.stock(t, "A"))

	steps, err := h.sagaLog.List(context.Background(), ae.Fields["sagaId"])
	require.NoError(t, err)
	require.Len(t, steps, 3)
	assert.Equal(t, "timeout", steps[1].Reason)
}

func TestCreateOrderReportsFailedCompensation(t *testing.T) {
	h := newHarness(t, map[string]int{"A": 10, "B": 10}, apporder.CreateOrderConfig{})
	h.ledger.beforeAdjust = func(_ context.Context, id string, delta int) error {
		if id == "B" || delta > 0 {
			return apperr.Upstream("product service", errors.New("unreachable"))
		}
		return nil
	}

	_, err := h.uc.Execute(context.Background(), apporder.CreateOrderInput{
		ClientID: "cliente-1",
		Items:    []apporder.ItemInput{{ProductID: "A", Quantity: 5}, {ProductID: "B", Quantity: 1}},
	})

	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.SideEffectsInconsistent, ae.SideEffects)
	assert.Equal(t, 5, h.ledger.stock(t, "A"), "the leaked decrement is reported, not hidden")

	steps, err := h.sagaLog.List(context.Background(), ae.Fields["sagaId"])
	require.NoError(t, err)
	require.Len(t, steps, 3)
	assert.Equal(t, saga.StatusCompensationFailed, steps[2].Status)
}

func TestCreateOrderLastUnitRace(t *testing.T) {
	h := newHarness(t, map[string]int{"last": 1}, apporder.CreateOrderConfig{})

	const buyers = 2
	errs := make([]error, buyers)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, errs[i] = h.uc.Execute(context.Background(), apporder.CreateOrderInput{
				ClientID: "cliente-1",
				Items:    []apporder.ItemInput{{ProductID: "last", Quantity: 1}},
			})
		}()
	}
	close(start)
	wg.Wait()

	var ok, short int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case apperr.Is(err, apperr.KindInsufficientStock):
			short++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, short)
	assert.Equal(t, 0, h.ledger.stock(t, "last"))
	assert.Equal(t, 1, h.orderCount(t))
}

func TestCreateOrderValidatesBeforeRemoteCalls(t *testing.T) {
	tests := []struct {
		name  string
		input apporder.CreateOrderInput
	}{
		{name: "missing client", input: apporder.CreateOrderInput{Items: []apporder.ItemInput{{ProductID: "A", Quantity: 1}}}},
		{name: "no items", input: apporder.CreateOrderInput{ClientID: "cliente-1"}},
		{name: "zero quantity", input: apporder.CreateOrderInput{ClientID: "cliente-1", Items: []apporder.ItemInput{{ProductID: "A"}}}},
		{name: "blank product", input: apporder.CreateOrderInput{ClientID: "cliente-1", Items: []apporder.ItemInput{{Quantity: 1}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, map[string]int{"A": 1}, apporder.CreateOrderConfig{})

			_, err := h.uc.Execute(context.Background(), tt.input)

			ae, ok := apperr.As(err)
			require.True(t, ok)
			assert.Equal(t, apperr.KindValidation, ae.Kind)
			assert.Equal(t, apperr.SideEffectsNone, ae.SideEffects)
			assert.NotEmpty(t, ae.Fields)
			assert.Zero(t, h.ledger.calls.Load())
			assert.Zero(t, h.dir.calls.Load())
		})
	}
}

func TestCreateOrderEmptyOrderIsRecognisable(t *testing.T) {
	h := newHarness(t, nil, apporder.CreateOrderConfig{})
	_, err := h.uc.Execute(context.Background(), apporder.CreateOrderInput{ClientID: "cliente-1"})
	assert.ErrorIs(t, err, domorder.ErrEmptyOrder)
}

func TestCreateOrderUnknownClient(t *testing.T) {
	h := newHarness(t, map[string]int{"A": 1}, apporder.CreateOrderConfig{})

	_, err := h.uc.Execute(context.Background(), apporder.CreateOrderInput{
		ClientID: "ghost",
		Items:    []apporder.ItemInput{{ProductID: "A", Quantity: 1}},
	})

	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.ErrorIs(t, err, apporder.ErrClientNotFound)
	assert.Zero(t, h.ledger.calls.Load())
}

func TestCreateOrderClientServiceDown(t *testing.T) {
	h := newHarness(t, map[string]int{"A": 1}, apporder.CreateOrderConfig{})
	h.dir.err = apperr.Upstream("client service", errors.New("dial tcp: refused"))

	_, err := h.uc.Execute(context.Background(), apporder.CreateOrderInput{
		ClientID: "cliente-1",
		Items:    []apporder.ItemInput{{ProductID: "A", Quantity: 1}},
	})

	assert.Equal(t, apperr.KindUpstreamUnavailable, apperr.KindOf(err))
	assert.Equal(t, 1, h.ledger.stock(t, "A"))
}

func TestCreateOrderUnknownProduct(t *testing.T) {
	h := newHarness(t, map[string]int{"A": 1}, apporder.CreateOrderConfig{})

	_, err := h.uc.Execute(context.Background(), apporder.CreateOrderInput{
		ClientID: "cliente-1",
		Items:    []apporder.ItemInput{{ProductID: "A", Quantity: 1}, {ProductID: "ghost", Quantity: 1}},
	})

	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindNotFound, ae.Kind)
	assert.Equal(t, apperr.SideEffectsNone, ae.SideEffects)
	assert.Equal(t, 1, h.ledger.stock(t, "A"))
}

func TestCreateOrderAggregatesDuplicateLines(t *testing.T) {
	h := newHarness(t, map[string]int{"A": 3}, apporder.CreateOrderConfig{})

	_, err := h.uc.Execute(context.Background(), apporder.CreateOrderInput{
		ClientID: "cliente-1",
		Items:    []apporder.ItemInput{{ProductID: "A", Quantity: 2}, {ProductID: "A", Quantity: 2}},
	})

	assert.Equal(t, apperr.KindInsufficientStock, apperr.KindOf(err))
	assert.Equal(t, 3, h.ledger.stock(t, "A"))
}
