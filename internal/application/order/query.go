package order

import (
	"context"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/apperr"
	domain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/saga"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
)

// Queries serves the read side of the order service.
type Queries struct {
	orders  domain.Repository
	sagaLog saga.Log
	inst    application.Instruments
}

func NewQueries(orders domain.Repository, sagaLog saga.Log, tel observability.Observability) *Queries {
	return &Queries{orders: orders, sagaLog: sagaLog, inst: application.NewInstruments(tel, orderService)}
}

func (q *Queries) Get(ctx context.Context, orderID string) (_ *domain.Order, err error) {
	ctx, run := q.inst.Begin(ctx, "order.get", "GetOrder")
	defer func() { run.End(err) }()

	o, err := q.orders.Get(ctx, orderID)
	if err != nil {
		return nil, classifyRepo(orderID, err)
	}
	return o, nil
}

func (q *Queries) List(ctx context.Context, clientID string) (_ []*domain.Order, err error) {
	ctx, run := q.inst.Begin(ctx, "order.list", "ListOrders")
	defer func() { run.End(err) }()

	out, err := q.orders.List(ctx, domain.ListFilter{ClientID: clientID})
	if err != nil {
		return nil, apperr.Internal("order repository", err)
	}
	return out, nil
}

// SagaSteps returns the compensation log of one order attempt. The saga id is
// the order id, so failed attempts that never produced an order are still visible.
func (q *Queries) SagaSteps(ctx context.Context, sagaID string) (_ []saga.Step, err error) {
	ctx, run := q.inst.Begin(ctx, "order.saga_steps", "SagaSteps")
	defer func() { run.End(err) }()

	steps, err := q.sagaLog.List(ctx, sagaID)
	if err != nil {
		return nil, apperr.Internal("saga log", err)
	}
	if len(steps) == 0 {
		return nil, apperr.NotFound("saga "+sagaID, nil)
	}
	return steps, nil
}
