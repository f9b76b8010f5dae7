package order

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderCreatedEvent struct {
	OrderID     string
	ClientID    string
	TotalAmount decimal.Decimal
	Items       int
	OccurredAt  time.Time
}

func (OrderCreatedEvent) EventName() string { return "order.created" }

func (e OrderCreatedEvent) AggregateID() string { return e.OrderID }

func NewOrderCreatedEvent(o *Order) OrderCreatedEvent {
	return OrderCreatedEvent{
		OrderID:     o.ID,
		ClientID:    o.ClientID,
		TotalAmount: o.TotalAmount,
		Items:       len(o.LineItems),
		OccurredAt:  time.Now().UTC(),
	}
}

type OrderStatusChangedEvent struct {
	OrderID    string
	ClientID   string
	From       Status
	To         Status
	OccurredAt time.Time
}

func (OrderStatusChangedEvent) EventName() string { return "order.status_changed" }

func (e OrderStatusChangedEvent) AggregateID() string { return e.OrderID }

func NewOrderStatusChangedEvent(o *Order, from Status) OrderStatusChangedEvent {
	return OrderStatusChangedEvent{
		OrderID:    o.ID,
		ClientID:   o.ClientID,
		From:       from,
		To:         o.Status,
		OccurredAt: time.Now().UTC(),
	}
}
