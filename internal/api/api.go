// Package api holds the JSON contracts exchanged between the services.
package api

import (
	"time"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/apperr"
	domclient "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/client"
	dominv "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/inventory"
	domorder "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/order"
	dompay "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/payment"
	domsaga "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/saga"
	"github.com/shopspring/decimal"
)

const internalMessage = "internal error"

// Error is the body of every non-2xx response.
type Error struct {
	Error       string            `json:"error"`
	Message     string            `json:"message"`
	SideEffects string            `json:"side_effects,omitempty"`
	Fields      map[string]string `json:"fields,omitempty"`
}

// FromError renders err for a caller. INTERNAL errors carry only their own
// message; the wrapped cause may hold driver or host detail and stays in logs.
func FromError(err error) Error {
	e, ok := apperr.As(err)
	if !ok {
		return Error{Error: string(apperr.KindInternal), Message: internalMessage}
	}
	msg := e.Error()
	if e.Kind == apperr.KindInternal {
		msg = e.Message
		if msg == "" {
			msg = internalMessage
		}
	}
	return Error{
		Error:       string(e.Kind),
		Message:     msg,
		SideEffects: string(e.SideEffects),
		Fields:      e.Fields,
	}
}

// AppErr rebuilds the typed error on the calling side of a hop.
func (e Error) AppErr(cause error) *apperr.Error {
	kind := apperr.Kind(e.Error)
	if kind == "" {
		kind = apperr.KindInternal
	}
	return &apperr.Error{
		Kind:        kind,
		Message:     e.Message,
		SideEffects: apperr.SideEffects(e.SideEffects),
		Fields:      e.Fields,
		Err:         cause,
	}
}

type Product struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
	StockQuantity int             `json:"stockQuantity"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

func FromProduct(p *dominv.Product) Product {
	return Product{
		ID:            p.ID,
		Name:          p.Name,
		UnitPrice:     p.UnitPrice,
		StockQuantity: p.StockQuantity,
		UpdatedAt:     p.UpdatedAt,
	}
}

func (p Product) Domain() *dominv.Product {
	return &dominv.Product{
		ID:            p.ID,
		Name:          p.Name,
		UnitPrice:     p.UnitPrice,
		StockQuantity: p.StockQuantity,
		UpdatedAt:     p.UpdatedAt,
	}
}

type AdjustStockRequest struct {
	Delta int `json:"delta" validate:"required"`
}

type CreateProductRequest struct {
	ID            string          `json:"id,omitempty"`
	Name          string          `json:"name" validate:"required"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
	StockQuantity int             `json:"stockQuantity" validate:"gte=0"`
}

type UpdateProductRequest struct {
	Name      *string          `json:"name,omitempty" validate:"omitempty,min=1"`
	UnitPrice *decimal.Decimal `json:"unitPrice,omitempty"`
}

type LineItem struct {
	ProductID            string          `json:"productId"`
	Quantity             int             `json:"quantity"`
	UnitPriceAtOrderTime decimal.Decimal `json:"unitPriceAtOrderTime"`
}

type Order struct {
	ID          string          `json:"id"`
	ClientID    string          `json:"clientId"`
	Status      string          `json:"status"`
	LineItems   []LineItem      `json:"lineItems"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func FromOrder(o *domorder.Order) Order {
	items := make([]LineItem, 0, len(o.LineItems))
	for _, li := range o.LineItems {
		items = append(items, LineItem{
			ProductID:            li.ProductID,
			Quantity:             li.Quantity,
			UnitPriceAtOrderTime: li.UnitPriceAtOrderTime,
		})
	}
	return Order{
		ID:          o.ID,
		ClientID:    o.ClientID,
		Status:      string(o.Status),
		LineItems:   items,
		TotalAmount: o.TotalAmount,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}

func (o Order) Domain() *domorder.Order {
	items := make([]domorder.LineItem, 0, len(o.LineItems))
	for _, li := range o.LineItems {
		items = append(items, domorder.LineItem{
			ProductID:            li.ProductID,
			Quantity:             li.Quantity,
			UnitPriceAtOrderTime: li.UnitPriceAtOrderTime,
		})
	}
	return &domorder.Order{
		ID:          o.ID,
		ClientID:    o.ClientID,
		Status:      domorder.Status(o.Status),
		LineItems:   items,
		TotalAmount: o.TotalAmount,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}

type OrderItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// CreateOrderRequest is validated by the use case so that field errors come
// back keyed by item index.
type CreateOrderRequest struct {
	ClientID string             `json:"clientId"`
	Items    []OrderItemRequest `json:"items"`
}

type TransitionStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type SagaStep struct {
	Seq       int       `json:"seq"`
	ProductID string    `json:"productId"`
	Delta     int       `json:"delta"`
	Action    string    `json:"action"`
	Status    string    `json:"status"`
	Reason    string    `json:"reason,omitempty"`
	At        time.Time `json:"at"`
}

func FromSagaSteps(steps []domsaga.Step) []SagaStep {
	out := make([]SagaStep, 0, len(steps))
	for _, s := range steps {
		out = append(out, SagaStep{
			Seq:       s.Seq,
			ProductID: s.ProductID,
			Delta:     s.Delta,
			Action:    string(s.Action),
			Status:    string(s.Status),
			Reason:    s.Reason,
			At:        s.At,
		})
	}
	return out
}

type Instrument struct {
	Kind   string          `json:"kind" validate:"required"`
	Amount decimal.Decimal `json:"amount"`
}

type SettleRequest struct {
	Instruments []Instrument `json:"instruments" validate:"required,min=1,dive"`
}

func (r SettleRequest) Domain() []dompay.Instrument {
	out := make([]dompay.Instrument, 0, len(r.Instruments))
	for _, in := range r.Instruments {
		out = append(out, dompay.Instrument{Kind: in.Kind, Amount: in.Amount})
	}
	return out
}

type Attempt struct {
	ID         string          `json:"id"`
	OrderID    string          `json:"orderId"`
	Instrument string          `json:"instrument"`
	Amount     decimal.Decimal `json:"amount"`
	Approved   bool            `json:"approved"`
	CreatedAt  time.Time       `json:"createdAt"`
}

func FromAttempts(attempts []dompay.Attempt) []Attempt {
	out := make([]Attempt, 0, len(attempts))
	for _, a := range attempts {
		out = append(out, Attempt{
			ID:         a.ID,
			OrderID:    a.OrderID,
			Instrument: a.Instrument,
			Amount:     a.Amount,
			Approved:   a.Approved,
			CreatedAt:  a.CreatedAt,
		})
	}
	return out
}

type SettlementResult struct {
	OrderID     string    `json:"orderId"`
	Approved    bool      `json:"approved"`
	OrderStatus string    `json:"orderStatus"`
	Attempts    []Attempt `json:"attempts"`
}

type Client struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func FromClient(c *domclient.Client) Client {
	return Client{ID: c.ID, Name: c.Name, Email: c.Email}
}

func (c Client) Domain() *domclient.Client {
	return &domclient.Client{ID: c.ID, Name: c.Name, Email: c.Email}
}

type CreateClientRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

type NotifyRequest struct {
	Message string `json:"message" validate:"required"`
}

type Notification struct {
	ID        string    `json:"id"`
	ClientID  string    `json:"clientId"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

func FromNotifications(ns []domclient.Notification) []Notification {
	out := make([]Notification, 0, len(ns))
	for _, n := range ns {
		out = append(out, Notification{ID: n.ID, ClientID: n.ClientID, Message: n.Message, CreatedAt: n.CreatedAt})
	}
	return out
}

// Ack acknowledges a fire-and-forget notification.
type Ack struct {
	Status         string `json:"status"`
	NotificationID string `json:"notificationId"`
}
