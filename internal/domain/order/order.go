package order

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("order: not found")
	ErrConflict          = errors.New("order: concurrent modification")
	ErrEmptyOrder        = errors.New("order: at least one line item is required")
	ErrClientRequired    = errors.New("order: client id is required")
	ErrProductRequired   = errors.New("order: product id is required")
	ErrInvalidQuantity   = errors.New("order: quantity must be greater than zero")
	ErrInvalidPrice      = errors.New("order: unit price must be zero or greater")
	ErrInvalidTransition = errors.New("order: invalid status transition")
	ErrUnknownStatus     = errors.New("order: unknown status")
)

type Status string

const (
	StatusAwaitingPayment Status = "AWAITING_PAYMENT"
	StatusPaid            Status = "PAID"
	StatusCancelled       Status = "CANCELLED"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToUpper(strings.TrimSpace(s))); st {
	case StatusAwaitingPayment, StatusPaid, StatusCancelled:
		return st, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
}

func (s Status) Terminal() bool {
	return s == StatusPaid || s == StatusCancelled
}

// LineItem captures the price observed when the order was placed.
type LineItem struct {
	ProductID            string
	Quantity             int
	UnitPriceAtOrderTime decimal.Decimal
}

func (li LineItem) Subtotal() decimal.Decimal {
	return li.UnitPriceAtOrderTime.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

type Order struct {
	ID          string
	ClientID    string
	Status      Status
	LineItems   []LineItem
	TotalAmount decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// New builds an order in AWAITING_PAYMENT with TotalAmount derived from items.
func New(id, clientID string, items []LineItem) (*Order, error) {
	if strings.TrimSpace(clientID) == "" {
		return nil, ErrClientRequired
	}
	if len(items) == 0 {
		return nil, ErrEmptyOrder
	}
	for _, li := range items {
		if strings.TrimSpace(li.ProductID) == "" {
			return nil, ErrProductRequired
		}
		if li.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		if li.UnitPriceAtOrderTime.IsNegative() {
			return nil, ErrInvalidPrice
		}
	}

	now := time.Now().UTC()
	o := &Order{
		ID:        id,
		ClientID:  clientID,
		Status:    StatusAwaitingPayment,
		LineItems: append([]LineItem(nil), items...),
		CreatedAt: now,
		UpdatedAt: now,
	}
	o.TotalAmount = o.ComputeTotal()
	return o, nil
}

// ComputeTotal sums quantity × unit price over the line items.
func (o *Order) ComputeTotal() decimal.Decimal {
	total := decimal.Zero
	for _, li := range o.LineItems {
		total = total.Add(li.Subtotal())
	}
	return total
}

// TransitionTo moves the order along the state machine or fails with
// ErrInvalidTransition leaving the order untouched.
func (o *Order) TransitionTo(next Status) error {
	current := stateFor(o.Status)
	if current == nil {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, o.Status)
	}

	var (
		to  OrderState
		err error
	)
	switch next {
	case StatusPaid:
		to, err = current.OnPaid(o)
	case StatusCancelled:
		to, err = current.OnCancelled(o)
	default:
		err = ErrInvalidTransition
	}
	if err != nil {
		return fmt.Errorf("%w: %s -> %s", err, o.Status, next)
	}

	o.Status = to.Status()
	o.touch()
	return nil
}

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	c.LineItems = append([]LineItem(nil), o.LineItems...)
	return &c
}

func (o *Order) touch() {
	o.UpdatedAt = time.Now().UTC()
}
