package payment

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrEmptyInstruments = errors.New("payment: at least one instrument is required")
	ErrKindRequired     = errors.New("payment: instrument kind is required")
	ErrInvalidAmount    = errors.New("payment: amount must be greater than zero")
)

// Instrument is one means of payment offered for an order, e.g. {visa, 10}.
type Instrument struct {
	Kind   string
	Amount decimal.Decimal
}

func (i Instrument) Validate() error {
	if strings.TrimSpace(i.Kind) == "" {
		return ErrKindRequired
	}
	if !i.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

func ValidateInstruments(instruments []Instrument) error {
	if len(instruments) == 0 {
		return ErrEmptyInstruments
	}
	for _, in := range instruments {
		if err := in.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Attempt is the append-only record of one instrument's evaluation.
type Attempt struct {
	ID         string
	OrderID    string
	Instrument string
	Amount     decimal.Decimal
	Approved   bool
	CreatedAt  time.Time
}

func NewAttempt(id, orderID string, in Instrument, approved bool) Attempt {
	return Attempt{
		ID:         id,
		OrderID:    orderID,
		Instrument: in.Kind,
		Amount:     in.Amount,
		Approved:   approved,
		CreatedAt:  time.Now().UTC(),
	}
}

// AllApproved is the settlement rule: one decline fails the whole settlement.
func AllApproved(attempts []Attempt) bool {
	if len(attempts) == 0 {
		return false
	}
	for _, a := range attempts {
		if !a.Approved {
			return false
		}
	}
	return true
}
