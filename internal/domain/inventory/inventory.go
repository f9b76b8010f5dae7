package inventory

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("inventory: product not found")
	ErrInsufficientStock = errors.New("inventory: insufficient stock")
	ErrInvalidDelta      = errors.New("inventory: delta must be non-zero")
	ErrInvalidPrice      = errors.New("inventory: unit price must be zero or greater")
	ErrInvalidStock      = errors.New("inventory: stock quantity must be zero or greater")
	ErrInvalidName       = errors.New("inventory: name is required")
	ErrConflict          = errors.New("inventory: product already exists")
)

// Product is a ledger entry. StockQuantity never drops below zero.
type Product struct {
	ID            string
	Name          string
	UnitPrice     decimal.Decimal
	StockQuantity int
	UpdatedAt     time.Time
}

func NewProduct(id, name string, unitPrice decimal.Decimal, stock int) (*Product, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrInvalidName
	}
	if unitPrice.IsNegative() {
		return nil, ErrInvalidPrice
	}
	if stock < 0 {
		return nil, ErrInvalidStock
	}
	return &Product{
		ID:            id,
		Name:          name,
		UnitPrice:     unitPrice,
		StockQuantity: stock,
		UpdatedAt:     time.Now().UTC(),
	}, nil
}

// ApplyDelta adds delta to the stock, rejecting the change before applying it
// when the result would be negative.
func (p *Product) ApplyDelta(delta int) error {
	if delta == 0 {
		return ErrInvalidDelta
	}
	if p.StockQuantity+delta < 0 {
		return ErrInsufficientStock
	}
	p.StockQuantity += delta
	p.touch()
	return nil
}

// Covers reports whether quantity units are currently available.
func (p *Product) Covers(quantity int) bool {
	return p.StockQuantity >= quantity
}

// Rename and Reprice are the administrative edits; stock is untouched.
func (p *Product) Rename(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrInvalidName
	}
	p.Name = name
	p.touch()
	return nil
}

func (p *Product) Reprice(price decimal.Decimal) error {
	if price.IsNegative() {
		return ErrInvalidPrice
	}
	p.UnitPrice = price
	p.touch()
	return nil
}

func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

func (p *Product) touch() {
	p.UpdatedAt = time.Now().UTC()
}
