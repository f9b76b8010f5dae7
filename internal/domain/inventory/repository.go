package inventory

import (
	"context"

	"github.com/shopspring/decimal"
)

// Details is an administrative edit; nil fields are left unchanged.
type Details struct {
	Name      *string
	UnitPrice *decimal.Decimal
}

type Repository interface {
	Get(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context) ([]*Product, error)
	Insert(ctx context.Context, p *Product) error
	UpdateDetails(ctx context.Context, id string, d Details) (*Product, error)
	// Adjust applies delta as one indivisible check-then-apply step.
	// Concurrent calls for the same id serialize.
	Adjust(ctx context.Context, id string, delta int) (*Product, error)
}
