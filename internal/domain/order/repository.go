package order

import "context"

type ListFilter struct {
	ClientID string
}

type Repository interface {
	Insert(ctx context.Context, o *Order) error
	Get(ctx context.Context, id string) (*Order, error)
	List(ctx context.Context, f ListFilter) ([]*Order, error)
	// UpdateStatus is a compare-and-set: it fails with ErrConflict when the
	// stored status is no longer from.
	UpdateStatus(ctx context.Context, id string, from, to Status) (*Order, error)
}
