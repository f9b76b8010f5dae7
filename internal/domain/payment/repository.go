package payment

import "context"

type Repository interface {
	Append(ctx context.Context, attempts ...Attempt) error
	ListByOrder(ctx context.Context, orderID string) ([]Attempt, error)
}
