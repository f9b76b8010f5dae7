package memory

import (
	"context"
	"sync"

	domain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/payment"
)

type PaymentRepository struct {
	mu       sync.RWMutex
	attempts map[string][]domain.Attempt
}

func NewPaymentRepository() *PaymentRepository {
	return &PaymentRepository{attempts: make(map[string][]domain.Attempt)}
}

func (r *PaymentRepository) Append(ctx context.Context, attempts ...domain.Attempt) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range attempts {
		r.attempts[a.OrderID] = append(r.attempts[a.OrderID], a)
	}
	return nil
}

func (r *PaymentRepository) ListByOrder(ctx context.Context, orderID string) ([]domain.Attempt, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]domain.Attempt(nil), r.attempts[orderID]...), nil
}
