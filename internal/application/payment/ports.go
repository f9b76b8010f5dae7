package payment

import (
	"context"

	domorder "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/order"
)

type IDGenerator interface {
	NewID() string
}

// OrderClient is the payment service's view of the order aggregate.
type OrderClient interface {
	GetOrder(ctx context.Context, orderID string) (*domorder.Order, error)
	TransitionStatus(ctx context.Context, orderID string, status domorder.Status) (*domorder.Order, error)
}

// Notifier delivers a message to a client. Callers treat it as fire-and-forget.
type Notifier interface {
	Notify(ctx context.Context, clientID, message string) error
}
