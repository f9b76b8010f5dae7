package order

import (
	"context"

	domclient "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/client"
	dominv "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/inventory"
)

type IDGenerator interface {
	NewID() string
}

// InventoryClient is the order service's view of the product ledger.
// Implementations may be remote; errors should carry an apperr kind.
type InventoryClient interface {
	GetProduct(ctx context.Context, productID string) (*dominv.Product, error)
	AdjustStock(ctx context.Context, productID string, delta int) (*dominv.Product, error)
}

// ClientDirectory resolves the customer placing the order.
type ClientDirectory interface {
	GetClient(ctx context.Context, clientID string) (*domclient.Client, error)
}
