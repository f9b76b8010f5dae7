package httpclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/api"
	domclient "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/client"
	dominv "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/inventory"
	domorder "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
)

// InventoryClient talks to the product service.
type InventoryClient struct{ b *base }

func NewInventoryClient(cfg Config, tel observability.Observability) *InventoryClient {
	if cfg.Peer == "" {
		cfg.Peer = "product-service"
	}
	return &InventoryClient{b: newBase(cfg, tel)}
}

func (c *InventoryClient) GetProduct(ctx context.Context, id string) (*dominv.Product, error) {
	var out api.Product
	if err := c.b.do(ctx, http.MethodGet, "/product/"+url.PathEscape(id), "product.get", nil, &out); err != nil {
		return nil, err
	}
	return out.Domain(), nil
}

func (c *InventoryClient) AdjustStock(ctx context.Context, id string, delta int) (*dominv.Product, error) {
	var out api.Product
	err := c.b.do(ctx, http.MethodPost, "/product/"+url.PathEscape(id)+"/stock", "product.adjust_stock",
		api.AdjustStockRequest{Delta: delta}, &out)
	if err != nil {
		return nil, err
	}
	return out.Domain(), nil
}

// OrderClient talks to the order service.
type OrderClient struct{ b *base }

func NewOrderClient(cfg Config, tel observability.Observability) *OrderClient {
	if cfg.Peer == "" {
		cfg.Peer = "order-service"
	}
	return &OrderClient{b: newBase(cfg, tel)}
}

func (c *OrderClient) GetOrder(ctx context.Context, id string) (*domorder.Order, error) {
	var out api.Order
	if err := c.b.do(ctx, http.MethodGet, "/order/"+url.PathEscape(id), "order.get", nil, &out); err != nil {
		return nil, err
	}
	return out.Domain(), nil
}

func (c *OrderClient) TransitionStatus(ctx context.Context, id string, status domorder.Status) (*domorder.Order, error) {
	var out api.Order
	err := c.b.do(ctx, http.MethodPatch, "/order/"+url.PathEscape(id)+"/status", "order.transition_status",
		api.TransitionStatusRequest{Status: string(status)}, &out)
	if err != nil {
		return nil, err
	}
	return out.Domain(), nil
}

// ClientClient talks to the client service: directory lookups and notifications.
type ClientClient struct{ b *base }

func NewClientClient(cfg Config, tel observability.Observability) *ClientClient {
	if cfg.Peer == "" {
		cfg.Peer = "client-service"
	}
	return &ClientClient{b: newBase(cfg, tel)}
}

func (c *ClientClient) GetClient(ctx context.Context, id string) (*domclient.Client, error) {
	var out api.Client
	if err := c.b.do(ctx, http.MethodGet, "/client/"+url.PathEscape(id), "client.get", nil, &out); err != nil {
		return nil, err
	}
	return out.Domain(), nil
}

func (c *ClientClient) Notify(ctx context.Context, clientID, message string) error {
	return c.b.do(ctx, http.MethodPost, "/client/"+url.PathEscape(clientID)+"/notify", "client.notify",
		api.NotifyRequest{Message: message}, nil)
}
