package memory

import (
	"context"
	"fmt"
	"sync"

	domain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/client"
)

type ClientRepository struct {
	mu      sync.RWMutex
	clients map[string]domain.Client
}

func NewClientRepository(seed ...*domain.Client) *ClientRepository {
	r := &ClientRepository{clients: make(map[string]domain.Client, len(seed))}
	for _, c := range seed {
		r.clients[c.ID] = *c
	}
	return r
}

func (r *ClientRepository) Get(ctx context.Context, id string) (*domain.Client, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.clients[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (r *ClientRepository) Insert(ctx context.Context, c *domain.Client) error {
	_ = ctx
	if c == nil || c.ID == "" {
		return fmt.Errorf("client repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c.ID] = *c
	return nil
}

type NotificationRepository struct {
	mu    sync.RWMutex
	items map[string][]domain.Notification
}

func NewNotificationRepository() *NotificationRepository {
	return &NotificationRepository{items: make(map[string][]domain.Notification)}
}

func (r *NotificationRepository) Append(ctx context.Context, n domain.Notification) error {
	_ = ctx

	r.mu.Lock()
	r.items[n.ClientID] = append(r.items[n.ClientID], n)
	r.mu.Unlock()
	return nil
}

func (r *NotificationRepository) ListByClient(ctx context.Context, clientID string) ([]domain.Notification, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.Notification(nil), r.items[clientID]...), nil
}
