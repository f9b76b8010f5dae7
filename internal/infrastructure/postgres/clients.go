package postgres

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/client"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ClientRepository struct {
	pool *pgxpool.Pool
}

func NewClientRepository(pool *pgxpool.Pool) *ClientRepository {
	return &ClientRepository{pool: pool}
}

func (r *ClientRepository) Get(ctx context.Context, id string) (*domain.Client, error) {
	var c domain.Client
	err := r.pool.QueryRow(ctx, `SELECT id, name, email FROM clients WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get client %s: %w", id, err)
	}
	return &c, nil
}

// Insert upserts, matching the seed-on-boot behaviour of the memory store.
func (r *ClientRepository) Insert(ctx context.Context, c *domain.Client) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO clients (id, name, email) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, email = EXCLUDED.email`,
		c.ID, c.Name, c.Email)
	if err != nil {
		return fmt.Errorf("insert client %s: %w", c.ID, err)
	}
	return nil
}

type NotificationRepository struct {
	pool *pgxpool.Pool
}

func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

func (r *NotificationRepository) Append(ctx context.Context, n domain.Notification) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO notifications (id, client_id, message, created_at) VALUES ($1, $2, $3, $4)`,
		n.ID, n.ClientID, n.Message, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("append notification: %w", err)
	}
	return nil
}

func (r *NotificationRepository) ListByClient(ctx context.Context, clientID string) ([]domain.Notification, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, client_id, message, created_at
		FROM notifications
		WHERE client_id = $1
		ORDER BY created_at, id`, clientID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []domain.Notification
	for rows.Next() {
		var n domain.Notification
		if err := rows.Scan(&n.ID, &n.ClientID, &n.Message, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
