package postgres

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/order"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const orderColumns = `id, client_id, status, total_amount::text, created_at, updated_at`

type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func (r *OrderRepository) Insert(ctx context.Context, o *domain.Order) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO orders (id, client_id, status, total_amount, created_at, updated_at)
			VALUES ($1, $2, $3, $4::numeric, $5, $6)`,
			o.ID, o.ClientID, string(o.Status), o.TotalAmount.String(), o.CreatedAt, o.UpdatedAt); err != nil {
			return err
		}
		batch := &pgx.Batch{}
		for i, li := range o.LineItems {
			batch.Queue(`
				INSERT INTO order_items (order_id, line_no, product_id, quantity, unit_price)
				VALUES ($1, $2, $3, $4, $5::numeric)`,
				o.ID, i, li.ProductID, li.Quantity, li.UnitPriceAtOrderTime.String())
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if isUniqueViolation(err) {
		return domain.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert order %s: %w", o.ID, err)
	}
	return nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o      domain.Order
		status string
		total  string
	)
	if err := row.Scan(&o.ID, &o.ClientID, &status, &total, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	o.Status = domain.Status(status)
	d, err := decimal.NewFromString(total)
	if err != nil {
		return nil, fmt.Errorf("order %s: total_amount %q: %w", o.ID, total, err)
	}
	o.TotalAmount = d
	return &o, nil
}

func (r *OrderRepository) Get(ctx context.Context, id string) (*domain.Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order %s: %w", id, err)
	}
	if err := r.attachItems(ctx, []*domain.Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *OrderRepository) List(ctx context.Context, f domain.ListFilter) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders`
	var args []any
	if f.ClientID != "" {
		query += ` WHERE client_id = $1`
		args = append(args, f.ClientID)
	}
	query += ` ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	out := []*domain.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	rows.Close()

	if err := r.attachItems(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateStatus only moves an order that is still in from.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, from, to domain.Status) (*domain.Order, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE orders SET status = $3, updated_at = NOW() WHERE id = $1 AND status = $2`,
		id, string(from), string(to))
	if err != nil {
		return nil, fmt.Errorf("update order %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return nil, err
		}
		return nil, domain.ErrConflict
	}
	return r.Get(ctx, id)
}

func (r *OrderRepository) attachItems(ctx context.Context, orders []*domain.Order) error {
	if len(orders) == 0 {
		return nil
	}
	byID := make(map[string]*domain.Order, len(orders))
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
		ids = append(ids, o.ID)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT order_id, product_id, quantity, unit_price::text
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, line_no`, ids)
	if err != nil {
		return fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderID string
			li      domain.LineItem
			price   string
		)
		if err := rows.Scan(&orderID, &li.ProductID, &li.Quantity, &price); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		if li.UnitPriceAtOrderTime, err = decimal.NewFromString(price); err != nil {
			return fmt.Errorf("order %s: unit_price %q: %w", orderID, price, err)
		}
		if o, ok := byID[orderID]; ok {
			o.LineItems = append(o.LineItems, li)
		}
	}
	return rows.Err()
}
