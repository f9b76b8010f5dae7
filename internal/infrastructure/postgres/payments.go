package postgres

import (
	"context"
	"fmt"

	domain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/payment"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type PaymentRepository struct {
	pool *pgxpool.Pool
}

func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

// Append stores all attempts of one settlement atomically.
func (r *PaymentRepository) Append(ctx context.Context, attempts ...domain.Attempt) error {
	if len(attempts) == 0 {
		return nil
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, a := range attempts {
			batch.Queue(`
				INSERT INTO payment_attempts (id, order_id, instrument, amount, approved, created_at)
				VALUES ($1, $2, $3, $4::numeric, $5, $6)`,
				a.ID, a.OrderID, a.Instrument, a.Amount.String(), a.Approved, a.CreatedAt)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("append payment attempts: %w", err)
		}
		return nil
	})
}

func (r *PaymentRepository) ListByOrder(ctx context.Context, orderID string) ([]domain.Attempt, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, order_id, instrument, amount::text, approved, created_at
		FROM payment_attempts
		WHERE order_id = $1
		ORDER BY created_at, id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list payment attempts: %w", err)
	}
	defer rows.Close()

	var out []domain.Attempt
	for rows.Next() {
		var (
			a      domain.Attempt
			amount string
		)
		if err := rows.Scan(&a.ID, &a.OrderID, &a.Instrument, &amount, &a.Approved, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan payment attempt: %w", err)
		}
		if a.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("attempt %s: amount %q: %w", a.ID, amount, err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
