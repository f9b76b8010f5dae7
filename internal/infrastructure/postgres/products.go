package postgres

import (
	"context"
	"errors"
	"fmt"

	domain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/inventory"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const productColumns = `id, name, unit_price::text, stock_quantity, updated_at`

type ProductRepository struct {
	pool *pgxpool.Pool
}

func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var (
		p     domain.Product
		price string
	)
	if err := row.Scan(&p.ID, &p.Name, &price, &p.StockQuantity, &p.UpdatedAt); err != nil {
		return nil, err
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("product %s: unit_price %q: %w", p.ID, price, err)
	}
	p.UnitPrice = d
	return &p, nil
}

func (r *ProductRepository) Get(ctx context.Context, id string) (*domain.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get product %s: %w", id, err)
	}
	return p, nil
}

func (r *ProductRepository) List(ctx context.Context) ([]*domain.Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var out []*domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *ProductRepository) Insert(ctx context.Context, p *domain.Product) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO products (id, name, unit_price, stock_quantity, updated_at)
		VALUES ($1, $2, $3::numeric, $4, $5)`,
		p.ID, p.Name, p.UnitPrice.String(), p.StockQuantity, p.UpdatedAt)
	if isUniqueViolation(err) {
		return domain.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert product %s: %w", p.ID, err)
	}
	return nil
}

// UpdateDetails locks the row so the domain rules run against current values.
func (r *ProductRepository) UpdateDetails(ctx context.Context, id string, d domain.Details) (*domain.Product, error) {
	var out *domain.Product
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		p, err := scanProduct(tx.QueryRow(ctx,
			`SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id))
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}
		if d.Name != nil {
			if err := p.Rename(*d.Name); err != nil {
				return err
			}
		}
		if d.UnitPrice != nil {
			if err := p.Reprice(*d.UnitPrice); err != nil {
				return err
			}
		}
		if _, err := tx.Exec(ctx,
			`UPDATE products SET name = $2, unit_price = $3::numeric, updated_at = $4 WHERE id = $1`,
			p.ID, p.Name, p.UnitPrice.String(), p.UpdatedAt); err != nil {
			return err
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Adjust applies delta in a single conditional statement, so concurrent
// decrements can never take the stock below zero.
func (r *ProductRepository) Adjust(ctx context.Context, id string, delta int) (*domain.Product, error) {
	if delta == 0 {
		return nil, domain.ErrInvalidDelta
	}
	p, err := scanProduct(r.pool.QueryRow(ctx, `
		UPDATE products
		SET stock_quantity = stock_quantity + $2, updated_at = NOW()
		WHERE id = $1 AND stock_quantity + $2 >= 0
		RETURNING `+productColumns, id, delta))
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("adjust product %s: %w", id, err)
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, fmt.Errorf("adjust product %s: %w", id, err)
	}
	if !exists {
		return nil, domain.ErrNotFound
	}
	return nil, domain.ErrInsufficientStock
}
