package postgres

import (
	"context"
	"fmt"

	domain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/saga"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SagaLog struct {
	pool *pgxpool.Pool
}

func NewSagaLog(pool *pgxpool.Pool) *SagaLog {
	return &SagaLog{pool: pool}
}

func (l *SagaLog) Append(ctx context.Context, s domain.Step) error {
	_, err := l.pool.Exec(ctx, `
		INSERT INTO saga_steps (saga_id, seq, product_id, delta, action, status, reason, at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		s.SagaID, s.Seq, s.ProductID, s.Delta, string(s.Action), string(s.Status), s.Reason, s.At)
	if err != nil {
		return fmt.Errorf("append saga step %s/%d: %w", s.SagaID, s.Seq, err)
	}
	return nil
}

func (l *SagaLog) List(ctx context.Context, sagaID string) ([]domain.Step, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT saga_id, seq, product_id, delta, action, status, reason, at
		FROM saga_steps
		WHERE saga_id = $1
		ORDER BY seq`, sagaID)
	if err != nil {
		return nil, fmt.Errorf("list saga steps: %w", err)
	}
	defer rows.Close()

	var out []domain.Step
	for rows.Next() {
		var (
			s              domain.Step
			action, status string
		)
		if err := rows.Scan(&s.SagaID, &s.Seq, &s.ProductID, &s.Delta, &action, &status, &s.Reason, &s.At); err != nil {
			return nil, fmt.Errorf("scan saga step: %w", err)
		}
		s.Action, s.Status = domain.Action(action), domain.StepStatus(status)
		out = append(out, s)
	}
	return out, rows.Err()
}
