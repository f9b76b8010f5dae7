package memory

import (
	"context"
	"sync"

	domain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/saga"
)

type SagaLog struct {
	mu    sync.RWMutex
	steps map[string][]domain.Step
}

func NewSagaLog() *SagaLog {
	return &SagaLog{steps: make(map[string][]domain.Step)}
}

func (l *SagaLog) Append(ctx context.Context, s domain.Step) error {
	_ = ctx

	l.mu.Lock()
	l.steps[s.SagaID] = append(l.steps[s.SagaID], s)
	l.mu.Unlock()
	return nil
}

func (l *SagaLog) List(ctx context.Context, sagaID string) ([]domain.Step, error) {
	_ = ctx

	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]domain.Step(nil), l.steps[sagaID]...), nil
}
