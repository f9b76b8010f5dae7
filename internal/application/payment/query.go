package payment

import (
	"context"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/apperr"
	dompay "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
)

type ListAttemptsUseCase struct {
	attempts dompay.Repository
	inst     application.Instruments
}

func NewListAttemptsUseCase(attempts dompay.Repository, tel observability.Observability) *ListAttemptsUseCase {
	return &ListAttemptsUseCase{attempts: attempts, inst: application.NewInstruments(tel, paymentService)}
}

func (uc *ListAttemptsUseCase) Execute(ctx context.Context, orderID string) (_ []dompay.Attempt, err error) {
	ctx, run := uc.inst.Begin(ctx, "payment.list_attempts", "ListAttempts")
	defer func() { run.End(err) }()

	out, err := uc.attempts.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, apperr.Internal("payment repository", err)
	}
	return out, nil
}
