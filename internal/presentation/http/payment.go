package httppresentation

import (
	"net/http"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/api"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application"
	apppay "github.com/Zhima-Mochi/minishop-fulfillment/internal/application/payment"
	dompay "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/go-chi/chi/v5"
)

type PaymentHandler struct {
	settle   application.UseCase[apppay.SettleInput, *apppay.SettlementResult]
	attempts application.UseCase[string, []dompay.Attempt]
	log      observability.Logger
}

func NewPaymentHandler(
	settle application.UseCase[apppay.SettleInput, *apppay.SettlementResult],
	attempts application.UseCase[string, []dompay.Attempt],
	logger observability.Logger,
) *PaymentHandler {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &PaymentHandler{settle: settle, attempts: attempts, log: logger}
}

func (h *PaymentHandler) Mount(r chi.Router) {
	r.Route("/payment/{orderId}", func(r chi.Router) {
		r.Post("/process", h.process)
		r.Get("/attempts", h.listAttempts)
	})
}

// process settles an order. A declined payment is a normal outcome and is
// reported with 200 and approved=false.
func (h *PaymentHandler) process(w http.ResponseWriter, r *http.Request) {
	var req api.SettleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	res, err := h.settle.Execute(r.Context(), apppay.SettleInput{
		OrderID:     chi.URLParam(r, "orderId"),
		Instruments: req.Domain(),
	})
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, api.SettlementResult{
		OrderID:     res.OrderID,
		Approved:    res.Approved,
		OrderStatus: string(res.OrderStatus),
		Attempts:    api.FromAttempts(res.Attempts),
	})
}

func (h *PaymentHandler) listAttempts(w http.ResponseWriter, r *http.Request) {
	attempts, err := h.attempts.Execute(r.Context(), chi.URLParam(r, "orderId"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, api.FromAttempts(attempts))
}
