package httppresentation

import (
	"net/http"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/api"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application"
	apporder "github.com/Zhima-Mochi/minishop-fulfillment/internal/application/order"
	domorder "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/order"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/go-chi/chi/v5"
)

type OrderHandler struct {
	create     application.UseCase[apporder.CreateOrderInput, *domorder.Order]
	transition application.UseCase[apporder.TransitionStatusInput, *domorder.Order]
	queries    *apporder.Queries
	log        observability.Logger
}

func NewOrderHandler(
	create application.UseCase[apporder.CreateOrderInput, *domorder.Order],
	transition application.UseCase[apporder.TransitionStatusInput, *domorder.Order],
	queries *apporder.Queries,
	logger observability.Logger,
) *OrderHandler {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &OrderHandler{create: create, transition: transition, queries: queries, log: logger}
}

func (h *OrderHandler) Mount(r chi.Router) {
	r.Route("/order", func(r chi.Router) {
		r.Post("/", h.placeOrder)
		r.Get("/", h.list)
		r.Get("/{id}", h.show)
		r.Get("/{id}/saga", h.sagaSteps)
		r.Patch("/{id}/status", h.transitionStatus)
	})
}

func (h *OrderHandler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req api.CreateOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	items := make([]apporder.ItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, apporder.ItemInput{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	o, err := h.create.Execute(r.Context(), apporder.CreateOrderInput{ClientID: req.ClientID, Items: items})
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, api.FromOrder(o))
}

func (h *OrderHandler) list(w http.ResponseWriter, r *http.Request) {
	orders, err := h.queries.List(r.Context(), r.URL.Query().Get("clientId"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	out := make([]api.Order, 0, len(orders))
	for _, o := range orders {
		out = append(out, api.FromOrder(o))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *OrderHandler) show(w http.ResponseWriter, r *http.Request) {
	o, err := h.queries.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, api.FromOrder(o))
}

func (h *OrderHandler) sagaSteps(w http.ResponseWriter, r *http.Request) {
	steps, err := h.queries.SagaSteps(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, api.FromSagaSteps(steps))
}

func (h *OrderHandler) transitionStatus(w http.ResponseWriter, r *http.Request) {
	var req api.TransitionStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	o, err := h.transition.Execute(r.Context(), apporder.TransitionStatusInput{
		OrderID: chi.URLParam(r, "id"),
		Status:  req.Status,
	})
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, api.FromOrder(o))
}
