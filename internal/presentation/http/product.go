package httppresentation

import (
	"net/http"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/api"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application"
	appinv "github.com/Zhima-Mochi/minishop-fulfillment/internal/application/inventory"
	dominv "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/go-chi/chi/v5"
)

// ProductHandler serves the inventory ledger.
type ProductHandler struct {
	adjust  application.UseCase[appinv.AdjustStockInput, *dominv.Product]
	get     application.UseCase[appinv.GetProductInput, *dominv.Product]
	catalog *appinv.Catalog
	log     observability.Logger
}

func NewProductHandler(
	adjust application.UseCase[appinv.AdjustStockInput, *dominv.Product],
	get application.UseCase[appinv.GetProductInput, *dominv.Product],
	catalog *appinv.Catalog,
	logger observability.Logger,
) *ProductHandler {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &ProductHandler{adjust: adjust, get: get, catalog: catalog, log: logger}
}

func (h *ProductHandler) Mount(r chi.Router) {
	r.Route("/product", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.show)
		r.Put("/{id}", h.update)
		r.Post("/{id}/stock", h.adjustStock)
	})
}

func (h *ProductHandler) list(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.List(r.Context())
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	out := make([]api.Product, 0, len(products))
	for _, p := range products {
		out = append(out, api.FromProduct(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *ProductHandler) create(w http.ResponseWriter, r *http.Request) {
	var req api.CreateProductRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	p, err := h.catalog.Create(r.Context(), appinv.CreateProductInput{
		ID:            req.ID,
		Name:          req.Name,
		UnitPrice:     req.UnitPrice,
		StockQuantity: req.StockQuantity,
	})
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, api.FromProduct(p))
}

func (h *ProductHandler) show(w http.ResponseWriter, r *http.Request) {
	p, err := h.get.Execute(r.Context(), appinv.GetProductInput{ProductID: chi.URLParam(r, "id")})
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, api.FromProduct(p))
}

func (h *ProductHandler) update(w http.ResponseWriter, r *http.Request) {
	var req api.UpdateProductRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	p, err := h.catalog.Update(r.Context(), appinv.UpdateProductInput{
		ProductID: chi.URLParam(r, "id"),
		Details:   dominv.Details{Name: req.Name, UnitPrice: req.UnitPrice},
	})
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, api.FromProduct(p))
}

func (h *ProductHandler) adjustStock(w http.ResponseWriter, r *http.Request) {
	var req api.AdjustStockRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	p, err := h.adjust.Execute(r.Context(), appinv.AdjustStockInput{
		ProductID: chi.URLParam(r, "id"),
		Delta:     req.Delta,
	})
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, api.FromProduct(p))
}
