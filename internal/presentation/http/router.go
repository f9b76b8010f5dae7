// Package httppresentation exposes the application use cases over HTTP.
package httppresentation

import (
	"net/http"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Routes is implemented by each service's handler set.
type Routes interface {
	Mount(r chi.Router)
}

type RouterConfig struct {
	Service       string
	Observability observability.Observability
	// Gatherer backs /metrics; nil disables the endpoint.
	Gatherer prometheus.Gatherer
}

// NewRouter wires the observability middleware chain, /health, /metrics and
// the given service routes.
func NewRouter(cfg RouterConfig, routes ...Routes) http.Handler {
	tel := observability.OrNop(cfg.Observability)
	base := tel.Logger().With(observability.F("service", cfg.Service))

	r := chi.NewRouter()
	r.Use(
		withTrace(cfg.Service),
		withRequestLogger(base),
		withMetricsAndAccessLog(tel, base),
		middleware.Recoverer,
	)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": cfg.Service})
	})
	if cfg.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	for _, rt := range routes {
		rt.Mount(r)
	}
	return r
}
