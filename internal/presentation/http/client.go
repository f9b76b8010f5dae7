package httppresentation

import (
	"net/http"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/api"
	appclient "github.com/Zhima-Mochi/minishop-fulfillment/internal/application/client"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/go-chi/chi/v5"
)

type ClientHandler struct {
	dir *appclient.Directory
	log observability.Logger
}

func NewClientHandler(dir *appclient.Directory, logger observability.Logger) *ClientHandler {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &ClientHandler{dir: dir, log: logger}
}

func (h *ClientHandler) Mount(r chi.Router) {
	r.Route("/client", func(r chi.Router) {
		r.Post("/", h.create)
		r.Get("/{id}", h.show)
		r.Post("/{id}/notify", h.notify)
		r.Get("/{id}/notifications", h.notifications)
	})
}

func (h *ClientHandler) create(w http.ResponseWriter, r *http.Request) {
	var req api.CreateClientRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	c, err := h.dir.Create(r.Context(), appclient.CreateClientInput{Name: req.Name, Email: req.Email})
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, api.FromClient(c))
}

func (h *ClientHandler) show(w http.ResponseWriter, r *http.Request) {
	c, err := h.dir.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, api.FromClient(c))
}

func (h *ClientHandler) notify(w http.ResponseWriter, r *http.Request) {
	var req api.NotifyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	n, err := h.dir.Notify(r.Context(), appclient.NotifyInput{ClientID: chi.URLParam(r, "id"), Message: req.Message})
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusAccepted, api.Ack{Status: "accepted", NotificationID: n.ID})
}

func (h *ClientHandler) notifications(w http.ResponseWriter, r *http.Request) {
	ns, err := h.dir.Notifications(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, api.FromNotifications(ns))
}
