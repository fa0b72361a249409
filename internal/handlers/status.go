package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"contestpush/internal/viewmodel"
	"contestpush/views/pages"
)

type StatusHandler struct {
	registry  Registry
	keepalive time.Duration
}

func NewStatusHandler(registry Registry, keepalive time.Duration) *StatusHandler {
	return &StatusHandler{registry: registry, keepalive: keepalive}
}

func (h *StatusHandler) RegisterRoutes(r chi.Router) {
	r.Get("/status", h.status)
}

func (h *StatusHandler) status(w http.ResponseWriter, r *http.Request) {
	count := h.registry.CountConnections()
	render(w, r, pages.StatusPage(viewmodel.StatusPage{
		Title:     "Live notifications",
		Users:     count.Users,
		Channels:  count.Channels,
		Keepalive: int(h.keepalive.Seconds()),
		Endpoints: []viewmodel.Endpoint{
			{Path: "/events", Transport: "Server-Sent Events"},
			{Path: "/ws", Transport: "WebSocket"},
		},
	}))
}
