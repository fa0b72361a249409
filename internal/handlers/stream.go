package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"contestpush/pkg/realtime"
)

// Registry is the part of the connection registry the stream endpoints use.
type Registry interface {
	Register(userID string, ch realtime.Channel)
	Unregister(userID string, ch realtime.Channel)
	CountConnections() realtime.ConnectionCount
}

// StreamHandler accepts live push connections and hands them to the registry.
type StreamHandler struct {
	registry   Registry
	userHeader string
	buffer     int
	keepalive  time.Duration
}

func NewStreamHandler(registry Registry, userHeader string, buffer int, keepalive time.Duration) *StreamHandler {
	return &StreamHandler{
		registry:   registry,
		userHeader: userHeader,
		buffer:     buffer,
		keepalive:  keepalive,
	}
}

func (h *StreamHandler) RegisterRoutes(r chi.Router) {
	r.Get("/events", h.events)
	r.Get("/ws", h.websocket)
}

type helloPayload struct {
	UserID    string `json:"user_id"`
	ChannelID string `json:"channel_id"`
}

func (h *StreamHandler) events(w http.ResponseWriter, r *http.Request) {
	userID := h.userID(r)
	if userID == "" {
		http.Error(w, "user required", http.StatusUnauthorized)
		return
	}
	ch, err := realtime.NewSSEChannel(w, h.buffer)
	if err != nil {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	h.registry.Register(userID, ch)
	defer h.registry.Unregister(userID, ch)
	greet(ch, userID)

	if err := ch.Serve(r.Context(), h.keepalive); err != nil {
		slog.Debug("sse stream ended", "user", userID, "channel", ch.ID(), "error", err)
	}
}

func (h *StreamHandler) websocket(w http.ResponseWriter, r *http.Request) {
	userID := h.userID(r)
	if userID == "" {
		http.Error(w, "user required", http.StatusUnauthorized)
		return
	}
	ch, err := realtime.UpgradeWS(w, r, h.buffer)
	if err != nil {
		slog.Debug("websocket upgrade failed", "user", userID, "error", err)
		return
	}

	h.registry.Register(userID, ch)
	defer h.registry.Unregister(userID, ch)
	greet(ch, userID)

	if err := ch.Serve(r.Context(), h.keepalive); err != nil {
		slog.Debug("websocket stream ended", "user", userID, "channel", ch.ID(), "error", err)
	}
}

// greet pushes a hello event straight to the new channel so a reconnecting
// client knows it is live again.
func greet(ch realtime.Channel, userID string) {
	frame, err := realtime.EncodeFrame("hello", helloPayload{UserID: userID, ChannelID: ch.ID()})
	if err != nil {
		return
	}
	if err := ch.Write(frame); err != nil {
		slog.Debug("hello write failed", "user", userID, "channel", ch.ID(), "error", err)
	}
}

// userID reads the identity set by the upstream auth layer, falling back to
// the user query parameter for EventSource clients that cannot set headers.
func (h *StreamHandler) userID(r *http.Request) string {
	if h.userHeader != "" {
		if v := strings.TrimSpace(r.Header.Get(h.userHeader)); v != "" {
			return v
		}
	}
	return strings.TrimSpace(r.URL.Query().Get("user"))
}
