package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// RequestLogger logs one line per request once it completes. Push streams
// are logged when the client disconnects, tagged with their transport and
// the user that held them open.
func RequestLogger(logger *slog.Logger, userHeader string) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			transport := streamTransport(r)
			if transport == "ws" && status == 0 {
				// the upgrade hijacks the connection before a status is recorded
				status = http.StatusSwitchingProtocols
			}

			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"remote", r.RemoteAddr,
				"request_id", middleware.GetReqID(r.Context()),
			}
			if transport != "" {
				attrs = append(attrs, "stream", transport, "user", streamUser(r, userHeader))
			}

			level := slog.LevelInfo
			if status >= http.StatusInternalServerError {
				level = slog.LevelWarn
			}
			logger.Log(r.Context(), level, "http request", attrs...)
		})
	}
}

func streamTransport(r *http.Request) string {
	switch {
	case strings.EqualFold(r.Header.Get("Upgrade"), "websocket"):
		return "ws"
	case strings.Contains(r.Header.Get("Accept"), "text/event-stream"), r.URL.Path == "/events":
		return "sse"
	default:
		return ""
	}
}

func streamUser(r *http.Request, userHeader string) string {
	if userHeader != "" {
		if v := strings.TrimSpace(r.Header.Get(userHeader)); v != "" {
			return v
		}
	}
	return strings.TrimSpace(r.URL.Query().Get("user"))
}
