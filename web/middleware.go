package web

import (
	"log/slog"
	"net/http"

	"github.com/felixge/httpsnoop"
)

// withRequestLogging logs one line per request with the response code,
// duration and bytes written.
func withRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)
		slog.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", m.Code,
			"duration", m.Duration,
			"bytes", m.Written)
	})
}
