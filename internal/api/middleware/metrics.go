package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edvin/agentdesk/internal/metrics"
)

// Metrics records request counts and latency per chi route pattern. Requests
// that match no route are grouped under "unmatched" so agent and workflow IDs
// never become label values.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		done := metrics.TrackHTTPRequest(r.Method)
		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		done(route, ww.status)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
