package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/turtacn/ClauseLens/internal/infrastructure/monitoring/prometheus"
)

// Metrics returns middleware that counts and times requests into the metrics
// registry.  The path label uses the chi route pattern resolved during
// routing, so /api/v1/documents/{documentID} stays one series no matter how
// many documents exist.
func Metrics(m *prometheus.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m.HTTPRequestStarted()
			start := time.Now()
			wrapped := newWrappedResponseWriter(w)

			next.ServeHTTP(wrapped, r)

			m.HTTPRequestDone()
			pattern := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if p := rctx.RoutePattern(); p != "" {
					pattern = p
				}
			}
			m.ObserveHTTPRequest(r.Method, pattern, wrapped.statusCode, time.Since(start))
		})
	}
}
