// file: internal/middleware/metrics.go
package middleware

import (
	"net/http"
	"time"

	"scholarhub/internal/metrics"

	"github.com/go-chi/chi/v5"
)

// Metrics records request counts and latency per chi route pattern, so
// /api/v1/applications/{id} is one series however many IDs are seen.
func Metrics() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			done := metrics.HTTPStarted()
			writer := wrapResponseWriter(w)

			defer func() {
				route := ""
				if rctx := chi.RouteContext(r.Context()); rctx != nil {
					route = rctx.RoutePattern()
				}
				done(r.Method, route, writer.status, time.Since(start))
			}()

			next.ServeHTTP(writer, r)
		})
	}
}
