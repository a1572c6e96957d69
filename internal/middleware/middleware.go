// file: internal/middleware/middleware.go
package middleware

import (
	"net/http"
	"strings"

	"scholarhub/internal/response"
	"scholarhub/internal/services"
)

// Maintenance answers every API request with 503 while enabled. Health
// and metrics stay reachable.
func Maintenance(enabled bool, builder *response.Builder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/health") || strings.HasPrefix(r.URL.Path, "/metrics") {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("Retry-After", "300")
			builder.WriteError(w, r, &services.ServiceError{
				Type:       "MAINTENANCE",
				Message:    "The service is undergoing maintenance",
				StatusCode: http.StatusServiceUnavailable,
			})
		})
	}
}
