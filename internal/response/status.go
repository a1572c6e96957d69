// File: internal/response/status.go
package response

import (
	"net/http"
	"strconv"
	"time"

	"scholarhub/internal/services"
)

// ===============================
// STATUS HELPERS
// ===============================

// WriteUnauthorized writes a 401 with a bearer challenge.
func (b *Builder) WriteUnauthorized(w http.ResponseWriter, r *http.Request, message string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="scholarhub"`)
	b.WriteError(w, r, services.NewUnauthorizedError(message))
}

// WriteForbidden writes a 403.
func (b *Builder) WriteForbidden(w http.ResponseWriter, r *http.Request, message string) {
	b.WriteError(w, r, services.NewForbiddenError(message))
}

// WriteNotFound writes a 404 for an unknown route or resource.
func (b *Builder) WriteNotFound(w http.ResponseWriter, r *http.Request, message string) {
	b.WriteError(w, r, services.NewNotFoundError(message))
}

// WriteMethodNotAllowed writes a 405.
func (b *Builder) WriteMethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	resp := b.Error(r.Context(), &services.ServiceError{
		Type:       "METHOD_NOT_ALLOWED",
		Message:    "Method " + r.Method + " is not allowed on this resource",
		StatusCode: http.StatusMethodNotAllowed,
	})
	b.WriteJSON(w, r, resp, http.StatusMethodNotAllowed)
}

// WriteTooManyRequests writes a 429 with Retry-After.
func (b *Builder) WriteTooManyRequests(w http.ResponseWriter, r *http.Request, retryAfter time.Duration) {
	seconds := int(retryAfter.Seconds())
	if seconds < 1 {
		seconds = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(seconds))
	b.WriteError(w, r, services.NewRateLimitError("Too many requests", map[string]interface{}{
		"retry_after_seconds": seconds,
	}))
}

// ===============================
// HEALTH CHECK RESPONSES
// ===============================

// HealthStatus represents system health status
type HealthStatus struct {
	Status      string                 `json:"status"`
	Timestamp   int64                  `json:"timestamp"`
	Version     string                 `json:"version,omitempty"`
	Environment string                 `json:"environment,omitempty"`
	Uptime      float64                `json:"uptime_seconds,omitempty"`
	Services    map[string]interface{} `json:"services,omitempty"`
}

// WriteHealthCheck writes a health check response. Only "unhealthy" is
// reported as 503; a degraded service still takes traffic.
func (b *Builder) WriteHealthCheck(w http.ResponseWriter, r *http.Request, health *HealthStatus) {
	code := http.StatusOK
	if health.Status == "unhealthy" {
		code = http.StatusServiceUnavailable
	}
	b.WriteJSON(w, r, b.Success(r.Context(), health), code)
}
