// file: internal/middleware/error_handler.go
package middleware

import (
	"net/http"

	"scholarhub/internal/response"
)

// NotFoundHandler answers unknown routes with the standard error envelope.
func NotFoundHandler(builder *response.Builder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		builder.WriteNotFound(w, r, "The requested resource does not exist")
	}
}

// MethodNotAllowedHandler answers known routes hit with the wrong method.
func MethodNotAllowedHandler(builder *response.Builder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		builder.WriteMethodNotAllowed(w, r)
	}
}
