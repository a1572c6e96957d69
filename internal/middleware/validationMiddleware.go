// file: internal/middleware/validationMiddleware.go
package middleware

import (
	"mime"
	"net/http"

	"scholarhub/internal/response"
	"scholarhub/internal/services"
)

// ValidationConfig bounds request bodies before they reach a handler.
type ValidationConfig struct {
	MaxJSONSize      int64 `json:"max_json_size"`
	MaxMultipartSize int64 `json:"max_multipart_size"`
}

// DefaultValidationConfig returns production-ready validation configuration
func DefaultValidationConfig() *ValidationConfig {
	return &ValidationConfig{
		MaxJSONSize:      1 << 20,
		MaxMultipartSize: 10 << 20,
	}
}

// ValidateRequest rejects write requests whose content type the API does
// not accept and caps the body size per content type.
func ValidateRequest(config *ValidationConfig, builder *response.Builder) func(http.Handler) http.Handler {
	if config == nil {
		config = DefaultValidationConfig()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !hasBody(r) {
				next.ServeHTTP(w, r)
				return
			}

			mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
			if err != nil {
				builder.WriteError(w, r, services.NewValidationError("Content-Type header is missing or malformed", err))
				return
			}

			switch {
			case mediaType == "application/json":
				r.Body = http.MaxBytesReader(w, r.Body, config.MaxJSONSize)
			case mediaType == "multipart/form-data":
				r.Body = http.MaxBytesReader(w, r.Body, config.MaxMultipartSize)
			default:
				builder.WriteError(w, r, &services.ServiceError{
					Type:       "UNSUPPORTED_MEDIA_TYPE",
					Message:    "Unsupported content type " + mediaType,
					StatusCode: http.StatusUnsupportedMediaType,
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func hasBody(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return r.ContentLength != 0
	}
	return false
}
