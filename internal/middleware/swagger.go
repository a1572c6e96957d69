package middleware

import (
	"crypto/subtle"
	"net/http"

	"scholarhub/internal/response"
	"scholarhub/internal/services"

	httpSwagger "github.com/swaggo/http-swagger"
)

// SwaggerConfig represents the configuration for Swagger middleware
type SwaggerConfig struct {
	// URL points to the Swagger JSON endpoint
	URL          string
	DeepLinking  bool
	DocExpansion string

	// Username and Password protect the UI when both are set.
	Username string
	Password string
}

// DefaultSwaggerConfig returns the default Swagger configuration
func DefaultSwaggerConfig() *SwaggerConfig {
	return &SwaggerConfig{
		URL:          "/swagger/doc.json",
		DeepLinking:  true,
		DocExpansion: "list",
	}
}

// SwaggerHandler returns a handler that serves the Swagger UI
func SwaggerHandler(config *SwaggerConfig) http.Handler {
	if config == nil {
		config = DefaultSwaggerConfig()
	}

	handler := httpSwagger.Handler(
		httpSwagger.URL(config.URL),
		httpSwagger.DeepLinking(config.DeepLinking),
		httpSwagger.DocExpansion(config.DocExpansion),
		httpSwagger.DomID("swagger-ui"),
	)
	return SwaggerAuth(config.Username, config.Password)(handler)
}

// SwaggerAuth adds basic authentication in front of the docs. Empty
// credentials leave the docs open.
func SwaggerAuth(username, password string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if username == "" && password == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if !ok ||
				subtle.ConstantTimeCompare([]byte(user), []byte(username)) != 1 ||
				subtle.ConstantTimeCompare([]byte(pass), []byte(password)) != 1 {
				w.Header().Set("WWW-Authenticate", `Basic realm="ScholarHub API docs", charset="UTF-8"`)
				response.QuickError(w, r, services.NewUnauthorizedError("Documentation requires credentials"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
