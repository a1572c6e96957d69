// File: internal/middleware/security.go
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"scholarhub/internal/config"
)

// ===============================
// SECURITY HEADERS
// ===============================

// SecurityConfig holds response hardening headers.
type SecurityConfig struct {
	EnableHSTS     bool          `json:"enable_hsts"`
	HSTSMaxAge     time.Duration `json:"hsts_max_age"`
	FrameOptions   string        `json:"frame_options"`
	ReferrerPolicy string        `json:"referrer_policy"`
	// CSP applies to API responses only; the swagger UI sets its own.
	ContentSecurityPolicy string `json:"content_security_policy"`
}

// DefaultSecurityConfig returns production-ready security configuration
func DefaultSecurityConfig() *SecurityConfig {
	return &SecurityConfig{
		EnableHSTS:            true,
		HSTSMaxAge:            365 * 24 * time.Hour,
		FrameOptions:          "DENY",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
	}
}

// DevelopmentSecurityConfig drops HSTS for plain-http local work.
func DevelopmentSecurityConfig() *SecurityConfig {
	cfg := DefaultSecurityConfig()
	cfg.EnableHSTS = false
	return cfg
}

// SecurityHeaders sets hardening headers on every response.
func SecurityHeaders(cfg *SecurityConfig) func(http.Handler) http.Handler {
	if cfg == nil {
		cfg = DefaultSecurityConfig()
	}
	hsts := "max-age=" + strconv.Itoa(int(cfg.HSTSMaxAge.Seconds())) + "; includeSubDomains"

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("X-Content-Type-Options", "nosniff")
			if cfg.FrameOptions != "" {
				h.Set("X-Frame-Options", cfg.FrameOptions)
			}
			if cfg.ReferrerPolicy != "" {
				h.Set("Referrer-Policy", cfg.ReferrerPolicy)
			}
			if cfg.EnableHSTS && r.TLS != nil {
				h.Set("Strict-Transport-Security", hsts)
			}
			if cfg.ContentSecurityPolicy != "" && !strings.HasPrefix(r.URL.Path, "/swagger") {
				h.Set("Content-Security-Policy", cfg.ContentSecurityPolicy)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ===============================
// CORS
// ===============================

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string      `json:"allowed_origins"`
	AllowedMethods   []string      `json:"allowed_methods"`
	AllowedHeaders   []string      `json:"allowed_headers"`
	ExposedHeaders   []string      `json:"exposed_headers"`
	AllowCredentials bool          `json:"allow_credentials"`
	MaxAge           time.Duration `json:"max_age"`
}

// CORSConfigFrom builds CORS settings from the security section of the
// application config.
func CORSConfigFrom(sec config.SecurityConfig) *CORSConfig {
	cfg := &CORSConfig{
		AllowedOrigins:   sec.CORSAllowedOrigins,
		AllowedMethods:   sec.CORSAllowedMethods,
		AllowedHeaders:   sec.CORSAllowedHeaders,
		ExposedHeaders:   []string{HeaderXRequestID, "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedMethods) == 0 {
		cfg.AllowedMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	}
	if len(cfg.AllowedHeaders) == 0 {
		cfg.AllowedHeaders = []string{"Authorization", "Content-Type", HeaderXRequestID}
	}
	return cfg
}

// CORS answers preflight requests and tags responses for allowed origins.
// Requests from other origins are served without CORS headers and left
// for the browser to block.
func CORS(cfg *CORSConfig) func(http.Handler) http.Handler {
	methods := strings.Join(cfg.AllowedMethods, ", ")
	headers := strings.Join(cfg.AllowedHeaders, ", ")
	exposed := strings.Join(cfg.ExposedHeaders, ", ")
	maxAge := strconv.Itoa(int(cfg.MaxAge.Seconds()))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" || !isOriginAllowed(origin, cfg.AllowedOrigins) {
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Add("Vary", "Origin")
			h.Set("Access-Control-Allow-Origin", origin)
			if cfg.AllowCredentials {
				h.Set("Access-Control-Allow-Credentials", "true")
			}
			if exposed != "" {
				h.Set("Access-Control-Expose-Headers", exposed)
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				h.Set("Access-Control-Allow-Methods", methods)
				h.Set("Access-Control-Allow-Headers", headers)
				h.Set("Access-Control-Max-Age", maxAge)
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// isOriginAllowed matches exact origins, "*" and "*.example.com" patterns.
func isOriginAllowed(origin string, allowed []string) bool {
	for _, pattern := range allowed {
		switch {
		case pattern == "*" || strings.EqualFold(pattern, origin):
			return true
		case strings.HasPrefix(pattern, "*."):
			suffix := pattern[1:]
			if _, host, ok := strings.Cut(origin, "://"); ok && strings.HasSuffix(host, suffix) {
				return true
			}
		}
	}
	return false
}
