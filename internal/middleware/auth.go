// file: internal/middleware/auth.go
package middleware

import (
	"context"
	"net/http"
	"strings"

	"scholarhub/internal/contextutils"
	"scholarhub/internal/models"
	"scholarhub/internal/response"
	"scholarhub/internal/services"

	"go.uber.org/zap"
)

// TokenVerifier is the part of the auth service the middleware needs.
type TokenVerifier interface {
	VerifyAccessToken(ctx context.Context, token string) (*services.Claims, error)
	ResolvePrincipal(ctx context.Context, claims *services.Claims) (*models.Principal, error)
}

// AuthConfig holds authentication middleware configuration
type AuthConfig struct {
	// AllowQueryToken accepts ?access_token= for clients that cannot set
	// headers, such as browser websockets.
	AllowQueryToken bool `json:"allow_query_token"`

	LogSuccessfulAuth bool `json:"log_successful_auth"`
	LogFailedAuth     bool `json:"log_failed_auth"`
}

// DefaultAuthConfig returns production-ready authentication configuration
func DefaultAuthConfig() *AuthConfig {
	return &AuthConfig{
		AllowQueryToken: true,
		LogFailedAuth:   true,
	}
}

// AuthMiddleware resolves bearer tokens into a Principal.
type AuthMiddleware struct {
	config   *AuthConfig
	verifier TokenVerifier
	builder  *response.Builder
	logger   *zap.Logger
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(verifier TokenVerifier, builder *response.Builder, config *AuthConfig, logger *zap.Logger) *AuthMiddleware {
	if config == nil {
		config = DefaultAuthConfig()
	}
	return &AuthMiddleware{config: config, verifier: verifier, builder: builder, logger: logger}
}

// Authenticate attaches the caller's principal to the request context.
// With required set, requests without valid credentials get a 401.
// Without it, invalid credentials are still rejected but anonymous
// requests pass through.
func (am *AuthMiddleware) Authenticate(required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := am.extractToken(r)
			if token == "" {
				if required {
					am.builder.WriteUnauthorized(w, r, "Authentication required")
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			principal, err := am.resolve(r.Context(), token)
			if err != nil {
				if am.config.LogFailedAuth {
					GetRequestLogger(r.Context()).Info("Authentication failed", zap.Error(err))
				}
				if serviceErr := services.GetServiceError(err); serviceErr.Type == services.ErrTypeInfrastructure {
					am.builder.WriteError(w, r, err)
					return
				}
				am.builder.WriteUnauthorized(w, r, "Invalid or expired token")
				return
			}

			ctx := contextutils.WithPrincipal(r.Context(), principal)
			logger := GetRequestLogger(ctx).With(zap.Int64("user_id", principal.UserID), zap.String("role", string(principal.Role)))
			ctx = contextutils.WithLogger(ctx, logger)
			if am.config.LogSuccessfulAuth {
				logger.Debug("Authenticated request")
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects anonymous requests.
func (am *AuthMiddleware) RequireAuth() func(http.Handler) http.Handler {
	return am.Authenticate(true)
}

// OptionalAuth resolves the caller when credentials are present.
func (am *AuthMiddleware) OptionalAuth() func(http.Handler) http.Handler {
	return am.Authenticate(false)
}

// RequireRole allows only the given roles. It must run after RequireAuth.
func (am *AuthMiddleware) RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := contextutils.GetPrincipal(r.Context())
			if principal == nil {
				am.builder.WriteUnauthorized(w, r, "Authentication required")
				return
			}
			for _, role := range roles {
				if principal.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			am.builder.WriteForbidden(w, r, "Insufficient role for this resource")
		})
	}
}

// RequireBackOffice allows staff and admins.
func (am *AuthMiddleware) RequireBackOffice() func(http.Handler) http.Handler {
	return am.RequireRole(models.RoleAdmin, models.RoleStaff)
}

// RequireAdmin allows admins only.
func (am *AuthMiddleware) RequireAdmin() func(http.Handler) http.Handler {
	return am.RequireRole(models.RoleAdmin)
}

func (am *AuthMiddleware) resolve(ctx context.Context, token string) (*models.Principal, error) {
	claims, err := am.verifier.VerifyAccessToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return am.verifier.ResolvePrincipal(ctx, claims)
}

func (am *AuthMiddleware) extractToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if am.config.AllowQueryToken {
		return r.URL.Query().Get("access_token")
	}
	return ""
}

// GetPrincipal returns the authenticated caller, if any.
func GetPrincipal(ctx context.Context) *models.Principal {
	return contextutils.GetPrincipal(ctx)
}
