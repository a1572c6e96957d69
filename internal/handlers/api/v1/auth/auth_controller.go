// ===============================
// FILE: internal/handlers/api/v1/auth/auth_controller.go
// ===============================

package auth

import (
	"net/http"

	"scholarhub/internal/contextutils"
	"scholarhub/internal/handlers/api/v1/common"
	"scholarhub/internal/response"
	"scholarhub/internal/services"

	"go.uber.org/zap"
)

// AuthController handles authentication API endpoints
type AuthController struct {
	serviceCollection *services.ServiceCollection
	logger            *zap.Logger
	responseBuilder   *response.Builder
}

// NewAuthController creates a new authentication controller
func NewAuthController(
	serviceCollection *services.ServiceCollection,
	logger *zap.Logger,
	responseBuilder *response.Builder,
) *AuthController {
	return &AuthController{
		serviceCollection: serviceCollection,
		logger:            logger,
		responseBuilder:   responseBuilder,
	}
}

// ===============================
// AUTHENTICATION ENDPOINTS
// ===============================

// Register handles applicant registration - POST /api/v1/auth/register
func (c *AuthController) Register(w http.ResponseWriter, r *http.Request) {
	logger := c.requestLogger(r, "register")

	var req services.RegisterRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	authResp, err := c.serviceCollection.AuthService.Register(r.Context(), &req)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	logger.Info("User registered", zap.Int64("user_id", authResp.User.ID))
	c.responseBuilder.WriteCreated(w, r, authResp)
}

// Login handles user authentication - POST /api/v1/auth/login
func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	logger := c.requestLogger(r, "login")

	var req services.LoginRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	req.IPAddress = r.RemoteAddr
	req.UserAgent = r.UserAgent()

	authResp, err := c.serviceCollection.AuthService.Login(r.Context(), &req)
	if err != nil {
		logger.Info("Login failed", zap.Error(err))
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	logger.Info("User logged in", zap.Int64("user_id", authResp.User.ID), zap.String("role", string(authResp.User.Role)))
	c.responseBuilder.WriteSuccess(w, r, authResp)
}

// RefreshToken handles token refresh - POST /api/v1/auth/refresh
func (c *AuthController) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req services.RefreshTokenRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	authResp, err := c.serviceCollection.AuthService.RefreshToken(r.Context(), &req)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	c.responseBuilder.WriteSuccess(w, r, authResp)
}

// Logout revokes a refresh token - POST /api/v1/auth/logout
func (c *AuthController) Logout(w http.ResponseWriter, r *http.Request) {
	var req services.LogoutRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	if err := c.serviceCollection.AuthService.Logout(r.Context(), &req); err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	c.requestLogger(r, "logout").Info("User logged out")
	c.responseBuilder.WriteSuccess(w, r, map[string]string{"message": "Logged out"})
}

// Me returns the authenticated principal - GET /api/v1/auth/me
func (c *AuthController) Me(w http.ResponseWriter, r *http.Request) {
	principal, err := common.Principal(r)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	c.responseBuilder.WriteSuccess(w, r, principal)
}

func (c *AuthController) requestLogger(r *http.Request, endpoint string) *zap.Logger {
	return contextutils.GetLogger(r.Context(), c.logger).With(zap.String("endpoint", endpoint))
}
