// file: internal/services/auth_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"scholarhub/internal/cache"
	"scholarhub/internal/config"
	"scholarhub/internal/events"
	"scholarhub/internal/models"
	"scholarhub/internal/repositories"
	"scholarhub/internal/sequence"
	"scholarhub/internal/validation"

	"github.com/gofrs/uuid"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Token types carried in the typ claim.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

const revokedKeyPrefix = "revoked:"

// Claims are the JWT claims issued for both token types.
type Claims struct {
	UserID    int64       `json:"uid"`
	Role      models.Role `json:"role"`
	TokenType string      `json:"typ"`
	jwt.RegisteredClaims
}

// authService implements AuthService with HS256 tokens and bcrypt hashes.
type authService struct {
	users      repositories.UserRepository
	staff      repositories.StaffRepository
	applicants repositories.ApplicantRepository
	tx         repositories.Transactor
	seq        sequence.Generator
	cache      cache.Cache
	events     events.EventBus
	logger     *zap.Logger
	authConfig config.AuthConfig
	now        func() time.Time
}

// NewAuthService creates the credential service.
func NewAuthService(
	users repositories.UserRepository,
	staff repositories.StaffRepository,
	applicants repositories.ApplicantRepository,
	tx repositories.Transactor,
	seq sequence.Generator,
	c cache.Cache,
	bus events.EventBus,
	cfg config.AuthConfig,
	logger *zap.Logger,
) AuthService {
	if cfg.BCryptCost == 0 {
		cfg.BCryptCost = bcrypt.DefaultCost
	}
	if cfg.AccessTokenTTL == 0 {
		cfg.AccessTokenTTL = 15 * time.Minute
	}
	if cfg.RefreshTokenTTL == 0 {
		cfg.RefreshTokenTTL = 7 * 24 * time.Hour
	}
	return &authService{
		users:      users,
		staff:      staff,
		applicants: applicants,
		tx:         tx,
		seq:        seq,
		cache:      c,
		events:     bus,
		logger:     nopIfNil(logger),
		authConfig: cfg,
		now:        defaultNow,
	}
}

// ===============================
// AUTHENTICATION
// ===============================

// Register creates an applicant account with an empty profile.
func (s *authService) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	if !s.authConfig.AllowRegistration {
		return nil, NewForbiddenError("registration is disabled")
	}
	if err := validation.ValidateStruct(req); err != nil {
		return nil, validationError(err)
	}
	if err := s.checkPassword(req.Password); err != nil {
		return nil, err
	}

	email := models.NormalizeEmail(req.Email)
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, repositoryError("user", email, err)
	}
	if existing != nil {
		return nil, NewConflictError("email is already registered", "EMAIL_TAKEN")
	}

	hash, err := s.HashPassword(req.Password)
	if err != nil {
		s.logger.Error("Failed to hash password", zap.Error(err))
		return nil, NewInternalError("failed to process password")
	}

	userID, err := allocateID(ctx, s.seq, sequence.UserID, s.logger)
	if err != nil {
		return nil, err
	}
	applicantID, err := allocateID(ctx, s.seq, sequence.ApplicantID, s.logger)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user := &models.User{
		ID:           userID,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleApplicant,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	profile := &models.Applicant{
		ID:        applicantID,
		UserID:    userID,
		FirstName: models.SanitizeString(req.FirstName),
		LastName:  models.SanitizeString(req.LastName),
		Phone:     models.SanitizeString(req.Phone),
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.users.Create(ctx, user); err != nil {
			return err
		}
		return s.applicants.Create(ctx, profile)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, NewConflictError("email is already registered", "EMAIL_TAKEN")
		}
		return nil, repositoryError("user", userID, err)
	}

	s.logger.Info("Applicant registered", zap.Int64("user_id", user.ID), zap.Int64("applicant_id", profile.ID))
	publish(ctx, s.events, s.logger, events.NewUserEvent(events.UserRegistered, user.ID, user.Email, string(user.Role)))

	return s.issueTokens(user)
}

// Login checks credentials and issues a token pair.
func (s *authService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, validationError(err)
	}

	user, err := s.users.GetByEmail(ctx, models.NormalizeEmail(req.Email))
	if err != nil {
		return nil, repositoryError("user", req.Email, err)
	}
	if user == nil {
		return nil, NewUnauthorizedError("invalid credentials")
	}
	if !user.IsActive {
		return nil, NewUnauthorizedError("account is deactivated")
	}
	if !s.VerifyPassword(user.PasswordHash, req.Password) {
		s.logger.Warn("Invalid password attempt",
			zap.Int64("user_id", user.ID),
			zap.String("ip_address", req.IPAddress))
		return nil, NewUnauthorizedError("invalid credentials")
	}

	now := s.now()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn("Failed to update last login", zap.Int64("user_id", user.ID), zap.Error(err))
	} else {
		user.LastLoginAt = &now
	}

	resp, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("User logged in",
		zap.Int64("user_id", user.ID),
		zap.String("role", string(user.Role)),
		zap.String("ip_address", req.IPAddress))
	publish(ctx, s.events, s.logger, events.NewUserEvent(events.UserLoggedIn, user.ID, user.Email, string(user.Role)))
	return resp, nil
}

// RefreshToken exchanges a refresh token for a new pair. The presented
// token is revoked so it cannot be replayed.
func (s *authService) RefreshToken(ctx context.Context, req *RefreshTokenRequest) (*AuthResponse, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, validationError(err)
	}

	claims, err := s.parse(req.RefreshToken, TokenTypeRefresh)
	if err != nil {
		return nil, err
	}
	if s.cache.Exists(ctx, revokedKeyPrefix+claims.ID) {
		s.logger.Warn("Revoked refresh token presented", zap.Int64("user_id", claims.UserID), zap.String("jti", claims.ID))
		return nil, NewUnauthorizedError("refresh token has been revoked")
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, repositoryError("user", claims.UserID, err)
	}
	if user == nil || !user.IsActive {
		return nil, NewUnauthorizedError("account is not active")
	}

	if err := s.revoke(ctx, claims); err != nil {
		return nil, err
	}

	resp, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}
	publish(ctx, s.events, s.logger, events.NewTokenRefreshedEvent(user.ID, claims.ID, s.now().Add(s.authConfig.RefreshTokenTTL)))
	return resp, nil
}

// Logout revokes the refresh token. Expired or malformed tokens are
// already unusable and are accepted silently.
func (s *authService) Logout(ctx context.Context, req *LogoutRequest) error {
	if err := validation.ValidateStruct(req); err != nil {
		return validationError(err)
	}
	claims, err := s.parse(req.RefreshToken, TokenTypeRefresh)
	if err != nil {
		return nil
	}
	if err := s.revoke(ctx, claims); err != nil {
		return err
	}
	s.logger.Info("User logged out", zap.Int64("user_id", claims.UserID))
	return nil
}

// ===============================
// TOKENS & PASSWORDS
// ===============================

// HashPassword hashes with the configured bcrypt cost.
func (s *authService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.authConfig.BCryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether password matches hash.
func (s *authService) VerifyPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// VerifyAccessToken validates signature, expiry and token type.
func (s *authService) VerifyAccessToken(ctx context.Context, token string) (*Claims, error) {
	return s.parse(token, TokenTypeAccess)
}

// ResolvePrincipal loads the current state of the token's user. A user
// deactivated after the token was issued is rejected.
func (s *authService) ResolvePrincipal(ctx context.Context, claims *Claims) (*models.Principal, error) {
	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, repositoryError("user", claims.UserID, err)
	}
	if user == nil || !user.IsActive {
		return nil, NewUnauthorizedError("account is not active")
	}

	var profile *models.StaffProfile
	if user.Role == models.RoleStaff {
		profile, err = s.staff.GetByUserID(ctx, user.ID)
		if err != nil {
			return nil, repositoryError("staff profile", user.ID, err)
		}
	}
	return models.NewPrincipal(user, profile), nil
}

func (s *authService) checkPassword(password string) error {
	if verr := models.PasswordValidator("password", password, s.authConfig.MinPasswordLength, s.authConfig.RequireSpecialChars); verr != nil {
		return NewFieldValidationError(models.ValidationErrors{*verr})
	}
	return nil
}

func (s *authService) issueTokens(user *models.User) (*AuthResponse, error) {
	access, err := s.sign(user, TokenTypeAccess, s.authConfig.AccessTokenTTL)
	if err != nil {
		s.logger.Error("Failed to generate access token", zap.Error(err))
		return nil, NewInternalError("failed to generate access token")
	}
	refresh, err := s.sign(user, TokenTypeRefresh, s.authConfig.RefreshTokenTTL)
	if err != nil {
		s.logger.Error("Failed to generate refresh token", zap.Error(err))
		return nil, NewInternalError("failed to generate refresh token")
	}

	out := *user
	out.PasswordHash = ""
	return &AuthResponse{
		User:             &out,
		AccessToken:      access,
		RefreshToken:     refresh,
		ExpiresIn:        int64(s.authConfig.AccessTokenTTL.Seconds()),
		RefreshExpiresIn: int64(s.authConfig.RefreshTokenTTL.Seconds()),
		TokenType:        "Bearer",
	}, nil
}

func (s *authService) sign(user *models.User, tokenType string, ttl time.Duration) (string, error) {
	jti, err := uuid.NewV4()
	if err != nil {
		return "", fmt.Errorf("failed to generate token id: %w", err)
	}
	now := s.now()
	claims := Claims{
		UserID:    user.ID,
		Role:      user.Role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti.String(),
			Subject:   strconv.FormatInt(user.ID, 10),
			Issuer:    s.authConfig.JWTIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.authConfig.JWTSecret))
}

func (s *authService) parse(token, tokenType string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	}
	if s.authConfig.JWTIssuer != "" {
		opts = append(opts, jwt.WithIssuer(s.authConfig.JWTIssuer))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.authConfig.JWTSecret), nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, NewUnauthorizedError("token has expired")
		}
		return nil, NewUnauthorizedError("invalid token")
	}
	if claims.TokenType != tokenType {
		return nil, NewUnauthorizedError("wrong token type")
	}
	return claims, nil
}

// revoke blocks the token's jti until the token would have expired anyway.
func (s *authService) revoke(ctx context.Context, claims *Claims) error {
	ttl := time.Minute
	if claims.ExpiresAt != nil {
		if remaining := claims.ExpiresAt.Sub(s.now()); remaining > ttl {
			ttl = remaining
		}
	}
	if err := s.cache.Set(ctx, revokedKeyPrefix+claims.ID, claims.UserID, ttl); err != nil {
		s.logger.Error("Failed to revoke refresh token", zap.String("jti", claims.ID), zap.Error(err))
		return NewInfrastructureError("failed to revoke token", err)
	}
	return nil
}
