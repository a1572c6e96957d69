package contextutils

import (
	"context"

	"scholarhub/internal/models"

	"go.uber.org/zap"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	principalKey contextKey = "principal"
	loggerKey    contextKey = "logger"
)

// GetRequestID retrieves the request ID from the context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// WithRequestID adds the request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetPrincipal returns the authenticated caller, or nil.
func GetPrincipal(ctx context.Context) *models.Principal {
	if p, ok := ctx.Value(principalKey).(*models.Principal); ok {
		return p
	}
	return nil
}

// WithPrincipal stores the authenticated caller.
func WithPrincipal(ctx context.Context, p *models.Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// GetUserID retrieves the authenticated user ID, or 0.
func GetUserID(ctx context.Context) int64 {
	if p := GetPrincipal(ctx); p != nil {
		return p.UserID
	}
	return 0
}

// GetLogger returns the request-scoped logger, falling back to fallback.
func GetLogger(ctx context.Context, fallback *zap.Logger) *zap.Logger {
	if l, ok := ctx.Value(loggerKey).(*zap.Logger); ok && l != nil {
		return l
	}
	if fallback == nil {
		return zap.NewNop()
	}
	return fallback
}

// WithLogger stores a request-scoped logger.
func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}
