// file: internal/middleware/structured_logger.go
package middleware

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggingConfig holds configuration for structured logging middleware
type LoggingConfig struct {
	SlowRequestThreshold time.Duration `json:"slow_request_threshold"`
	LogUserAgent         bool          `json:"log_user_agent"`
	// SkipPaths are logged at debug level only.
	SkipPaths []string `json:"skip_paths"`
}

// DefaultLoggingConfig returns production-ready logging configuration
func DefaultLoggingConfig() *LoggingConfig {
	return &LoggingConfig{
		SlowRequestThreshold: time.Second,
		LogUserAgent:         true,
		SkipPaths:            []string{"/health", "/metrics"},
	}
}

// StructuredLogging logs one line per completed request, at a level
// derived from the response status.
func StructuredLogging(config *LoggingConfig) func(http.Handler) http.Handler {
	if config == nil {
		config = DefaultLoggingConfig()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := GetRequestStart(r.Context())
			writer := wrapResponseWriter(w)

			next.ServeHTTP(writer, r)

			duration := time.Since(start)
			logger := GetRequestLogger(r.Context())

			fields := []zap.Field{
				zap.Int("status", writer.status),
				zap.Duration("duration", duration),
				zap.Int64("response_size", writer.bytesWritten),
				zap.String("query", r.URL.RawQuery),
			}
			if config.LogUserAgent {
				fields = append(fields, zap.String("user_agent", r.UserAgent()))
			}

			level := levelForStatus(writer.status)
			if level == zapcore.InfoLevel && isSkipPath(r.URL.Path, config.SkipPaths) {
				level = zapcore.DebugLevel
			}
			if ce := logger.Check(level, "Request completed"); ce != nil {
				ce.Write(fields...)
			}

			if config.SlowRequestThreshold > 0 && duration > config.SlowRequestThreshold {
				logger.Warn("Slow request detected",
					zap.Duration("duration", duration),
					zap.Duration("threshold", config.SlowRequestThreshold),
				)
			}
		})
	}
}

func levelForStatus(status int) zapcore.Level {
	switch {
	case status >= 500:
		return zapcore.ErrorLevel
	case status >= 400:
		return zapcore.WarnLevel
	default:
		return zapcore.InfoLevel
	}
}

func isSkipPath(path string, skip []string) bool {
	for _, p := range skip {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}
