// file: internal/middleware/recovery.go
package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"scholarhub/internal/contextutils"
	"scholarhub/internal/response"
	"scholarhub/internal/services"

	"go.uber.org/zap"
)

// RecoveryConfig holds configuration for panic recovery
type RecoveryConfig struct {
	EnableStackTrace bool `json:"enable_stack_trace"`
	MaxStackBytes    int  `json:"max_stack_bytes"`
}

// DefaultRecoveryConfig returns production-ready recovery configuration
func DefaultRecoveryConfig() *RecoveryConfig {
	return &RecoveryConfig{
		EnableStackTrace: true,
		MaxStackBytes:    8 << 10,
	}
}

// Recovery turns a panic into a logged 500 response.
func Recovery(config *RecoveryConfig, builder *response.Builder) func(http.Handler) http.Handler {
	if config == nil {
		config = DefaultRecoveryConfig()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				// Let the server abort the connection as intended.
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				fields := []zap.Field{
					zap.Any("panic", rec),
					zap.String("panic_type", fmt.Sprintf("%T", rec)),
					zap.Int64("user_id", contextutils.GetUserID(r.Context())),
				}
				if config.EnableStackTrace {
					stack := debug.Stack()
					if config.MaxStackBytes > 0 && len(stack) > config.MaxStackBytes {
						stack = stack[:config.MaxStackBytes]
					}
					fields = append(fields, zap.ByteString("stack", stack))
				}
				GetRequestLogger(r.Context()).Error("Panic recovered", fields...)

				builder.WriteError(w, r, services.NewInternalError("An unexpected error occurred"))
			}()

			next.ServeHTTP(w, r)
		})
	}
}
