// file: internal/middleware/rate_limiter.go
package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"scholarhub/internal/response"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RateLimiterConfig holds rate limiting configuration
type RateLimiterConfig struct {
	// Requests per Window for each client IP.
	Requests int           `json:"requests"`
	Window   time.Duration `json:"window"`
	Burst    int           `json:"burst"`

	// IdleTTL drops limiters for clients not seen for this long.
	IdleTTL         time.Duration `json:"idle_ttl"`
	CleanupInterval time.Duration `json:"cleanup_interval"`

	WhitelistedIPs []string `json:"whitelisted_ips"`
}

// DefaultRateLimiterConfig returns production-ready rate limiting configuration
func DefaultRateLimiterConfig() *RateLimiterConfig {
	return &RateLimiterConfig{
		Requests:        100,
		Window:          time.Minute,
		Burst:           20,
		IdleTTL:         10 * time.Minute,
		CleanupInterval: time.Minute,
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a per-IP token bucket.
type RateLimiter struct {
	config    *RateLimiterConfig
	limit     rate.Limit
	mu        sync.Mutex
	visitors  map[string]*visitor
	whitelist map[string]struct{}
	builder   *response.Builder
	logger    *zap.Logger
	now       func() time.Time
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(config *RateLimiterConfig, builder *response.Builder, logger *zap.Logger) *RateLimiter {
	if config == nil {
		config = DefaultRateLimiterConfig()
	}
	if config.Burst <= 0 {
		config.Burst = 1
	}
	rl := &RateLimiter{
		config:    config,
		limit:     rate.Every(config.Window / time.Duration(max(config.Requests, 1))),
		visitors:  make(map[string]*visitor),
		whitelist: make(map[string]struct{}, len(config.WhitelistedIPs)),
		builder:   builder,
		logger:    logger,
		now:       time.Now,
	}
	for _, ip := range config.WhitelistedIPs {
		rl.whitelist[ip] = struct{}{}
	}
	return rl
}

// Allow reports whether a request from ip may proceed, and how long to
// wait otherwise.
func (rl *RateLimiter) Allow(ip string) (bool, time.Duration) {
	if _, ok := rl.whitelist[ip]; ok {
		return true, 0
	}

	rl.mu.Lock()
	v, ok := rl.visitors[ip]
	now := rl.now()
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.config.Burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = now
	rl.mu.Unlock()

	reservation := v.limiter.ReserveN(now, 1)
	if !reservation.OK() {
		return false, rl.config.Window
	}
	delay := reservation.DelayFrom(now)
	if delay == 0 {
		return true, 0
	}
	reservation.CancelAt(now)
	return false, delay
}

// Cleanup drops limiters idle for longer than IdleTTL.
func (rl *RateLimiter) Cleanup() int {
	cutoff := rl.now().Add(-rl.config.IdleTTL)
	rl.mu.Lock()
	defer rl.mu.Unlock()
	removed := 0
	for ip, v := range rl.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(rl.visitors, ip)
			removed++
		}
	}
	return removed
}

// Run cleans up idle limiters until ctx is cancelled.
func (rl *RateLimiter) Run(ctx context.Context) {
	if rl.config.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := rl.Cleanup(); n > 0 {
				rl.logger.Debug("Dropped idle rate limiters", zap.Int("count", n))
			}
		}
	}
}

// RateLimit rejects clients that exceed their budget with a 429.
func RateLimit(limiter *RateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := getClientIP(r)
			if ok, retryAfter := limiter.Allow(ip); !ok {
				GetRequestLogger(r.Context()).Warn("Rate limit exceeded", zap.String("ip", ip))
				limiter.builder.WriteTooManyRequests(w, r, retryAfter)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
