package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// HealthStatus is the result of one round of checks.
type HealthStatus struct {
	Status          string                 `json:"status"`
	Timestamp       time.Time              `json:"timestamp"`
	ResponseTime    time.Duration          `json:"response_time"`
	ConnectionCount int                    `json:"connection_count"`
	Errors          []string               `json:"errors,omitempty"`
	Details         map[string]interface{} `json:"details"`
}

// Health check statuses
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
	StatusShutdown  = "shutdown"
)

// 🏥 HEALTH CHECKER
type HealthChecker struct {
	manager *Manager
	logger  *zap.Logger

	mu       sync.RWMutex
	last     *HealthStatus
	isActive int32

	consecutiveFailures int32
	alertThreshold      int32

	checkInterval  time.Duration
	timeout        time.Duration
	criticalTables []string

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewHealthChecker creates a checker. Monitoring starts with StartMonitoring.
func NewHealthChecker(manager *Manager, interval time.Duration, logger *zap.Logger) *HealthChecker {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &HealthChecker{
		manager:        manager,
		logger:         logger,
		isActive:       1,
		alertThreshold: 3,
		checkInterval:  interval,
		timeout:        5 * time.Second,
		criticalTables: []string{"users", "applications", "counters"},
		stopCh:         make(chan struct{}),
	}
}

// Check pings the pool, inspects pool saturation and probes critical tables.
func (hc *HealthChecker) Check(ctx context.Context) *HealthStatus {
	if atomic.LoadInt32(&hc.isActive) == 0 {
		return &HealthStatus{
			Status:    StatusShutdown,
			Timestamp: time.Now(),
			Errors:    []string{"health checker is shut down"},
			Details:   map[string]interface{}{},
		}
	}

	start := time.Now()
	status := &HealthStatus{Timestamp: start, Details: map[string]interface{}{}}

	ctx, cancel := context.WithTimeout(ctx, hc.timeout)
	defer cancel()

	critical := 0
	if err := hc.manager.db.PingContext(ctx); err != nil {
		status.Errors = append(status.Errors, fmt.Sprintf("ping: %v", err))
		critical++
	} else {
		warnings := hc.checkConnectionPool(status)
		for _, table := range hc.criticalTables {
			var one int
			err := hc.manager.db.QueryRowContext(ctx, fmt.Sprintf("SELECT 1 FROM %s LIMIT 1", table)).Scan(&one)
			if err != nil && !errors.Is(err, sql.ErrNoRows) {
				status.Errors = append(status.Errors, fmt.Sprintf("table %s: %v", table, err))
				warnings++
			}
		}
		if warnings > 0 {
			status.Details["warnings"] = warnings
		}
	}

	status.ResponseTime = time.Since(start)
	switch {
	case critical > 0:
		status.Status = StatusUnhealthy
	case len(status.Errors) > 0 || status.Details["pool_warning"] != nil:
		status.Status = StatusDegraded
	default:
		status.Status = StatusHealthy
	}

	hc.record(status)
	return status
}

func (hc *HealthChecker) checkConnectionPool(status *HealthStatus) int {
	stats := hc.manager.db.Stats()
	status.ConnectionCount = stats.OpenConnections
	status.Details["pool"] = map[string]interface{}{
		"max_open":      stats.MaxOpenConnections,
		"open":          stats.OpenConnections,
		"in_use":        stats.InUse,
		"idle":          stats.Idle,
		"wait_count":    stats.WaitCount,
		"wait_duration": stats.WaitDuration.String(),
	}
	if stats.MaxOpenConnections > 0 && float64(stats.InUse) > float64(stats.MaxOpenConnections)*0.9 {
		status.Details["pool_warning"] = "connection pool nearly exhausted"
		return 1
	}
	return 0
}

func (hc *HealthChecker) record(status *HealthStatus) {
	hc.mu.Lock()
	hc.last = status
	hc.mu.Unlock()

	if status.Status == StatusUnhealthy {
		failures := atomic.AddInt32(&hc.consecutiveFailures, 1)
		if failures == hc.alertThreshold {
			hc.logger.Error("🚨 Database unhealthy",
				zap.Int32("consecutive_failures", failures),
				zap.Strings("errors", status.Errors))
		}
		return
	}
	if atomic.SwapInt32(&hc.consecutiveFailures, 0) >= hc.alertThreshold {
		hc.logger.Info("✅ Database recovered", zap.String("status", status.Status))
	}
}

// LastStatus returns the most recent result without running checks.
func (hc *HealthChecker) LastStatus() *HealthStatus {
	hc.mu.RLock()
	defer hc.mu.RUnlock()
	return hc.last
}

// WaitForHealthy polls Check until it reports healthy or ctx ends.
func (hc *HealthChecker) WaitForHealthy(ctx context.Context) error {
	backoff := 500 * time.Millisecond
	for {
		status := hc.Check(ctx)
		if status.Status == StatusHealthy || status.Status == StatusDegraded {
			return nil
		}
		hc.logger.Debug("Database not healthy yet, retrying",
			zap.Strings("errors", status.Errors),
			zap.Duration("backoff", backoff))

		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for database health: %w", ctx.Err())
		case <-time.After(backoff):
		}
		if backoff *= 2; backoff > 10*time.Second {
			backoff = 10 * time.Second
		}
	}
}

// StartMonitoring runs Check every interval until Stop.
func (hc *HealthChecker) StartMonitoring() {
	go func() {
		ticker := time.NewTicker(hc.checkInterval)
		defer ticker.Stop()
		for {
			select {
			case <-hc.stopCh:
				return
			case <-ticker.C:
				hc.Check(context.Background())
			}
		}
	}()
}

// Stop ends background monitoring. Safe to call more than once.
func (hc *HealthChecker) Stop() {
	hc.stopOnce.Do(func() {
		atomic.StoreInt32(&hc.isActive, 0)
		close(hc.stopCh)
	})
}
