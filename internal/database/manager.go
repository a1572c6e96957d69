package database

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"scholarhub/internal/config"
	"scholarhub/internal/metrics"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// Executor is the query surface shared by *Manager and *sql.Tx.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Manager wraps the connection pool with metrics, slow query logging and
// transaction scoping.
type Manager struct {
	db     *sql.DB
	logger *zap.Logger
	stats  *QueryStats
	health *HealthChecker
	config *config.DatabaseConfig
	mu     sync.RWMutex
}

// NewManager opens the pool and waits for the server to answer, retrying
// with exponential backoff.
func NewManager(ctx context.Context, cfg *config.DatabaseConfig, logger *zap.Logger) (*Manager, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("database URL is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	configureConnectionPool(db, cfg)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = cfg.RetryBackoff
	ping := func() error {
		pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
		return db.PingContext(pingCtx)
	}
	err = backoff.RetryNotify(
		ping,
		backoff.WithContext(backoff.WithMaxRetries(b, uint64(cfg.MaxRetryAttempts)), ctx),
		func(err error, d time.Duration) {
			logger.Warn("Database not reachable yet, retrying",
				zap.Error(err),
				zap.Duration("backoff", d))
		},
	)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("✅ Database connection established",
		zap.Int("max_open_conns", cfg.MaxOpenConns),
		zap.Int("max_idle_conns", cfg.MaxIdleConns),
		zap.Duration("conn_max_lifetime", cfg.ConnMaxLifetime),
	)

	return NewManagerFromDB(db, cfg, logger), nil
}

// NewManagerFromDB wraps an already opened pool.
func NewManagerFromDB(db *sql.DB, cfg *config.DatabaseConfig, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg == nil {
		cfg = &config.DatabaseConfig{SlowQueryThreshold: 100 * time.Millisecond, HealthCheckInterval: 30 * time.Second}
	}
	m := &Manager{
		db:     db,
		logger: logger,
		config: cfg,
		stats:  NewQueryStats(cfg.SlowQueryThreshold),
	}
	m.health = NewHealthChecker(m, cfg.HealthCheckInterval, logger)
	return m
}

func configureConnectionPool(db *sql.DB, cfg *config.DatabaseConfig) {
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
}

// DB returns the underlying pool.
func (m *Manager) DB() *sql.DB {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.db
}

// ExecContext runs a statement on the transaction bound to ctx, or the pool.
func (m *Manager) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	start := time.Now()
	result, err := m.executor(ctx).ExecContext(ctx, query, args...)
	m.observe(ctx, "exec", query, start, err)
	return result, err
}

// QueryContext runs a query on the transaction bound to ctx, or the pool.
func (m *Manager) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	start := time.Now()
	rows, err := m.executor(ctx).QueryContext(ctx, query, args...)
	m.observe(ctx, "query", query, start, err)
	return rows, err
}

// QueryRowContext runs a single-row query on the transaction bound to ctx,
// or the pool. Scan errors surface to the caller, not here.
func (m *Manager) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	start := time.Now()
	row := m.executor(ctx).QueryRowContext(ctx, query, args...)
	m.observe(ctx, "query_row", query, start, nil)
	return row
}

// BeginTx starts a transaction on the pool.
func (m *Manager) BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error) {
	start := time.Now()
	tx, err := m.db.BeginTx(ctx, opts)
	m.observe(ctx, "begin_tx", "BEGIN", start, err)
	return tx, err
}

func (m *Manager) executor(ctx context.Context) Executor {
	if tx := TxFromContext(ctx); tx != nil {
		return tx
	}
	return m.db
}

func (m *Manager) observe(ctx context.Context, queryType, query string, start time.Time, err error) {
	duration := time.Since(start)
	slow := m.stats.Record(duration, err)
	metrics.ObserveQuery(queryType, duration, err, slow)

	if slow {
		m.logger.Warn("Slow query detected",
			zap.String("type", queryType),
			zap.Duration("duration", duration),
			zap.String("query", truncateQuery(query)),
		)
	}
	if err != nil && err != sql.ErrNoRows && ctx.Err() == nil {
		m.logger.Error("Query execution failed",
			zap.String("type", queryType),
			zap.Error(err),
			zap.String("query", truncateQuery(query)),
		)
	}
}

// Health runs the health checks now.
func (m *Manager) Health(ctx context.Context) *HealthStatus {
	return m.health.Check(ctx)
}

// HealthChecker returns the background checker.
func (m *Manager) HealthChecker() *HealthChecker {
	return m.health
}

// Snapshot returns the accumulated query counters.
func (m *Manager) Snapshot() *StatsSnapshot {
	s := m.stats.Snapshot()
	s.DBStats = m.db.Stats()
	return s
}

// Stats returns pool statistics.
func (m *Manager) Stats() sql.DBStats {
	return m.db.Stats()
}

// Close stops the health checker and closes the pool.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.health != nil {
		m.health.Stop()
	}
	if m.db != nil {
		m.logger.Info("Closing database connection")
		return m.db.Close()
	}
	return nil
}

func truncateQuery(query string) string {
	const maxLength = 200
	if len(query) <= maxLength {
		return query
	}
	return query[:maxLength] + "..."
}
