package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"scholarhub/internal/config"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// 🚀 DATABASE INITIALIZATION
// InitDB connects, applies pending migrations when enabled and waits for
// the health checks to pass.
func InitDB(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		logger, _ = zap.NewProduction()
	}

	logger.Info("🚀 Starting database initialization",
		zap.String("environment", cfg.Server.Environment))

	manager, err := NewManager(ctx, &cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create database manager: %w", err)
	}

	if cfg.Database.AutoMigrate {
		path := determineMigrationsPath(cfg.Database.MigrationsPath)
		if err := manager.MigrateUp(path); err != nil {
			manager.Close()
			return nil, fmt.Errorf("failed to run database migrations: %w", err)
		}
	}

	healthCtx, cancel := context.WithTimeout(ctx, getHealthTimeoutForEnvironment(cfg.Server.Environment))
	defer cancel()
	if err := manager.health.WaitForHealthy(healthCtx); err != nil {
		manager.Close()
		return nil, fmt.Errorf("database failed to become healthy: %w", err)
	}

	manager.health.StartMonitoring()
	logger.Info("🎉 Database initialized successfully",
		zap.Int("max_open_connections", manager.Stats().MaxOpenConnections))

	return manager, nil
}

// ===============================
// MIGRATIONS
// ===============================

func (m *Manager) migrator(migrationsPath string) (*migrate.Migrate, func(), error) {
	// A separate connection keeps the migrator from closing the main pool.
	migrationDB, err := sql.Open("postgres", m.config.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create migration connection: %w", err)
	}

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		migrationDB.Close()
		return nil, nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	mg, err := migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", migrationsPath), "postgres", driver)
	if err != nil {
		migrationDB.Close()
		return nil, nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	return mg, func() { mg.Close() }, nil
}

// MigrateUp applies every pending migration.
func (m *Manager) MigrateUp(migrationsPath string) error {
	mg, closeFn, err := m.migrator(migrationsPath)
	if err != nil {
		return err
	}
	defer closeFn()

	from, dirty, err := mg.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get migration version: %w", err)
	}
	if dirty {
		return fmt.Errorf("database is in dirty state at version %d", from)
	}

	if err := mg.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	to, _, _ := mg.Version()
	m.logger.Info("Migrations completed successfully",
		zap.Uint("from_version", from),
		zap.Uint("to_version", to))
	return nil
}

// MigrateDown rolls back steps migrations.
func (m *Manager) MigrateDown(migrationsPath string, steps int) error {
	if steps <= 0 {
		return fmt.Errorf("steps must be positive")
	}
	mg, closeFn, err := m.migrator(migrationsPath)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := mg.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to roll back migrations: %w", err)
	}
	m.logger.Info("Rolled back migrations", zap.Int("steps", steps))
	return nil
}

// MigrationVersion reports the applied version and dirty flag.
func (m *Manager) MigrationVersion(migrationsPath string) (uint, bool, error) {
	mg, closeFn, err := m.migrator(migrationsPath)
	if err != nil {
		return 0, false, err
	}
	defer closeFn()

	v, dirty, err := mg.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return v, dirty, err
}

// ===============================
// TRANSACTIONS
// ===============================

type txKey struct{}

// ContextWithTx binds tx to ctx so Manager queries run inside it.
func ContextWithTx(ctx context.Context, tx *sql.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// TxFromContext returns the transaction bound to ctx, if any.
func TxFromContext(ctx context.Context) *sql.Tx {
	tx, _ := ctx.Value(txKey{}).(*sql.Tx)
	return tx
}

// WithTransaction runs fn inside one transaction. Nested calls join the
// outer transaction.
func (m *Manager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if TxFromContext(ctx) != nil {
		return fn(ctx)
	}

	tx, err := m.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(ContextWithTx(ctx, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			m.logger.Error("Failed to rollback transaction",
				zap.Error(rbErr),
				zap.NamedError("cause", err))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ===============================
// ERROR CLASSIFICATION
// ===============================

// IsUniqueViolation reports whether err is a postgres unique_violation.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// IsForeignKeyViolation reports whether err is a postgres foreign_key_violation.
func IsForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23503"
}

// ConstraintName returns the violated constraint, or "".
func ConstraintName(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Constraint
	}
	return ""
}

// 📁 MIGRATIONS PATH DETECTION
func determineMigrationsPath(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
	}
	for _, path := range []string{"./migrations", "../migrations", "../../migrations"} {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return "./migrations"
}

func getHealthTimeoutForEnvironment(environment string) time.Duration {
	switch environment {
	case "production":
		return 60 * time.Second
	case "staging":
		return 45 * time.Second
	default:
		return 30 * time.Second
	}
}
