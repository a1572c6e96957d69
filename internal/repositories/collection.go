// file: internal/repositories/collection.go
package repositories

import (
	"context"
	"fmt"
	"time"

	"scholarhub/internal/database"
	"scholarhub/internal/models"

	"go.uber.org/zap"
)

// Collection holds all repository instances for dependency injection
type Collection struct {
	User        UserRepository
	Staff       StaffRepository
	Applicant   ApplicantRepository
	Listing     ListingRepository
	Application ApplicationRepository
	Document    DocumentRepository
	Ad          AdRepository

	db     *database.Manager
	logger *zap.Logger
}

// NewCollection creates a new repository collection with all dependencies
func NewCollection(db *database.Manager, logger *zap.Logger) (*Collection, error) {
	if db == nil {
		return nil, fmt.Errorf("database manager is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Collection{
		User:        NewUserRepository(db, logger),
		Staff:       NewStaffRepository(db, logger),
		Applicant:   NewApplicantRepository(db, logger),
		Listing:     NewListingRepository(db, logger),
		Application: NewApplicationRepository(db, logger),
		Document:    NewDocumentRepository(db, logger),
		Ad:          NewAdRepository(db, logger),
		db:          db,
		logger:      logger,
	}

	logger.Info("Repository collection initialized successfully")
	return c, nil
}

// ===============================
// TRANSACTION MANAGEMENT
// ===============================

// WithTransaction executes fn within one database transaction. Every
// repository called with the context fn receives joins that transaction.
func (c *Collection) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return c.db.WithTransaction(ctx, fn)
}

// ===============================
// HEALTH AND MONITORING
// ===============================

// HealthCheck reports database health, per-repository probes and query stats.
func (c *Collection) HealthCheck(ctx context.Context) map[string]interface{} {
	health := make(map[string]interface{})

	dbHealth := c.db.Health(ctx)
	health["database"] = map[string]interface{}{
		"status":        dbHealth.Status,
		"response_time": dbHealth.ResponseTime,
		"errors":        dbHealth.Errors,
	}

	health["repositories"] = c.checkRepositoriesHealth(ctx)

	stats := c.db.Snapshot()
	health["performance"] = map[string]interface{}{
		"query_count":        stats.QueryCount,
		"error_count":        stats.ErrorCount,
		"slow_query_count":   stats.SlowQueryCount,
		"avg_query_duration": stats.AvgQueryDuration,
	}

	return health
}

func (c *Collection) checkRepositoriesHealth(ctx context.Context) map[string]interface{} {
	probe := models.PaginationParams{Limit: 1}
	checks := make(map[string]interface{})

	checks["user"] = c.testRepositoryHealth("users", func() error {
		_, err := c.User.List(ctx, "", probe)
		return err
	})
	checks["application"] = c.testRepositoryHealth("applications", func() error {
		_, err := c.Application.Stats(ctx, models.ApplicationFilter{})
		return err
	})
	checks["ad"] = c.testRepositoryHealth("ads", func() error {
		_, err := c.Ad.List(ctx, AdFilter{LiveOnly: true}, probe)
		return err
	})

	return checks
}

func (c *Collection) testRepositoryHealth(name string, testFn func() error) map[string]interface{} {
	start := time.Now()
	err := testFn()
	duration := time.Since(start)

	result := map[string]interface{}{
		"duration": duration,
		"healthy":  err == nil,
	}
	if err != nil {
		result["error"] = err.Error()
		c.logger.Warn("Repository health check failed",
			zap.String("repository", name),
			zap.Error(err),
			zap.Duration("duration", duration),
		)
	}
	return result
}

// GetDB returns the underlying database manager for advanced operations
func (c *Collection) GetDB() *database.Manager {
	return c.db
}

// GetLogger returns the logger instance
func (c *Collection) GetLogger() *zap.Logger {
	return c.logger
}

// Close closes the database connections
func (c *Collection) Close() error {
	c.logger.Info("Closing repository collection")
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}
