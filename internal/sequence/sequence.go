// Package sequence issues per-entity integer identifiers that are
// independent of the storage engine's own primary keys.
package sequence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"scholarhub/internal/cache"

	"go.uber.org/zap"
)

// Counter names, one per entity type.
const (
	UserID        = "user_id"
	JobID         = "job_id"
	ScholarshipID = "scholarship_id"
	ApplicantID   = "applicant_id"
	ApplicationID = "application_id"
	DocumentID    = "document_id"
	AdID          = "ad_id"
)

// Names lists every known counter.
var Names = []string{UserID, JobID, ScholarshipID, ApplicantID, ApplicationID, DocumentID, AdID}

// ErrUnknownCounter is returned for a counter name outside Names.
var ErrUnknownCounter = errors.New("unknown sequence counter")

// IsKnown reports whether name is a registered counter.
func IsKnown(name string) bool {
	for _, n := range Names {
		if n == name {
			return true
		}
	}
	return false
}

// Generator hands out strictly increasing values per counter.
// Next must be a single atomic increment-and-fetch; a value is consumed
// even when the caller later fails to persist its entity.
type Generator interface {
	Next(ctx context.Context, name string) (int64, error)
	Current(ctx context.Context, name string) (int64, error)
}

// QueryRower is satisfied by *sql.DB, *sql.Tx and database.Manager.
type QueryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// ===============================
// POSTGRES BACKEND
// ===============================

const (
	nextQuery = `
		INSERT INTO counters (name, value)
		VALUES ($1, 1)
		ON CONFLICT (name) DO UPDATE SET value = counters.value + 1
		RETURNING value`

	currentQuery = `SELECT value FROM counters WHERE name = $1`
)

type postgresGenerator struct {
	db     QueryRower
	logger *zap.Logger
}

// NewPostgresGenerator returns a generator backed by the counters table.
func NewPostgresGenerator(db QueryRower, logger *zap.Logger) Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresGenerator{db: db, logger: logger}
}

func (g *postgresGenerator) Next(ctx context.Context, name string) (int64, error) {
	if !IsKnown(name) {
		return 0, fmt.Errorf("%w: %s", ErrUnknownCounter, name)
	}
	var value int64
	if err := g.db.QueryRowContext(ctx, nextQuery, name).Scan(&value); err != nil {
		g.logger.Error("Sequence increment failed", zap.String("counter", name), zap.Error(err))
		return 0, fmt.Errorf("failed to advance sequence %s: %w", name, err)
	}
	return value, nil
}

func (g *postgresGenerator) Current(ctx context.Context, name string) (int64, error) {
	if !IsKnown(name) {
		return 0, fmt.Errorf("%w: %s", ErrUnknownCounter, name)
	}
	var value int64
	err := g.db.QueryRowContext(ctx, currentQuery, name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read sequence %s: %w", name, err)
	}
	return value, nil
}

// ===============================
// CACHE (REDIS) BACKEND
// ===============================

type cacheGenerator struct {
	cache  cache.Cache
	prefix string
	logger *zap.Logger
}

// NewCacheGenerator returns a generator backed by the cache's atomic
// Increment (INCRBY on redis).
func NewCacheGenerator(c cache.Cache, prefix string, logger *zap.Logger) Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if prefix == "" {
		prefix = "seq:"
	}
	return &cacheGenerator{cache: c, prefix: prefix, logger: logger}
}

func (g *cacheGenerator) Next(ctx context.Context, name string) (int64, error) {
	if !IsKnown(name) {
		return 0, fmt.Errorf("%w: %s", ErrUnknownCounter, name)
	}
	value, err := g.cache.Increment(ctx, g.prefix+name, 1)
	if err != nil {
		g.logger.Error("Sequence increment failed", zap.String("counter", name), zap.Error(err))
		return 0, fmt.Errorf("failed to advance sequence %s: %w", name, err)
	}
	return value, nil
}

func (g *cacheGenerator) Current(ctx context.Context, name string) (int64, error) {
	if !IsKnown(name) {
		return 0, fmt.Errorf("%w: %s", ErrUnknownCounter, name)
	}
	raw, ok := g.cache.Get(ctx, g.prefix+name)
	if !ok {
		return 0, nil
	}
	switch v := raw.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	}
	return 0, fmt.Errorf("sequence %s holds a non-numeric value", name)
}
