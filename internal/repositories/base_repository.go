package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"scholarhub/internal/database"
	"scholarhub/internal/models"

	"go.uber.org/zap"
)

// Sentinel errors repositories wrap so services can classify failures.
var (
	// ErrDuplicate wraps a unique constraint violation.
	ErrDuplicate = errors.New("duplicate record")
	// ErrNotFound is returned by updates and deletes that matched no row.
	ErrNotFound = errors.New("record not found")
)

// BaseRepository provides the operations shared by every repository.
type BaseRepository struct {
	db     *database.Manager
	logger *zap.Logger
	now    func() time.Time
}

// NewBaseRepository creates a base repository.
func NewBaseRepository(db *database.Manager, logger *zap.Logger) *BaseRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BaseRepository{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

// ===============================
// CORE DATABASE OPERATIONS
// ===============================

// ExecContext runs a statement, inside the ctx transaction when present.
func (r *BaseRepository) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return r.db.ExecContext(ctx, query, args...)
}

// QueryContext runs a query that returns rows.
func (r *BaseRepository) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return r.db.QueryContext(ctx, query, args...)
}

// QueryRowContext runs a query that returns a single row.
func (r *BaseRepository) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	return r.db.QueryRowContext(ctx, query, args...)
}

// WithTransaction runs fn in a transaction bound to the context it receives.
func (r *BaseRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.db.WithTransaction(ctx, fn)
}

// ===============================
// QUERY BUILDING
// ===============================

// whereBuilder accumulates AND-ed conditions with numbered placeholders.
type whereBuilder struct {
	clauses []string
	args    []interface{}
}

// add appends a condition; every "?" in cond becomes the next placeholder.
func (w *whereBuilder) add(cond string, args ...interface{}) {
	for _, arg := range args {
		w.args = append(w.args, arg)
		cond = strings.Replace(cond, "?", fmt.Sprintf("$%d", len(w.args)), 1)
	}
	w.clauses = append(w.clauses, cond)
}

func (w *whereBuilder) sql() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

// pageClause renders ORDER BY, LIMIT and OFFSET. Sort columns outside
// allowed fall back to created_at.
func (w *whereBuilder) pageClause(params models.PaginationParams, prefix string, allowed ...string) string {
	params.Normalize()
	sortCol := "created_at"
	for _, col := range allowed {
		if params.Sort == col {
			sortCol = col
			break
		}
	}
	order := "DESC"
	if params.Order == "asc" {
		order = "ASC"
	}

	w.args = append(w.args, params.Limit)
	limitPos := len(w.args)
	w.args = append(w.args, params.Offset)
	offsetPos := len(w.args)

	return fmt.Sprintf(" ORDER BY %s%s %s, %sid %s LIMIT $%d OFFSET $%d",
		prefix, sortCol, order, prefix, order, limitPos, offsetPos)
}

// countArgs returns the filter arguments without pagination values.
func (w *whereBuilder) countArgs() []interface{} {
	return append([]interface{}(nil), w.args...)
}

// ===============================
// PAGINATION HELPERS
// ===============================

// GetTotalCount executes a count query.
func (r *BaseRepository) GetTotalCount(ctx context.Context, countQuery string, args ...interface{}) (int64, error) {
	var total int64
	err := r.QueryRowContext(ctx, countQuery, args...).Scan(&total)
	return total, err
}

// BuildPaginationMeta creates pagination metadata.
func (r *BaseRepository) BuildPaginationMeta(params models.PaginationParams, total int64) models.PaginationMeta {
	params.Normalize()
	totalPages := int((total + int64(params.Limit) - 1) / int64(params.Limit))
	return models.PaginationMeta{
		CurrentPage:  params.Offset/params.Limit + 1,
		TotalPages:   totalPages,
		TotalItems:   total,
		ItemsPerPage: params.Limit,
		HasNext:      int64(params.Offset+params.Limit) < total,
		HasPrev:      params.Offset > 0,
	}
}

// ===============================
// ERROR HELPERS
// ===============================

// IsNotFound checks if error is a "not found" error
func (r *BaseRepository) IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// wrapWriteError annotates a failed write, marking unique violations with
// ErrDuplicate.
func (r *BaseRepository) wrapWriteError(op string, err error) error {
	if database.IsUniqueViolation(err) {
		return fmt.Errorf("failed to %s: %w (%s)", op, ErrDuplicate, database.ConstraintName(err))
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}

// expectRow turns a zero RowsAffected into ErrNotFound.
func expectRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("failed to %s: %w", op, ErrNotFound)
	}
	return nil
}

// GetLogger returns the logger instance
func (r *BaseRepository) GetLogger() *zap.Logger {
	return r.logger
}

// SetClock replaces the time source used for lazy status corrections.
func (r *BaseRepository) SetClock(now func() time.Time) {
	r.now = now
}
