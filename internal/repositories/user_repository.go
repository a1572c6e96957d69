package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"scholarhub/internal/database"
	"scholarhub/internal/models"

	"go.uber.org/zap"
)

// userRepository implements UserRepository
type userRepository struct {
	*BaseRepository
}

// NewUserRepository creates a user repository
func NewUserRepository(db *database.Manager, logger *zap.Logger) UserRepository {
	return &userRepository{BaseRepository: NewBaseRepository(db, logger)}
}

const userColumns = `id, email, password_hash, role, is_active, is_verified, last_login_at, created_at, updated_at`

func scanUser(row interface{ Scan(...interface{}) error }) (*models.User, error) {
	var u models.User
	var lastLogin sql.NullTime
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.IsActive, &u.IsVerified,
		&lastLogin, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLoginAt = &t
	}
	return &u, nil
}

// Create inserts a user whose id was already allocated.
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, email, password_hash, role, is_active, is_verified)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	err := r.QueryRowContext(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.Role, user.IsActive, user.IsVerified,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return r.wrapWriteError("create user", err)
	}

	r.GetLogger().Info("User created",
		zap.Int64("user_id", user.ID),
		zap.String("role", string(user.Role)))
	return nil
}

// GetByID retrieves a user by id, active or not.
func (r *userRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(r.QueryRowContext(ctx, query, id))
	if err != nil {
		if r.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}
	return u, nil
}

// GetByEmail retrieves a user by case-insensitive email.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`
	u, err := scanUser(r.QueryRowContext(ctx, query, email))
	if err != nil {
		if r.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return u, nil
}

// SetActive enables or disables an account.
func (r *userRepository) SetActive(ctx context.Context, id int64, active bool) error {
	res, err := r.ExecContext(ctx,
		`UPDATE users SET is_active = $2, updated_at = NOW() WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("failed to set user active flag: %w", err)
	}
	return expectRow(res, "set user active flag")
}

// UpdateLastLogin stamps a successful login.
func (r *userRepository) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	_, err := r.ExecContext(ctx, `UPDATE users SET last_login_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

// List pages through users, optionally of one role.
func (r *userRepository) List(ctx context.Context, role models.Role, params models.PaginationParams) (*models.PaginatedResponse[*models.User], error) {
	var w whereBuilder
	if role != "" {
		w.add("role = ?", role)
	}

	total, err := r.GetTotalCount(ctx, `SELECT COUNT(*) FROM users`+w.sql(), w.countArgs()...)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	query := `SELECT ` + userColumns + ` FROM users` + w.sql() + w.pageClause(params, "", "created_at", "updated_at")
	rows, err := r.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	return &models.PaginatedResponse[*models.User]{
		Data:       users,
		Pagination: r.BuildPaginationMeta(params, total),
	}, nil
}

// ===============================
// STAFF PROFILES
// ===============================

type staffRepository struct {
	*BaseRepository
}

// NewStaffRepository creates a staff profile repository
func NewStaffRepository(db *database.Manager, logger *zap.Logger) StaffRepository {
	return &staffRepository{BaseRepository: NewBaseRepository(db, logger)}
}

// Create inserts the staff profile of an existing staff user.
func (r *staffRepository) Create(ctx context.Context, p *models.StaffProfile) error {
	query := `
		INSERT INTO staff_profiles (user_id, department, position, permissions)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`

	err := r.QueryRowContext(ctx, query, p.UserID, p.Department, p.Position, p.Permissions).
		Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return r.wrapWriteError("create staff profile", err)
	}
	return nil
}

// GetByUserID loads the staff profile of a user.
func (r *staffRepository) GetByUserID(ctx context.Context, userID int64) (*models.StaffProfile, error) {
	query := `
		SELECT user_id, department, position, permissions, created_at, updated_at
		FROM staff_profiles WHERE user_id = $1`

	var p models.StaffProfile
	err := r.QueryRowContext(ctx, query, userID).Scan(
		&p.UserID, &p.Department, &p.Position, &p.Permissions, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if r.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get staff profile: %w", err)
	}
	if p.Permissions == nil {
		p.Permissions = models.StaffPermissions{}
	}
	return &p, nil
}

// UpdatePermissions replaces the permission set.
func (r *staffRepository) UpdatePermissions(ctx context.Context, userID int64, perms models.StaffPermissions) error {
	res, err := r.ExecContext(ctx,
		`UPDATE staff_profiles SET permissions = $2, updated_at = NOW() WHERE user_id = $1`,
		userID, perms)
	if err != nil {
		return fmt.Errorf("failed to update staff permissions: %w", err)
	}
	return expectRow(res, "update staff permissions")
}
