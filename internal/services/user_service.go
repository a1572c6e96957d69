// file: internal/services/user_service.go
package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"scholarhub/internal/events"
	"scholarhub/internal/models"
	"scholarhub/internal/policy"
	"scholarhub/internal/repositories"
	"scholarhub/internal/sequence"
	"scholarhub/internal/validation"

	"go.uber.org/zap"
	"golang.org/x/exp/slices"
)

// userService implements UserService
type userService struct {
	users  repositories.UserRepository
	staff  repositories.StaffRepository
	tx     repositories.Transactor
	seq    sequence.Generator
	auth   AuthService
	events events.EventBus
	logger *zap.Logger
	now    func() time.Time
}

// NewUserService creates the account administration service.
func NewUserService(
	users repositories.UserRepository,
	staff repositories.StaffRepository,
	tx repositories.Transactor,
	seq sequence.Generator,
	auth AuthService,
	bus events.EventBus,
	logger *zap.Logger,
) UserService {
	return &userService{
		users:  users,
		staff:  staff,
		tx:     tx,
		seq:    seq,
		auth:   auth,
		events: bus,
		logger: nopIfNil(logger),
		now:    defaultNow,
	}
}

// GetUser reads an account. Users can always read themselves.
func (s *userService) GetUser(ctx context.Context, p *models.Principal, id int64) (*models.User, error) {
	if err := authorize(p, policy.UserResource(id), policy.Read); err != nil {
		return nil, err
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, repositoryError("user", id, err)
	}
	if user == nil {
		return nil, EntityNotFoundError("user", id)
	}
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context, p *models.Principal, role models.Role, params models.PaginationParams) (*models.PaginatedResponse[*models.User], error) {
	if err := requireBackOffice(p); err != nil {
		return nil, err
	}
	if err := authorize(p, policy.UserResource(0), policy.Read); err != nil {
		return nil, err
	}
	if role != "" && !role.Valid() {
		return nil, NewValidationError("unknown role", nil).WithDetail("role", string(role))
	}
	params.Normalize()
	page, err := s.users.List(ctx, role, params)
	if err != nil {
		return nil, repositoryError("user", nil, err)
	}
	return page, nil
}

// CreateStaff creates a staff user and its profile in one transaction.
func (s *userService) CreateStaff(ctx context.Context, p *models.Principal, req *CreateStaffRequest) (*StaffAccount, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	if err := validation.ValidateStruct(req); err != nil {
		return nil, validationError(err)
	}
	perms, err := permissionSet(req.Permissions)
	if err != nil {
		return nil, err
	}

	user, err := s.newUser(ctx, req.Email, req.Password, models.RoleStaff)
	if err != nil {
		return nil, err
	}
	profile := &models.StaffProfile{
		UserID:      user.ID,
		Department:  models.SanitizeString(req.Department),
		Position:    models.SanitizeString(req.Position),
		Permissions: perms,
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.users.Create(ctx, user); err != nil {
			return err
		}
		return s.staff.Create(ctx, profile)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, NewConflictError("email is already registered", "EMAIL_TAKEN")
		}
		return nil, repositoryError("user", user.ID, err)
	}

	s.logger.Info("Staff account created",
		zap.Int64("user_id", user.ID),
		zap.Int64("created_by", p.UserID),
		zap.Strings("permissions", perms.Granted()))
	publish(ctx, s.events, s.logger, events.NewUserEvent(events.UserRegistered, user.ID, user.Email, string(user.Role)))
	return &StaffAccount{User: user, Profile: profile}, nil
}

// UpdateStaffPermissions replaces a staff member's permission set.
func (s *userService) UpdateStaffPermissions(ctx context.Context, p *models.Principal, userID int64, req *UpdatePermissionsRequest) (*models.StaffProfile, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	if err := validation.ValidateStruct(req); err != nil {
		return nil, validationError(err)
	}
	perms, err := permissionSet(req.Permissions)
	if err != nil {
		return nil, err
	}

	profile, err := s.staff.GetByUserID(ctx, userID)
	if err != nil {
		return nil, repositoryError("staff profile", userID, err)
	}
	if profile == nil {
		return nil, EntityNotFoundError("staff profile", userID)
	}
	if err := s.staff.UpdatePermissions(ctx, userID, perms); err != nil {
		return nil, repositoryError("staff profile", userID, err)
	}
	profile.Permissions = perms
	profile.UpdatedAt = s.now()

	s.logger.Info("Staff permissions updated",
		zap.Int64("user_id", userID),
		zap.Int64("updated_by", p.UserID),
		zap.Strings("permissions", perms.Granted()))
	return profile, nil
}

// SetUserActive soft-enables or disables an account. Admins cannot
// deactivate themselves.
func (s *userService) SetUserActive(ctx context.Context, p *models.Principal, userID int64, active bool) (*models.User, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	if !active && userID == p.UserID {
		return nil, NewConflictError("administrators cannot deactivate themselves", "SELF_DEACTIVATION")
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, repositoryError("user", userID, err)
	}
	if user == nil {
		return nil, EntityNotFoundError("user", userID)
	}
	if user.IsActive == active {
		return user, nil
	}
	if err := s.users.SetActive(ctx, userID, active); err != nil {
		return nil, repositoryError("user", userID, err)
	}
	user.IsActive = active
	user.UpdatedAt = s.now()

	s.logger.Info("User activation changed",
		zap.Int64("user_id", userID),
		zap.Bool("active", active),
		zap.Int64("changed_by", p.UserID))
	if !active {
		publish(ctx, s.events, s.logger, events.NewUserEvent(events.UserDeactivated, user.ID, user.Email, string(user.Role)))
	}
	return user, nil
}

// CreateAdmin creates an administrator account.
func (s *userService) CreateAdmin(ctx context.Context, email, password string) (*models.User, error) {
	if verr := models.EmailValidator("email", email); verr != nil {
		return nil, NewFieldValidationError(models.ValidationErrors{*verr})
	}
	user, err := s.newUser(ctx, email, password, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, NewConflictError("email is already registered", "EMAIL_TAKEN")
		}
		return nil, repositoryError("user", user.ID, err)
	}
	s.logger.Info("Administrator created", zap.Int64("user_id", user.ID))
	return user, nil
}

// newUser checks the email is free, hashes the password and allocates an id.
func (s *userService) newUser(ctx context.Context, email, password string, role models.Role) (*models.User, error) {
	email = models.NormalizeEmail(email)
	if verr := models.PasswordValidator("password", password, 8, false); verr != nil {
		return nil, NewFieldValidationError(models.ValidationErrors{*verr})
	}
	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, repositoryError("user", email, err)
	}
	if existing != nil {
		return nil, NewConflictError("email is already registered", "EMAIL_TAKEN")
	}

	hash, err := s.auth.HashPassword(password)
	if err != nil {
		s.logger.Error("Failed to hash password", zap.Error(err))
		return nil, NewInternalError("failed to process password")
	}
	id, err := allocateID(ctx, s.seq, sequence.UserID, s.logger)
	if err != nil {
		return nil, err
	}
	now := s.now()
	return &models.User{
		ID:           id,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
		IsVerified:   true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func requireAdmin(p *models.Principal) error {
	if p == nil {
		return NewUnauthorizedError("Authentication required")
	}
	if !p.IsAdmin() {
		return NewForbiddenError("admin role required")
	}
	return nil
}

// permissionSet rejects unknown permission names.
func permissionSet(in map[string]bool) (models.StaffPermissions, error) {
	var unknown []string
	perms := make(models.StaffPermissions, len(in))
	for name, granted := range in {
		if !slices.Contains(models.KnownPermissions, name) {
			unknown = append(unknown, name)
			continue
		}
		perms[name] = granted
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, NewValidationError("unknown permissions", nil).
			WithDetail("unknown", unknown).
			WithDetail("allowed", models.KnownPermissions)
	}
	return perms, nil
}
