package models

import (
	"database/sql/driver"
	"sort"
	"time"
)

// Role is the coarse access tier of a user.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleStaff     Role = "staff"
	RoleApplicant Role = "applicant"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleStaff, RoleApplicant:
		return true
	}
	return false
}

// User represents an account. Role never changes after creation.
type User struct {
	ID           int64     `json:"id" db:"id"`
	Email        string    `json:"email" db:"email" validate:"required,email,max=320"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         Role      `json:"role" db:"role" validate:"required,oneof=admin staff applicant"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	IsVerified   bool      `json:"is_verified" db:"is_verified"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`

	LastLoginAt *time.Time `json:"last_login_at,omitempty" db:"last_login_at"`
}

// Staff permission names.
const (
	PermEditApplications   = "can_edit_applications"
	PermDeleteApplications = "can_delete_applications"
	PermManageListings     = "can_manage_listings"
	PermManageAds          = "can_manage_ads"
	PermVerifyDocuments    = "can_verify_documents"
	PermViewUsers          = "can_view_users"
)

// KnownPermissions lists every permission a staff profile may carry.
var KnownPermissions = []string{
	PermEditApplications,
	PermDeleteApplications,
	PermManageListings,
	PermManageAds,
	PermVerifyDocuments,
	PermViewUsers,
}

// StaffPermissions is the named set of boolean capabilities of a staff member.
type StaffPermissions map[string]bool

// Has reports whether the named permission is granted.
func (p StaffPermissions) Has(name string) bool {
	return p[name]
}

// Granted returns the granted permission names in sorted order.
func (p StaffPermissions) Granted() []string {
	out := make([]string, 0, len(p))
	for name, ok := range p {
		if ok {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// Scan implements sql.Scanner
func (p *StaffPermissions) Scan(value interface{}) error {
	return scanJSON(value, p)
}

// Value implements driver.Valuer
func (p StaffPermissions) Value() (driver.Value, error) {
	if p == nil {
		return []byte("{}"), nil
	}
	return jsonValue(map[string]bool(p))
}

// StaffProfile holds staff-only attributes, including permissions.
type StaffProfile struct {
	UserID      int64            `json:"user_id" db:"user_id"`
	Department  string           `json:"department" db:"department"`
	Position    string           `json:"position" db:"position"`
	Permissions StaffPermissions `json:"permissions" db:"permissions"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at" db:"updated_at"`
}

// Principal is the authenticated actor behind a request.
type Principal struct {
	UserID      int64            `json:"user_id"`
	Email       string           `json:"email"`
	Role        Role             `json:"role"`
	Permissions StaffPermissions `json:"permissions,omitempty"`
}

// NewPrincipal builds a principal from a user and its optional staff profile.
func NewPrincipal(u *User, staff *StaffProfile) *Principal {
	p := &Principal{UserID: u.ID, Email: u.Email, Role: u.Role}
	if u.Role == RoleStaff && staff != nil {
		p.Permissions = staff.Permissions
	}
	return p
}

// HasPermission reports whether the principal holds a staff permission.
// Admins hold every permission; applicants hold none.
func (p *Principal) HasPermission(name string) bool {
	if p == nil {
		return false
	}
	switch p.Role {
	case RoleAdmin:
		return true
	case RoleStaff:
		return p.Permissions.Has(name)
	}
	return false
}

// IsAdmin reports whether the principal is an administrator.
func (p *Principal) IsAdmin() bool { return p != nil && p.Role == RoleAdmin }

// IsStaffOrAdmin reports whether the principal is back-office personnel.
func (p *Principal) IsStaffOrAdmin() bool {
	return p != nil && (p.Role == RoleAdmin || p.Role == RoleStaff)
}
