// file: internal/services/types.go
package services

import (
	"io"
	"time"

	"scholarhub/internal/models"
)

// ===============================
// AUTH REQUEST/RESPONSE TYPES
// ===============================

type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email,max=320"`
	Password  string `json:"password" validate:"required,min=8,max=128"`
	FirstName string `json:"first_name" validate:"required,min=1,max=100"`
	LastName  string `json:"last_name" validate:"required,min=1,max=100"`
	Phone     string `json:"phone,omitempty" validate:"omitempty,max=30"`
}

type LoginRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	IPAddress string `json:"-"` // Set by middleware
	UserAgent string `json:"-"` // Set by middleware
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type AuthResponse struct {
	User             *models.User `json:"user"`
	AccessToken      string       `json:"access_token"`
	RefreshToken     string       `json:"refresh_token"`
	ExpiresIn        int64        `json:"expires_in"`
	RefreshExpiresIn int64        `json:"refresh_expires_in"`
	TokenType        string       `json:"token_type"`
}

// ===============================
// USER ADMINISTRATION TYPES
// ===============================

type CreateStaffRequest struct {
	Email       string          `json:"email" validate:"required,email,max=320"`
	Password    string          `json:"password" validate:"required,min=8,max=128"`
	Department  string          `json:"department" validate:"omitempty,max=100"`
	Position    string          `json:"position" validate:"omitempty,max=100"`
	Permissions map[string]bool `json:"permissions"`
}

type UpdatePermissionsRequest struct {
	Permissions map[string]bool `json:"permissions" validate:"required"`
}

type SetActiveRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

// StaffAccount is a staff user together with its profile.
type StaffAccount struct {
	User    *models.User         `json:"user"`
	Profile *models.StaffProfile `json:"profile"`
}

// ===============================
// APPLICANT PROFILE TYPES
// ===============================

type ApplicantProfileRequest struct {
	FirstName   string                   `json:"first_name" validate:"required,min=1,max=100"`
	LastName    string                   `json:"last_name" validate:"required,min=1,max=100"`
	Phone       string                   `json:"phone,omitempty" validate:"omitempty,max=30"`
	DateOfBirth *time.Time               `json:"date_of_birth,omitempty"`
	Gender      string                   `json:"gender,omitempty" validate:"omitempty,max=30"`
	Nationality string                   `json:"nationality,omitempty" validate:"omitempty,max=100"`
	Bio         string                   `json:"bio,omitempty" validate:"omitempty,max=5000"`
	Skills      []string                 `json:"skills,omitempty" validate:"omitempty,max=50,dive,min=1,max=100"`
	Languages   []models.LanguageSkill   `json:"languages,omitempty" validate:"omitempty,dive"`
	Education   []models.EducationRecord `json:"education,omitempty" validate:"omitempty,dive"`
}

// ===============================
// APPLICATION TYPES
// ===============================

type CreateApplicationRequest struct {
	Type          models.ListingKind `json:"type" validate:"required,oneof=job scholarship"`
	JobID         *int64             `json:"job_id"`
	ScholarshipID *int64             `json:"scholarship_id"`
}

type UpdateContentRequest struct {
	Sections    map[string]map[string]any `json:"application_data" validate:"omitempty,dive,keys,section,endkeys"`
	CurrentStep *int                      `json:"current_step" validate:"omitempty,min=0"`
}

type SetStatusRequest struct {
	Status models.ApplicationStatus `json:"status" validate:"required,oneof=draft in_progress submitted under_review approved rejected withdrawn"`
}

type ReviewNoteRequest struct {
	Note     string `json:"note" validate:"required,min=1,max=5000"`
	Severity string `json:"severity" validate:"omitempty,oneof=info warning critical"`
}

type ListApplicationsRequest struct {
	Filter models.ApplicationFilter
	models.PaginationParams
}

// ===============================
// LISTING TYPES
// ===============================

type ListingFields struct {
	Title       string               `json:"title" validate:"required,min=3,max=255"`
	Description string               `json:"description" validate:"required"`
	Status      models.ListingStatus `json:"status" validate:"omitempty,oneof=draft upcoming active closed"`
	Deadline    time.Time            `json:"deadline" validate:"required"`
}

type JobRequest struct {
	ListingFields
	Company        string            `json:"company" validate:"required,max=255"`
	Location       string            `json:"location" validate:"omitempty,max=255"`
	EmploymentType string            `json:"employment_type" validate:"omitempty,oneof=full_time part_time contract internship volunteer"`
	SalaryRange    string            `json:"salary_range" validate:"omitempty,max=100"`
	Positions      []models.Position `json:"positions" validate:"omitempty,dive"`
}

type ScholarshipRequest struct {
	ListingFields
	Program     string  `json:"program" validate:"required,max=255"`
	University  string  `json:"university" validate:"required,max=255"`
	Country     string  `json:"country" validate:"omitempty,max=100"`
	Amount      float64 `json:"amount" validate:"min=0"`
	Currency    string  `json:"currency" validate:"omitempty,len=3"`
	Eligibility string  `json:"eligibility" validate:"omitempty,max=5000"`
}

type ListListingsRequest struct {
	Status models.ListingStatus `json:"status"`
	Search string               `json:"search"`
	Mine   bool                 `json:"mine"`
	models.PaginationParams
}

// ===============================
// AD TYPES
// ===============================

type AdRequest struct {
	Title     string     `json:"title" validate:"required,max=255"`
	ImageURL  string     `json:"image_url" validate:"required,url"`
	LinkURL   string     `json:"link_url" validate:"omitempty,url"`
	Placement string     `json:"placement" validate:"required,oneof=home sidebar listing footer"`
	IsActive  bool       `json:"is_active"`
	StartsAt  *time.Time `json:"starts_at"`
	EndsAt    *time.Time `json:"ends_at"`
}

// ===============================
// DOCUMENT TYPES
// ===============================

type UploadDocumentRequest struct {
	Type          string `json:"type" validate:"required,oneof=cv transcript certificate passport recommendation_letter cover_letter other"`
	ApplicationID *int64 `json:"application_id,omitempty" validate:"omitempty,gt=0"`
	FileName      string `json:"file_name" validate:"required,max=255"`
	Data          []byte `json:"-"`
}

type VerifyDocumentRequest struct {
	Verified *bool `json:"verified" validate:"required"`
}

// DocumentDownload is an open handle on stored document bytes.
type DocumentDownload struct {
	Document *models.Document
	Body     io.ReadCloser
}
