// file: internal/services/interface.go
package services

import (
	"context"

	"scholarhub/internal/models"
)

// ===============================
// CORE SERVICE INTERFACES
// ===============================
//
// Every operation that acts on behalf of a caller takes the caller's
// Principal explicitly. Reads of listings and ads accept a nil principal.

// AuthService issues and verifies credentials.
type AuthService interface {
	Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error)
	RefreshToken(ctx context.Context, req *RefreshTokenRequest) (*AuthResponse, error)
	Logout(ctx context.Context, req *LogoutRequest) error

	HashPassword(password string) (string, error)
	VerifyPassword(hash, password string) bool
	VerifyAccessToken(ctx context.Context, token string) (*Claims, error)
	ResolvePrincipal(ctx context.Context, claims *Claims) (*models.Principal, error)
}

// UserService administers accounts and staff permissions.
type UserService interface {
	GetUser(ctx context.Context, p *models.Principal, id int64) (*models.User, error)
	ListUsers(ctx context.Context, p *models.Principal, role models.Role, params models.PaginationParams) (*models.PaginatedResponse[*models.User], error)
	CreateStaff(ctx context.Context, p *models.Principal, req *CreateStaffRequest) (*StaffAccount, error)
	UpdateStaffPermissions(ctx context.Context, p *models.Principal, userID int64, req *UpdatePermissionsRequest) (*models.StaffProfile, error)
	SetUserActive(ctx context.Context, p *models.Principal, userID int64, active bool) (*models.User, error)

	// CreateAdmin bootstraps an administrator outside any request.
	CreateAdmin(ctx context.Context, email, password string) (*models.User, error)
}

// ApplicantService manages applicant profiles.
type ApplicantService interface {
	GetMine(ctx context.Context, p *models.Principal) (*models.Applicant, error)
	UpsertMine(ctx context.Context, p *models.Principal, req *ApplicantProfileRequest) (*models.Applicant, error)
	GetByID(ctx context.Context, p *models.Principal, id int64) (*models.Applicant, error)
}

// ApplicationService drives the application lifecycle.
type ApplicationService interface {
	Create(ctx context.Context, p *models.Principal, req *CreateApplicationRequest) (*models.Application, error)
	Get(ctx context.Context, p *models.Principal, id int64) (*models.Application, error)
	UpdateContent(ctx context.Context, p *models.Principal, id int64, req *UpdateContentRequest) (*models.Application, error)
	Submit(ctx context.Context, p *models.Principal, id int64) (*models.Application, error)
	Restart(ctx context.Context, p *models.Principal, id int64) (*models.Application, error)
	Withdraw(ctx context.Context, p *models.Principal, id int64) (*models.Application, error)
	SetStatus(ctx context.Context, p *models.Principal, id int64, req *SetStatusRequest) (*models.Application, error)
	AddReviewNote(ctx context.Context, p *models.Principal, id int64, req *ReviewNoteRequest) (*models.Application, error)
	ScheduleInterview(ctx context.Context, p *models.Principal, id int64, req *models.InterviewUpdate) (*models.Application, error)
	UpdatePayment(ctx context.Context, p *models.Principal, id int64, req *models.PaymentUpdate) (*models.Application, error)
	Delete(ctx context.Context, p *models.Principal, id int64) error

	ListForApplicant(ctx context.Context, p *models.Principal, params models.PaginationParams) (*models.PaginatedResponse[*models.Application], error)
	ListAdmin(ctx context.Context, p *models.Principal, req *ListApplicationsRequest) (*models.PaginatedResponse[*models.Application], error)
	Stats(ctx context.Context, p *models.Principal, filter models.ApplicationFilter) (*models.ApplicationStats, error)
}

// ListingService manages jobs and scholarships.
type ListingService interface {
	CreateJob(ctx context.Context, p *models.Principal, req *JobRequest) (*models.Job, error)
	GetJob(ctx context.Context, p *models.Principal, id int64) (*models.Job, error)
	UpdateJob(ctx context.Context, p *models.Principal, id int64, req *JobRequest) (*models.Job, error)
	DeleteJob(ctx context.Context, p *models.Principal, id int64) error
	ListJobs(ctx context.Context, p *models.Principal, req *ListListingsRequest) (*models.PaginatedResponse[*models.Job], error)

	CreateScholarship(ctx context.Context, p *models.Principal, req *ScholarshipRequest) (*models.Scholarship, error)
	GetScholarship(ctx context.Context, p *models.Principal, id int64) (*models.Scholarship, error)
	UpdateScholarship(ctx context.Context, p *models.Principal, id int64, req *ScholarshipRequest) (*models.Scholarship, error)
	DeleteScholarship(ctx context.Context, p *models.Principal, id int64) error
	ListScholarships(ctx context.Context, p *models.Principal, req *ListListingsRequest) (*models.PaginatedResponse[*models.Scholarship], error)
}

// AdService manages advertisements and their counters.
type AdService interface {
	Create(ctx context.Context, p *models.Principal, req *AdRequest) (*models.Ad, error)
	Update(ctx context.Context, p *models.Principal, id int64, req *AdRequest) (*models.Ad, error)
	Delete(ctx context.Context, p *models.Principal, id int64) error
	// ListLive returns ads currently on display and counts an impression for each.
	ListLive(ctx context.Context, placement string, params models.PaginationParams) (*models.PaginatedResponse[*models.Ad], error)
	ListAll(ctx context.Context, p *models.Principal, placement string, params models.PaginationParams) (*models.PaginatedResponse[*models.Ad], error)
	RecordClick(ctx context.Context, id int64) (*models.Ad, error)
}

// DocumentService stores applicant documents.
type DocumentService interface {
	Upload(ctx context.Context, p *models.Principal, req *UploadDocumentRequest) (*models.Document, error)
	Get(ctx context.Context, p *models.Principal, id int64) (*models.Document, error)
	ListMine(ctx context.Context, p *models.Principal, applicationID *int64) ([]*models.Document, error)
	ListForApplicant(ctx context.Context, p *models.Principal, applicantID int64, applicationID *int64) ([]*models.Document, error)
	Download(ctx context.Context, p *models.Principal, id int64) (*DocumentDownload, error)
	SetVerified(ctx context.Context, p *models.Principal, id int64, verified bool) (*models.Document, error)
	Delete(ctx context.Context, p *models.Principal, id int64) error
}
