package repositories

import (
	"context"
	"time"

	"scholarhub/internal/models"
)

// ===============================
// CORE REPOSITORY INTERFACES
// ===============================
//
// Lookups by id return (nil, nil) when no row matches. Mutations of a
// missing row return an error wrapping ErrNotFound; unique violations wrap
// ErrDuplicate.

// UserRepository defines the contract for user account operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	SetActive(ctx context.Context, id int64, active bool) error
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
	List(ctx context.Context, role models.Role, params models.PaginationParams) (*models.PaginatedResponse[*models.User], error)
}

// StaffRepository defines the contract for staff profile operations
type StaffRepository interface {
	Create(ctx context.Context, profile *models.StaffProfile) error
	GetByUserID(ctx context.Context, userID int64) (*models.StaffProfile, error)
	UpdatePermissions(ctx context.Context, userID int64, perms models.StaffPermissions) error
}

// ApplicantRepository defines the contract for applicant profile operations
type ApplicantRepository interface {
	Create(ctx context.Context, applicant *models.Applicant) error
	GetByID(ctx context.Context, id int64) (*models.Applicant, error)
	GetByUserID(ctx context.Context, userID int64) (*models.Applicant, error)
	Update(ctx context.Context, applicant *models.Applicant) error
	UpdateCompletion(ctx context.Context, id int64, completion int) error
}

// ListingFilter narrows job and scholarship listings.
type ListingFilter struct {
	Status    models.ListingStatus
	OpenOnly  bool
	Search    string
	CreatedBy *int64
}

// ListingRepository defines the contract for jobs and scholarships.
// Every load closes active listings whose deadline has passed and
// persists the correction.
type ListingRepository interface {
	CreateJob(ctx context.Context, job *models.Job) error
	GetJob(ctx context.Context, id int64) (*models.Job, error)
	UpdateJob(ctx context.Context, job *models.Job) error
	DeleteJob(ctx context.Context, id int64) error
	ListJobs(ctx context.Context, filter ListingFilter, params models.PaginationParams) (*models.PaginatedResponse[*models.Job], error)

	CreateScholarship(ctx context.Context, s *models.Scholarship) error
	GetScholarship(ctx context.Context, id int64) (*models.Scholarship, error)
	UpdateScholarship(ctx context.Context, s *models.Scholarship) error
	DeleteScholarship(ctx context.Context, id int64) error
	ListScholarships(ctx context.Context, filter ListingFilter, params models.PaginationParams) (*models.PaginatedResponse[*models.Scholarship], error)

	// GetListing loads the shared listing fields of either kind.
	GetListing(ctx context.Context, ref models.ListingRef) (*models.Listing, error)
	IncrementApplicationCount(ctx context.Context, ref models.ListingRef, delta int) error
}

// ApplicationRepository defines the contract for application operations.
// Each update method writes only its own columns.
type ApplicationRepository interface {
	Create(ctx context.Context, app *models.Application) error
	GetByID(ctx context.Context, id int64) (*models.Application, error)
	ExistsForTarget(ctx context.Context, applicantID int64, target models.ListingRef) (bool, error)

	UpdateContent(ctx context.Context, app *models.Application) error
	UpdateStatus(ctx context.Context, app *models.Application) error
	Reset(ctx context.Context, app *models.Application) error
	UpdateInterview(ctx context.Context, app *models.Application) error
	UpdatePayment(ctx context.Context, app *models.Application) error
	AddReviewNote(ctx context.Context, applicationID int64, note *models.ReviewNote) error
	Delete(ctx context.Context, id int64) error

	ListByApplicant(ctx context.Context, applicantID int64, params models.PaginationParams) (*models.PaginatedResponse[*models.Application], error)
	List(ctx context.Context, filter models.ApplicationFilter, params models.PaginationParams) (*models.PaginatedResponse[*models.Application], error)
	Stats(ctx context.Context, filter models.ApplicationFilter) (*models.ApplicationStats, error)
}

// DocumentRepository defines the contract for document metadata operations
type DocumentRepository interface {
	Create(ctx context.Context, doc *models.Document) error
	GetByID(ctx context.Context, id int64) (*models.Document, error)
	ListByApplicant(ctx context.Context, applicantID int64, applicationID *int64) ([]*models.Document, error)
	CountByApplicant(ctx context.Context, applicantID int64) (int, error)
	UpdateVerification(ctx context.Context, doc *models.Document) error
	Delete(ctx context.Context, id int64) error
}

// AdFilter narrows ad listings.
type AdFilter struct {
	Placement string
	LiveOnly  bool
}

// AdRepository defines the contract for advertisement operations
type AdRepository interface {
	Create(ctx context.Context, ad *models.Ad) error
	GetByID(ctx context.Context, id int64) (*models.Ad, error)
	Update(ctx context.Context, ad *models.Ad) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter AdFilter, params models.PaginationParams) (*models.PaginatedResponse[*models.Ad], error)
	IncrementClicks(ctx context.Context, id int64) error
	IncrementImpressions(ctx context.Context, ids []int64) error
}

// Transactor runs a function inside one database transaction.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
