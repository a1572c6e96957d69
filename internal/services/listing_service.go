package services

import (
	"context"
	"time"

	"scholarhub/internal/models"
	"scholarhub/internal/policy"
	"scholarhub/internal/repositories"
	"scholarhub/internal/sequence"
	"scholarhub/internal/validation"

	"go.uber.org/zap"
)

// listingService implements ListingService for jobs and scholarships.
type listingService struct {
	listings repositories.ListingRepository
	seq      sequence.Generator
	logger   *zap.Logger
	now      func() time.Time
}

// NewListingService creates the listing service.
func NewListingService(listings repositories.ListingRepository, seq sequence.Generator, logger *zap.Logger) ListingService {
	return &listingService{
		listings: listings,
		seq:      seq,
		logger:   nopIfNil(logger),
		now:      defaultNow,
	}
}

// ===============================
// JOBS
// ===============================

func (s *listingService) CreateJob(ctx context.Context, p *models.Principal, req *JobRequest) (*models.Job, error) {
	if err := s.authorizeManage(p, 0, policy.Write); err != nil {
		return nil, err
	}
	if err := validation.ValidateStruct(req); err != nil {
		return nil, validationError(err)
	}

	now := s.now()
	job := &models.Job{Listing: models.Listing{Kind: models.ListingJob, CreatedBy: p.UserID, CreatedAt: now}}
	applyJob(job, req)
	s.prepare(&job.Listing, now)
	if err := models.ValidateModel(job); err != nil {
		return nil, validationError(err)
	}

	id, err := allocateID(ctx, s.seq, models.ListingJob.CounterName(), s.logger)
	if err != nil {
		return nil, err
	}
	job.ID = id
	if err := s.listings.CreateJob(ctx, job); err != nil {
		return nil, repositoryError("job", id, err)
	}
	return job, nil
}

func (s *listingService) GetJob(ctx context.Context, p *models.Principal, id int64) (*models.Job, error) {
	job, err := s.listings.GetJob(ctx, id)
	if err != nil {
		return nil, repositoryError("job", id, err)
	}
	if job == nil || !visible(p, &job.Listing) {
		return nil, EntityNotFoundError("job", id)
	}
	return job, nil
}

func (s *listingService) UpdateJob(ctx context.Context, p *models.Principal, id int64, req *JobRequest) (*models.Job, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, validationError(err)
	}
	job, err := s.listings.GetJob(ctx, id)
	if err != nil {
		return nil, repositoryError("job", id, err)
	}
	if job == nil {
		return nil, EntityNotFoundError("job", id)
	}
	if err := s.authorizeManage(p, job.CreatedBy, policy.Write); err != nil {
		return nil, err
	}

	applyJob(job, req)
	s.prepare(&job.Listing, s.now())
	if err := models.ValidateModel(job); err != nil {
		return nil, validationError(err)
	}
	if err := s.listings.UpdateJob(ctx, job); err != nil {
		return nil, repositoryError("job", id, err)
	}
	return job, nil
}

func (s *listingService) DeleteJob(ctx context.Context, p *models.Principal, id int64) error {
	job, err := s.listings.GetJob(ctx, id)
	if err != nil {
		return repositoryError("job", id, err)
	}
	if job == nil {
		return EntityNotFoundError("job", id)
	}
	if err := s.authorizeManage(p, job.CreatedBy, policy.Delete); err != nil {
		return err
	}
	if err := s.listings.DeleteJob(ctx, id); err != nil {
		return repositoryError("job", id, err)
	}
	s.logger.Info("Job deleted", zap.Int64("job_id", id), zap.Int64("actor_id", p.UserID))
	return nil
}

func (s *listingService) ListJobs(ctx context.Context, p *models.Principal, req *ListListingsRequest) (*models.PaginatedResponse[*models.Job], error) {
	filter, params, err := s.listFilter(p, req)
	if err != nil {
		return nil, err
	}
	page, err := s.listings.ListJobs(ctx, filter, params)
	if err != nil {
		return nil, repositoryError("job", nil, err)
	}
	return page, nil
}

// ===============================
// SCHOLARSHIPS
// ===============================

func (s *listingService) CreateScholarship(ctx context.Context, p *models.Principal, req *ScholarshipRequest) (*models.Scholarship, error) {
	if err := s.authorizeManage(p, 0, policy.Write); err != nil {
		return nil, err
	}
	if err := validation.ValidateStruct(req); err != nil {
		return nil, validationError(err)
	}

	now := s.now()
	sch := &models.Scholarship{Listing: models.Listing{Kind: models.ListingScholarship, CreatedBy: p.UserID, CreatedAt: now}}
	applyScholarship(sch, req)
	s.prepare(&sch.Listing, now)
	if err := models.ValidateModel(sch); err != nil {
		return nil, validationError(err)
	}

	id, err := allocateID(ctx, s.seq, models.ListingScholarship.CounterName(), s.logger)
	if err != nil {
		return nil, err
	}
	sch.ID = id
	if err := s.listings.CreateScholarship(ctx, sch); err != nil {
		return nil, repositoryError("scholarship", id, err)
	}
	return sch, nil
}

func (s *listingService) GetScholarship(ctx context.Context, p *models.Principal, id int64) (*models.Scholarship, error) {
	sch, err := s.listings.GetScholarship(ctx, id)
	if err != nil {
		return nil, repositoryError("scholarship", id, err)
	}
	if sch == nil || !visible(p, &sch.Listing) {
		return nil, EntityNotFoundError("scholarship", id)
	}
	return sch, nil
}

func (s *listingService) UpdateScholarship(ctx context.Context, p *models.Principal, id int64, req *ScholarshipRequest) (*models.Scholarship, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, validationError(err)
	}
	sch, err := s.listings.GetScholarship(ctx, id)
	if err != nil {
		return nil, repositoryError("scholarship", id, err)
	}
	if sch == nil {
		return nil, EntityNotFoundError("scholarship", id)
	}
	if err := s.authorizeManage(p, sch.CreatedBy, policy.Write); err != nil {
		return nil, err
	}

	applyScholarship(sch, req)
	s.prepare(&sch.Listing, s.now())
	if err := models.ValidateModel(sch); err != nil {
		return nil, validationError(err)
	}
	if err := s.listings.UpdateScholarship(ctx, sch); err != nil {
		return nil, repositoryError("scholarship", id, err)
	}
	return sch, nil
}

func (s *listingService) DeleteScholarship(ctx context.Context, p *models.Principal, id int64) error {
	sch, err := s.listings.GetScholarship(ctx, id)
	if err != nil {
		return repositoryError("scholarship", id, err)
	}
	if sch == nil {
		return EntityNotFoundError("scholarship", id)
	}
	if err := s.authorizeManage(p, sch.CreatedBy, policy.Delete); err != nil {
		return err
	}
	if err := s.listings.DeleteScholarship(ctx, id); err != nil {
		return repositoryError("scholarship", id, err)
	}
	s.logger.Info("Scholarship deleted", zap.Int64("scholarship_id", id), zap.Int64("actor_id", p.UserID))
	return nil
}

func (s *listingService) ListScholarships(ctx context.Context, p *models.Principal, req *ListListingsRequest) (*models.PaginatedResponse[*models.Scholarship], error) {
	filter, params, err := s.listFilter(p, req)
	if err != nil {
		return nil, err
	}
	page, err := s.listings.ListScholarships(ctx, filter, params)
	if err != nil {
		return nil, repositoryError("scholarship", nil, err)
	}
	return page, nil
}

// ===============================
// HELPERS
// ===============================

// authorizeManage lets only back-office users with the listing permission
// create, edit or delete listings.
func (s *listingService) authorizeManage(p *models.Principal, createdBy int64, a policy.Action) error {
	if err := requireBackOffice(p); err != nil {
		return err
	}
	return authorize(p, policy.ListingResource(createdBy), a)
}

// prepare defaults the status and applies the deadline rule before a save.
func (s *listingService) prepare(l *models.Listing, now time.Time) {
	if l.Status == "" {
		l.Status = models.ListingDraft
	}
	l.Normalize(now)
	l.UpdatedAt = now
}

// listFilter hides drafts from everyone but back-office users.
func (s *listingService) listFilter(p *models.Principal, req *ListListingsRequest) (repositories.ListingFilter, models.PaginationParams, error) {
	filter := repositories.ListingFilter{
		Status: req.Status,
		Search: models.SanitizeString(req.Search),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return filter, req.PaginationParams, NewValidationError("unknown listing status", nil).WithDetail("status", string(filter.Status))
	}
	if !p.IsStaffOrAdmin() {
		switch filter.Status {
		case "":
			filter.OpenOnly = true
		case models.ListingDraft:
			return filter, req.PaginationParams, NewForbiddenError("draft listings are not public")
		}
	} else if req.Mine {
		filter.CreatedBy = &p.UserID
	}
	params := req.PaginationParams
	params.Normalize()
	return filter, params, nil
}

// visible reports whether p may see the listing. Drafts are back-office only.
func visible(p *models.Principal, l *models.Listing) bool {
	if l.Status == models.ListingDraft {
		return p.IsStaffOrAdmin()
	}
	return true
}

func applyListing(l *models.Listing, f ListingFields) {
	l.Title = models.SanitizeString(f.Title)
	l.Description = f.Description
	if f.Status != "" {
		l.Status = f.Status
	}
	l.Deadline = f.Deadline.UTC()
}

func applyJob(j *models.Job, req *JobRequest) {
	applyListing(&j.Listing, req.ListingFields)
	j.Company = models.SanitizeString(req.Company)
	j.Location = models.SanitizeString(req.Location)
	j.EmploymentType = req.EmploymentType
	j.SalaryRange = req.SalaryRange
	positions := models.Positions(req.Positions)
	positions.AssignKeys()
	j.Positions = positions
}

func applyScholarship(s *models.Scholarship, req *ScholarshipRequest) {
	applyListing(&s.Listing, req.ListingFields)
	s.Program = models.SanitizeString(req.Program)
	s.University = models.SanitizeString(req.University)
	s.Country = models.SanitizeString(req.Country)
	s.Amount = req.Amount
	s.Currency = req.Currency
	s.Eligibility = req.Eligibility
}
