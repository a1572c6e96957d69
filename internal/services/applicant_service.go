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

type applicantService struct {
	applicants repositories.ApplicantRepository
	seq        sequence.Generator
	logger     *zap.Logger
	now        func() time.Time
}

// NewApplicantService creates the applicant profile service.
func NewApplicantService(applicants repositories.ApplicantRepository, seq sequence.Generator, logger *zap.Logger) ApplicantService {
	return &applicantService{
		applicants: applicants,
		seq:        seq,
		logger:     nopIfNil(logger),
		now:        defaultNow,
	}
}

// GetMine returns the caller's own profile.
func (s *applicantService) GetMine(ctx context.Context, p *models.Principal) (*models.Applicant, error) {
	if p == nil {
		return nil, NewUnauthorizedError("Authentication required")
	}
	a, err := s.applicants.GetByUserID(ctx, p.UserID)
	if err != nil {
		return nil, repositoryError("applicant", p.UserID, err)
	}
	if a == nil {
		return nil, NewNotFoundError("applicant profile not found").WithDetail("user_id", p.UserID)
	}
	return a, nil
}

// UpsertMine replaces the caller's profile fields, creating the profile
// on first use. Completion is recomputed on every save.
func (s *applicantService) UpsertMine(ctx context.Context, p *models.Principal, req *ApplicantProfileRequest) (*models.Applicant, error) {
	if p == nil {
		return nil, NewUnauthorizedError("Authentication required")
	}
	if p.Role != models.RoleApplicant {
		return nil, NewForbiddenError("only applicants have an applicant profile")
	}
	if err := validation.ValidateStruct(req); err != nil {
		return nil, validationError(err)
	}

	existing, err := s.applicants.GetByUserID(ctx, p.UserID)
	if err != nil {
		return nil, repositoryError("applicant", p.UserID, err)
	}

	a := existing
	if a == nil {
		a = &models.Applicant{UserID: p.UserID}
	}
	applyProfile(a, req)
	if err := models.ValidateModel(a); err != nil {
		return nil, validationError(err)
	}
	a.RefreshCompletion()
	a.UpdatedAt = s.now()

	if existing == nil {
		id, err := allocateID(ctx, s.seq, sequence.ApplicantID, s.logger)
		if err != nil {
			return nil, err
		}
		a.ID = id
		if err := s.applicants.Create(ctx, a); err != nil {
			return nil, repositoryError("applicant profile", p.UserID, err)
		}
		return a, nil
	}

	if err := s.applicants.Update(ctx, a); err != nil {
		return nil, repositoryError("applicant", a.ID, err)
	}
	s.logger.Debug("Applicant profile updated",
		zap.Int64("applicant_id", a.ID),
		zap.Int("profile_completion", a.ProfileCompletion))
	return a, nil
}

// GetByID reads any profile the caller may see.
func (s *applicantService) GetByID(ctx context.Context, p *models.Principal, id int64) (*models.Applicant, error) {
	a, err := s.applicants.GetByID(ctx, id)
	if err != nil {
		return nil, repositoryError("applicant", id, err)
	}
	if a == nil {
		return nil, EntityNotFoundError("applicant", id)
	}
	if err := authorize(p, policy.ApplicantResource(a), policy.Read); err != nil {
		return nil, err
	}
	return a, nil
}

func applyProfile(a *models.Applicant, req *ApplicantProfileRequest) {
	a.FirstName = models.SanitizeString(req.FirstName)
	a.LastName = models.SanitizeString(req.LastName)
	a.Phone = models.SanitizeString(req.Phone)
	a.DateOfBirth = req.DateOfBirth
	a.Gender = models.SanitizeString(req.Gender)
	a.Nationality = models.SanitizeString(req.Nationality)
	a.Bio = req.Bio

	skills := make(models.StringArray, 0, len(req.Skills))
	for _, skill := range req.Skills {
		if skill = models.SanitizeString(skill); skill != "" {
			skills = append(skills, skill)
		}
	}
	a.Skills = skills
	a.Languages = models.Languages(req.Languages)
	a.Education = models.EducationHistory(req.Education)
}
