// file: internal/services/application_service.go
package services

import (
	"context"
	"errors"
	"time"

	"scholarhub/internal/events"
	"scholarhub/internal/metrics"
	"scholarhub/internal/models"
	"scholarhub/internal/policy"
	"scholarhub/internal/repositories"
	"scholarhub/internal/sequence"
	"scholarhub/internal/validation"

	"go.uber.org/zap"
)

// applicationService implements ApplicationService
type applicationService struct {
	applications repositories.ApplicationRepository
	applicants   repositories.ApplicantRepository
	listings     repositories.ListingRepository
	tx           repositories.Transactor
	seq          sequence.Generator
	events       events.EventBus
	logger       *zap.Logger
	now          func() time.Time
}

// NewApplicationService creates the application lifecycle service.
func NewApplicationService(
	applications repositories.ApplicationRepository,
	applicants repositories.ApplicantRepository,
	listings repositories.ListingRepository,
	tx repositories.Transactor,
	seq sequence.Generator,
	bus events.EventBus,
	logger *zap.Logger,
) ApplicationService {
	return &applicationService{
		applications: applications,
		applicants:   applicants,
		listings:     listings,
		tx:           tx,
		seq:          seq,
		events:       bus,
		logger:       nopIfNil(logger),
		now:          defaultNow,
	}
}

// ===============================
// CREATION
// ===============================

// Create starts a draft application of the caller's applicant profile
// for an open listing.
func (s *applicationService) Create(ctx context.Context, p *models.Principal, req *CreateApplicationRequest) (*models.Application, error) {
	if p == nil {
		return nil, NewUnauthorizedError("Authentication required")
	}
	if p.Role != models.RoleApplicant {
		return nil, NewForbiddenError("only applicants can create applications")
	}
	if err := validation.ValidateStruct(req); err != nil {
		return nil, validationError(err)
	}
	target, err := models.NewListingRef(req.Type, req.JobID, req.ScholarshipID)
	if err != nil {
		return nil, NewValidationError(err.Error(), err).WithDetail("type", string(req.Type))
	}

	applicant, err := s.applicantOf(ctx, p)
	if err != nil {
		return nil, err
	}

	listing, err := s.listings.GetListing(ctx, target)
	if err != nil {
		return nil, repositoryError(string(target.Kind), target.ID, err)
	}
	if listing == nil {
		return nil, EntityNotFoundError(string(target.Kind), target.ID)
	}
	now := s.now()
	if !listing.IsAcceptingApplications(now) {
		return nil, NewPreconditionFailedError("listing is not accepting applications", "LISTING_CLOSED").
			WithDetail("status", string(listing.Status)).
			WithDetail("deadline", listing.Deadline)
	}

	exists, err := s.applications.ExistsForTarget(ctx, applicant.ID, target)
	if err != nil {
		return nil, repositoryError("application", target.String(), err)
	}
	if exists {
		return nil, NewConflictError("an application for this listing already exists", "DUPLICATE_APPLICATION")
	}

	id, err := allocateID(ctx, s.seq, sequence.ApplicationID, s.logger)
	if err != nil {
		return nil, err
	}

	app := models.NewApplication(id, applicant.ID, target, now)
	app.ApplicantUserID = p.UserID

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.applications.Create(ctx, app); err != nil {
			return err
		}
		return s.listings.IncrementApplicationCount(ctx, target, 1)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, NewConflictError("an application for this listing already exists", "DUPLICATE_APPLICATION")
		}
		return nil, repositoryError("application", id, err)
	}

	metrics.ObserveTransition("none", string(app.Status))
	s.logger.Info("Application created",
		zap.Int64("application_id", app.ID),
		zap.Int64("applicant_id", applicant.ID),
		zap.String("target", target.String()))
	s.emit(ctx, events.ApplicationCreated, p, app, "")
	return app, nil
}

// ===============================
// READS
// ===============================

func (s *applicationService) Get(ctx context.Context, p *models.Principal, id int64) (*models.Application, error) {
	app, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(p, policy.ApplicationResource(app), policy.Read); err != nil {
		return nil, err
	}
	return app, nil
}

// ListForApplicant lists the caller's own applications.
func (s *applicationService) ListForApplicant(ctx context.Context, p *models.Principal, params models.PaginationParams) (*models.PaginatedResponse[*models.Application], error) {
	if p == nil {
		return nil, NewUnauthorizedError("Authentication required")
	}
	applicant, err := s.applicantOf(ctx, p)
	if err != nil {
		return nil, err
	}
	params.Normalize()
	page, err := s.applications.ListByApplicant(ctx, applicant.ID, params)
	if err != nil {
		return nil, repositoryError("application", applicant.ID, err)
	}
	return page, nil
}

// ListAdmin lists applications across applicants for back-office users.
func (s *applicationService) ListAdmin(ctx context.Context, p *models.Principal, req *ListApplicationsRequest) (*models.PaginatedResponse[*models.Application], error) {
	if err := requireBackOffice(p); err != nil {
		return nil, err
	}
	if req.Filter.Status != "" && !req.Filter.Status.Valid() {
		return nil, NewValidationError("unknown status filter", models.ErrInvalidStatus)
	}
	if req.Filter.Kind != "" && !req.Filter.Kind.Valid() {
		return nil, NewValidationError("unknown type filter", nil)
	}
	params := req.PaginationParams
	params.Normalize()
	page, err := s.applications.List(ctx, req.Filter, params)
	if err != nil {
		return nil, repositoryError("application", nil, err)
	}
	return page, nil
}

// Stats counts applications by status. Applicants only see their own.
func (s *applicationService) Stats(ctx context.Context, p *models.Principal, filter models.ApplicationFilter) (*models.ApplicationStats, error) {
	if p == nil {
		return nil, NewUnauthorizedError("Authentication required")
	}
	if !p.IsStaffOrAdmin() {
		applicant, err := s.applicantOf(ctx, p)
		if err != nil {
			return nil, err
		}
		filter.ApplicantID = &applicant.ID
	}
	stats, err := s.applications.Stats(ctx, filter)
	if err != nil {
		return nil, repositoryError("application", nil, err)
	}
	return stats, nil
}

// ===============================
// APPLICANT TRANSITIONS
// ===============================

// UpdateContent merges section data. Owners, editing staff and admins
// may update; the status does not change.
func (s *applicationService) UpdateContent(ctx context.Context, p *models.Principal, id int64, req *UpdateContentRequest) (*models.Application, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, validationError(err)
	}
	app, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(p, policy.ApplicationResource(app), policy.Write); err != nil {
		return nil, err
	}

	if err := app.MergeContent(req.Sections, req.CurrentStep, s.now()); err != nil {
		return nil, lifecycleError(app, err)
	}
	if err := s.applications.UpdateContent(ctx, app); err != nil {
		return nil, repositoryError("application", id, err)
	}

	s.emit(ctx, events.ApplicationUpdated, p, app, string(app.Status))
	return app, nil
}

// Submit hands a sufficiently complete application in for review.
func (s *applicationService) Submit(ctx context.Context, p *models.Principal, id int64) (*models.Application, error) {
	return s.ownerTransition(ctx, p, id, events.ApplicationSubmitted, (*models.Application).Submit, s.applications.UpdateStatus)
}

// Restart wipes an application back to an empty draft.
func (s *applicationService) Restart(ctx context.Context, p *models.Principal, id int64) (*models.Application, error) {
	return s.ownerTransition(ctx, p, id, events.ApplicationRestarted, (*models.Application).Restart, s.applications.Reset)
}

// Withdraw ends a live application at the applicant's request.
func (s *applicationService) Withdraw(ctx context.Context, p *models.Principal, id int64) (*models.Application, error) {
	return s.ownerTransition(ctx, p, id, events.ApplicationWithdrawn, (*models.Application).Withdraw, s.applications.UpdateStatus)
}

// ownerTransition applies a state change only the owning applicant may make.
// persist writes the columns the transition touches.
func (s *applicationService) ownerTransition(
	ctx context.Context,
	p *models.Principal,
	id int64,
	eventType string,
	transition func(*models.Application, time.Time) error,
	persist func(context.Context, *models.Application) error,
) (*models.Application, error) {
	if p == nil {
		return nil, NewUnauthorizedError("Authentication required")
	}
	app, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Role != models.RoleApplicant || !app.IsOwnedBy(p.UserID) {
		return nil, NewForbiddenError("only the owning applicant can do this")
	}

	from := app.Status
	if err := transition(app, s.now()); err != nil {
		return nil, lifecycleError(app, err)
	}
	if err := persist(ctx, app); err != nil {
		return nil, repositoryError("application", id, err)
	}

	metrics.ObserveTransition(string(from), string(app.Status))
	s.logger.Info("Application transitioned",
		zap.Int64("application_id", app.ID),
		zap.String("from", string(from)),
		zap.String("to", string(app.Status)))
	s.emit(ctx, eventType, p, app, string(from))
	return app, nil
}

// ===============================
// BACK-OFFICE OPERATIONS
// ===============================

// SetStatus forces any status. No transition graph is enforced here.
func (s *applicationService) SetStatus(ctx context.Context, p *models.Principal, id int64, req *SetStatusRequest) (*models.Application, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, validationError(err)
	}
	app, err := s.loadForReview(ctx, p, id)
	if err != nil {
		return nil, err
	}

	from := app.Status
	if err := app.SetStatus(req.Status, s.now()); err != nil {
		return nil, lifecycleError(app, err)
	}
	if err := s.applications.UpdateStatus(ctx, app); err != nil {
		return nil, repositoryError("application", id, err)
	}

	metrics.ObserveTransition(string(from), string(app.Status))
	s.logger.Info("Application status set",
		zap.Int64("application_id", app.ID),
		zap.Int64("actor_id", p.UserID),
		zap.String("from", string(from)),
		zap.String("to", string(app.Status)))
	s.emit(ctx, events.ApplicationStatusChanged, p, app, string(from))
	return app, nil
}

// AddReviewNote appends an immutable reviewer note.
func (s *applicationService) AddReviewNote(ctx context.Context, p *models.Principal, id int64, req *ReviewNoteRequest) (*models.Application, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, validationError(err)
	}
	app, err := s.loadForReview(ctx, p, id)
	if err != nil {
		return nil, err
	}

	severity := req.Severity
	if severity == "" {
		severity = models.SeverityInfo
	}
	if !models.ValidSeverity(severity) {
		return nil, NewValidationError("unknown severity", nil).WithDetail("severity", severity)
	}
	now := s.now()
	note := &models.ReviewNote{
		ReviewerID: p.UserID,
		Note:       req.Note,
		Severity:   severity,
		CreatedAt:  now,
	}
	if err := s.applications.AddReviewNote(ctx, app.ID, note); err != nil {
		return nil, repositoryError("application", id, err)
	}
	app.ReviewNotes = append(app.ReviewNotes, *note)
	app.UpdatedAt = now

	s.emit(ctx, events.ApplicationNoteAdded, p, app, string(app.Status))
	return app, nil
}

// ScheduleInterview merges interview details.
func (s *applicationService) ScheduleInterview(ctx context.Context, p *models.Principal, id int64, req *models.InterviewUpdate) (*models.Application, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, validationError(err)
	}
	app, err := s.loadForReview(ctx, p, id)
	if err != nil {
		return nil, err
	}
	app.ScheduleInterview(*req, s.now())
	if err := s.applications.UpdateInterview(ctx, app); err != nil {
		return nil, repositoryError("application", id, err)
	}
	s.emit(ctx, events.ApplicationInterviewScheduled, p, app, string(app.Status))
	return app, nil
}

// UpdatePayment merges payment details.
func (s *applicationService) UpdatePayment(ctx context.Context, p *models.Principal, id int64, req *models.PaymentUpdate) (*models.Application, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, validationError(err)
	}
	app, err := s.loadForReview(ctx, p, id)
	if err != nil {
		return nil, err
	}
	app.UpdatePayment(*req, s.now())
	if err := s.applications.UpdatePayment(ctx, app); err != nil {
		return nil, repositoryError("application", id, err)
	}
	s.emit(ctx, events.ApplicationPaymentUpdated, p, app, string(app.Status))
	return app, nil
}

// Delete removes an application. Owners may only delete drafts.
func (s *applicationService) Delete(ctx context.Context, p *models.Principal, id int64) error {
	app, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := authorize(p, policy.ApplicationResource(app), policy.Delete); err != nil {
		return err
	}
	if !p.IsStaffOrAdmin() && app.Status != models.StatusDraft {
		return NewConflictError("only draft applications can be deleted", "NOT_DELETABLE")
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.applications.Delete(ctx, app.ID); err != nil {
			return err
		}
		return s.listings.IncrementApplicationCount(ctx, app.Target, -1)
	})
	if err != nil {
		return repositoryError("application", id, err)
	}

	s.logger.Info("Application deleted", zap.Int64("application_id", id), zap.Int64("actor_id", p.UserID))
	s.emit(ctx, events.ApplicationDeleted, p, app, string(app.Status))
	return nil
}

// ===============================
// HELPERS
// ===============================

func (s *applicationService) load(ctx context.Context, id int64) (*models.Application, error) {
	app, err := s.applications.GetByID(ctx, id)
	if err != nil {
		return nil, repositoryError("application", id, err)
	}
	if app == nil {
		return nil, EntityNotFoundError("application", id)
	}
	return app, nil
}

// loadForReview loads an application for a back-office write.
func (s *applicationService) loadForReview(ctx context.Context, p *models.Principal, id int64) (*models.Application, error) {
	if err := requireBackOffice(p); err != nil {
		return nil, err
	}
	app, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(p, policy.ApplicationResource(app), policy.Write); err != nil {
		return nil, err
	}
	return app, nil
}

func (s *applicationService) applicantOf(ctx context.Context, p *models.Principal) (*models.Applicant, error) {
	applicant, err := s.applicants.GetByUserID(ctx, p.UserID)
	if err != nil {
		return nil, repositoryError("applicant", p.UserID, err)
	}
	if applicant == nil {
		return nil, NewNotFoundError("applicant profile not found").WithDetail("user_id", p.UserID)
	}
	return applicant, nil
}

func (s *applicationService) emit(ctx context.Context, eventType string, p *models.Principal, app *models.Application, from string) {
	publish(ctx, s.events, s.logger, events.NewApplicationEvent(
		eventType, p.UserID, app.ID, app.ApplicantUserID,
		app.Target.String(), from, string(app.Status), app.Progress,
	))
}

// requireBackOffice rejects callers that are not staff or admin.
func requireBackOffice(p *models.Principal) error {
	if p == nil {
		return NewUnauthorizedError("Authentication required")
	}
	if !p.IsStaffOrAdmin() {
		return NewForbiddenError("staff or admin role required")
	}
	return nil
}

// lifecycleError maps a refused state change onto the error taxonomy.
func lifecycleError(app *models.Application, err error) error {
	switch {
	case errors.Is(err, models.ErrTerminalStatus):
		return NewConflictError("application is in a terminal status", "TERMINAL_STATUS").
			WithDetail("status", string(app.Status))
	case errors.Is(err, models.ErrNotSubmittable):
		return NewConflictError("application cannot be submitted from its current status", "NOT_SUBMITTABLE").
			WithDetail("status", string(app.Status))
	case errors.Is(err, models.ErrNotRestartable):
		return NewConflictError("submitted or closed applications cannot be restarted", "NOT_RESTARTABLE").
			WithDetail("status", string(app.Status))
	case errors.Is(err, models.ErrProgressTooLow):
		return NewPreconditionFailedError("application is not complete enough to submit", "PROGRESS_TOO_LOW").
			WithDetail("progress", app.Progress).
			WithDetail("required", models.SubmitThreshold)
	case errors.Is(err, models.ErrUnknownSection),
		errors.Is(err, models.ErrNegativeStep),
		errors.Is(err, models.ErrInvalidStatus):
		return NewValidationError(err.Error(), err)
	}
	return err
}
