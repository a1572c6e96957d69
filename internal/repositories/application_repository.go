package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"scholarhub/internal/database"
	"scholarhub/internal/models"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

type applicationRepository struct {
	*BaseRepository
}

// NewApplicationRepository creates an application repository
func NewApplicationRepository(db *database.Manager, logger *zap.Logger) ApplicationRepository {
	return &applicationRepository{BaseRepository: NewBaseRepository(db, logger)}
}

const applicationSelect = `
	SELECT
		a.id, a.applicant_id, p.user_id, a.type, a.job_id, a.scholarship_id,
		a.status, a.progress, a.current_step, a.application_data,
		a.interview_details, a.payment_info, a.submission_date,
		a.created_at, a.updated_at
	FROM applications a
	INNER JOIN applicants p ON p.id = a.applicant_id`

var applicationSorts = []string{"created_at", "updated_at", "status", "progress"}

func scanApplication(row interface{ Scan(...interface{}) error }) (*models.Application, error) {
	var (
		app           models.Application
		kind          models.ListingKind
		jobID         sql.NullInt64
		scholarshipID sql.NullInt64
		submitted     sql.NullTime
	)
	err := row.Scan(
		&app.ID, &app.ApplicantID, &app.ApplicantUserID, &kind, &jobID, &scholarshipID,
		&app.Status, &app.Progress, &app.CurrentStep, &app.Data,
		&app.Interview, &app.Payment, &submitted,
		&app.CreatedAt, &app.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	switch {
	case kind == models.ListingJob && jobID.Valid:
		app.Target = models.JobRef(jobID.Int64)
	case kind == models.ListingScholarship && scholarshipID.Valid:
		app.Target = models.ScholarshipRef(scholarshipID.Int64)
	default:
		return nil, fmt.Errorf("application %d: %w", app.ID, models.ErrInvalidListingRef)
	}
	if submitted.Valid {
		t := submitted.Time
		app.SubmissionDate = &t
	}
	if app.Data == nil {
		app.Data = models.ApplicationData{}
	}
	app.ReviewNotes = []models.ReviewNote{}
	return &app, nil
}

// Create inserts an application whose id was already allocated. The
// partial unique indexes reject a second application for the same target.
func (r *applicationRepository) Create(ctx context.Context, app *models.Application) error {
	query := `
		INSERT INTO applications (
			id, applicant_id, type, job_id, scholarship_id,
			status, progress, current_step, application_data, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)`

	_, err := r.ExecContext(ctx, query,
		app.ID, app.ApplicantID, app.Target.Kind, app.Target.JobID(), app.Target.ScholarshipID(),
		app.Status, app.Progress, app.CurrentStep, app.Data, app.CreatedAt,
	)
	if err != nil {
		return r.wrapWriteError("create application", err)
	}

	r.GetLogger().Info("Application created",
		zap.Int64("application_id", app.ID),
		zap.Int64("applicant_id", app.ApplicantID),
		zap.String("target", app.Target.String()))
	return nil
}

// GetByID loads an application with its review notes.
func (r *applicationRepository) GetByID(ctx context.Context, id int64) (*models.Application, error) {
	app, err := scanApplication(r.QueryRowContext(ctx, applicationSelect+` WHERE a.id = $1`, id))
	if err != nil {
		if r.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	if err := r.attachNotes(ctx, []*models.Application{app}); err != nil {
		return nil, err
	}
	return app, nil
}

// ExistsForTarget reports whether the applicant already applied to target.
func (r *applicationRepository) ExistsForTarget(ctx context.Context, applicantID int64, target models.ListingRef) (bool, error) {
	column := "job_id"
	if target.Kind == models.ListingScholarship {
		column = "scholarship_id"
	}
	var exists bool
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM applications WHERE applicant_id = $1 AND %s = $2)`, column)
	if err := r.QueryRowContext(ctx, query, applicantID, target.ID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check existing application: %w", err)
	}
	return exists, nil
}

// ===============================
// COLUMN-SCOPED UPDATES
// ===============================

// UpdateContent writes the section data, progress and current step.
func (r *applicationRepository) UpdateContent(ctx context.Context, app *models.Application) error {
	res, err := r.ExecContext(ctx, `
		UPDATE applications
		SET application_data = $2, progress = $3, current_step = $4, updated_at = $5
		WHERE id = $1`,
		app.ID, app.Data, app.Progress, app.CurrentStep, app.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update application content: %w", err)
	}
	return expectRow(res, "update application content")
}

// UpdateStatus writes a status change. Section data, progress and step are
// left as stored.
func (r *applicationRepository) UpdateStatus(ctx context.Context, app *models.Application) error {
	res, err := r.ExecContext(ctx, `
		UPDATE applications
		SET status = $2, submission_date = $3, updated_at = $4
		WHERE id = $1`,
		app.ID, app.Status, app.SubmissionDate, app.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update application status: %w", err)
	}
	return expectRow(res, "update application status")
}

// Reset writes a restarted application: status, content and progress
// together.
func (r *applicationRepository) Reset(ctx context.Context, app *models.Application) error {
	res, err := r.ExecContext(ctx, `
		UPDATE applications
		SET status = $2, progress = $3, current_step = $4, application_data = $5,
		    submission_date = $6, updated_at = $7
		WHERE id = $1`,
		app.ID, app.Status, app.Progress, app.CurrentStep, app.Data, app.SubmissionDate, app.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to reset application: %w", err)
	}
	return expectRow(res, "reset application")
}

// UpdateInterview writes the interview sub-record.
func (r *applicationRepository) UpdateInterview(ctx context.Context, app *models.Application) error {
	res, err := r.ExecContext(ctx,
		`UPDATE applications SET interview_details = $2, updated_at = $3 WHERE id = $1`,
		app.ID, app.Interview, app.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update interview details: %w", err)
	}
	return expectRow(res, "update interview details")
}

// UpdatePayment writes the payment sub-record.
func (r *applicationRepository) UpdatePayment(ctx context.Context, app *models.Application) error {
	res, err := r.ExecContext(ctx,
		`UPDATE applications SET payment_info = $2, updated_at = $3 WHERE id = $1`,
		app.ID, app.Payment, app.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update payment info: %w", err)
	}
	return expectRow(res, "update payment info")
}

// AddReviewNote appends a note under the next sequence number. The parent
// row is locked so concurrent reviewers get distinct numbers.
func (r *applicationRepository) AddReviewNote(ctx context.Context, applicationID int64, note *models.ReviewNote) error {
	return r.WithTransaction(ctx, func(ctx context.Context) error {
		var locked int64
		err := r.QueryRowContext(ctx, `SELECT id FROM applications WHERE id = $1 FOR UPDATE`, applicationID).Scan(&locked)
		if err != nil {
			if r.IsNotFound(err) {
				return fmt.Errorf("failed to add review note: %w", ErrNotFound)
			}
			return fmt.Errorf("failed to lock application: %w", err)
		}

		err = r.QueryRowContext(ctx, `
			INSERT INTO application_review_notes (application_id, seq, reviewer_id, note, severity)
			SELECT $1, COALESCE(MAX(seq), 0) + 1, $2, $3, $4
			FROM application_review_notes WHERE application_id = $1
			RETURNING seq, created_at`,
			applicationID, note.ReviewerID, note.Note, note.Severity,
		).Scan(&note.Seq, &note.CreatedAt)
		if err != nil {
			return r.wrapWriteError("add review note", err)
		}

		_, err = r.ExecContext(ctx, `UPDATE applications SET updated_at = $2 WHERE id = $1`, applicationID, note.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to touch application: %w", err)
		}
		return nil
	})
}

// Delete removes an application; review notes cascade.
func (r *applicationRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.ExecContext(ctx, `DELETE FROM applications WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete application: %w", err)
	}
	return expectRow(res, "delete application")
}

// ===============================
// LISTING
// ===============================

// ListByApplicant pages through one applicant's applications.
func (r *applicationRepository) ListByApplicant(ctx context.Context, applicantID int64, params models.PaginationParams) (*models.PaginatedResponse[*models.Application], error) {
	return r.List(ctx, models.ApplicationFilter{ApplicantID: &applicantID}, params)
}

func applicationWhere(filter models.ApplicationFilter) *whereBuilder {
	w := &whereBuilder{}
	if filter.Status != "" {
		w.add("a.status = ?", filter.Status)
	}
	if filter.Kind != "" {
		w.add("a.type = ?", filter.Kind)
	}
	if filter.ListingID != nil {
		switch filter.Kind {
		case models.ListingJob:
			w.add("a.job_id = ?", *filter.ListingID)
		case models.ListingScholarship:
			w.add("a.scholarship_id = ?", *filter.ListingID)
		default:
			w.add("(a.job_id = ? OR a.scholarship_id = ?)", *filter.ListingID, *filter.ListingID)
		}
	}
	if filter.ApplicantID != nil {
		w.add("a.applicant_id = ?", *filter.ApplicantID)
	}
	return w
}

// List pages through applications matching filter.
func (r *applicationRepository) List(ctx context.Context, filter models.ApplicationFilter, params models.PaginationParams) (*models.PaginatedResponse[*models.Application], error) {
	w := applicationWhere(filter)

	total, err := r.GetTotalCount(ctx, `SELECT COUNT(*) FROM applications a`+w.sql(), w.countArgs()...)
	if err != nil {
		return nil, fmt.Errorf("failed to count applications: %w", err)
	}

	rows, err := r.QueryContext(ctx, applicationSelect+w.sql()+w.pageClause(params, "a.", applicationSorts...), w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	apps := make([]*models.Application, 0)
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		apps = append(apps, app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate applications: %w", err)
	}

	if err := r.attachNotes(ctx, apps); err != nil {
		return nil, err
	}

	return &models.PaginatedResponse[*models.Application]{
		Data:       apps,
		Pagination: r.BuildPaginationMeta(params, total),
	}, nil
}

// attachNotes loads review notes for a page of applications in one query.
func (r *applicationRepository) attachNotes(ctx context.Context, apps []*models.Application) error {
	if len(apps) == 0 {
		return nil
	}
	ids := make([]int64, len(apps))
	byID := make(map[int64]*models.Application, len(apps))
	for i, app := range apps {
		ids[i] = app.ID
		byID[app.ID] = app
	}

	rows, err := r.QueryContext(ctx, `
		SELECT application_id, seq, reviewer_id, note, severity, created_at
		FROM application_review_notes
		WHERE application_id = ANY($1)
		ORDER BY application_id, seq`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to load review notes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var appID int64
		var n models.ReviewNote
		if err := rows.Scan(&appID, &n.Seq, &n.ReviewerID, &n.Note, &n.Severity, &n.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan review note: %w", err)
		}
		if app := byID[appID]; app != nil {
			app.ReviewNotes = append(app.ReviewNotes, n)
		}
	}
	return rows.Err()
}

// Stats counts applications by status.
func (r *applicationRepository) Stats(ctx context.Context, filter models.ApplicationFilter) (*models.ApplicationStats, error) {
	w := applicationWhere(filter)
	rows, err := r.QueryContext(ctx, `SELECT a.status, COUNT(*) FROM applications a`+w.sql()+` GROUP BY a.status`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to compute application stats: %w", err)
	}
	defer rows.Close()

	stats := &models.ApplicationStats{ByStatus: make(map[models.ApplicationStatus]int64, len(models.AllApplicationStatuses))}
	for _, s := range models.AllApplicationStatuses {
		stats.ByStatus[s] = 0
	}
	for rows.Next() {
		var status models.ApplicationStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan application stats: %w", err)
		}
		stats.ByStatus[status] = count
		stats.Total += count
	}
	return stats, rows.Err()
}
