package repositories

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"scholarhub/internal/database"
	"scholarhub/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newMock(t *testing.T) (*database.Manager, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	m := database.NewManagerFromDB(db, nil, zap.NewNop())
	t.Cleanup(func() { m.Close() })
	return m, mock
}

func listingRow(status string, deadline time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "title", "description", "status", "deadline", "application_count", "created_by", "created_at", "updated_at",
	}).AddRow(7, "Data Analyst", "desc", status, deadline, 2, 1, fixedNow.Add(-48*time.Hour), fixedNow.Add(-48*time.Hour))
}

func TestGetListing_ClosesExpiredActiveListing(t *testing.T) {
	m, mock := newMock(t)
	repo := NewListingRepository(m, zap.NewNop()).(*listingRepository)
	repo.SetClock(func() time.Time { return fixedNow })

	mock.ExpectQuery(`FROM jobs WHERE id = \$1`).
		WithArgs(int64(7)).
		WillReturnRows(listingRow("active", fixedNow.Add(-time.Hour)))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE jobs SET status = 'closed'`)).
		WithArgs(int64(7), fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))

	l, err := repo.GetListing(context.Background(), models.JobRef(7))
	require.NoError(t, err)
	require.NotNil(t, l)
	assert.Equal(t, models.ListingClosed, l.Status)
	assert.Equal(t, models.ListingJob, l.Kind)
	assert.False(t, l.IsAcceptingApplications(fixedNow))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetListing_LeavesOpenListingAlone(t *testing.T) {
	m, mock := newMock(t)
	repo := NewListingRepository(m, zap.NewNop()).(*listingRepository)
	repo.SetClock(func() time.Time { return fixedNow })

	mock.ExpectQuery(`FROM scholarships WHERE id = \$1`).
		WillReturnRows(listingRow("active", fixedNow.Add(time.Hour)))

	l, err := repo.GetListing(context.Background(), models.ScholarshipRef(7))
	require.NoError(t, err)
	assert.Equal(t, models.ListingActive, l.Status)
	assert.True(t, l.IsAcceptingApplications(fixedNow))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetListing_NotFound(t *testing.T) {
	m, mock := newMock(t)
	repo := NewListingRepository(m, zap.NewNop())

	mock.ExpectQuery(`FROM jobs WHERE id = \$1`).WillReturnError(sql.ErrNoRows)

	l, err := repo.GetListing(context.Background(), models.JobRef(99))
	require.NoError(t, err)
	assert.Nil(t, l)
}

func TestGetListing_RejectsUnknownKind(t *testing.T) {
	m, _ := newMock(t)
	repo := NewListingRepository(m, zap.NewNop())

	_, err := repo.GetListing(context.Background(), models.ListingRef{Kind: "internship", ID: 1})
	assert.ErrorIs(t, err, models.ErrInvalidListingRef)
}

func TestApplicationCreate_DuplicateTarget(t *testing.T) {
	m, mock := newMock(t)
	repo := NewApplicationRepository(m, zap.NewNop())

	mock.ExpectExec(`INSERT INTO applications`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "applications_applicant_job_key"})

	app := models.NewApplication(1, 3, models.JobRef(7), fixedNow)
	err := repo.Create(context.Background(), app)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.Contains(t, err.Error(), "applications_applicant_job_key")
}

func applicationColumns() []string {
	return []string{
		"id", "applicant_id", "user_id", "type", "job_id", "scholarship_id",
		"status", "progress", "current_step", "application_data",
		"interview_details", "payment_info", "submission_date",
		"created_at", "updated_at",
	}
}

func TestApplicationGetByID_LoadsTargetAndNotes(t *testing.T) {
	m, mock := newMock(t)
	repo := NewApplicationRepository(m, zap.NewNop())

	mock.ExpectQuery(`FROM applications a`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(applicationColumns()).AddRow(
			1, 3, 42, "scholarship", nil, 9,
			"in_progress", 40, 2, []byte(`{"personal_info":{"name":"Ada"},"academic_info":{"gpa":3.9}}`),
			nil, nil, nil,
			fixedNow, fixedNow,
		))
	mock.ExpectQuery(`FROM application_review_notes`).
		WillReturnRows(sqlmock.NewRows([]string{"application_id", "seq", "reviewer_id", "note", "severity", "created_at"}).
			AddRow(1, 1, 5, "missing transcript", "warning", fixedNow).
			AddRow(1, 2, 5, "received", "info", fixedNow))

	app, err := repo.GetByID(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, app)
	assert.Equal(t, models.ScholarshipRef(9), app.Target)
	assert.Equal(t, int64(42), app.ApplicantUserID)
	assert.Equal(t, models.StatusInProgress, app.Status)
	assert.Equal(t, "Ada", app.Data[models.SectionPersonalInfo]["name"])
	require.Len(t, app.ReviewNotes, 2)
	assert.Equal(t, 1, app.ReviewNotes[0].Seq)
	assert.Equal(t, 2, app.ReviewNotes[1].Seq)
	assert.Nil(t, app.Interview)
	assert.Nil(t, app.SubmissionDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationGetByID_InconsistentTarget(t *testing.T) {
	m, mock := newMock(t)
	repo := NewApplicationRepository(m, zap.NewNop())

	mock.ExpectQuery(`FROM applications a`).
		WillReturnRows(sqlmock.NewRows(applicationColumns()).AddRow(
			1, 3, 42, "job", nil, 9,
			"draft", 0, 0, []byte(`{}`),
			nil, nil, nil,
			fixedNow, fixedNow,
		))

	_, err := repo.GetByID(context.Background(), 1)
	assert.ErrorIs(t, err, models.ErrInvalidListingRef)
}

func TestAddReviewNote_AssignsNextSeq(t *testing.T) {
	m, mock := newMock(t)
	repo := NewApplicationRepository(m, zap.NewNop())

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM applications WHERE id = \$1 FOR UPDATE`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery(`INSERT INTO application_review_notes`).
		WithArgs(int64(1), int64(5), "looks good", "info").
		WillReturnRows(sqlmock.NewRows([]string{"seq", "created_at"}).AddRow(3, fixedNow))
	mock.ExpectExec(`UPDATE applications SET updated_at`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	note := &models.ReviewNote{ReviewerID: 5, Note: "looks good", Severity: models.SeverityInfo}
	require.NoError(t, repo.AddReviewNote(context.Background(), 1, note))
	assert.Equal(t, 3, note.Seq)
	assert.Equal(t, fixedNow, note.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddReviewNote_MissingApplication(t *testing.T) {
	m, mock := newMock(t)
	repo := NewApplicationRepository(m, zap.NewNop())

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := repo.AddReviewNote(context.Background(), 404, &models.ReviewNote{ReviewerID: 5, Note: "x", Severity: "info"})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationUpdateStatus_MissingRow(t *testing.T) {
	m, mock := newMock(t)
	repo := NewApplicationRepository(m, zap.NewNop())

	mock.ExpectExec(`UPDATE applications`).WillReturnResult(sqlmock.NewResult(0, 0))

	app := models.NewApplication(1, 3, models.JobRef(7), fixedNow)
	err := repo.UpdateStatus(context.Background(), app)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestApplicationUpdateStatus_WritesOnlyStatusColumns(t *testing.T) {
	m, mock := newMock(t)
	repo := NewApplicationRepository(m, zap.NewNop())

	app := models.NewApplication(1, 3, models.JobRef(7), fixedNow)
	require.NoError(t, app.SetStatus(models.StatusSubmitted, fixedNow))

	mock.ExpectExec(regexp.QuoteMeta(`SET status = $2, submission_date = $3, updated_at = $4`)).
		WithArgs(int64(1), models.StatusSubmitted, app.SubmissionDate, fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), app))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationReset_WritesContentAndStatus(t *testing.T) {
	m, mock := newMock(t)
	repo := NewApplicationRepository(m, zap.NewNop())

	mock.ExpectExec(regexp.QuoteMeta(`SET status = $2, progress = $3, current_step = $4, application_data = $5`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	app := models.NewApplication(1, 3, models.JobRef(7), fixedNow)
	require.NoError(t, repo.Reset(context.Background(), app))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationUpdateContent_WritesOnlyContentColumns(t *testing.T) {
	m, mock := newMock(t)
	repo := NewApplicationRepository(m, zap.NewNop())

	mock.ExpectExec(regexp.QuoteMeta(`SET application_data = $2, progress = $3, current_step = $4, updated_at = $5`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	app := models.NewApplication(1, 3, models.JobRef(7), fixedNow)
	require.NoError(t, repo.UpdateContent(context.Background(), app))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplicationStats_FillsEveryStatus(t *testing.T) {
	m, mock := newMock(t)
	repo := NewApplicationRepository(m, zap.NewNop())

	mock.ExpectQuery(`GROUP BY a.status`).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("submitted", 4).
			AddRow("approved", 1))

	stats, err := repo.Stats(context.Background(), models.ApplicationFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(5), stats.Total)
	assert.Equal(t, int64(4), stats.ByStatus[models.StatusSubmitted])
	assert.Equal(t, int64(0), stats.ByStatus[models.StatusDraft])
	assert.Len(t, stats.ByStatus, len(models.AllApplicationStatuses))
}

func TestDocumentUpdateVerification_MissingRow(t *testing.T) {
	m, mock := newMock(t)
	repo := NewDocumentRepository(m, zap.NewNop())

	mock.ExpectExec(`UPDATE documents`).WillReturnResult(sqlmock.NewResult(0, 0))

	doc := &models.Document{ID: 8}
	doc.Verify(5, fixedNow)
	assert.ErrorIs(t, repo.UpdateVerification(context.Background(), doc), ErrNotFound)
}

func TestAdIncrementImpressions_EmptyIsNoop(t *testing.T) {
	m, mock := newMock(t)
	repo := NewAdRepository(m, zap.NewNop())

	require.NoError(t, repo.IncrementImpressions(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserGetByEmail_Missing(t *testing.T) {
	m, mock := newMock(t)
	repo := NewUserRepository(m, zap.NewNop())

	mock.ExpectQuery(`LOWER\(email\) = LOWER\(\$1\)`).WillReturnError(sql.ErrNoRows)

	u, err := repo.GetByEmail(context.Background(), "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, u)
}

func TestWhereBuilder_NumbersPlaceholders(t *testing.T) {
	var w whereBuilder
	w.add("status = ?", "active")
	w.add("(title ILIKE ? OR description ILIKE ?)", "%go%", "%go%")

	assert.Equal(t, " WHERE status = $1 AND (title ILIKE $2 OR description ILIKE $3)", w.sql())
	assert.Len(t, w.countArgs(), 3)

	page := w.pageClause(models.PaginationParams{Limit: 10, Offset: 20, Sort: "deadline", Order: "asc"}, "", listingSorts...)
	assert.Equal(t, " ORDER BY deadline ASC, id ASC LIMIT $4 OFFSET $5", page)
	assert.Len(t, w.args, 5)
}

func TestWhereBuilder_UnknownSortFallsBack(t *testing.T) {
	var w whereBuilder
	page := w.pageClause(models.PaginationParams{Limit: 5, Sort: "password_hash"}, "a.", applicationSorts...)
	assert.Equal(t, " ORDER BY a.created_at DESC, a.id DESC LIMIT $1 OFFSET $2", page)
}

func TestWrapWriteError_PassesThroughOtherErrors(t *testing.T) {
	base := NewBaseRepository(nil, nil)
	boom := errors.New("connection reset")
	err := base.wrapWriteError("create user", boom)
	assert.ErrorIs(t, err, boom)
	assert.False(t, errors.Is(err, ErrDuplicate))
}
