package repositories

import (
	"context"
	"fmt"

	"scholarhub/internal/database"
	"scholarhub/internal/models"

	"go.uber.org/zap"
)

// listingRepository implements ListingRepository over the jobs and
// scholarships tables.
type listingRepository struct {
	*BaseRepository
}

// NewListingRepository creates a job and scholarship repository
func NewListingRepository(db *database.Manager, logger *zap.Logger) ListingRepository {
	return &listingRepository{BaseRepository: NewBaseRepository(db, logger)}
}

func listingTable(kind models.ListingKind) (string, error) {
	switch kind {
	case models.ListingJob:
		return "jobs", nil
	case models.ListingScholarship:
		return "scholarships", nil
	}
	return "", models.ErrInvalidListingRef
}

const listingColumns = `id, title, description, status, deadline, application_count, created_by, created_at, updated_at`

var listingSorts = []string{"created_at", "updated_at", "deadline", "status"}

func listingDest(l *models.Listing) []interface{} {
	return []interface{}{
		&l.ID, &l.Title, &l.Description, &l.Status, &l.Deadline,
		&l.ApplicationCount, &l.CreatedBy, &l.CreatedAt, &l.UpdatedAt,
	}
}

// ===============================
// LAZY CLOSE
// ===============================

// persistClose writes back a status correction made by Normalize.
func (r *listingRepository) persistClose(ctx context.Context, table string, l *models.Listing) {
	query := fmt.Sprintf(`UPDATE %s SET status = 'closed', updated_at = $2 WHERE id = $1 AND status = 'active'`, table)
	if _, err := r.ExecContext(ctx, query, l.ID, l.UpdatedAt); err != nil {
		r.GetLogger().Warn("Failed to persist listing close",
			zap.String("table", table),
			zap.Int64("id", l.ID),
			zap.Error(err))
	}
}

// closeExpired closes every active listing past its deadline.
func (r *listingRepository) closeExpired(ctx context.Context, table string) error {
	query := fmt.Sprintf(`UPDATE %s SET status = 'closed', updated_at = $1 WHERE status = 'active' AND deadline < $1`, table)
	res, err := r.ExecContext(ctx, query, r.now())
	if err != nil {
		return fmt.Errorf("failed to close expired %s: %w", table, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		r.GetLogger().Info("Closed expired listings", zap.String("table", table), zap.Int64("count", n))
	}
	return nil
}

func (r *listingRepository) normalizeLoaded(ctx context.Context, table string, l *models.Listing) {
	now := r.now()
	if l.Normalize(now) {
		l.UpdatedAt = now
		r.persistClose(ctx, table, l)
	}
}

func (r *listingRepository) filterWhere(filter ListingFilter) *whereBuilder {
	w := &whereBuilder{}
	if filter.Status != "" {
		w.add("status = ?", filter.Status)
	}
	if filter.OpenOnly {
		w.add("status = 'active' AND deadline >= ?", r.now())
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		w.add("(title ILIKE ? OR description ILIKE ?)", pattern, pattern)
	}
	if filter.CreatedBy != nil {
		w.add("created_by = ?", *filter.CreatedBy)
	}
	return w
}

// ===============================
// JOBS
// ===============================

const jobSelect = `SELECT ` + listingColumns + `, company, location, employment_type, salary_range, positions FROM jobs`

func scanJob(row interface{ Scan(...interface{}) error }) (*models.Job, error) {
	j := &models.Job{}
	dest := append(listingDest(&j.Listing), &j.Company, &j.Location, &j.EmploymentType, &j.SalaryRange, &j.Positions)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	j.Kind = models.ListingJob
	return j, nil
}

// CreateJob inserts a job whose id was already allocated.
func (r *listingRepository) CreateJob(ctx context.Context, j *models.Job) error {
	j.Kind = models.ListingJob
	j.Normalize(r.now())
	j.Positions.AssignKeys()

	query := `
		INSERT INTO jobs (
			id, title, description, status, deadline, created_by,
			company, location, employment_type, salary_range, positions
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING application_count, created_at, updated_at`

	err := r.QueryRowContext(ctx, query,
		j.ID, j.Title, j.Description, j.Status, j.Deadline, j.CreatedBy,
		j.Company, j.Location, j.EmploymentType, j.SalaryRange, j.Positions,
	).Scan(&j.ApplicationCount, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return r.wrapWriteError("create job", err)
	}

	r.GetLogger().Info("Job created", zap.Int64("job_id", j.ID), zap.Int64("created_by", j.CreatedBy))
	return nil
}

// GetJob loads a job, closing it first when its deadline has passed.
func (r *listingRepository) GetJob(ctx context.Context, id int64) (*models.Job, error) {
	j, err := scanJob(r.QueryRowContext(ctx, jobSelect+` WHERE id = $1`, id))
	if err != nil {
		if r.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	r.normalizeLoaded(ctx, "jobs", &j.Listing)
	return j, nil
}

// UpdateJob rewrites the editable job fields.
func (r *listingRepository) UpdateJob(ctx context.Context, j *models.Job) error {
	j.Normalize(r.now())
	j.Positions.AssignKeys()

	query := `
		UPDATE jobs SET
			title = $2, description = $3, status = $4, deadline = $5,
			company = $6, location = $7, employment_type = $8, salary_range = $9,
			positions = $10, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.QueryRowContext(ctx, query,
		j.ID, j.Title, j.Description, j.Status, j.Deadline,
		j.Company, j.Location, j.EmploymentType, j.SalaryRange, j.Positions,
	).Scan(&j.UpdatedAt)
	if err != nil {
		if r.IsNotFound(err) {
			return fmt.Errorf("failed to update job: %w", ErrNotFound)
		}
		return fmt.Errorf("failed to update job: %w", err)
	}
	return nil
}

// DeleteJob removes a job.
func (r *listingRepository) DeleteJob(ctx context.Context, id int64) error {
	res, err := r.ExecContext(ctx, `DELETE FROM jobs WHERE id = $1`, id)
	if err != nil {
		return r.wrapWriteError("delete job", err)
	}
	return expectRow(res, "delete job")
}

// ListJobs pages through jobs after closing expired ones.
func (r *listingRepository) ListJobs(ctx context.Context, filter ListingFilter, params models.PaginationParams) (*models.PaginatedResponse[*models.Job], error) {
	if err := r.closeExpired(ctx, "jobs"); err != nil {
		return nil, err
	}

	w := r.filterWhere(filter)
	total, err := r.GetTotalCount(ctx, `SELECT COUNT(*) FROM jobs`+w.sql(), w.countArgs()...)
	if err != nil {
		return nil, fmt.Errorf("failed to count jobs: %w", err)
	}

	rows, err := r.QueryContext(ctx, jobSelect+w.sql()+w.pageClause(params, "", listingSorts...), w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	jobs := make([]*models.Job, 0)
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate jobs: %w", err)
	}

	return &models.PaginatedResponse[*models.Job]{
		Data:       jobs,
		Pagination: r.BuildPaginationMeta(params, total),
	}, nil
}

// ===============================
// SCHOLARSHIPS
// ===============================

const scholarshipSelect = `SELECT ` + listingColumns + `, program, university, country, amount, currency, eligibility FROM scholarships`

func scanScholarship(row interface{ Scan(...interface{}) error }) (*models.Scholarship, error) {
	s := &models.Scholarship{}
	dest := append(listingDest(&s.Listing), &s.Program, &s.University, &s.Country, &s.Amount, &s.Currency, &s.Eligibility)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	s.Kind = models.ListingScholarship
	return s, nil
}

// CreateScholarship inserts a scholarship whose id was already allocated.
func (r *listingRepository) CreateScholarship(ctx context.Context, s *models.Scholarship) error {
	s.Kind = models.ListingScholarship
	s.Normalize(r.now())
	if s.Currency == "" {
		s.Currency = "USD"
	}

	query := `
		INSERT INTO scholarships (
			id, title, description, status, deadline, created_by,
			program, university, country, amount, currency, eligibility
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING application_count, created_at, updated_at`

	err := r.QueryRowContext(ctx, query,
		s.ID, s.Title, s.Description, s.Status, s.Deadline, s.CreatedBy,
		s.Program, s.University, s.Country, s.Amount, s.Currency, s.Eligibility,
	).Scan(&s.ApplicationCount, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return r.wrapWriteError("create scholarship", err)
	}

	r.GetLogger().Info("Scholarship created", zap.Int64("scholarship_id", s.ID), zap.Int64("created_by", s.CreatedBy))
	return nil
}

// GetScholarship loads a scholarship, closing it first when its deadline has passed.
func (r *listingRepository) GetScholarship(ctx context.Context, id int64) (*models.Scholarship, error) {
	s, err := scanScholarship(r.QueryRowContext(ctx, scholarshipSelect+` WHERE id = $1`, id))
	if err != nil {
		if r.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get scholarship: %w", err)
	}
	r.normalizeLoaded(ctx, "scholarships", &s.Listing)
	return s, nil
}

// UpdateScholarship rewrites the editable scholarship fields.
func (r *listingRepository) UpdateScholarship(ctx context.Context, s *models.Scholarship) error {
	s.Normalize(r.now())

	query := `
		UPDATE scholarships SET
			title = $2, description = $3, status = $4, deadline = $5,
			program = $6, university = $7, country = $8, amount = $9,
			currency = $10, eligibility = $11, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.QueryRowContext(ctx, query,
		s.ID, s.Title, s.Description, s.Status, s.Deadline,
		s.Program, s.University, s.Country, s.Amount, s.Currency, s.Eligibility,
	).Scan(&s.UpdatedAt)
	if err != nil {
		if r.IsNotFound(err) {
			return fmt.Errorf("failed to update scholarship: %w", ErrNotFound)
		}
		return fmt.Errorf("failed to update scholarship: %w", err)
	}
	return nil
}

// DeleteScholarship removes a scholarship.
func (r *listingRepository) DeleteScholarship(ctx context.Context, id int64) error {
	res, err := r.ExecContext(ctx, `DELETE FROM scholarships WHERE id = $1`, id)
	if err != nil {
		return r.wrapWriteError("delete scholarship", err)
	}
	return expectRow(res, "delete scholarship")
}

// ListScholarships pages through scholarships after closing expired ones.
func (r *listingRepository) ListScholarships(ctx context.Context, filter ListingFilter, params models.PaginationParams) (*models.PaginatedResponse[*models.Scholarship], error) {
	if err := r.closeExpired(ctx, "scholarships"); err != nil {
		return nil, err
	}

	w := r.filterWhere(filter)
	total, err := r.GetTotalCount(ctx, `SELECT COUNT(*) FROM scholarships`+w.sql(), w.countArgs()...)
	if err != nil {
		return nil, fmt.Errorf("failed to count scholarships: %w", err)
	}

	rows, err := r.QueryContext(ctx, scholarshipSelect+w.sql()+w.pageClause(params, "", listingSorts...), w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list scholarships: %w", err)
	}
	defer rows.Close()

	items := make([]*models.Scholarship, 0)
	for rows.Next() {
		s, err := scanScholarship(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scholarship: %w", err)
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate scholarships: %w", err)
	}

	return &models.PaginatedResponse[*models.Scholarship]{
		Data:       items,
		Pagination: r.BuildPaginationMeta(params, total),
	}, nil
}

// ===============================
// SHARED
// ===============================

// GetListing loads the shared fields of the referenced listing.
func (r *listingRepository) GetListing(ctx context.Context, ref models.ListingRef) (*models.Listing, error) {
	table, err := listingTable(ref.Kind)
	if err != nil {
		return nil, err
	}

	var l models.Listing
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, listingColumns, table)
	if err := r.QueryRowContext(ctx, query, ref.ID).Scan(listingDest(&l)...); err != nil {
		if r.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get %s: %w", ref.Kind, err)
	}
	l.Kind = ref.Kind
	r.normalizeLoaded(ctx, table, &l)
	return &l, nil
}

// IncrementApplicationCount adjusts the denormalized application counter.
func (r *listingRepository) IncrementApplicationCount(ctx context.Context, ref models.ListingRef, delta int) error {
	table, err := listingTable(ref.Kind)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`UPDATE %s SET application_count = GREATEST(application_count + $2, 0) WHERE id = $1`, table)
	res, err := r.ExecContext(ctx, query, ref.ID, delta)
	if err != nil {
		return fmt.Errorf("failed to update application count: %w", err)
	}
	return expectRow(res, "update application count")
}
