package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"scholarhub/internal/database"
	"scholarhub/internal/models"

	"go.uber.org/zap"
)

type applicantRepository struct {
	*BaseRepository
}

// NewApplicantRepository creates an applicant profile repository
func NewApplicantRepository(db *database.Manager, logger *zap.Logger) ApplicantRepository {
	return &applicantRepository{BaseRepository: NewBaseRepository(db, logger)}
}

const applicantSelect = `
	SELECT
		a.id, a.user_id, a.first_name, a.last_name, a.phone, a.date_of_birth,
		a.gender, a.nationality, a.bio, a.skills, a.languages, a.education,
		a.profile_completion, a.created_at, a.updated_at,
		(SELECT COUNT(*) FROM documents d WHERE d.applicant_id = a.id) AS document_count
	FROM applicants a`

func scanApplicant(row interface{ Scan(...interface{}) error }) (*models.Applicant, error) {
	var a models.Applicant
	var dob sql.NullTime
	err := row.Scan(
		&a.ID, &a.UserID, &a.FirstName, &a.LastName, &a.Phone, &dob,
		&a.Gender, &a.Nationality, &a.Bio, &a.Skills, &a.Languages, &a.Education,
		&a.ProfileCompletion, &a.CreatedAt, &a.UpdatedAt,
		&a.DocumentCount,
	)
	if err != nil {
		return nil, err
	}
	if dob.Valid {
		t := dob.Time
		a.DateOfBirth = &t
	}
	return &a, nil
}

// Create inserts a profile. Completion is recomputed before writing.
func (r *applicantRepository) Create(ctx context.Context, a *models.Applicant) error {
	a.RefreshCompletion()
	query := `
		INSERT INTO applicants (
			id, user_id, first_name, last_name, phone, date_of_birth,
			gender, nationality, bio, skills, languages, education, profile_completion
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at`

	err := r.QueryRowContext(ctx, query,
		a.ID, a.UserID, a.FirstName, a.LastName, a.Phone, a.DateOfBirth,
		a.Gender, a.Nationality, a.Bio, a.Skills, a.Languages, a.Education, a.ProfileCompletion,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return r.wrapWriteError("create applicant", err)
	}

	r.GetLogger().Info("Applicant profile created",
		zap.Int64("applicant_id", a.ID),
		zap.Int64("user_id", a.UserID))
	return nil
}

// GetByID loads a profile with its document count.
func (r *applicantRepository) GetByID(ctx context.Context, id int64) (*models.Applicant, error) {
	a, err := scanApplicant(r.QueryRowContext(ctx, applicantSelect+` WHERE a.id = $1`, id))
	if err != nil {
		if r.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get applicant by ID: %w", err)
	}
	return a, nil
}

// GetByUserID loads the profile owned by a user.
func (r *applicantRepository) GetByUserID(ctx context.Context, userID int64) (*models.Applicant, error) {
	a, err := scanApplicant(r.QueryRowContext(ctx, applicantSelect+` WHERE a.user_id = $1`, userID))
	if err != nil {
		if r.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get applicant by user: %w", err)
	}
	return a, nil
}

// Update rewrites the editable fields and the recomputed completion.
func (r *applicantRepository) Update(ctx context.Context, a *models.Applicant) error {
	a.RefreshCompletion()
	query := `
		UPDATE applicants SET
			first_name = $2, last_name = $3, phone = $4, date_of_birth = $5,
			gender = $6, nationality = $7, bio = $8, skills = $9,
			languages = $10, education = $11, profile_completion = $12,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.QueryRowContext(ctx, query,
		a.ID, a.FirstName, a.LastName, a.Phone, a.DateOfBirth,
		a.Gender, a.Nationality, a.Bio, a.Skills,
		a.Languages, a.Education, a.ProfileCompletion,
	).Scan(&a.UpdatedAt)
	if err != nil {
		if r.IsNotFound(err) {
			return fmt.Errorf("failed to update applicant: %w", ErrNotFound)
		}
		return fmt.Errorf("failed to update applicant: %w", err)
	}
	return nil
}

// UpdateCompletion stores a completion score computed elsewhere.
func (r *applicantRepository) UpdateCompletion(ctx context.Context, id int64, completion int) error {
	res, err := r.ExecContext(ctx,
		`UPDATE applicants SET profile_completion = $2, updated_at = NOW() WHERE id = $1`,
		id, completion)
	if err != nil {
		return fmt.Errorf("failed to update profile completion: %w", err)
	}
	return expectRow(res, "update profile completion")
}
