package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"scholarhub/internal/database"
	"scholarhub/internal/models"

	"go.uber.org/zap"
)

type documentRepository struct {
	*BaseRepository
}

// NewDocumentRepository creates a document metadata repository
func NewDocumentRepository(db *database.Manager, logger *zap.Logger) DocumentRepository {
	return &documentRepository{BaseRepository: NewBaseRepository(db, logger)}
}

const documentSelect = `
	SELECT
		d.id, d.applicant_id, d.application_id, p.user_id, d.type,
		d.file_name, d.file_path, d.file_size, d.mime_type, d.page_count,
		d.is_verified, d.verified_by, d.verified_at, d.created_at, d.updated_at
	FROM documents d
	INNER JOIN applicants p ON p.id = d.applicant_id`

func scanDocument(row interface{ Scan(...interface{}) error }) (*models.Document, error) {
	var (
		doc           models.Document
		applicationID sql.NullInt64
		verifiedBy    sql.NullInt64
		verifiedAt    sql.NullTime
	)
	err := row.Scan(
		&doc.ID, &doc.ApplicantID, &applicationID, &doc.ApplicantUserID, &doc.Type,
		&doc.FileName, &doc.FilePath, &doc.FileSize, &doc.MimeType, &doc.PageCount,
		&doc.IsVerified, &verifiedBy, &verifiedAt, &doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if applicationID.Valid {
		id := applicationID.Int64
		doc.ApplicationID = &id
	}
	if verifiedBy.Valid {
		id := verifiedBy.Int64
		doc.VerifiedBy = &id
	}
	if verifiedAt.Valid {
		t := verifiedAt.Time
		doc.VerifiedAt = &t
	}
	return &doc, nil
}

// Create stores the metadata of an uploaded file.
func (r *documentRepository) Create(ctx context.Context, doc *models.Document) error {
	query := `
		INSERT INTO documents (
			id, applicant_id, application_id, type, file_name, file_path,
			file_size, mime_type, page_count
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`

	err := r.QueryRowContext(ctx, query,
		doc.ID, doc.ApplicantID, doc.ApplicationID, doc.Type, doc.FileName, doc.FilePath,
		doc.FileSize, doc.MimeType, doc.PageCount,
	).Scan(&doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return r.wrapWriteError("create document", err)
	}

	r.GetLogger().Info("Document recorded",
		zap.Int64("document_id", doc.ID),
		zap.Int64("applicant_id", doc.ApplicantID),
		zap.String("type", doc.Type),
		zap.Int64("size", doc.FileSize))
	return nil
}

// GetByID loads a document with its owning user.
func (r *documentRepository) GetByID(ctx context.Context, id int64) (*models.Document, error) {
	doc, err := scanDocument(r.QueryRowContext(ctx, documentSelect+` WHERE d.id = $1`, id))
	if err != nil {
		if r.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return doc, nil
}

// ListByApplicant returns an applicant's documents, newest first,
// optionally only those attached to one application.
func (r *documentRepository) ListByApplicant(ctx context.Context, applicantID int64, applicationID *int64) ([]*models.Document, error) {
	var w whereBuilder
	w.add("d.applicant_id = ?", applicantID)
	if applicationID != nil {
		w.add("d.application_id = ?", *applicationID)
	}

	rows, err := r.QueryContext(ctx, documentSelect+w.sql()+` ORDER BY d.created_at DESC, d.id DESC`, w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	docs := make([]*models.Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate documents: %w", err)
	}
	return docs, nil
}

// CountByApplicant counts the documents an applicant has uploaded.
func (r *documentRepository) CountByApplicant(ctx context.Context, applicantID int64) (int, error) {
	var count int
	err := r.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE applicant_id = $1`, applicantID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return count, nil
}

// UpdateVerification writes the verification sub-state only.
func (r *documentRepository) UpdateVerification(ctx context.Context, doc *models.Document) error {
	res, err := r.ExecContext(ctx, `
		UPDATE documents
		SET is_verified = $2, verified_by = $3, verified_at = $4, updated_at = $5
		WHERE id = $1`,
		doc.ID, doc.IsVerified, doc.VerifiedBy, doc.VerifiedAt, doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update document verification: %w", err)
	}
	return expectRow(res, "update document verification")
}

// Delete removes a document record.
func (r *documentRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return expectRow(res, "delete document")
}
