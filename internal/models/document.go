package models

import "time"

// Document categories.
const (
	DocCV                   = "cv"
	DocTranscript           = "transcript"
	DocCertificate          = "certificate"
	DocPassport             = "passport"
	DocRecommendationLetter = "recommendation_letter"
	DocCoverLetter          = "cover_letter"
	DocOther                = "other"
)

// ValidDocumentType reports whether t is a known document category.
func ValidDocumentType(t string) bool {
	switch t {
	case DocCV, DocTranscript, DocCertificate, DocPassport, DocRecommendationLetter, DocCoverLetter, DocOther:
		return true
	}
	return false
}

// Document is the metadata of an uploaded file owned by an applicant.
type Document struct {
	ID            int64  `json:"id" db:"id"`
	ApplicantID   int64  `json:"applicant_id" db:"applicant_id"`
	ApplicationID *int64 `json:"application_id,omitempty" db:"application_id"`
	// ApplicantUserID is the user owning the applicant profile (joined).
	ApplicantUserID int64      `json:"-" db:"-"`
	Type            string     `json:"type" db:"type"`
	FileName        string     `json:"file_name" db:"file_name"`
	FilePath        string     `json:"file_path" db:"file_path"`
	FileSize        int64      `json:"file_size" db:"file_size"`
	MimeType        string     `json:"mime_type" db:"mime_type"`
	PageCount       int        `json:"page_count,omitempty" db:"page_count"`
	IsVerified      bool       `json:"is_verified" db:"is_verified"`
	VerifiedBy      *int64     `json:"verified_by,omitempty" db:"verified_by"`
	VerifiedAt      *time.Time `json:"verified_at,omitempty" db:"verified_at"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// IsOwnedBy checks if the user owns the document through its applicant profile.
func (d *Document) IsOwnedBy(userID int64) bool {
	return d.ApplicantUserID == userID
}

// Verify marks the document verified by reviewer.
func (d *Document) Verify(reviewerID int64, now time.Time) {
	d.IsVerified = true
	d.VerifiedBy = &reviewerID
	t := now
	d.VerifiedAt = &t
	d.UpdatedAt = now
}

// Unverify clears the verification sub-state.
func (d *Document) Unverify(now time.Time) {
	d.IsVerified = false
	d.VerifiedBy = nil
	d.VerifiedAt = nil
	d.UpdatedAt = now
}
