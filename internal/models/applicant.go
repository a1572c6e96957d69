package models

import (
	"database/sql/driver"
	"strings"
	"time"
)

// Proficiency levels for a spoken language.
const (
	ProficiencyBeginner     = "Beginner"
	ProficiencyIntermediate = "Intermediate"
	ProficiencyAdvanced     = "Advanced"
	ProficiencyNative       = "Native"
)

// LanguageSkill is one language the applicant speaks.
type LanguageSkill struct {
	Language    string `json:"language" validate:"required,max=100"`
	Proficiency string `json:"proficiency" validate:"required,oneof=Beginner Intermediate Advanced Native"`
}

// EducationRecord is one entry of the applicant's education history.
type EducationRecord struct {
	Institution  string     `json:"institution" validate:"required,max=255"`
	Degree       string     `json:"degree" validate:"required,max=255"`
	FieldOfStudy string     `json:"field_of_study,omitempty" validate:"omitempty,max=255"`
	StartDate    *time.Time `json:"start_date,omitempty"`
	EndDate      *time.Time `json:"end_date,omitempty"`
	Grade        string     `json:"grade,omitempty" validate:"omitempty,max=50"`
}

// Languages is persisted as JSONB.
type Languages []LanguageSkill

// Scan implements sql.Scanner
func (l *Languages) Scan(value interface{}) error { return scanJSON(value, l) }

// Value implements driver.Valuer
func (l Languages) Value() (driver.Value, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return jsonValue([]LanguageSkill(l))
}

// EducationHistory is persisted as JSONB.
type EducationHistory []EducationRecord

// Scan implements sql.Scanner
func (e *EducationHistory) Scan(value interface{}) error { return scanJSON(value, e) }

// Value implements driver.Valuer
func (e EducationHistory) Value() (driver.Value, error) {
	if e == nil {
		return []byte("[]"), nil
	}
	return jsonValue([]EducationRecord(e))
}

// Applicant is the candidate profile owned by a single applicant user.
type Applicant struct {
	ID          int64            `json:"id" db:"id"`
	UserID      int64            `json:"user_id" db:"user_id"`
	FirstName   string           `json:"first_name" db:"first_name"`
	LastName    string           `json:"last_name" db:"last_name"`
	Phone       string           `json:"phone,omitempty" db:"phone"`
	DateOfBirth *time.Time       `json:"date_of_birth,omitempty" db:"date_of_birth"`
	Gender      string           `json:"gender,omitempty" db:"gender"`
	Nationality string           `json:"nationality,omitempty" db:"nationality"`
	Bio         string           `json:"bio,omitempty" db:"bio"`
	Skills      StringArray      `json:"skills" db:"skills"`
	Languages   Languages        `json:"languages" db:"languages"`
	Education   EducationHistory `json:"education" db:"education"`

	// DocumentCount is loaded from the documents table, not stored.
	DocumentCount     int       `json:"document_count" db:"-"`
	ProfileCompletion int       `json:"profile_completion" db:"profile_completion"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

// ComputeProfileCompletion scores the populated parts of a profile.
// Each of dob, gender, nationality and bio is worth 25; any education
// and any document 10 each; any skill and any language 5 each. Capped at 100.
func ComputeProfileCompletion(a *Applicant) int {
	score := 0
	if a.DateOfBirth != nil && !a.DateOfBirth.IsZero() {
		score += 25
	}
	if strings.TrimSpace(a.Gender) != "" {
		score += 25
	}
	if strings.TrimSpace(a.Nationality) != "" {
		score += 25
	}
	if strings.TrimSpace(a.Bio) != "" {
		score += 25
	}
	if len(a.Education) > 0 {
		score += 10
	}
	if a.DocumentCount > 0 {
		score += 10
	}
	if len(a.Skills) > 0 {
		score += 5
	}
	if len(a.Languages) > 0 {
		score += 5
	}
	if score > 100 {
		score = 100
	}
	return score
}

// RefreshCompletion recomputes ProfileCompletion in place.
func (a *Applicant) RefreshCompletion() {
	a.ProfileCompletion = ComputeProfileCompletion(a)
}

// FullName joins first and last name.
func (a *Applicant) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}
