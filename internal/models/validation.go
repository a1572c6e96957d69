// file: internal/models/validation.go
package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"
)

// ===============================
// VALIDATION ERRORS
// ===============================

// ValidationError represents a validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Code    string      `json:"code"`
	Value   interface{} `json:"value,omitempty"`
}

// Error implements the error interface
func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field '%s': %s", e.Field, e.Message)
}

// ValidationErrors represents multiple validation errors
type ValidationErrors []ValidationError

// Error implements the error interface
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	if len(e) == 1 {
		return e[0].Error()
	}
	return fmt.Sprintf("validation failed with %d errors", len(e))
}

// Add adds a validation error
func (e *ValidationErrors) Add(field, message, code string, value interface{}) {
	*e = append(*e, ValidationError{
		Field:   field,
		Message: message,
		Code:    code,
		Value:   value,
	})
}

// AddIf appends err when it is non-nil.
func (e *ValidationErrors) AddIf(err *ValidationError) {
	if err != nil {
		*e = append(*e, *err)
	}
}

// HasErrors returns true if there are validation errors
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Fields maps each failing field to its first message.
func (e ValidationErrors) Fields() map[string]interface{} {
	out := make(map[string]interface{}, len(e))
	for _, err := range e {
		if _, seen := out[err.Field]; !seen {
			out[err.Field] = err.Message
		}
	}
	return out
}

// Validator defines the validation interface
type Validator interface {
	Validate() ValidationErrors
}

// ValidateModel validates any model that implements the Validator interface
func ValidateModel(model Validator) error {
	if errs := model.Validate(); errs.HasErrors() {
		return errs
	}
	return nil
}

// ===============================
// CORE VALIDATORS
// ===============================

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// EmailValidator validates email addresses
func EmailValidator(field string, value string) *ValidationError {
	if value == "" {
		return &ValidationError{Field: field, Message: "email is required", Code: "required"}
	}
	if len(value) > 320 {
		return &ValidationError{Field: field, Message: "email too long (max 320 characters)", Code: "too_long"}
	}
	if !emailRegex.MatchString(value) {
		return &ValidationError{Field: field, Message: "invalid email format", Code: "invalid_format", Value: value}
	}
	return nil
}

// PasswordValidator checks length and, when strict, character classes.
func PasswordValidator(field string, value string, minLength int, strict bool) *ValidationError {
	if value == "" {
		return &ValidationError{Field: field, Message: "password is required", Code: "required"}
	}
	if len(value) < minLength {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("password must be at least %d characters", minLength),
			Code:    "too_short",
		}
	}
	if len(value) > 128 {
		return &ValidationError{Field: field, Message: "password must be 128 characters or less", Code: "too_long"}
	}
	if !strict {
		return nil
	}

	var hasLower, hasUpper, hasDigit, hasSpecial bool
	for _, char := range value {
		switch {
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsDigit(char):
			hasDigit = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSpecial = true
		}
	}

	var missing []string
	if !hasLower {
		missing = append(missing, "lowercase letter")
	}
	if !hasUpper {
		missing = append(missing, "uppercase letter")
	}
	if !hasDigit {
		missing = append(missing, "number")
	}
	if !hasSpecial {
		missing = append(missing, "special character")
	}
	if len(missing) > 0 {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("password must contain at least one: %s", strings.Join(missing, ", ")),
			Code:    "weak_password",
		}
	}
	return nil
}

// EnumValidator validates that value is one of allowed.
func EnumValidator(field string, value string, allowed []string) *ValidationError {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")),
		Code:    "invalid_enum",
		Value:   value,
	}
}

// ===============================
// MODEL VALIDATION
// ===============================

// Validate checks the fields shared by jobs and scholarships.
func (l *Listing) Validate() ValidationErrors {
	var errs ValidationErrors
	if n := len(strings.TrimSpace(l.Title)); n < 3 || n > 255 {
		errs.Add("title", "title must be between 3 and 255 characters", "invalid_length", nil)
	}
	if strings.TrimSpace(l.Description) == "" {
		errs.Add("description", "description is required", "required", nil)
	}
	if !l.Status.Valid() {
		errs.Add("status", "status must be one of: draft, upcoming, active, closed", "invalid_enum", l.Status)
	}
	if l.Deadline.IsZero() {
		errs.Add("deadline", "deadline is required", "required", nil)
	}
	return errs
}

// Validate checks a job listing.
func (j *Job) Validate() ValidationErrors {
	errs := j.Listing.Validate()
	if strings.TrimSpace(j.Company) == "" {
		errs.Add("company", "company is required", "required", nil)
	}
	for i, p := range j.Positions {
		if strings.TrimSpace(p.Title) == "" {
			errs.Add(fmt.Sprintf("positions[%d].title", i), "position title is required", "required", nil)
		}
		if p.Openings < 1 {
			errs.Add(fmt.Sprintf("positions[%d].openings", i), "openings must be at least 1", "min", p.Openings)
		}
	}
	return errs
}

// Validate checks a scholarship listing.
func (s *Scholarship) Validate() ValidationErrors {
	errs := s.Listing.Validate()
	if strings.TrimSpace(s.Program) == "" {
		errs.Add("program", "program is required", "required", nil)
	}
	if strings.TrimSpace(s.University) == "" {
		errs.Add("university", "university is required", "required", nil)
	}
	if s.Amount < 0 {
		errs.Add("amount", "amount cannot be negative", "min", s.Amount)
	}
	return errs
}

// Validate checks an applicant profile.
func (a *Applicant) Validate() ValidationErrors {
	var errs ValidationErrors
	if a.DateOfBirth != nil && a.DateOfBirth.After(time.Now()) {
		errs.Add("date_of_birth", "date of birth cannot be in the future", "invalid_date", nil)
	}
	for i, lang := range a.Languages {
		if strings.TrimSpace(lang.Language) == "" {
			errs.Add(fmt.Sprintf("languages[%d].language", i), "language is required", "required", nil)
		}
		errs.AddIf(EnumValidator(fmt.Sprintf("languages[%d].proficiency", i), lang.Proficiency,
			[]string{ProficiencyBeginner, ProficiencyIntermediate, ProficiencyAdvanced, ProficiencyNative}))
	}
	for i, edu := range a.Education {
		if strings.TrimSpace(edu.Institution) == "" {
			errs.Add(fmt.Sprintf("education[%d].institution", i), "institution is required", "required", nil)
		}
		if edu.StartDate != nil && edu.EndDate != nil && edu.EndDate.Before(*edu.StartDate) {
			errs.Add(fmt.Sprintf("education[%d].end_date", i), "end date must be after start date", "invalid_range", nil)
		}
	}
	return errs
}

// Validate checks an ad.
func (a *Ad) Validate() ValidationErrors {
	var errs ValidationErrors
	if strings.TrimSpace(a.Title) == "" {
		errs.Add("title", "title is required", "required", nil)
	}
	if strings.TrimSpace(a.ImageURL) == "" {
		errs.Add("image_url", "image url is required", "required", nil)
	}
	errs.AddIf(EnumValidator("placement", a.Placement, []string{"home", "sidebar", "listing", "footer"}))
	if a.StartsAt != nil && a.EndsAt != nil && a.EndsAt.Before(*a.StartsAt) {
		errs.Add("ends_at", "ends_at must be after starts_at", "invalid_range", nil)
	}
	return errs
}

// ===============================
// SANITIZATION
// ===============================

var whitespaceRegex = regexp.MustCompile(`\s+`)

// SanitizeString removes potentially harmful content from strings
func SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")
	input = strings.TrimSpace(input)
	return whitespaceRegex.ReplaceAllString(input, " ")
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
