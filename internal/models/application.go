package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"math"
	"time"
)

// ApplicationStatus is a state of the application lifecycle.
type ApplicationStatus string

const (
	StatusDraft       ApplicationStatus = "draft"
	StatusInProgress  ApplicationStatus = "in_progress"
	StatusSubmitted   ApplicationStatus = "submitted"
	StatusUnderReview ApplicationStatus = "under_review"
	StatusApproved    ApplicationStatus = "approved"
	StatusRejected    ApplicationStatus = "rejected"
	StatusWithdrawn   ApplicationStatus = "withdrawn"
)

// AllApplicationStatuses in lifecycle order.
var AllApplicationStatuses = []ApplicationStatus{
	StatusDraft,
	StatusInProgress,
	StatusSubmitted,
	StatusUnderReview,
	StatusApproved,
	StatusRejected,
	StatusWithdrawn,
}

// Valid reports whether s is one of the seven statuses.
func (s ApplicationStatus) Valid() bool {
	for _, known := range AllApplicationStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions leave s.
func (s ApplicationStatus) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusWithdrawn
}

// SubmitThreshold is the minimum progress required to submit.
const SubmitThreshold = 80

// Application data sections.
const (
	SectionPersonalInfo   = "personal_info"
	SectionAcademicInfo   = "academic_info"
	SectionWorkExperience = "work_experience"
	SectionDocuments      = "documents"
	SectionAdditionalInfo = "additional_info"
)

// Sections lists the fixed application data sections.
var Sections = []string{
	SectionPersonalInfo,
	SectionAcademicInfo,
	SectionWorkExperience,
	SectionDocuments,
	SectionAdditionalInfo,
}

// IsSection reports whether name is a known section.
func IsSection(name string) bool {
	for _, s := range Sections {
		if s == name {
			return true
		}
	}
	return false
}

// Lifecycle errors raised by Application methods.
var (
	ErrTerminalStatus = errors.New("application is in a terminal status")
	ErrNotSubmittable = errors.New("application can only be submitted from draft or in_progress")
	ErrProgressTooLow = errors.New("application progress is below the submission threshold")
	ErrNotRestartable = errors.New("submitted or closed applications cannot be restarted")
	ErrUnknownSection = errors.New("unknown application data section")
	ErrInvalidStatus  = errors.New("invalid application status")
	ErrNegativeStep   = errors.New("current step cannot be negative")
)

// ApplicationData holds the named sections, each an open key-value map.
type ApplicationData map[string]map[string]any

// Scan implements sql.Scanner
func (d *ApplicationData) Scan(value interface{}) error { return scanJSON(value, d) }

// Value implements driver.Valuer
func (d ApplicationData) Value() (driver.Value, error) {
	if d == nil {
		return []byte("{}"), nil
	}
	return jsonValue(map[string]map[string]any(d))
}

// ComputeProgress returns round(100 * non-empty sections / total sections).
func ComputeProgress(d ApplicationData) int {
	if len(Sections) == 0 {
		return 0
	}
	complete := 0
	for _, name := range Sections {
		if len(d[name]) > 0 {
			complete++
		}
	}
	return int(math.Round(100 * float64(complete) / float64(len(Sections))))
}

// Review note severities.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// ReviewNote is an immutable annotation left by a reviewer.
// Seq is the note's stable key within its application.
type ReviewNote struct {
	Seq        int       `json:"seq" db:"seq"`
	ReviewerID int64     `json:"reviewer_id" db:"reviewer_id"`
	Note       string    `json:"note" db:"note"`
	Severity   string    `json:"severity" db:"severity"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// InterviewDetails is the optional interview sub-record.
type InterviewDetails struct {
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	Mode        string     `json:"mode,omitempty"`
	Location    string     `json:"location,omitempty"`
	Interviewer string     `json:"interviewer,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	Status      string     `json:"status,omitempty"`
}

// InterviewUpdate carries the fields to merge into InterviewDetails.
type InterviewUpdate struct {
	ScheduledAt *time.Time `json:"scheduled_at"`
	Mode        *string    `json:"mode" validate:"omitempty,oneof=in_person video phone"`
	Location    *string    `json:"location" validate:"omitempty,max=255"`
	Interviewer *string    `json:"interviewer" validate:"omitempty,max=255"`
	Notes       *string    `json:"notes" validate:"omitempty,max=2000"`
	Status      *string    `json:"status" validate:"omitempty,oneof=scheduled completed cancelled no_show"`
}

// Merge applies the set fields of u onto d.
func (d *InterviewDetails) Merge(u InterviewUpdate) {
	if u.ScheduledAt != nil {
		d.ScheduledAt = u.ScheduledAt
	}
	if u.Mode != nil {
		d.Mode = *u.Mode
	}
	if u.Location != nil {
		d.Location = *u.Location
	}
	if u.Interviewer != nil {
		d.Interviewer = *u.Interviewer
	}
	if u.Notes != nil {
		d.Notes = *u.Notes
	}
	if u.Status != nil {
		d.Status = *u.Status
	}
}

// Scan implements sql.Scanner
func (d *InterviewDetails) Scan(value interface{}) error { return scanJSON(value, d) }

// Value implements driver.Valuer
func (d InterviewDetails) Value() (driver.Value, error) { return jsonValue(d) }

// PaymentInfo is the optional payment sub-record.
type PaymentInfo struct {
	Amount    float64    `json:"amount"`
	Currency  string     `json:"currency,omitempty"`
	Status    string     `json:"status,omitempty"`
	Reference string     `json:"reference,omitempty"`
	Method    string     `json:"method,omitempty"`
	PaidAt    *time.Time `json:"paid_at,omitempty"`
}

// PaymentUpdate carries the fields to merge into PaymentInfo.
type PaymentUpdate struct {
	Amount    *float64   `json:"amount" validate:"omitempty,min=0"`
	Currency  *string    `json:"currency" validate:"omitempty,len=3"`
	Status    *string    `json:"status" validate:"omitempty,oneof=pending paid waived refunded"`
	Reference *string    `json:"reference" validate:"omitempty,max=255"`
	Method    *string    `json:"method" validate:"omitempty,max=50"`
	PaidAt    *time.Time `json:"paid_at"`
}

// Merge applies the set fields of u onto p.
func (p *PaymentInfo) Merge(u PaymentUpdate) {
	if u.Amount != nil {
		p.Amount = *u.Amount
	}
	if u.Currency != nil {
		p.Currency = *u.Currency
	}
	if u.Status != nil {
		p.Status = *u.Status
	}
	if u.Reference != nil {
		p.Reference = *u.Reference
	}
	if u.Method != nil {
		p.Method = *u.Method
	}
	if u.PaidAt != nil {
		p.PaidAt = u.PaidAt
	}
}

// Scan implements sql.Scanner
func (p *PaymentInfo) Scan(value interface{}) error { return scanJSON(value, p) }

// Value implements driver.Valuer
func (p PaymentInfo) Value() (driver.Value, error) { return jsonValue(p) }

// Application is one applicant's pursuit of one listing.
type Application struct {
	ID          int64 `json:"id" db:"id"`
	ApplicantID int64 `json:"applicant_id" db:"applicant_id"`
	// ApplicantUserID is the user owning the applicant profile (joined).
	ApplicantUserID int64             `json:"-" db:"-"`
	Target          ListingRef        `json:"-" db:"-"`
	Status          ApplicationStatus `json:"status" db:"status"`
	Progress        int               `json:"progress" db:"progress"`
	CurrentStep     int               `json:"current_step" db:"current_step"`
	Data            ApplicationData   `json:"application_data" db:"application_data"`
	ReviewNotes     []ReviewNote      `json:"review_notes" db:"-"`
	Interview       *InterviewDetails `json:"interview_details,omitempty" db:"interview_details"`
	Payment         *PaymentInfo      `json:"payment_info,omitempty" db:"payment_info"`
	SubmissionDate  *time.Time        `json:"submission_date,omitempty" db:"submission_date"`
	CreatedAt       time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at" db:"updated_at"`
}

// MarshalJSON renders the target as type + job_id + scholarship_id.
func (a Application) MarshalJSON() ([]byte, error) {
	type alias Application
	return json.Marshal(struct {
		alias
		Type          ListingKind `json:"type"`
		JobID         *int64      `json:"job_id"`
		ScholarshipID *int64      `json:"scholarship_id"`
	}{
		alias:         alias(a),
		Type:          a.Target.Kind,
		JobID:         a.Target.JobID(),
		ScholarshipID: a.Target.ScholarshipID(),
	})
}

// NewApplication returns a fresh draft for the given applicant and target.
func NewApplication(id, applicantID int64, target ListingRef, now time.Time) *Application {
	return &Application{
		ID:          id,
		ApplicantID: applicantID,
		Target:      target,
		Status:      StatusDraft,
		Progress:    0,
		CurrentStep: 0,
		Data:        ApplicationData{},
		ReviewNotes: []ReviewNote{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// IsOwnedBy checks if the user owns the application through its applicant profile.
func (a *Application) IsOwnedBy(userID int64) bool {
	return a.ApplicantUserID == userID
}

// MergeContent merges sections into the data and recomputes progress.
// Status is left untouched.
func (a *Application) MergeContent(sections map[string]map[string]any, step *int, now time.Time) error {
	if a.Status.IsTerminal() {
		return ErrTerminalStatus
	}
	for name := range sections {
		if !IsSection(name) {
			return ErrUnknownSection
		}
	}
	if step != nil && *step < 0 {
		return ErrNegativeStep
	}

	if a.Data == nil {
		a.Data = ApplicationData{}
	}
	for name, values := range sections {
		if len(values) == 0 {
			continue
		}
		section := a.Data[name]
		if section == nil {
			section = map[string]any{}
		}
		for k, v := range values {
			section[k] = v
		}
		a.Data[name] = section
	}
	if step != nil {
		a.CurrentStep = *step
	}
	a.Progress = ComputeProgress(a.Data)
	a.UpdatedAt = now
	return nil
}

// Submit moves a draft or in-progress application to submitted.
func (a *Application) Submit(now time.Time) error {
	if a.Status.IsTerminal() {
		return ErrTerminalStatus
	}
	if a.Status != StatusDraft && a.Status != StatusInProgress {
		return ErrNotSubmittable
	}
	if a.Progress < SubmitThreshold {
		return ErrProgressTooLow
	}
	a.Status = StatusSubmitted
	a.stampSubmission(now)
	a.UpdatedAt = now
	return nil
}

// Restart returns the application to an empty draft. Submitted and
// terminal applications stay as they are.
func (a *Application) Restart(now time.Time) error {
	if a.Status == StatusSubmitted || a.Status.IsTerminal() {
		return ErrNotRestartable
	}
	a.Status = StatusDraft
	a.Progress = 0
	a.CurrentStep = 0
	a.SubmissionDate = nil
	a.Data = ApplicationData{}
	a.UpdatedAt = now
	return nil
}

// Withdraw ends a non-terminal application.
func (a *Application) Withdraw(now time.Time) error {
	if a.Status.IsTerminal() {
		return ErrTerminalStatus
	}
	a.Status = StatusWithdrawn
	a.UpdatedAt = now
	return nil
}

// SetStatus forces any status, stamping the submission date on first submit.
func (a *Application) SetStatus(status ApplicationStatus, now time.Time) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}
	a.Status = status
	if status == StatusSubmitted {
		a.stampSubmission(now)
	}
	a.UpdatedAt = now
	return nil
}

// ScheduleInterview merges into the interview sub-record.
func (a *Application) ScheduleInterview(u InterviewUpdate, now time.Time) {
	if a.Interview == nil {
		a.Interview = &InterviewDetails{}
	}
	a.Interview.Merge(u)
	a.UpdatedAt = now
}

// UpdatePayment merges into the payment sub-record.
func (a *Application) UpdatePayment(u PaymentUpdate, now time.Time) {
	if a.Payment == nil {
		a.Payment = &PaymentInfo{}
	}
	a.Payment.Merge(u)
	a.UpdatedAt = now
}

func (a *Application) stampSubmission(now time.Time) {
	if a.SubmissionDate == nil {
		t := now
		a.SubmissionDate = &t
	}
}

// ValidSeverity reports whether s is a known review note severity.
func ValidSeverity(s string) bool {
	return s == SeverityInfo || s == SeverityWarning || s == SeverityCritical
}

// ApplicationFilter narrows back-office application listings.
type ApplicationFilter struct {
	Status      ApplicationStatus `json:"status,omitempty"`
	Kind        ListingKind       `json:"type,omitempty"`
	ListingID   *int64            `json:"listing_id,omitempty"`
	ApplicantID *int64            `json:"applicant_id,omitempty"`
}

// ApplicationStats counts applications by status.
type ApplicationStats struct {
	Total    int64                       `json:"total"`
	ByStatus map[ApplicationStatus]int64 `json:"by_status"`
}
