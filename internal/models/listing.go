package models

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"time"
)

// ListingKind tags which listing table an application targets.
type ListingKind string

const (
	ListingJob         ListingKind = "job"
	ListingScholarship ListingKind = "scholarship"
)

// Valid reports whether k is a known listing kind.
func (k ListingKind) Valid() bool {
	return k == ListingJob || k == ListingScholarship
}

// CounterName is the sequence counter used for ids of this kind.
func (k ListingKind) CounterName() string {
	return string(k) + "_id"
}

// ErrInvalidListingRef is returned when the type tag and the id fields disagree.
var ErrInvalidListingRef = errors.New("exactly one of job_id or scholarship_id must be set and match type")

// ListingRef points at exactly one Job or one Scholarship.
type ListingRef struct {
	Kind ListingKind `json:"type"`
	ID   int64       `json:"id"`
}

// JobRef references a job listing.
func JobRef(id int64) ListingRef { return ListingRef{Kind: ListingJob, ID: id} }

// ScholarshipRef references a scholarship listing.
func ScholarshipRef(id int64) ListingRef { return ListingRef{Kind: ListingScholarship, ID: id} }

// NewListingRef builds a reference from the wire form (type + two nullable ids).
func NewListingRef(kind ListingKind, jobID, scholarshipID *int64) (ListingRef, error) {
	switch kind {
	case ListingJob:
		if jobID == nil || scholarshipID != nil || *jobID <= 0 {
			return ListingRef{}, ErrInvalidListingRef
		}
		return JobRef(*jobID), nil
	case ListingScholarship:
		if scholarshipID == nil || jobID != nil || *scholarshipID <= 0 {
			return ListingRef{}, ErrInvalidListingRef
		}
		return ScholarshipRef(*scholarshipID), nil
	}
	return ListingRef{}, ErrInvalidListingRef
}

// JobID returns the id when the reference is a job, nil otherwise.
func (r ListingRef) JobID() *int64 {
	if r.Kind != ListingJob {
		return nil
	}
	id := r.ID
	return &id
}

// ScholarshipID returns the id when the reference is a scholarship, nil otherwise.
func (r ListingRef) ScholarshipID() *int64 {
	if r.Kind != ListingScholarship {
		return nil
	}
	id := r.ID
	return &id
}

func (r ListingRef) String() string {
	return fmt.Sprintf("%s:%d", r.Kind, r.ID)
}

// ListingStatus is the publication state of a job or scholarship.
type ListingStatus string

const (
	ListingDraft    ListingStatus = "draft"
	ListingUpcoming ListingStatus = "upcoming"
	ListingActive   ListingStatus = "active"
	ListingClosed   ListingStatus = "closed"
)

// Valid reports whether s is a known listing status.
func (s ListingStatus) Valid() bool {
	switch s {
	case ListingDraft, ListingUpcoming, ListingActive, ListingClosed:
		return true
	}
	return false
}

// Listing carries the fields shared by jobs and scholarships.
type Listing struct {
	ID               int64         `json:"id" db:"id"`
	Kind             ListingKind   `json:"kind" db:"-"`
	Title            string        `json:"title" db:"title" validate:"required,min=3,max=255"`
	Description      string        `json:"description" db:"description" validate:"required"`
	Status           ListingStatus `json:"status" db:"status"`
	Deadline         time.Time     `json:"deadline" db:"deadline"`
	ApplicationCount int           `json:"application_count" db:"application_count"`
	CreatedBy        int64         `json:"created_by" db:"created_by"`
	CreatedAt        time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at" db:"updated_at"`
}

// Ref returns a reference to this listing.
func (l *Listing) Ref() ListingRef {
	return ListingRef{Kind: l.Kind, ID: l.ID}
}

// IsAcceptingApplications is true only while the listing is active and
// the deadline has not passed. It does not trust a stale active status.
func (l *Listing) IsAcceptingApplications(now time.Time) bool {
	return l.Status == ListingActive && !now.After(l.Deadline)
}

// Normalize closes an active listing whose deadline has passed.
// It reports whether the status changed.
func (l *Listing) Normalize(now time.Time) bool {
	if l.Status == ListingActive && now.After(l.Deadline) {
		l.Status = ListingClosed
		return true
	}
	return false
}

// IsOwnedBy checks if the user created the listing
func (l *Listing) IsOwnedBy(userID int64) bool {
	return l.CreatedBy == userID
}

// Position is one opening inside a job listing, keyed by a stable local key.
type Position struct {
	Key      int    `json:"key"`
	Title    string `json:"title" validate:"required,max=255"`
	Openings int    `json:"openings" validate:"min=1"`
}

// Positions is persisted as JSONB.
type Positions []Position

// Scan implements sql.Scanner
func (p *Positions) Scan(value interface{}) error { return scanJSON(value, p) }

// Value implements driver.Valuer
func (p Positions) Value() (driver.Value, error) {
	if p == nil {
		return []byte("[]"), nil
	}
	return jsonValue([]Position(p))
}

// AssignKeys gives every position without a key the next free one.
func (p Positions) AssignKeys() {
	next := 0
	for _, pos := range p {
		if pos.Key > next {
			next = pos.Key
		}
	}
	for i := range p {
		if p[i].Key == 0 {
			next++
			p[i].Key = next
		}
	}
}

// Job is an employment listing.
type Job struct {
	Listing
	Company        string    `json:"company" db:"company" validate:"required,max=255"`
	Location       string    `json:"location" db:"location" validate:"max=255"`
	EmploymentType string    `json:"employment_type" db:"employment_type" validate:"omitempty,oneof=full_time part_time contract internship volunteer"`
	SalaryRange    string    `json:"salary_range,omitempty" db:"salary_range"`
	Positions      Positions `json:"positions" db:"positions"`
}

// Scholarship is a study-funding listing.
type Scholarship struct {
	Listing
	Program     string  `json:"program" db:"program" validate:"required,max=255"`
	University  string  `json:"university" db:"university" validate:"required,max=255"`
	Country     string  `json:"country,omitempty" db:"country"`
	Amount      float64 `json:"amount" db:"amount" validate:"min=0"`
	Currency    string  `json:"currency,omitempty" db:"currency" validate:"omitempty,len=3"`
	Eligibility string  `json:"eligibility,omitempty" db:"eligibility"`
}
