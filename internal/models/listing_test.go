package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestListing_IsAcceptingApplications(t *testing.T) {
	now := time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		status   ListingStatus
		deadline time.Time
		want     bool
	}{
		{"active before deadline", ListingActive, now.Add(24 * time.Hour), true},
		{"active at deadline", ListingActive, now, true},
		{"active past deadline", ListingActive, now.Add(-time.Second), false},
		{"upcoming", ListingUpcoming, now.Add(24 * time.Hour), false},
		{"draft", ListingDraft, now.Add(24 * time.Hour), false},
		{"closed", ListingClosed, now.Add(24 * time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &Listing{Status: tt.status, Deadline: tt.deadline}
			assert.Equal(t, tt.want, l.IsAcceptingApplications(now))
		})
	}
}

func TestListing_Normalize(t *testing.T) {
	now := time.Now()

	expired := &Listing{Status: ListingActive, Deadline: now.Add(-time.Hour)}
	assert.True(t, expired.Normalize(now))
	assert.Equal(t, ListingClosed, expired.Status)

	open := &Listing{Status: ListingActive, Deadline: now.Add(time.Hour)}
	assert.False(t, open.Normalize(now))
	assert.Equal(t, ListingActive, open.Status)

	upcoming := &Listing{Status: ListingUpcoming, Deadline: now.Add(-time.Hour)}
	assert.False(t, upcoming.Normalize(now))
	assert.Equal(t, ListingUpcoming, upcoming.Status)
}

func TestPositions_AssignKeys(t *testing.T) {
	p := Positions{{Title: "a", Openings: 1}, {Key: 5, Title: "b", Openings: 1}, {Title: "c", Openings: 2}}
	p.AssignKeys()
	assert.Equal(t, 6, p[0].Key)
	assert.Equal(t, 5, p[1].Key)
	assert.Equal(t, 7, p[2].Key)
}

func TestJob_Validate(t *testing.T) {
	job := &Job{
		Listing: Listing{Title: "Backend Engineer", Description: "Go", Status: ListingActive, Deadline: time.Now()},
		Company: "Acme",
	}
	assert.False(t, job.Validate().HasErrors())

	job.Company = ""
	job.Status = "paused"
	errs := job.Validate()
	assert.Len(t, errs, 2)
	assert.Contains(t, errs.Fields(), "company")
	assert.Contains(t, errs.Fields(), "status")
}

func TestAd_IsLive(t *testing.T) {
	now := time.Now()
	past, future := now.Add(-time.Hour), now.Add(time.Hour)

	assert.True(t, (&Ad{IsActive: true}).IsLive(now))
	assert.False(t, (&Ad{IsActive: false}).IsLive(now))
	assert.False(t, (&Ad{IsActive: true, StartsAt: &future}).IsLive(now))
	assert.False(t, (&Ad{IsActive: true, EndsAt: &past}).IsLive(now))
	assert.True(t, (&Ad{IsActive: true, StartsAt: &past, EndsAt: &future}).IsLive(now))
}

func TestAd_ValidatePlacement(t *testing.T) {
	ad := &Ad{Title: "Spring intake", ImageURL: "https://cdn.example.com/a.png", Placement: "sidebar"}
	assert.False(t, ad.Validate().HasErrors())

	ad.Placement = "popup"
	fields := ad.Validate().Fields()
	assert.Len(t, fields, 1)
	assert.Contains(t, fields, "placement")
}
