package services

import (
	"context"
	"testing"
	"time"

	"scholarhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newListingFixture(t *testing.T) (*listingService, *fakeListings) {
	t.Helper()
	listings := newFakeListings()
	svc := NewListingService(listings, newFakeSequence(), zap.NewNop()).(*listingService)
	svc.now = fixedClock
	return svc, listings
}

func jobListingRequest(title string) *JobRequest {
	return &JobRequest{
		ListingFields: ListingFields{
			Title:       title,
			Description: "Build the thing",
			Deadline:    testNow.Add(72 * time.Hour),
		},
		Company:        "  Acme   Corp ",
		EmploymentType: "full_time",
		Positions: []models.Position{
			{Title: "Backend", Openings: 2},
			{Title: "Frontend", Openings: 1},
		},
	}
}

func TestCreateJob(t *testing.T) {
	svc, _ := newListingFixture(t)
	ctx := context.Background()
	manager := staffPrincipal(5, models.PermManageListings)

	job, err := svc.CreateJob(ctx, manager, jobListingRequest("Go Engineer"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), job.ID)
	assert.Equal(t, models.ListingDraft, job.Status)
	assert.Equal(t, "Acme Corp", job.Company)
	assert.Equal(t, int64(5), job.CreatedBy)
	require.Len(t, job.Positions, 2)
	assert.Equal(t, 1, job.Positions[0].Key)
	assert.Equal(t, 2, job.Positions[1].Key)

	_, err = svc.CreateJob(ctx, staffPrincipal(6), jobListingRequest("Go Engineer"))
	assertServiceError(t, err, ErrTypeForbidden, "")
	_, err = svc.CreateJob(ctx, applicantPrincipal(ownerUserID), jobListingRequest("Go Engineer"))
	assertServiceError(t, err, ErrTypeForbidden, "")
	_, err = svc.CreateJob(ctx, manager, jobListingRequest("Go"))
	assertServiceError(t, err, ErrTypeValidation, "")
}

func TestCreateJob_PastDeadlineActiveBecomesClosed(t *testing.T) {
	svc, _ := newListingFixture(t)
	req := jobListingRequest("Expired Role")
	req.Status = models.ListingActive
	req.Deadline = testNow.Add(-time.Hour)

	job, err := svc.CreateJob(context.Background(), adminPrincipal(1), req)
	require.NoError(t, err)
	assert.Equal(t, models.ListingClosed, job.Status)
}

func TestGetJob_DraftsAreBackOfficeOnly(t *testing.T) {
	svc, listings := newListingFixture(t)
	ctx := context.Background()
	listings.addJob(1, models.ListingDraft, testNow.Add(24*time.Hour))
	listings.addJob(2, models.ListingActive, testNow.Add(24*time.Hour))

	_, err := svc.GetJob(ctx, applicantPrincipal(ownerUserID), 1)
	assertServiceError(t, err, ErrTypeNotFound, "")
	_, err = svc.GetJob(ctx, nil, 1)
	assertServiceError(t, err, ErrTypeNotFound, "")

	draft, err := svc.GetJob(ctx, staffPrincipal(5), 1)
	require.NoError(t, err)
	assert.Equal(t, models.ListingDraft, draft.Status)

	active, err := svc.GetJob(ctx, nil, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), active.ID)
}

func TestListJobs(t *testing.T) {
	svc, listings := newListingFixture(t)
	ctx := context.Background()
	listings.addJob(1, models.ListingDraft, testNow.Add(24*time.Hour))
	listings.addJob(2, models.ListingActive, testNow.Add(24*time.Hour))
	mine := listings.addJob(3, models.ListingClosed, testNow.Add(-24*time.Hour))
	mine.CreatedBy = 5

	public, err := svc.ListJobs(ctx, nil, &ListListingsRequest{})
	require.NoError(t, err)
	assert.Len(t, public.Data, 2)
	for _, j := range public.Data {
		assert.NotEqual(t, models.ListingDraft, j.Status)
	}

	_, err = svc.ListJobs(ctx, applicantPrincipal(ownerUserID), &ListListingsRequest{Status: models.ListingDraft})
	assertServiceError(t, err, ErrTypeForbidden, "")

	_, err = svc.ListJobs(ctx, nil, &ListListingsRequest{Status: "archived"})
	assertServiceError(t, err, ErrTypeValidation, "")

	everything, err := svc.ListJobs(ctx, staffPrincipal(5), &ListListingsRequest{})
	require.NoError(t, err)
	assert.Len(t, everything.Data, 3)

	own, err := svc.ListJobs(ctx, staffPrincipal(5), &ListListingsRequest{Mine: true})
	require.NoError(t, err)
	require.Len(t, own.Data, 1)
	assert.Equal(t, int64(3), own.Data[0].ID)

	searched, err := svc.ListJobs(ctx, nil, &ListListingsRequest{Search: "job 2"})
	require.NoError(t, err)
	require.Len(t, searched.Data, 1)
	assert.Equal(t, int64(2), searched.Data[0].ID)
}

func TestUpdateAndDeleteJob(t *testing.T) {
	svc, listings := newListingFixture(t)
	ctx := context.Background()
	listings.addJob(1, models.ListingDraft, testNow.Add(24*time.Hour))

	req := jobListingRequest("Senior Go Engineer")
	req.Status = models.ListingActive

	_, err := svc.UpdateJob(ctx, staffPrincipal(5), 1, req)
	assertServiceError(t, err, ErrTypeForbidden, "")

	updated, err := svc.UpdateJob(ctx, staffPrincipal(5, models.PermManageListings), 1, req)
	require.NoError(t, err)
	assert.Equal(t, "Senior Go Engineer", updated.Title)
	assert.Equal(t, models.ListingActive, updated.Status)
	assert.Equal(t, testNow, updated.UpdatedAt)

	_, err = svc.UpdateJob(ctx, adminPrincipal(1), 99, req)
	assertServiceError(t, err, ErrTypeNotFound, "")

	err = svc.DeleteJob(ctx, applicantPrincipal(ownerUserID), 1)
	assertServiceError(t, err, ErrTypeForbidden, "")
	require.NoError(t, svc.DeleteJob(ctx, adminPrincipal(1), 1))
	_, err = svc.GetJob(ctx, adminPrincipal(1), 1)
	assertServiceError(t, err, ErrTypeNotFound, "")
}

func TestScholarshipLifecycle(t *testing.T) {
	svc, _ := newListingFixture(t)
	ctx := context.Background()
	manager := staffPrincipal(5, models.PermManageListings)

	req := &ScholarshipRequest{
		ListingFields: ListingFields{
			Title:       "Graduate Fellowship",
			Description: "Fully funded",
			Status:      models.ListingActive,
			Deadline:    testNow.Add(48 * time.Hour),
		},
		Program:    "MSc Computer Science",
		University: "Example University",
		Amount:     12000,
		Currency:   "EUR",
	}
	sch, err := svc.CreateScholarship(ctx, manager, req)
	require.NoError(t, err)
	assert.Equal(t, models.ListingScholarship, sch.Kind)

	listed, err := svc.ListScholarships(ctx, applicantPrincipal(ownerUserID), &ListListingsRequest{})
	require.NoError(t, err)
	assert.Len(t, listed.Data, 1)

	req.Amount = -1
	_, err = svc.UpdateScholarship(ctx, manager, sch.ID, req)
	assertServiceError(t, err, ErrTypeValidation, "")

	require.NoError(t, svc.DeleteScholarship(ctx, manager, sch.ID))
	err = svc.DeleteScholarship(ctx, manager, sch.ID)
	assertServiceError(t, err, ErrTypeNotFound, "")
}
