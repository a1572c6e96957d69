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

func newAdFixture(t *testing.T) (*adService, *fakeAds) {
	t.Helper()
	ads := newFakeAds()
	svc := NewAdService(ads, newFakeSequence(), zap.NewNop()).(*adService)
	svc.now = fixedClock

	past := testNow.Add(-time.Hour)
	future := testNow.Add(time.Hour)
	ctx := context.Background()
	require.NoError(t, ads.Create(ctx, &models.Ad{ID: 1, Title: "Live", ImageURL: "https://cdn.example.com/1.png", Placement: "home", IsActive: true}))
	require.NoError(t, ads.Create(ctx, &models.Ad{ID: 2, Title: "Paused", ImageURL: "https://cdn.example.com/2.png", Placement: "home"}))
	require.NoError(t, ads.Create(ctx, &models.Ad{ID: 3, Title: "Scheduled", ImageURL: "https://cdn.example.com/3.png", Placement: "home", IsActive: true, StartsAt: &future}))
	require.NoError(t, ads.Create(ctx, &models.Ad{ID: 4, Title: "Expired", ImageURL: "https://cdn.example.com/4.png", Placement: "home", IsActive: true, EndsAt: &past}))
	require.NoError(t, ads.Create(ctx, &models.Ad{ID: 5, Title: "Side", ImageURL: "https://cdn.example.com/5.png", Placement: "sidebar", IsActive: true}))
	return svc, ads
}

func TestListLive_CountsImpressions(t *testing.T) {
	svc, ads := newAdFixture(t)
	ctx := context.Background()

	page, err := svc.ListLive(ctx, "home", models.PaginationParams{})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, int64(1), page.Data[0].ID)
	assert.Equal(t, int64(1), page.Data[0].Impressions)

	stored, _ := ads.GetByID(ctx, 1)
	assert.Equal(t, int64(1), stored.Impressions)
	paused, _ := ads.GetByID(ctx, 2)
	assert.Zero(t, paused.Impressions)
}

func TestListLive_ImpressionFailureStillServes(t *testing.T) {
	svc, ads := newAdFixture(t)
	ads.impressionsErr = errBackend

	page, err := svc.ListLive(context.Background(), "", models.PaginationParams{})
	require.NoError(t, err)
	assert.Len(t, page.Data, 2)
	for _, ad := range page.Data {
		assert.Zero(t, ad.Impressions)
	}
}

func TestRecordClick(t *testing.T) {
	svc, ads := newAdFixture(t)
	ctx := context.Background()

	ad, err := svc.RecordClick(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), ad.Clicks)
	stored, _ := ads.GetByID(ctx, 1)
	assert.Equal(t, int64(1), stored.Clicks)

	for _, id := range []int64{2, 3, 4, 404} {
		_, err := svc.RecordClick(ctx, id)
		assertServiceError(t, err, ErrTypeNotFound, "")
	}
}

func TestListAll_BackOfficeOnly(t *testing.T) {
	svc, _ := newAdFixture(t)
	ctx := context.Background()

	_, err := svc.ListAll(ctx, applicantPrincipal(ownerUserID), "", models.PaginationParams{})
	assertServiceError(t, err, ErrTypeForbidden, "")

	page, err := svc.ListAll(ctx, staffPrincipal(5), "home", models.PaginationParams{})
	require.NoError(t, err)
	assert.Len(t, page.Data, 4)
}

func TestAdManagement(t *testing.T) {
	svc, _ := newAdFixture(t)
	ctx := context.Background()
	req := &AdRequest{
		Title:     "Apply now",
		ImageURL:  "https://cdn.example.com/new.png",
		LinkURL:   "https://example.com/apply",
		Placement: "footer",
		IsActive:  true,
	}

	_, err := svc.Create(ctx, staffPrincipal(5), req)
	assertServiceError(t, err, ErrTypeForbidden, "")

	ad, err := svc.Create(ctx, staffPrincipal(5, models.PermManageAds), req)
	require.NoError(t, err)
	assert.Equal(t, int64(1), ad.ID)
	assert.Equal(t, int64(5), ad.CreatedBy)

	start := testNow.Add(time.Hour)
	end := testNow
	req.StartsAt, req.EndsAt = &start, &end
	_, err = svc.Update(ctx, adminPrincipal(1), 5, req)
	assertServiceError(t, err, ErrTypeValidation, "")

	req.Placement = "popup"
	_, err = svc.Update(ctx, adminPrincipal(1), 5, req)
	assertServiceError(t, err, ErrTypeValidation, "")

	require.NoError(t, svc.Delete(ctx, adminPrincipal(1), 5))
	err = svc.Delete(ctx, adminPrincipal(1), 5)
	assertServiceError(t, err, ErrTypeNotFound, "")
}
