package services

import (
	"context"
	"testing"

	"scholarhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newApplicantFixture(t *testing.T) (*applicantService, *fakeApplicants) {
	t.Helper()
	applicants := newFakeApplicants()
	svc := NewApplicantService(applicants, newFakeSequence(), zap.NewNop()).(*applicantService)
	svc.now = fixedClock
	return svc, applicants
}

func TestUpsertMine_CreatesThenUpdates(t *testing.T) {
	svc, applicants := newApplicantFixture(t)
	ctx := context.Background()
	p := applicantPrincipal(ownerUserID)

	_, err := svc.GetMine(ctx, p)
	assertServiceError(t, err, ErrTypeNotFound, "")

	dob := testNow.AddDate(-22, 0, 0)
	created, err := svc.UpsertMine(ctx, p, &ApplicantProfileRequest{
		FirstName:   "Grace",
		LastName:    "Hopper",
		DateOfBirth: &dob,
		Skills:      []string{" Go ", "  "},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), created.ID)
	assert.Equal(t, models.StringArray{"Go"}, created.Skills)
	assert.Equal(t, 30, created.ProfileCompletion)

	updated, err := svc.UpsertMine(ctx, p, &ApplicantProfileRequest{
		FirstName:   "Grace",
		LastName:    "Hopper",
		DateOfBirth: &dob,
		Gender:      "female",
		Nationality: "US",
		Bio:         "Compilers",
		Skills:      []string{"Go"},
		Languages:   []models.LanguageSkill{{Language: "English", Proficiency: models.ProficiencyNative}},
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, 100, updated.ProfileCompletion)
	assert.Len(t, applicants.byID, 1)

	mine, err := svc.GetMine(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, "US", mine.Nationality)
}

func TestUpsertMine_Rejections(t *testing.T) {
	svc, _ := newApplicantFixture(t)
	ctx := context.Background()

	_, err := svc.UpsertMine(ctx, staffPrincipal(5), &ApplicantProfileRequest{FirstName: "A", LastName: "B"})
	assertServiceError(t, err, ErrTypeForbidden, "")

	_, err = svc.UpsertMine(ctx, applicantPrincipal(ownerUserID), &ApplicantProfileRequest{FirstName: "A"})
	assertServiceError(t, err, ErrTypeValidation, "")

	_, err = svc.UpsertMine(ctx, applicantPrincipal(ownerUserID), &ApplicantProfileRequest{
		FirstName: "A", LastName: "B",
		Education: []models.EducationRecord{{Institution: "MIT"}},
	})
	assertServiceError(t, err, ErrTypeValidation, "")
}

func TestApplicantGetByID_Policy(t *testing.T) {
	svc, applicants := newApplicantFixture(t)
	ctx := context.Background()
	require.NoError(t, applicants.Create(ctx, &models.Applicant{ID: ownerApplicant, UserID: ownerUserID}))

	_, err := svc.GetByID(ctx, applicantPrincipal(ownerUserID), ownerApplicant)
	require.NoError(t, err)
	_, err = svc.GetByID(ctx, applicantPrincipal(otherUserID), ownerApplicant)
	assertServiceError(t, err, ErrTypeForbidden, "")
	_, err = svc.GetByID(ctx, staffPrincipal(5), ownerApplicant)
	require.NoError(t, err)
	_, err = svc.GetByID(ctx, staffPrincipal(5), 999)
	assertServiceError(t, err, ErrTypeNotFound, "")
}
