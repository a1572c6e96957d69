package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fill(sections ...string) map[string]map[string]any {
	out := map[string]map[string]any{}
	for _, s := range sections {
		out[s] = map[string]any{"filled": true}
	}
	return out
}

func TestComputeProgress(t *testing.T) {
	t.Run("empty data", func(t *testing.T) {
		assert.Equal(t, 0, ComputeProgress(nil))
		assert.Equal(t, 0, ComputeProgress(ApplicationData{}))
	})

	t.Run("two of five sections", func(t *testing.T) {
		data := ApplicationData(fill(SectionPersonalInfo, SectionAcademicInfo))
		assert.Equal(t, 40, ComputeProgress(data))
	})

	t.Run("empty section does not count", func(t *testing.T) {
		data := ApplicationData(fill(SectionPersonalInfo))
		before := ComputeProgress(data)
		data[SectionDocuments] = map[string]any{}
		assert.Equal(t, before, ComputeProgress(data))
	})

	t.Run("idempotent", func(t *testing.T) {
		data := ApplicationData(fill(SectionPersonalInfo, SectionWorkExperience, SectionDocuments))
		assert.Equal(t, ComputeProgress(data), ComputeProgress(data))
	})

	t.Run("last section moves 80 to 100", func(t *testing.T) {
		data := ApplicationData(fill(SectionPersonalInfo, SectionAcademicInfo, SectionWorkExperience, SectionDocuments))
		assert.Equal(t, 80, ComputeProgress(data))
		data[SectionAdditionalInfo] = map[string]any{"motivation": "x"}
		assert.Equal(t, 100, ComputeProgress(data))
	})
}

func TestApplication_MergeContent(t *testing.T) {
	now := time.Now()
	app := NewApplication(1, 10, JobRef(5), now)

	step := 2
	require.NoError(t, app.MergeContent(fill(SectionPersonalInfo, SectionAcademicInfo), &step, now))
	assert.Equal(t, 40, app.Progress)
	assert.Equal(t, 2, app.CurrentStep)
	assert.Equal(t, StatusDraft, app.Status)

	require.NoError(t, app.MergeContent(map[string]map[string]any{
		SectionPersonalInfo: {"phone": "123"},
	}, nil, now))
	assert.Equal(t, true, app.Data[SectionPersonalInfo]["filled"])
	assert.Equal(t, "123", app.Data[SectionPersonalInfo]["phone"])
	assert.Equal(t, 40, app.Progress)

	t.Run("unknown section", func(t *testing.T) {
		err := app.MergeContent(fill("hobbies"), nil, now)
		assert.ErrorIs(t, err, ErrUnknownSection)
	})

	t.Run("negative step", func(t *testing.T) {
		neg := -1
		assert.ErrorIs(t, app.MergeContent(nil, &neg, now), ErrNegativeStep)
	})

	t.Run("terminal status", func(t *testing.T) {
		closed := NewApplication(2, 10, JobRef(5), now)
		closed.Status = StatusRejected
		assert.ErrorIs(t, closed.MergeContent(fill(SectionDocuments), nil, now), ErrTerminalStatus)
	})
}

func TestApplication_Submit(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("below threshold leaves status", func(t *testing.T) {
		app := NewApplication(1, 10, JobRef(5), now)
		app.Progress = 79
		assert.ErrorIs(t, app.Submit(now), ErrProgressTooLow)
		assert.Equal(t, StatusDraft, app.Status)
		assert.Nil(t, app.SubmissionDate)
	})

	t.Run("at threshold from draft", func(t *testing.T) {
		app := NewApplication(1, 10, JobRef(5), now)
		app.Progress = 80
		require.NoError(t, app.Submit(now))
		assert.Equal(t, StatusSubmitted, app.Status)
		require.NotNil(t, app.SubmissionDate)
		assert.True(t, app.SubmissionDate.Equal(now))
	})

	t.Run("from in_progress", func(t *testing.T) {
		app := NewApplication(1, 10, JobRef(5), now)
		app.Status = StatusInProgress
		app.Progress = 100
		require.NoError(t, app.Submit(now))
		assert.Equal(t, StatusSubmitted, app.Status)
	})

	t.Run("already submitted", func(t *testing.T) {
		app := NewApplication(1, 10, JobRef(5), now)
		app.Progress = 100
		require.NoError(t, app.Submit(now))
		assert.ErrorIs(t, app.Submit(now.Add(time.Hour)), ErrNotSubmittable)
		assert.True(t, app.SubmissionDate.Equal(now))
	})

	t.Run("terminal", func(t *testing.T) {
		app := NewApplication(1, 10, JobRef(5), now)
		app.Status = StatusWithdrawn
		app.Progress = 100
		assert.ErrorIs(t, app.Submit(now), ErrTerminalStatus)
	})
}

func TestApplication_Restart(t *testing.T) {
	now := time.Now()

	t.Run("under review resets", func(t *testing.T) {
		app := NewApplication(1, 10, ScholarshipRef(3), now)
		require.NoError(t, app.MergeContent(fill(Sections...), nil, now))
		step := 4
		require.NoError(t, app.MergeContent(nil, &step, now))
		require.NoError(t, app.Submit(now))
		require.NoError(t, app.SetStatus(StatusUnderReview, now))

		require.NoError(t, app.Restart(now))
		assert.Equal(t, StatusDraft, app.Status)
		assert.Equal(t, 0, app.Progress)
		assert.Equal(t, 0, app.CurrentStep)
		assert.Nil(t, app.SubmissionDate)
		assert.Equal(t, 0, ComputeProgress(app.Data))
	})

	for _, status := range []ApplicationStatus{StatusSubmitted, StatusApproved, StatusRejected, StatusWithdrawn} {
		t.Run("rejected from "+string(status), func(t *testing.T) {
			app := NewApplication(1, 10, JobRef(5), now)
			app.Status = status
			assert.ErrorIs(t, app.Restart(now), ErrNotRestartable)
			assert.Equal(t, status, app.Status)
		})
	}
}

func TestApplication_SetStatus(t *testing.T) {
	now := time.Now()
	app := NewApplication(1, 10, JobRef(5), now)

	assert.ErrorIs(t, app.SetStatus("archived", now), ErrInvalidStatus)

	require.NoError(t, app.SetStatus(StatusSubmitted, now))
	first := *app.SubmissionDate

	require.NoError(t, app.SetStatus(StatusUnderReview, now.Add(time.Hour)))
	require.NoError(t, app.SetStatus(StatusSubmitted, now.Add(2*time.Hour)))
	assert.True(t, app.SubmissionDate.Equal(first))

	require.NoError(t, app.SetStatus(StatusApproved, now))
	assert.Equal(t, StatusApproved, app.Status)
}

func TestApplication_Withdraw(t *testing.T) {
	now := time.Now()
	app := NewApplication(1, 10, JobRef(5), now)
	require.NoError(t, app.Withdraw(now))
	assert.Equal(t, StatusWithdrawn, app.Status)
	assert.ErrorIs(t, app.Withdraw(now), ErrTerminalStatus)
}

func TestApplication_SubRecords(t *testing.T) {
	now := time.Now()
	app := NewApplication(1, 10, JobRef(5), now)

	mode := "video"
	app.ScheduleInterview(InterviewUpdate{Mode: &mode}, now)
	loc := "Room 4"
	app.ScheduleInterview(InterviewUpdate{Location: &loc}, now)
	require.NotNil(t, app.Interview)
	assert.Equal(t, "video", app.Interview.Mode)
	assert.Equal(t, "Room 4", app.Interview.Location)

	amount := 25.0
	app.UpdatePayment(PaymentUpdate{Amount: &amount}, now)
	status := "paid"
	app.UpdatePayment(PaymentUpdate{Status: &status}, now)
	require.NotNil(t, app.Payment)
	assert.Equal(t, 25.0, app.Payment.Amount)
	assert.Equal(t, "paid", app.Payment.Status)
	assert.Equal(t, StatusDraft, app.Status)
}

func TestApplication_MarshalJSON(t *testing.T) {
	app := NewApplication(7, 10, ScholarshipRef(3), time.Now())

	raw, err := json.Marshal(app)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "scholarship", out["type"])
	assert.Nil(t, out["job_id"])
	assert.Equal(t, float64(3), out["scholarship_id"])
	assert.Equal(t, float64(7), out["id"])
	assert.Equal(t, "draft", out["status"])
}

func TestNewListingRef(t *testing.T) {
	jobID, schID := int64(4), int64(9)

	ref, err := NewListingRef(ListingJob, &jobID, nil)
	require.NoError(t, err)
	assert.Equal(t, JobRef(4), ref)

	ref, err = NewListingRef(ListingScholarship, nil, &schID)
	require.NoError(t, err)
	assert.Equal(t, ScholarshipRef(9), ref)

	_, err = NewListingRef(ListingJob, &jobID, &schID)
	assert.ErrorIs(t, err, ErrInvalidListingRef)

	_, err = NewListingRef(ListingJob, nil, &schID)
	assert.ErrorIs(t, err, ErrInvalidListingRef)

	_, err = NewListingRef(ListingScholarship, &jobID, nil)
	assert.ErrorIs(t, err, ErrInvalidListingRef)

	_, err = NewListingRef("internship", &jobID, nil)
	assert.ErrorIs(t, err, ErrInvalidListingRef)
}
