package applications

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"scholarhub/internal/contextutils"
	"scholarhub/internal/models"
	"scholarhub/internal/response"
	"scholarhub/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeApplications overrides only the calls these tests reach; anything
// else panics through the nil embedded interface.
type fakeApplications struct {
	services.ApplicationService

	submitErr  error
	gotStatus  *services.SetStatusRequest
	gotFilter  *services.ListApplicationsRequest
	deletedIDs []int64
}

func (f *fakeApplications) Submit(ctx context.Context, p *models.Principal, id int64) (*models.Application, error) {
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return &models.Application{ID: id, Status: models.StatusSubmitted, Progress: 100, Target: models.ListingRef{Kind: models.ListingJob, ID: 7}}, nil
}

func (f *fakeApplications) SetStatus(ctx context.Context, p *models.Principal, id int64, req *services.SetStatusRequest) (*models.Application, error) {
	f.gotStatus = req
	return &models.Application{ID: id, Status: req.Status, Target: models.ListingRef{Kind: models.ListingScholarship, ID: 3}}, nil
}

func (f *fakeApplications) Delete(ctx context.Context, p *models.Principal, id int64) error {
	f.deletedIDs = append(f.deletedIDs, id)
	return nil
}

func (f *fakeApplications) ListAdmin(ctx context.Context, p *models.Principal, req *services.ListApplicationsRequest) (*models.PaginatedResponse[*models.Application], error) {
	f.gotFilter = req
	return &models.PaginatedResponse[*models.Application]{
		Data: []*models.Application{{ID: 1, Status: models.StatusUnderReview, Target: models.ListingRef{Kind: models.ListingJob, ID: 2}}},
		Pagination: models.PaginationMeta{
			CurrentPage:  1,
			TotalPages:   1,
			TotalItems:   1,
			ItemsPerPage: req.Limit,
		},
	}, nil
}

func newTestRouter(fake *fakeApplications, principal *models.Principal) http.Handler {
	logger := zap.NewNop()
	sc := &services.ServiceCollection{ApplicationService: fake, Logger: logger}
	c := NewApplicationController(sc, logger, response.NewBuilder(response.DefaultConfig(), logger))

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if principal != nil {
				req = req.WithContext(contextutils.WithPrincipal(req.Context(), principal))
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Get("/applications/admin", c.ListAdmin)
	r.Delete("/applications/{id}", c.Delete)
	r.Post("/applications/{id}/submit", c.Submit)
	r.Put("/applications/{id}/status", c.SetStatus)
	return r
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

var (
	applicant = &models.Principal{UserID: 10, Email: "ana@example.com", Role: models.RoleApplicant}
	staff     = &models.Principal{UserID: 2, Email: "rev@example.com", Role: models.RoleStaff}
)

func TestSubmit(t *testing.T) {
	fake := &fakeApplications{}
	rec := httptest.NewRecorder()
	newTestRouter(fake, applicant).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/applications/42/submit", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, float64(42), data["id"])
	assert.Equal(t, "submitted", data["status"])
	assert.Equal(t, "job", data["type"])
	assert.Equal(t, float64(7), data["job_id"])
	assert.Nil(t, data["scholarship_id"])
}

func TestSubmit_Errors(t *testing.T) {
	tests := []struct {
		name      string
		principal *models.Principal
		path      string
		err       error
		status    int
	}{
		{"no principal", nil, "/applications/42/submit", nil, http.StatusUnauthorized},
		{"bad id", applicant, "/applications/abc/submit", nil, http.StatusBadRequest},
		{"zero id", applicant, "/applications/0/submit", nil, http.StatusBadRequest},
		{"incomplete", applicant, "/applications/42/submit", services.NewPreconditionFailedError("Application is incomplete", "INCOMPLETE"), http.StatusPreconditionFailed},
		{"not found", applicant, "/applications/42/submit", services.NewNotFoundError("application not found"), http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			newTestRouter(&fakeApplications{submitErr: tt.err}, tt.principal).
				ServeHTTP(rec, httptest.NewRequest(http.MethodPost, tt.path, nil))

			assert.Equal(t, tt.status, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, false, body["success"])
			assert.NotNil(t, body["error"])
		})
	}
}

func TestSubmit_PreconditionCode(t *testing.T) {
	rec := httptest.NewRecorder()
	fake := &fakeApplications{submitErr: services.NewPreconditionFailedError("Application is incomplete", "INCOMPLETE")}
	newTestRouter(fake, applicant).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/applications/42/submit", nil))

	require.Equal(t, http.StatusPreconditionFailed, rec.Code)
	errBody := decode(t, rec)["error"].(map[string]interface{})
	assert.Equal(t, "INCOMPLETE", errBody["code"])
	assert.Equal(t, "Application is incomplete", errBody["message"])
}

func TestSetStatus(t *testing.T) {
	fake := &fakeApplications{}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPut, "/applications/5/status", strings.NewReader(`{"status":"approved"}`))
	newTestRouter(fake, staff).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, fake.gotStatus)
	assert.Equal(t, models.StatusApproved, fake.gotStatus.Status)
	data := decode(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, "scholarship", data["type"])
	assert.Equal(t, float64(3), data["scholarship_id"])
}

func TestSetStatus_BodyErrors(t *testing.T) {
	for name, body := range map[string]string{
		"empty":         ``,
		"malformed":     `{"status":`,
		"unknown field": `{"status":"approved","force":true}`,
		"two objects":   `{"status":"approved"}{"status":"rejected"}`,
	} {
		t.Run(name, func(t *testing.T) {
			fake := &fakeApplications{}
			rec := httptest.NewRecorder()
			newTestRouter(fake, staff).ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/applications/5/status", strings.NewReader(body)))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Nil(t, fake.gotStatus)
		})
	}
}

func TestListAdmin_Filters(t *testing.T) {
	fake := &fakeApplications{}
	rec := httptest.NewRecorder()
	newTestRouter(fake, staff).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/applications/admin?status=under_review&type=job&listing_id=2&limit=5", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, fake.gotFilter)
	assert.Equal(t, models.StatusUnderReview, fake.gotFilter.Filter.Status)
	assert.Equal(t, models.ListingJob, fake.gotFilter.Filter.Kind)
	require.NotNil(t, fake.gotFilter.Filter.ListingID)
	assert.Equal(t, int64(2), *fake.gotFilter.Filter.ListingID)
	assert.Nil(t, fake.gotFilter.Filter.ApplicantID)
	assert.Equal(t, 5, fake.gotFilter.Limit)

	body := decode(t, rec)
	assert.Len(t, body["data"], 1)
	assert.NotNil(t, body["meta"])
}

func TestListAdmin_RejectsUnknownFilters(t *testing.T) {
	for _, query := range []string{"status=archived", "type=grant", "listing_id=abc"} {
		t.Run(query, func(t *testing.T) {
			fake := &fakeApplications{}
			rec := httptest.NewRecorder()
			newTestRouter(fake, staff).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/applications/admin?"+query, nil))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Nil(t, fake.gotFilter)
		})
	}
}

func TestDelete(t *testing.T) {
	fake := &fakeApplications{}
	rec := httptest.NewRecorder()
	newTestRouter(fake, applicant).ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/applications/9", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Equal(t, []int64{9}, fake.deletedIDs)
}
