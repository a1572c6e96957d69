package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"scholarhub/internal/config"
	"scholarhub/internal/middleware"
	"scholarhub/internal/models"
	"scholarhub/internal/monitoring"
	"scholarhub/internal/response"
	"scholarhub/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeVerifier map[string]*models.Principal

func (f fakeVerifier) VerifyAccessToken(_ context.Context, token string) (*services.Claims, error) {
	p, ok := f[token]
	if !ok {
		return nil, services.NewUnauthorizedError("invalid token")
	}
	return &services.Claims{UserID: p.UserID, Role: p.Role, TokenType: services.TokenTypeAccess}, nil
}

func (f fakeVerifier) ResolvePrincipal(_ context.Context, claims *services.Claims) (*models.Principal, error) {
	for _, p := range f {
		if p.UserID == claims.UserID {
			return p, nil
		}
	}
	return nil, services.NewUnauthorizedError("unknown user")
}

type fakeListings struct {
	services.ListingService
	lastPrincipal *models.Principal
	lastRequest   *services.ListListingsRequest
}

func (f *fakeListings) ListJobs(_ context.Context, p *models.Principal, req *services.ListListingsRequest) (*models.PaginatedResponse[*models.Job], error) {
	f.lastPrincipal = p
	f.lastRequest = req
	return &models.PaginatedResponse[*models.Job]{
		Data:       []*models.Job{{Listing: models.Listing{ID: 1, Title: "Backend Engineer"}}},
		Pagination: models.PaginationMeta{CurrentPage: 1, TotalItems: 1, ItemsPerPage: req.Limit},
	}, nil
}

type stubHealth struct{}

func (stubHealth) HealthCheck(context.Context) (*services.ServiceHealth, error) {
	return &services.ServiceHealth{Dependencies: map[string]services.ServiceStatus{
		"database": {Name: "database", Status: "healthy"},
	}}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Server:     config.ServerConfig{Environment: "test"},
		Monitoring: config.MonitoringConfig{EnableMetrics: true, MetricsPath: "/metrics", HealthCheckPath: "/health"},
	}
}

func newTestRouter(t *testing.T, cfg *config.Config) (http.Handler, *fakeListings) {
	t.Helper()
	logger := zap.NewNop()
	builder := response.NewBuilder(nil, logger)
	listings := &fakeListings{}
	sc := &services.ServiceCollection{Config: cfg, ListingService: listings, Logger: logger}
	auth := middleware.NewAuthMiddleware(fakeVerifier{
		"applicant-token": {UserID: 10, Role: models.RoleApplicant},
		"staff-token":     {UserID: 5, Role: models.RoleStaff},
	}, builder, nil, logger)

	dashboard := monitoring.NewDashboard(stubHealth{}, nil, builder, logger, "test", cfg.Server.Environment)
	return SetupRouter(sc, auth, builder, logger, Options{Dashboard: dashboard}), listings
}

func do(h http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_PublicListingPassesOptionalPrincipal(t *testing.T) {
	h, listings := newTestRouter(t, testConfig())

	rec := do(h, http.MethodGet, "/api/v1/jobs?page_size=5&search=backend", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Nil(t, listings.lastPrincipal)
	assert.Equal(t, 5, listings.lastRequest.Limit)
	assert.Equal(t, "backend", listings.lastRequest.Search)

	rec = do(h, http.MethodGet, "/api/v1/jobs", "staff-token")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, listings.lastPrincipal)
	assert.Equal(t, int64(5), listings.lastPrincipal.UserID)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRouter_RoleGates(t *testing.T) {
	h, _ := newTestRouter(t, testConfig())

	cases := []struct {
		name   string
		method string
		path   string
		token  string
		status int
	}{
		{"anonymous applications", http.MethodGet, "/api/v1/applications", "", http.StatusUnauthorized},
		{"bad token", http.MethodGet, "/api/v1/applications", "nope", http.StatusUnauthorized},
		{"applicant on admin list", http.MethodGet, "/api/v1/applications/admin", "applicant-token", http.StatusForbidden},
		{"applicant sets status", http.MethodPut, "/api/v1/applications/3/status", "applicant-token", http.StatusForbidden},
		{"staff on admin area", http.MethodPost, "/api/v1/admin/staff", "staff-token", http.StatusForbidden},
		{"applicant creates job", http.MethodPost, "/api/v1/jobs", "applicant-token", http.StatusForbidden},
		{"applicant verifies document", http.MethodPut, "/api/v1/documents/1/verification", "applicant-token", http.StatusForbidden},
		{"anonymous health details", http.MethodGet, "/health/details", "", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(h, tc.method, tc.path, tc.token)
			assert.Equal(t, tc.status, rec.Code, rec.Body.String())
		})
	}
}

func TestRouter_NotFoundAndMethodNotAllowed(t *testing.T) {
	h, _ := newTestRouter(t, testConfig())

	rec := do(h, http.MethodGet, "/api/v1/nothing-here", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	var body response.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Success)

	rec = do(h, http.MethodPatch, "/api/v1/ads", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRouter_OpsEndpoints(t *testing.T) {
	h, _ := newTestRouter(t, testConfig())

	rec := do(h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)

	rec = do(h, http.MethodGet, "/health/details", "staff-token")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"database"`)

	rec = do(h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "go_goroutines"))
}

func TestRouter_MaintenanceMode(t *testing.T) {
	cfg := testConfig()
	cfg.Features.MaintenanceMode = true
	h, _ := newTestRouter(t, cfg)

	rec := do(h, http.MethodGet, "/api/v1/jobs", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "300", rec.Header().Get("Retry-After"))

	rec = do(h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_SwaggerDisabledByDefault(t *testing.T) {
	h, _ := newTestRouter(t, testConfig())
	rec := do(h, http.MethodGet, "/swagger/index.html", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
