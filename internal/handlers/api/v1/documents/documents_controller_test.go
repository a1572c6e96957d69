package documents

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
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

type fakeDocuments struct {
	services.DocumentService

	uploaded *services.UploadDocumentRequest
	verified *bool
	body     string
}

func (f *fakeDocuments) Upload(ctx context.Context, p *models.Principal, req *services.UploadDocumentRequest) (*models.Document, error) {
	f.uploaded = req
	return &models.Document{ID: 11, Type: req.Type, FileName: req.FileName, FileSize: int64(len(req.Data)), MimeType: "application/pdf"}, nil
}

func (f *fakeDocuments) ListMine(ctx context.Context, p *models.Principal, applicationID *int64) ([]*models.Document, error) {
	return nil, nil
}

func (f *fakeDocuments) Download(ctx context.Context, p *models.Principal, id int64) (*services.DocumentDownload, error) {
	if id == 404 {
		return nil, services.NewNotFoundError("document not found")
	}
	return &services.DocumentDownload{
		Document: &models.Document{ID: id, FileName: "cv.pdf", MimeType: "application/pdf", FileSize: int64(len(f.body))},
		Body:     io.NopCloser(strings.NewReader(f.body)),
	}, nil
}

func (f *fakeDocuments) SetVerified(ctx context.Context, p *models.Principal, id int64, verified bool) (*models.Document, error) {
	f.verified = &verified
	return &models.Document{ID: id, IsVerified: verified}, nil
}

const testMaxFileSize = 64

func newTestRouter(fake *fakeDocuments) http.Handler {
	logger := zap.NewNop()
	sc := &services.ServiceCollection{DocumentService: fake, Logger: logger}
	c := NewDocumentController(sc, logger, response.NewBuilder(response.DefaultConfig(), logger), testMaxFileSize)

	principal := &models.Principal{UserID: 10, Email: "ana@example.com", Role: models.RoleApplicant}
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(contextutils.WithPrincipal(req.Context(), principal)))
		})
	})
	r.Post("/documents", c.Upload)
	r.Get("/documents", c.ListMine)
	r.Get("/documents/{id}/download", c.Download)
	r.Put("/documents/{id}/verification", c.SetVerification)
	return r
}

func multipartUpload(t *testing.T, fields map[string]string, fileName string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileName != "" {
		part, err := mw.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUpload(t *testing.T) {
	fake := &fakeDocuments{}
	rec := httptest.NewRecorder()
	req := multipartUpload(t, map[string]string{"type": "cv", "application_id": "3"}, "../../etc/cv.pdf", []byte("%PDF-1.4 tiny"))
	newTestRouter(fake).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.NotNil(t, fake.uploaded)
	assert.Equal(t, "cv", fake.uploaded.Type)
	assert.Equal(t, "cv.pdf", fake.uploaded.FileName)
	require.NotNil(t, fake.uploaded.ApplicationID)
	assert.Equal(t, int64(3), *fake.uploaded.ApplicationID)
	assert.Equal(t, []byte("%PDF-1.4 tiny"), fake.uploaded.Data)
}

func TestUpload_Rejections(t *testing.T) {
	tests := []struct {
		name  string
		req   func(t *testing.T) *http.Request
		field string
	}{
		{
			name: "not multipart",
			req: func(t *testing.T) *http.Request {
				r := httptest.NewRequest(http.MethodPost, "/documents", strings.NewReader(`{"type":"cv"}`))
				r.Header.Set("Content-Type", "application/json")
				return r
			},
		},
		{
			name: "missing file",
			req: func(t *testing.T) *http.Request {
				return multipartUpload(t, map[string]string{"type": "cv"}, "", nil)
			},
		},
		{
			name: "too large",
			req: func(t *testing.T) *http.Request {
				return multipartUpload(t, map[string]string{"type": "cv"}, "cv.pdf", bytes.Repeat([]byte("x"), testMaxFileSize+1))
			},
			field: "file",
		},
		{
			name: "bad application id",
			req: func(t *testing.T) *http.Request {
				return multipartUpload(t, map[string]string{"type": "cv", "application_id": "three"}, "cv.pdf", []byte("ok"))
			},
			field: "application_id",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeDocuments{}
			rec := httptest.NewRecorder()
			newTestRouter(fake).ServeHTTP(rec, tt.req(t))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Nil(t, fake.uploaded)
			if tt.field != "" {
				var body struct {
					Error struct {
						Fields []struct {
							Field string `json:"field"`
						} `json:"fields"`
					} `json:"error"`
				}
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				require.Len(t, body.Error.Fields, 1)
				assert.Equal(t, tt.field, body.Error.Fields[0].Field)
			}
		})
	}
}

func TestListMine_EmptyIsArray(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(&fakeDocuments{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/documents", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"data":[]`)
}

func TestDownload(t *testing.T) {
	fake := &fakeDocuments{body: "%PDF-1.4 contents"}
	rec := httptest.NewRecorder()
	newTestRouter(fake).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/documents/8/download", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename=cv.pdf", rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "private, no-store", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "17", rec.Header().Get("Content-Length"))
	assert.Equal(t, "%PDF-1.4 contents", rec.Body.String())
}

func TestDownload_NotFound(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(&fakeDocuments{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/documents/404/download", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
}

func TestSetVerification(t *testing.T) {
	fake := &fakeDocuments{}
	rec := httptest.NewRecorder()
	newTestRouter(fake).ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/documents/8/verification", strings.NewReader(`{"verified":false}`)))

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, fake.verified)
	assert.False(t, *fake.verified)
}

func TestSetVerification_RequiresFlag(t *testing.T) {
	fake := &fakeDocuments{}
	rec := httptest.NewRecorder()
	newTestRouter(fake).ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/documents/8/verification", strings.NewReader(`{}`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, fake.verified)
	assert.Contains(t, rec.Body.String(), `"field":"verified"`)
}
