// file: internal/handlers/api/v1/documents/documents_controller.go
package documents

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"

	"scholarhub/internal/contextutils"
	"scholarhub/internal/handlers/api/v1/common"
	"scholarhub/internal/models"
	"scholarhub/internal/response"
	"scholarhub/internal/services"

	"go.uber.org/zap"
)

// multipartMemory is how much of an upload is buffered in memory before
// spilling to temp files.
const multipartMemory = 8 << 20

// DocumentController handles document upload, download and verification
type DocumentController struct {
	serviceCollection *services.ServiceCollection
	logger            *zap.Logger
	responseBuilder   *response.Builder
	maxFileSize       int64
}

// NewDocumentController creates a new document controller. maxFileSize
// caps the bytes read from the file part; the service applies the full
// validation.
func NewDocumentController(serviceCollection *services.ServiceCollection, logger *zap.Logger, responseBuilder *response.Builder, maxFileSize int64) *DocumentController {
	return &DocumentController{
		serviceCollection: serviceCollection,
		logger:            logger,
		responseBuilder:   responseBuilder,
		maxFileSize:       maxFileSize,
	}
}

type documentQuery struct {
	ApplicationID *int64 `schema:"application_id"`
}

// Upload - POST /api/v1/documents (multipart: file, type, application_id)
func (c *DocumentController) Upload(w http.ResponseWriter, r *http.Request) {
	principal, err := common.Principal(r)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	req, err := c.parseUpload(r)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	doc, err := c.serviceCollection.DocumentService.Upload(r.Context(), principal, req)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	contextutils.GetLogger(r.Context(), c.logger).Info("Document uploaded",
		zap.Int64("document_id", doc.ID),
		zap.String("type", doc.Type),
		zap.Int64("size", doc.FileSize),
	)
	c.responseBuilder.WriteCreated(w, r, doc)
}

func (c *DocumentController) parseUpload(r *http.Request) (*services.UploadDocumentRequest, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return nil, services.NewValidationError("Expected a multipart form with a file field", err)
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, services.NewValidationError("Missing file field", err)
	}
	defer file.Close()

	limit := c.maxFileSize
	if limit <= 0 {
		limit = header.Size
	}
	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return nil, services.NewValidationError("Could not read uploaded file", err)
	}
	if int64(len(data)) > limit {
		return nil, services.NewFieldValidationError(models.ValidationErrors{
			{Field: "file", Message: fmt.Sprintf("must not exceed %d bytes", limit), Code: "max_size"},
		})
	}

	req := &services.UploadDocumentRequest{
		Type:     r.FormValue("type"),
		FileName: filepath.Base(header.Filename),
		Data:     data,
	}
	if raw := r.FormValue("application_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, services.NewFieldValidationError(models.ValidationErrors{
				{Field: "application_id", Message: "must be an integer", Code: "type", Value: raw},
			})
		}
		req.ApplicationID = &id
	}
	return req, nil
}

// ListMine - GET /api/v1/documents?application_id=
func (c *DocumentController) ListMine(w http.ResponseWriter, r *http.Request) {
	principal, err := common.Principal(r)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	var query documentQuery
	if err := common.DecodeQuery(r, &query); err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	docs, err := c.serviceCollection.DocumentService.ListMine(r.Context(), principal, query.ApplicationID)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	c.responseBuilder.WriteSuccess(w, r, nonNil(docs))
}

// ListForApplicant - GET /api/v1/applicants/{id}/documents?application_id=
func (c *DocumentController) ListForApplicant(w http.ResponseWriter, r *http.Request) {
	principal, err := common.Principal(r)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	applicantID, err := common.PathID(r, "id")
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	var query documentQuery
	if err := common.DecodeQuery(r, &query); err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	docs, err := c.serviceCollection.DocumentService.ListForApplicant(r.Context(), principal, applicantID, query.ApplicationID)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	c.responseBuilder.WriteSuccess(w, r, nonNil(docs))
}

// Get - GET /api/v1/documents/{id}
func (c *DocumentController) Get(w http.ResponseWriter, r *http.Request) {
	principal, err := common.Principal(r)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	id, err := common.PathID(r, "id")
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	doc, err := c.serviceCollection.DocumentService.Get(r.Context(), principal, id)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	c.responseBuilder.WriteSuccess(w, r, doc)
}

// Download - GET /api/v1/documents/{id}/download
func (c *DocumentController) Download(w http.ResponseWriter, r *http.Request) {
	principal, err := common.Principal(r)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	id, err := common.PathID(r, "id")
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	dl, err := c.serviceCollection.DocumentService.Download(r.Context(), principal, id)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	defer dl.Body.Close()

	h := w.Header()
	h.Set("Content-Type", dl.Document.MimeType)
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": dl.Document.FileName}))
	h.Set("Cache-Control", "private, no-store")
	if dl.Document.FileSize > 0 {
		h.Set("Content-Length", strconv.FormatInt(dl.Document.FileSize, 10))
	}
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, dl.Body); err != nil && !errors.Is(err, r.Context().Err()) {
		contextutils.GetLogger(r.Context(), c.logger).Warn("Document download interrupted", zap.Int64("document_id", id), zap.Error(err))
	}
}

// SetVerification - PUT /api/v1/documents/{id}/verification
func (c *DocumentController) SetVerification(w http.ResponseWriter, r *http.Request) {
	principal, err := common.Principal(r)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	id, err := common.PathID(r, "id")
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	var req services.VerifyDocumentRequest
	if err := common.DecodeJSON(r, &req); err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	if req.Verified == nil {
		c.responseBuilder.WriteError(w, r, services.NewFieldValidationError(models.ValidationErrors{
			{Field: "verified", Message: "is required", Code: "required"},
		}))
		return
	}

	doc, err := c.serviceCollection.DocumentService.SetVerified(r.Context(), principal, id, *req.Verified)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	c.responseBuilder.WriteSuccess(w, r, doc)
}

// Delete - DELETE /api/v1/documents/{id}
func (c *DocumentController) Delete(w http.ResponseWriter, r *http.Request) {
	principal, err := common.Principal(r)
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	id, err := common.PathID(r, "id")
	if err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}

	if err := c.serviceCollection.DocumentService.Delete(r.Context(), principal, id); err != nil {
		c.responseBuilder.WriteError(w, r, err)
		return
	}
	c.responseBuilder.WriteNoContent(w, r)
}

func nonNil(docs []*models.Document) []*models.Document {
	if docs == nil {
		return []*models.Document{}
	}
	return docs
}
