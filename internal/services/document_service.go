package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"scholarhub/internal/events"
	"scholarhub/internal/metrics"
	"scholarhub/internal/models"
	"scholarhub/internal/policy"
	"scholarhub/internal/repositories"
	"scholarhub/internal/sequence"
	"scholarhub/internal/storage"
	"scholarhub/internal/validation"

	"go.uber.org/zap"
)

// documentService implements DocumentService
type documentService struct {
	documents    repositories.DocumentRepository
	applicants   repositories.ApplicantRepository
	applications repositories.ApplicationRepository
	store        storage.Store
	validator    *storage.Validator
	seq          sequence.Generator
	events       events.EventBus
	logger       *zap.Logger
	now          func() time.Time
}

// NewDocumentService creates the document service.
func NewDocumentService(
	documents repositories.DocumentRepository,
	applicants repositories.ApplicantRepository,
	applications repositories.ApplicationRepository,
	store storage.Store,
	validator *storage.Validator,
	seq sequence.Generator,
	bus events.EventBus,
	logger *zap.Logger,
) DocumentService {
	return &documentService{
		documents:    documents,
		applicants:   applicants,
		applications: applications,
		store:        store,
		validator:    validator,
		seq:          seq,
		events:       bus,
		logger:       nopIfNil(logger),
		now:          defaultNow,
	}
}

// Upload validates and stores a file for the caller's own profile.
// The stored object is removed again if the metadata insert fails.
func (s *documentService) Upload(ctx context.Context, p *models.Principal, req *UploadDocumentRequest) (*models.Document, error) {
	if p == nil {
		return nil, NewUnauthorizedError("Authentication required")
	}
	if p.Role != models.RoleApplicant {
		return nil, NewForbiddenError("only applicants upload documents")
	}
	if err := validation.ValidateStruct(req); err != nil {
		return nil, validationError(err)
	}

	applicant, err := s.applicants.GetByUserID(ctx, p.UserID)
	if err != nil {
		return nil, repositoryError("applicant", p.UserID, err)
	}
	if applicant == nil {
		return nil, NewNotFoundError("applicant profile not found").WithDetail("user_id", p.UserID)
	}
	if req.ApplicationID != nil {
		if err := s.checkApplication(ctx, p, *req.ApplicationID); err != nil {
			return nil, err
		}
	}

	inspection, err := s.validator.Validate(req.FileName, req.Data)
	if err != nil {
		if storage.IsValidationError(err) {
			return nil, NewValidationError(err.Error(), err).WithDetail("file_name", req.FileName)
		}
		return nil, NewInternalError("failed to inspect upload")
	}

	size := int64(len(req.Data))
	path, err := s.store.Save(ctx, bytes.NewReader(req.Data), storage.FileMeta{
		Name:        req.FileName,
		Size:        size,
		ContentType: inspection.ContentType,
		Folder:      fmt.Sprintf("applicants/%d", applicant.ID),
	})
	if err != nil {
		s.logger.Error("Failed to store document",
			zap.Int64("applicant_id", applicant.ID),
			zap.String("file_name", req.FileName),
			zap.Error(err))
		return nil, NewInfrastructureError("failed to store document", err)
	}

	id, err := allocateID(ctx, s.seq, sequence.DocumentID, s.logger)
	if err != nil {
		s.discard(ctx, path)
		return nil, err
	}
	now := s.now()
	doc := &models.Document{
		ID:              id,
		ApplicantID:     applicant.ID,
		ApplicationID:   req.ApplicationID,
		ApplicantUserID: p.UserID,
		Type:            req.Type,
		FileName:        models.SanitizeString(req.FileName),
		FilePath:        path,
		FileSize:        size,
		MimeType:        inspection.ContentType,
		PageCount:       inspection.PageCount,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.documents.Create(ctx, doc); err != nil {
		s.discard(ctx, path)
		return nil, repositoryError("document", id, err)
	}

	metrics.ObserveUpload(size)
	s.refreshCompletion(ctx, applicant.ID)
	publish(ctx, s.events, s.logger, events.NewDocumentEvent(events.DocumentUploaded, p.UserID, doc.ID, p.UserID, doc.Type, size, false))
	return doc, nil
}

func (s *documentService) Get(ctx context.Context, p *models.Principal, id int64) (*models.Document, error) {
	return s.loadAuthorized(ctx, p, id, policy.Read)
}

// ListMine lists the caller's documents, optionally for one application.
func (s *documentService) ListMine(ctx context.Context, p *models.Principal, applicationID *int64) ([]*models.Document, error) {
	if p == nil {
		return nil, NewUnauthorizedError("Authentication required")
	}
	applicant, err := s.applicants.GetByUserID(ctx, p.UserID)
	if err != nil {
		return nil, repositoryError("applicant", p.UserID, err)
	}
	if applicant == nil {
		return []*models.Document{}, nil
	}
	docs, err := s.documents.ListByApplicant(ctx, applicant.ID, applicationID)
	if err != nil {
		return nil, repositoryError("document", nil, err)
	}
	return docs, nil
}

// ListForApplicant lists any applicant's documents for reviewers.
func (s *documentService) ListForApplicant(ctx context.Context, p *models.Principal, applicantID int64, applicationID *int64) ([]*models.Document, error) {
	applicant, err := s.applicants.GetByID(ctx, applicantID)
	if err != nil {
		return nil, repositoryError("applicant", applicantID, err)
	}
	if applicant == nil {
		return nil, EntityNotFoundError("applicant", applicantID)
	}
	if err := authorize(p, policy.Resource{Kind: policy.Document, OwnerID: applicant.UserID}, policy.Read); err != nil {
		return nil, err
	}
	docs, err := s.documents.ListByApplicant(ctx, applicantID, applicationID)
	if err != nil {
		return nil, repositoryError("document", nil, err)
	}
	return docs, nil
}

// Download opens the stored bytes. The caller must close Body.
func (s *documentService) Download(ctx context.Context, p *models.Principal, id int64) (*DocumentDownload, error) {
	doc, err := s.loadAuthorized(ctx, p, id, policy.Read)
	if err != nil {
		return nil, err
	}
	body, err := s.store.Open(ctx, doc.FilePath)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			s.logger.Warn("Document metadata without stored object", zap.Int64("document_id", id))
			return nil, EntityNotFoundError("document file", id)
		}
		return nil, NewInfrastructureError("failed to open document", err)
	}
	return &DocumentDownload{Document: doc, Body: body}, nil
}

// SetVerified marks a document verified or clears the mark.
func (s *documentService) SetVerified(ctx context.Context, p *models.Principal, id int64, verified bool) (*models.Document, error) {
	if err := requireBackOffice(p); err != nil {
		return nil, err
	}
	doc, err := s.loadAuthorized(ctx, p, id, policy.Write)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if verified {
		doc.Verify(p.UserID, now)
	} else {
		doc.Unverify(now)
	}
	if err := s.documents.UpdateVerification(ctx, doc); err != nil {
		return nil, repositoryError("document", id, err)
	}

	s.logger.Info("Document verification changed",
		zap.Int64("document_id", id),
		zap.Bool("verified", verified),
		zap.Int64("reviewer_id", p.UserID))
	publish(ctx, s.events, s.logger, events.NewDocumentEvent(events.DocumentVerified, p.UserID, doc.ID, doc.ApplicantUserID, doc.Type, doc.FileSize, verified))
	return doc, nil
}

// Delete removes the metadata, then the stored object.
func (s *documentService) Delete(ctx context.Context, p *models.Principal, id int64) error {
	doc, err := s.loadAuthorized(ctx, p, id, policy.Delete)
	if err != nil {
		return err
	}
	if err := s.documents.Delete(ctx, id); err != nil {
		return repositoryError("document", id, err)
	}
	s.discard(ctx, doc.FilePath)
	s.refreshCompletion(ctx, doc.ApplicantID)
	s.logger.Info("Document deleted", zap.Int64("document_id", id), zap.Int64("actor_id", p.UserID))
	return nil
}

func (s *documentService) loadAuthorized(ctx context.Context, p *models.Principal, id int64, a policy.Action) (*models.Document, error) {
	if p == nil {
		return nil, NewUnauthorizedError("Authentication required")
	}
	doc, err := s.documents.GetByID(ctx, id)
	if err != nil {
		return nil, repositoryError("document", id, err)
	}
	if doc == nil {
		return nil, EntityNotFoundError("document", id)
	}
	if err := authorize(p, policy.DocumentResource(doc), a); err != nil {
		return nil, err
	}
	return doc, nil
}

// checkApplication makes sure an upload only attaches to the caller's
// own application.
func (s *documentService) checkApplication(ctx context.Context, p *models.Principal, applicationID int64) error {
	app, err := s.applications.GetByID(ctx, applicationID)
	if err != nil {
		return repositoryError("application", applicationID, err)
	}
	if app == nil {
		return EntityNotFoundError("application", applicationID)
	}
	if !app.IsOwnedBy(p.UserID) {
		return NewForbiddenError("application belongs to another applicant")
	}
	return nil
}

// refreshCompletion recomputes the profile completion after the
// document count changed. Failures only leave a stale percentage.
func (s *documentService) refreshCompletion(ctx context.Context, applicantID int64) {
	applicant, err := s.applicants.GetByID(ctx, applicantID)
	if err != nil || applicant == nil {
		s.logger.Warn("Failed to reload applicant for completion", zap.Int64("applicant_id", applicantID), zap.Error(err))
		return
	}
	applicant.RefreshCompletion()
	if err := s.applicants.UpdateCompletion(ctx, applicantID, applicant.ProfileCompletion); err != nil {
		s.logger.Warn("Failed to update profile completion", zap.Int64("applicant_id", applicantID), zap.Error(err))
	}
}

func (s *documentService) discard(ctx context.Context, path string) {
	if err := s.store.Delete(ctx, path); err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
		s.logger.Warn("Failed to delete stored object", zap.String("path", path), zap.Error(err))
	}
}
