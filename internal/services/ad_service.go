package services

import (
	"context"
	"time"

	"scholarhub/internal/models"
	"scholarhub/internal/policy"
	"scholarhub/internal/repositories"
	"scholarhub/internal/sequence"
	"scholarhub/internal/validation"

	"go.uber.org/zap"
)

type adService struct {
	ads    repositories.AdRepository
	seq    sequence.Generator
	logger *zap.Logger
	now    func() time.Time
}

// NewAdService creates the advertisement service.
func NewAdService(ads repositories.AdRepository, seq sequence.Generator, logger *zap.Logger) AdService {
	return &adService{ads: ads, seq: seq, logger: nopIfNil(logger), now: defaultNow}
}

func (s *adService) Create(ctx context.Context, p *models.Principal, req *AdRequest) (*models.Ad, error) {
	if err := s.authorizeManage(p, 0, policy.Write); err != nil {
		return nil, err
	}
	if err := validation.ValidateStruct(req); err != nil {
		return nil, validationError(err)
	}

	now := s.now()
	ad := &models.Ad{CreatedBy: p.UserID, CreatedAt: now, UpdatedAt: now}
	applyAd(ad, req)
	if err := models.ValidateModel(ad); err != nil {
		return nil, validationError(err)
	}

	id, err := allocateID(ctx, s.seq, sequence.AdID, s.logger)
	if err != nil {
		return nil, err
	}
	ad.ID = id
	if err := s.ads.Create(ctx, ad); err != nil {
		return nil, repositoryError("ad", id, err)
	}
	s.logger.Info("Ad created", zap.Int64("ad_id", id), zap.String("placement", ad.Placement))
	return ad, nil
}

func (s *adService) Update(ctx context.Context, p *models.Principal, id int64, req *AdRequest) (*models.Ad, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, validationError(err)
	}
	ad, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeManage(p, ad.CreatedBy, policy.Write); err != nil {
		return nil, err
	}

	applyAd(ad, req)
	if err := models.ValidateModel(ad); err != nil {
		return nil, validationError(err)
	}
	if err := s.ads.Update(ctx, ad); err != nil {
		return nil, repositoryError("ad", id, err)
	}
	return ad, nil
}

func (s *adService) Delete(ctx context.Context, p *models.Principal, id int64) error {
	ad, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorizeManage(p, ad.CreatedBy, policy.Delete); err != nil {
		return err
	}
	if err := s.ads.Delete(ctx, id); err != nil {
		return repositoryError("ad", id, err)
	}
	return nil
}

// ListLive serves the ads currently on display and records one
// impression per served ad. Counting failures do not fail the read.
func (s *adService) ListLive(ctx context.Context, placement string, params models.PaginationParams) (*models.PaginatedResponse[*models.Ad], error) {
	params.Normalize()
	page, err := s.ads.List(ctx, repositories.AdFilter{Placement: placement, LiveOnly: true}, params)
	if err != nil {
		return nil, repositoryError("ad", nil, err)
	}

	ids := make([]int64, 0, len(page.Data))
	for _, ad := range page.Data {
		ids = append(ids, ad.ID)
	}
	if err := s.ads.IncrementImpressions(ctx, ids); err != nil {
		s.logger.Warn("Failed to record ad impressions", zap.Int("count", len(ids)), zap.Error(err))
	} else {
		for _, ad := range page.Data {
			ad.Impressions++
		}
	}
	return page, nil
}

// ListAll lists every ad, live or not, for back-office users.
func (s *adService) ListAll(ctx context.Context, p *models.Principal, placement string, params models.PaginationParams) (*models.PaginatedResponse[*models.Ad], error) {
	if err := requireBackOffice(p); err != nil {
		return nil, err
	}
	params.Normalize()
	page, err := s.ads.List(ctx, repositories.AdFilter{Placement: placement}, params)
	if err != nil {
		return nil, repositoryError("ad", nil, err)
	}
	return page, nil
}

// RecordClick counts a click and returns the ad so the caller can
// redirect to its link. Ads that are not live are reported missing.
func (s *adService) RecordClick(ctx context.Context, id int64) (*models.Ad, error) {
	ad, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ad.IsLive(s.now()) {
		return nil, EntityNotFoundError("ad", id)
	}
	if err := s.ads.IncrementClicks(ctx, id); err != nil {
		return nil, repositoryError("ad", id, err)
	}
	ad.Clicks++
	return ad, nil
}

func (s *adService) load(ctx context.Context, id int64) (*models.Ad, error) {
	ad, err := s.ads.GetByID(ctx, id)
	if err != nil {
		return nil, repositoryError("ad", id, err)
	}
	if ad == nil {
		return nil, EntityNotFoundError("ad", id)
	}
	return ad, nil
}

func (s *adService) authorizeManage(p *models.Principal, createdBy int64, a policy.Action) error {
	if err := requireBackOffice(p); err != nil {
		return err
	}
	return authorize(p, policy.AdResource(createdBy), a)
}

func applyAd(ad *models.Ad, req *AdRequest) {
	ad.Title = models.SanitizeString(req.Title)
	ad.ImageURL = req.ImageURL
	ad.LinkURL = req.LinkURL
	ad.Placement = req.Placement
	ad.IsActive = req.IsActive
	ad.StartsAt = req.StartsAt
	ad.EndsAt = req.EndsAt
}
