package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"scholarhub/internal/database"
	"scholarhub/internal/models"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

type adRepository struct {
	*BaseRepository
}

// NewAdRepository creates an advertisement repository
func NewAdRepository(db *database.Manager, logger *zap.Logger) AdRepository {
	return &adRepository{BaseRepository: NewBaseRepository(db, logger)}
}

const adColumns = `id, title, image_url, link_url, placement, is_active, starts_at, ends_at,
	clicks, impressions, created_by, created_at, updated_at`

func scanAd(row interface{ Scan(...interface{}) error }) (*models.Ad, error) {
	var ad models.Ad
	var startsAt, endsAt sql.NullTime
	err := row.Scan(
		&ad.ID, &ad.Title, &ad.ImageURL, &ad.LinkURL, &ad.Placement, &ad.IsActive,
		&startsAt, &endsAt, &ad.Clicks, &ad.Impressions, &ad.CreatedBy,
		&ad.CreatedAt, &ad.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if startsAt.Valid {
		t := startsAt.Time
		ad.StartsAt = &t
	}
	if endsAt.Valid {
		t := endsAt.Time
		ad.EndsAt = &t
	}
	return &ad, nil
}

// Create inserts an ad whose id was already allocated.
func (r *adRepository) Create(ctx context.Context, ad *models.Ad) error {
	query := `
		INSERT INTO ads (id, title, image_url, link_url, placement, is_active, starts_at, ends_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`

	err := r.QueryRowContext(ctx, query,
		ad.ID, ad.Title, ad.ImageURL, ad.LinkURL, ad.Placement, ad.IsActive,
		ad.StartsAt, ad.EndsAt, ad.CreatedBy,
	).Scan(&ad.CreatedAt, &ad.UpdatedAt)
	if err != nil {
		return r.wrapWriteError("create ad", err)
	}
	return nil
}

// GetByID loads an ad.
func (r *adRepository) GetByID(ctx context.Context, id int64) (*models.Ad, error) {
	ad, err := scanAd(r.QueryRowContext(ctx, `SELECT `+adColumns+` FROM ads WHERE id = $1`, id))
	if err != nil {
		if r.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get ad: %w", err)
	}
	return ad, nil
}

// Update rewrites the editable fields. Counters are left alone.
func (r *adRepository) Update(ctx context.Context, ad *models.Ad) error {
	err := r.QueryRowContext(ctx, `
		UPDATE ads SET
			title = $2, image_url = $3, link_url = $4, placement = $5,
			is_active = $6, starts_at = $7, ends_at = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		ad.ID, ad.Title, ad.ImageURL, ad.LinkURL, ad.Placement, ad.IsActive, ad.StartsAt, ad.EndsAt,
	).Scan(&ad.UpdatedAt)
	if err != nil {
		if r.IsNotFound(err) {
			return fmt.Errorf("failed to update ad: %w", ErrNotFound)
		}
		return fmt.Errorf("failed to update ad: %w", err)
	}
	return nil
}

// Delete removes an ad.
func (r *adRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.ExecContext(ctx, `DELETE FROM ads WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete ad: %w", err)
	}
	return expectRow(res, "delete ad")
}

// List pages through ads. LiveOnly keeps active ads inside their window.
func (r *adRepository) List(ctx context.Context, filter AdFilter, params models.PaginationParams) (*models.PaginatedResponse[*models.Ad], error) {
	var w whereBuilder
	if filter.Placement != "" {
		w.add("placement = ?", filter.Placement)
	}
	if filter.LiveOnly {
		now := r.now()
		w.add("is_active")
		w.add("(starts_at IS NULL OR starts_at <= ?)", now)
		w.add("(ends_at IS NULL OR ends_at >= ?)", now)
	}

	total, err := r.GetTotalCount(ctx, `SELECT COUNT(*) FROM ads`+w.sql(), w.countArgs()...)
	if err != nil {
		return nil, fmt.Errorf("failed to count ads: %w", err)
	}

	rows, err := r.QueryContext(ctx, `SELECT `+adColumns+` FROM ads`+w.sql()+w.pageClause(params, "", "created_at", "updated_at"), w.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list ads: %w", err)
	}
	defer rows.Close()

	ads := make([]*models.Ad, 0)
	for rows.Next() {
		ad, err := scanAd(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ad: %w", err)
		}
		ads = append(ads, ad)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ads: %w", err)
	}

	return &models.PaginatedResponse[*models.Ad]{
		Data:       ads,
		Pagination: r.BuildPaginationMeta(params, total),
	}, nil
}

// IncrementClicks records one click.
func (r *adRepository) IncrementClicks(ctx context.Context, id int64) error {
	res, err := r.ExecContext(ctx, `UPDATE ads SET clicks = clicks + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to record ad click: %w", err)
	}
	return expectRow(res, "record ad click")
}

// IncrementImpressions records one impression for each ad shown.
func (r *adRepository) IncrementImpressions(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.ExecContext(ctx, `UPDATE ads SET impressions = impressions + 1 WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to record ad impressions: %w", err)
	}
	return nil
}
