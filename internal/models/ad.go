package models

import "time"

// Ad is a promotional banner shown on public pages.
type Ad struct {
	ID          int64      `json:"id" db:"id"`
	Title       string     `json:"title" db:"title" validate:"required,max=255"`
	ImageURL    string     `json:"image_url" db:"image_url" validate:"required,url"`
	LinkURL     string     `json:"link_url,omitempty" db:"link_url" validate:"omitempty,url"`
	Placement   string     `json:"placement" db:"placement" validate:"required,oneof=home sidebar listing footer"`
	IsActive    bool       `json:"is_active" db:"is_active"`
	StartsAt    *time.Time `json:"starts_at,omitempty" db:"starts_at"`
	EndsAt      *time.Time `json:"ends_at,omitempty" db:"ends_at"`
	Clicks      int64      `json:"clicks" db:"clicks"`
	Impressions int64      `json:"impressions" db:"impressions"`
	CreatedBy   int64      `json:"created_by" db:"created_by"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// IsLive reports whether the ad should be displayed at now.
func (a *Ad) IsLive(now time.Time) bool {
	if !a.IsActive {
		return false
	}
	if a.StartsAt != nil && now.Before(*a.StartsAt) {
		return false
	}
	if a.EndsAt != nil && now.After(*a.EndsAt) {
		return false
	}
	return true
}
