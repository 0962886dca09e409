// Package domain contains the core business entities and domain logic for the Shelfmark catalog.
package domain

import (
	"time"
)

// Book represents a catalogued book. Books enter the system from the
// external metadata source and are cached locally; ExternalID is the
// source's volume identifier and is unique across the catalog.
type Book struct {
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	ID            string    `json:"id"`
	ExternalID    string    `json:"external_id"`
	ISBN          string    `json:"isbn,omitempty"`
	Title         string    `json:"title"`
	Subtitle      string    `json:"subtitle,omitempty"`
	Authors       []string  `json:"authors"`
	Description   string    `json:"description,omitempty"`
	Publisher     string    `json:"publisher,omitempty"`
	PublishedDate string    `json:"published_date,omitempty"` // "2006", "2006-01", or "2006-01-02" as the source provides
	PageCount     int       `json:"page_count,omitempty"`
	Categories    []string  `json:"categories,omitempty"` // Canonical genre tags
	Language      string    `json:"language,omitempty"`   // ISO 639-1
	CoverURL      string    `json:"cover_url,omitempty"`
	PreviewLink   string    `json:"preview_link,omitempty"`

	// Derived from reviews on read, never stored as source of truth.
	Rating      float64 `json:"rating"`
	ReviewCount int     `json:"review_count"`
}

// IsUsable reports whether the record carries enough metadata to be
// worth showing. Search results lacking both a title and at least one
// author are discarded.
func (b *Book) IsUsable() bool {
	return b.Title != "" && len(b.Authors) > 0
}

// SetRatingFrom computes the average rating from a sum and count of
// review ratings. Zero reviews yields rating 0, never a division by zero.
func (b *Book) SetRatingFrom(ratingSum int64, reviewCount int) {
	b.ReviewCount = reviewCount
	if reviewCount == 0 {
		b.Rating = 0
		return
	}
	b.Rating = float64(ratingSum) / float64(reviewCount)
}

// TrendingScore ranks books by engagement: average rating weighted
// heavily, review count as tiebreaker. Unreviewed books score 0.
func (b *Book) TrendingScore() float64 {
	return b.Rating*100 + float64(b.ReviewCount)
}

// Touch updates the UpdatedAt timestamp to the current time.
func (b *Book) Touch() {
	b.UpdatedAt = time.Now()
}

// InitTimestamps sets both CreatedAt and UpdatedAt to now.
func (b *Book) InitTimestamps() {
	now := time.Now()
	b.CreatedAt = now
	b.UpdatedAt = now
}
