// Package googlebooks provides a client for the Google Books volumes API.
package googlebooks

// OrderBy controls result ordering for searches.
type OrderBy string

const (
	OrderByRelevance OrderBy = "relevance"
	OrderByNewest    OrderBy = "newest"
)

// Valid returns true if this is a recognized ordering.
func (o OrderBy) Valid() bool {
	switch o {
	case OrderByRelevance, OrderByNewest:
		return true
	}
	return false
}

// Volume represents book metadata from the source, already coerced
// into a regular shape. Categories are the source's free-text strings;
// classification into canonical tags happens downstream.
type Volume struct {
	ExternalID    string   `json:"external_id"`
	ISBN          string   `json:"isbn,omitempty"`
	Title         string   `json:"title"`
	Subtitle      string   `json:"subtitle,omitempty"`
	Authors       []string `json:"authors"`
	Publisher     string   `json:"publisher,omitempty"`
	PublishedDate string   `json:"published_date,omitempty"`
	Description   string   `json:"description,omitempty"` // Plain text, HTML stripped
	PageCount     int      `json:"page_count,omitempty"`
	Categories    []string `json:"categories,omitempty"`
	Language      string   `json:"language,omitempty"` // ISO 639-1
	CoverURL      string   `json:"cover_url,omitempty"`
	PreviewLink   string   `json:"preview_link,omitempty"`
}

// SearchParams defines parameters for volume search.
type SearchParams struct {
	Query      string  // General search terms
	Author     string  // Restrict to an author (inauthor:)
	OrderBy    OrderBy // relevance (default) or newest
	StartIndex int     // Pagination offset
	Limit      int     // Max results (default 20, max 40)
}
