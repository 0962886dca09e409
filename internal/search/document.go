// Package search provides full-text search over the cached book catalog
// using Bleve. It supports fuzzy matching, category filtering, and
// faceted results.
package search

import (
	"strconv"
	"strings"

	"github.com/shelfmark/shelfmark-server/internal/domain"
)

// SearchDocument is the document structure for the Bleve index.
//
// Design note: authors and categories are denormalized into flat fields
// so a single query covers everything a reader would type. The trade-off
// is storage space for query performance.
type SearchDocument struct {
	ID string `json:"id"`

	// Primary searchable text.
	Name string `json:"name"`

	Subtitle    string `json:"subtitle,omitempty"`
	Description string `json:"description,omitempty"`
	Author      string `json:"author,omitempty"` // Denormalized, comma-joined
	Publisher   string `json:"publisher,omitempty"`
	ISBN        string `json:"isbn,omitempty"`

	// Canonical category tags for exact filtering and faceting.
	Categories []string `json:"categories,omitempty"`

	Language string `json:"language,omitempty"`

	// Numeric fields for range queries and sorting.
	PublishYear int `json:"publish_year,omitempty"`
	PageCount   int `json:"page_count,omitempty"`

	// Timestamps for sorting. Unix millis.
	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`
}

// ToMap converts the document to a map with lowercase field names.
// Bleve by default uses Go struct field names (capitalized), but our
// mapping uses lowercase names, so we convert explicitly.
func (d *SearchDocument) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"id":         d.ID,
		"name":       d.Name,
		"created_at": d.CreatedAt,
		"updated_at": d.UpdatedAt,
	}

	// Optional fields - only add if non-empty
	if d.Subtitle != "" {
		m["subtitle"] = d.Subtitle
	}
	if d.Description != "" {
		m["description"] = d.Description
	}
	if d.Author != "" {
		m["author"] = d.Author
	}
	if d.Publisher != "" {
		m["publisher"] = d.Publisher
	}
	if d.ISBN != "" {
		m["isbn"] = d.ISBN
	}
	if len(d.Categories) > 0 {
		m["categories"] = d.Categories
	}
	if d.Language != "" {
		m["language"] = d.Language
	}
	if d.PublishYear > 0 {
		m["publish_year"] = d.PublishYear
	}
	if d.PageCount > 0 {
		m["page_count"] = d.PageCount
	}

	return m
}

// BookToSearchDocument converts a domain Book to a SearchDocument.
func BookToSearchDocument(book *domain.Book) *SearchDocument {
	doc := &SearchDocument{
		ID:          book.ID,
		Name:        book.Title,
		Subtitle:    book.Subtitle,
		Description: book.Description,
		Author:      strings.Join(book.Authors, ", "),
		Publisher:   book.Publisher,
		ISBN:        book.ISBN,
		Categories:  book.Categories,
		Language:    book.Language,
		PageCount:   book.PageCount,
		CreatedAt:   book.CreatedAt.UnixMilli(),
		UpdatedAt:   book.UpdatedAt.UnixMilli(),
	}

	// Published dates arrive as "2006", "2006-01", or "2006-01-02".
	if len(book.PublishedDate) >= 4 {
		if year, err := strconv.Atoi(book.PublishedDate[:4]); err == nil {
			doc.PublishYear = year
		}
	}

	return doc
}
