package domain

import (
	"slices"
	"time"
)

// DefaultShelfNames are created for every user at registration,
// in this order. Read-only, safe for concurrent use.
var DefaultShelfNames = []string{"Reading", "Completed", "To Read", "Favorites"}

// Shelf represents a user-owned list of books. Every user gets the
// default shelves at registration and can create custom ones. A book
// occupies at most one shelf per owner: adding it to a second shelf
// removes it from the first.
type Shelf struct {
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	BookIDs     []string  `json:"book_ids"` // Ordered list of book IDs (newest first)
}

// AddBook adds a book ID to the shelf, prepending it to maintain newest-first ordering.
// If the book is already present, this is a no-op. Updates UpdatedAt on success.
func (s *Shelf) AddBook(bookID string) bool {
	if slices.Contains(s.BookIDs, bookID) {
		return false // Already present
	}
	// Prepend to maintain newest-first ordering
	s.BookIDs = append([]string{bookID}, s.BookIDs...)
	s.UpdatedAt = time.Now()
	return true
}

// RemoveBook removes a book ID from the shelf.
// Updates UpdatedAt on success. Returns false if the book was not present.
func (s *Shelf) RemoveBook(bookID string) bool {
	for i, id := range s.BookIDs {
		if id == bookID {
			s.BookIDs = append(s.BookIDs[:i], s.BookIDs[i+1:]...)
			s.UpdatedAt = time.Now()
			return true
		}
	}
	return false
}

// ContainsBook checks if a book ID is in this shelf.
func (s *Shelf) ContainsBook(bookID string) bool {
	return slices.Contains(s.BookIDs, bookID)
}

// IsOwnedBy reports whether userID owns this shelf.
func (s *Shelf) IsOwnedBy(userID string) bool {
	return s.OwnerID == userID
}
