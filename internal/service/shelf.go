package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shelfmark/shelfmark-server/internal/domain"
	domainerrors "github.com/shelfmark/shelfmark-server/internal/errors"
	"github.com/shelfmark/shelfmark-server/internal/id"
	"github.com/shelfmark/shelfmark-server/internal/store"
)

// ShelfService orchestrates shelf operations with ownership enforcement
// and the single-shelf-per-book invariant.
type ShelfService struct {
	store   store.Store
	catalog *CatalogService
	logger  *slog.Logger
}

// NewShelfService creates a new shelf service.
func NewShelfService(store store.Store, catalog *CatalogService, logger *slog.Logger) *ShelfService {
	return &ShelfService{
		store:   store,
		catalog: catalog,
		logger:  logger,
	}
}

// CreateShelf creates a new custom shelf for the user.
func (s *ShelfService) CreateShelf(ctx context.Context, ownerID, name, description string) (*domain.Shelf, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if name == "" {
		return nil, domainerrors.Validation("shelf name cannot be empty")
	}

	shelfID, err := id.Generate("shelf")
	if err != nil {
		return nil, fmt.Errorf("generate shelf ID: %w", err)
	}

	now := time.Now()
	shelf := &domain.Shelf{
		ID:          shelfID,
		OwnerID:     ownerID,
		Name:        name,
		Description: description,
		BookIDs:     []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.CreateShelf(ctx, shelf); err != nil {
		return nil, fmt.Errorf("create shelf: %w", err)
	}

	s.logger.Info("shelf created",
		"shelf_id", shelfID,
		"owner_id", ownerID,
		"name", name,
	)

	return shelf, nil
}

// CreateDefaultShelves creates the standard shelves for a new user.
// Best effort: a failure is logged and does not abort registration.
func (s *ShelfService) CreateDefaultShelves(ctx context.Context, ownerID string) {
	for _, name := range domain.DefaultShelfNames {
		if _, err := s.CreateShelf(ctx, ownerID, name, ""); err != nil {
			s.logger.Warn("failed to create default shelf",
				"owner_id", ownerID,
				"name", name,
				"error", err,
			)
		}
	}
}

// GetShelf retrieves a shelf by ID.
func (s *ShelfService) GetShelf(ctx context.Context, shelfID string) (*domain.Shelf, error) {
	shelf, err := s.store.GetShelf(ctx, shelfID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("shelf not found")
		}
		return nil, fmt.Errorf("get shelf: %w", err)
	}
	return shelf, nil
}

// ListShelves returns all shelves owned by the user.
func (s *ShelfService) ListShelves(ctx context.Context, ownerID string) ([]*domain.Shelf, error) {
	shelves, err := s.store.ListShelvesByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list shelves: %w", err)
	}
	return shelves, nil
}

// UpdateShelf updates shelf metadata. Requires ownership.
func (s *ShelfService) UpdateShelf(ctx context.Context, userID, shelfID, name, description string) (*domain.Shelf, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	shelf, err := s.GetShelf(ctx, shelfID)
	if err != nil {
		return nil, err
	}
	if !shelf.IsOwnedBy(userID) {
		return nil, domainerrors.Forbidden("you do not own this shelf")
	}

	if name == "" {
		return nil, domainerrors.Validation("shelf name cannot be empty")
	}

	shelf.Name = name
	shelf.Description = description
	shelf.UpdatedAt = time.Now()

	if err := s.store.UpdateShelf(ctx, shelf); err != nil {
		return nil, fmt.Errorf("update shelf: %w", err)
	}

	s.logger.Info("shelf updated",
		"shelf_id", shelfID,
		"user_id", userID,
		"name", name,
	)

	return shelf, nil
}

// DeleteShelf deletes a shelf. Requires ownership.
func (s *ShelfService) DeleteShelf(ctx context.Context, userID, shelfID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	shelf, err := s.GetShelf(ctx, shelfID)
	if err != nil {
		return err
	}
	if !shelf.IsOwnedBy(userID) {
		return domainerrors.Forbidden("you do not own this shelf")
	}

	if err := s.store.DeleteShelf(ctx, shelfID); err != nil {
		return fmt.Errorf("delete shelf: %w", err)
	}

	s.logger.Info("shelf deleted",
		"shelf_id", shelfID,
		"user_id", userID,
	)

	return nil
}

// AddBook adds a book to a shelf, caching it from the metadata source
// on first reference. The book is removed from the owner's other
// shelves in the same transaction as the insert, so it occupies at most
// one shelf per owner. Requires ownership of the shelf; adding a book
// already on the target shelf is a CONFLICT.
// Returns the refreshed shelf.
func (s *ShelfService) AddBook(ctx context.Context, userID, shelfID, bookRef string) (*domain.Shelf, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if bookRef == "" {
		return nil, domainerrors.Validation("book id cannot be empty")
	}

	shelf, err := s.GetShelf(ctx, shelfID)
	if err != nil {
		return nil, err
	}
	if !shelf.IsOwnedBy(userID) {
		return nil, domainerrors.Forbidden("you do not own this shelf")
	}

	book, err := s.catalog.EnsureCached(ctx, bookRef)
	if err != nil {
		return nil, err
	}

	if shelf.ContainsBook(book.ID) {
		return nil, domainerrors.Conflict("book is already on this shelf")
	}

	if err := s.store.AddBookToShelf(ctx, userID, shelfID, book.ID); err != nil {
		return nil, fmt.Errorf("add book to shelf: %w", err)
	}

	s.logger.Info("book added to shelf",
		"shelf_id", shelfID,
		"book_id", book.ID,
		"user_id", userID,
	)

	return s.GetShelf(ctx, shelfID)
}

// RemoveBook removes a book from a shelf. Requires ownership.
// Removing a book that is not on the shelf is a no-op.
// Returns the refreshed shelf.
func (s *ShelfService) RemoveBook(ctx context.Context, userID, shelfID, bookID string) (*domain.Shelf, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if bookID == "" {
		return nil, domainerrors.Validation("book id cannot be empty")
	}

	shelf, err := s.GetShelf(ctx, shelfID)
	if err != nil {
		return nil, err
	}
	if !shelf.IsOwnedBy(userID) {
		return nil, domainerrors.Forbidden("you do not own this shelf")
	}

	if !shelf.ContainsBook(bookID) {
		return shelf, nil
	}

	if err := s.store.RemoveBookFromShelf(ctx, shelfID, bookID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("remove book from shelf: %w", err)
	}

	s.logger.Info("book removed from shelf",
		"shelf_id", shelfID,
		"book_id", bookID,
		"user_id", userID,
	)

	return s.GetShelf(ctx, shelfID)
}

// GetShelfBooks loads the member books of a shelf with review aggregates,
// preserving shelf order (newest first).
func (s *ShelfService) GetShelfBooks(ctx context.Context, shelfID string) ([]*domain.Book, error) {
	shelf, err := s.GetShelf(ctx, shelfID)
	if err != nil {
		return nil, err
	}

	byID, err := s.store.GetBooksByIDs(ctx, shelf.BookIDs)
	if err != nil {
		return nil, fmt.Errorf("load shelf books: %w", err)
	}
	stats, err := s.store.GetReviewStatsByBookIDs(ctx, shelf.BookIDs)
	if err != nil {
		return nil, fmt.Errorf("get review stats: %w", err)
	}

	books := make([]*domain.Book, 0, len(shelf.BookIDs))
	for _, bookID := range shelf.BookIDs {
		book, ok := byID[bookID]
		if !ok {
			continue
		}
		st := stats[bookID]
		book.SetRatingFrom(st.RatingSum, st.ReviewCount)
		books = append(books, book)
	}
	return books, nil
}
