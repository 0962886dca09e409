// Package store defines the persistence interface for the Shelfmark server.
package store

import (
	"context"

	"github.com/shelfmark/shelfmark-server/internal/domain"
)

// ReviewStats aggregates the review rows for one book.
// Rating derivation happens on read; nothing here is stored.
type ReviewStats struct {
	RatingSum   int64
	ReviewCount int
}

// Store defines the interface for all persistence operations.
type Store interface {
	// Lifecycle
	Close() error

	// Users
	CreateUser(ctx context.Context, user *domain.User) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) error

	// Auth sessions
	CreateSession(ctx context.Context, session *domain.Session) error
	GetSession(ctx context.Context, id string) (*domain.Session, error)
	GetSessionByRefreshToken(ctx context.Context, tokenHash string) (*domain.Session, error)
	UpdateSession(ctx context.Context, session *domain.Session) error
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context) (int, error)

	// Books. Cached books are append-only: there is no delete, and the
	// schema blocks removal of any row referenced by a review or a
	// shelf membership.
	CreateBook(ctx context.Context, book *domain.Book) error
	GetBook(ctx context.Context, id string) (*domain.Book, error)
	GetBookByExternalID(ctx context.Context, externalID string) (*domain.Book, error)
	GetBooksByIDs(ctx context.Context, ids []string) (map[string]*domain.Book, error)
	UpdateBook(ctx context.Context, book *domain.Book) error
	ListAllBooks(ctx context.Context) ([]*domain.Book, error)
	CountBooks(ctx context.Context) (int, error)

	// Review aggregates for derived rating fields.
	GetReviewStats(ctx context.Context, bookID string) (ReviewStats, error)
	GetReviewStatsByBookIDs(ctx context.Context, bookIDs []string) (map[string]ReviewStats, error)

	// Shelves
	CreateShelf(ctx context.Context, shelf *domain.Shelf) error
	GetShelf(ctx context.Context, id string) (*domain.Shelf, error)
	UpdateShelf(ctx context.Context, shelf *domain.Shelf) error
	DeleteShelf(ctx context.Context, id string) error
	ListShelvesByOwner(ctx context.Context, ownerID string) ([]*domain.Shelf, error)

	// AddBookToShelf enforces single-shelf-per-book-per-owner: any
	// membership of the book in the owner's other shelves is removed
	// in the same transaction as the insert.
	AddBookToShelf(ctx context.Context, ownerID, shelfID, bookID string) error
	RemoveBookFromShelf(ctx context.Context, shelfID, bookID string) error

	// Reviews
	CreateReview(ctx context.Context, review *domain.Review) error
	GetReview(ctx context.Context, id string) (*domain.Review, error)
	GetReviewByBookAndUser(ctx context.Context, bookID, userID string) (*domain.Review, error)
	ListReviewsByBook(ctx context.Context, bookID string) ([]*domain.Review, error)
	UpdateReview(ctx context.Context, review *domain.Review) error
	DeleteReview(ctx context.Context, id string) error

	// Likes. Both mutations adjust the denormalized counter in the
	// same transaction as the review_likes row and return the new
	// counter value.
	LikeReview(ctx context.Context, like *domain.ReviewLike) (int, error)
	UnlikeReview(ctx context.Context, reviewID, userID string) (int, error)
	HasLikedReview(ctx context.Context, reviewID, userID string) (bool, error)
}
