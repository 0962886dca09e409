package sqlite

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfmark/shelfmark-server/internal/domain"
	"github.com/shelfmark/shelfmark-server/internal/store"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "test.db"),
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() }) //nolint:errcheck // Test cleanup
	return s
}

func seedUser(t *testing.T, s *Store, id string) *domain.User {
	t.Helper()

	now := time.Now()
	user := &domain.User{
		ID:           id,
		Email:        id + "@example.com",
		PasswordHash: "hash-" + id,
		DisplayName:  "User " + id,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, s.CreateUser(context.Background(), user))
	return user
}

func seedBook(t *testing.T, s *Store, id string) *domain.Book {
	t.Helper()

	now := time.Now()
	book := &domain.Book{
		ID:         id,
		ExternalID: "gb-" + id,
		Title:      "Book " + id,
		Authors:    []string{"Author One", "Author Two"},
		Categories: []string{"FICTION"},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, s.CreateBook(context.Background(), book))
	return book
}

func seedShelf(t *testing.T, s *Store, id, ownerID string) *domain.Shelf {
	t.Helper()

	now := time.Now()
	shelf := &domain.Shelf{
		ID:        id,
		OwnerID:   ownerID,
		Name:      "Shelf " + id,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, s.CreateShelf(context.Background(), shelf))
	return shelf
}

func seedReview(t *testing.T, s *Store, id, bookID, userID string, rating int) *domain.Review {
	t.Helper()

	now := time.Now()
	review := &domain.Review{
		ID:        id,
		BookID:    bookID,
		UserID:    userID,
		Rating:    rating,
		Comment:   "comment " + id,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, s.CreateReview(context.Background(), review))
	return review
}

func TestBookRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	now := time.Now()
	book := &domain.Book{
		ID:            "book-1",
		ExternalID:    "gb-abc",
		ISBN:          "9780441478125",
		Title:         "The Left Hand of Darkness",
		Subtitle:      "A Novel",
		Authors:       []string{"Ursula K. Le Guin"},
		Description:   "A classic.",
		Publisher:     "Ace",
		PublishedDate: "1969",
		PageCount:     304,
		Categories:    []string{"FICTION"},
		Language:      "en",
		CoverURL:      "http://example.com/cover.jpg",
		PreviewLink:   "http://example.com/preview",
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	require.NoError(t, s.CreateBook(ctx, book))

	got, err := s.GetBook(ctx, "book-1")
	require.NoError(t, err)
	assert.Equal(t, book.ExternalID, got.ExternalID)
	assert.Equal(t, book.ISBN, got.ISBN)
	assert.Equal(t, book.Title, got.Title)
	assert.Equal(t, book.Authors, got.Authors)
	assert.Equal(t, book.Categories, got.Categories)
	assert.Equal(t, book.PageCount, got.PageCount)
	assert.WithinDuration(t, now, got.CreatedAt, time.Second)

	// Derived rating fields start at zero.
	assert.Zero(t, got.Rating)
	assert.Zero(t, got.ReviewCount)
}

func TestBookRoundTrip_MinimalFields(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	now := time.Now()
	book := &domain.Book{
		ID:         "book-min",
		ExternalID: "gb-min",
		Title:      "Untitled",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	require.NoError(t, s.CreateBook(ctx, book))

	got, err := s.GetBook(ctx, "book-min")
	require.NoError(t, err)
	assert.Empty(t, got.ISBN)
	assert.Nil(t, got.Authors)
	assert.Nil(t, got.Categories)
	assert.Zero(t, got.PageCount)
}

func TestCreateBook_DuplicateExternalID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	seedBook(t, s, "book-1")

	now := time.Now()
	dup := &domain.Book{
		ID:         "book-2",
		ExternalID: "gb-book-1", // same external ID, different row ID
		Title:      "Duplicate",
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	err := s.CreateBook(ctx, dup)
	assert.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestGetBook_NotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetBook(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.GetBookByExternalID(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGetBookByExternalID(t *testing.T) {
	s := openTestStore(t)

	seedBook(t, s, "book-1")

	got, err := s.GetBookByExternalID(context.Background(), "gb-book-1")
	require.NoError(t, err)
	assert.Equal(t, "book-1", got.ID)
}

func TestGetBooksByIDs_MissingAbsent(t *testing.T) {
	s := openTestStore(t)

	seedBook(t, s, "book-1")
	seedBook(t, s, "book-2")

	books, err := s.GetBooksByIDs(context.Background(), []string{"book-1", "missing", "book-2"})
	require.NoError(t, err)
	assert.Len(t, books, 2)
	assert.Contains(t, books, "book-1")
	assert.Contains(t, books, "book-2")
	assert.NotContains(t, books, "missing")
}

func TestReferencedBookCannotBeDeleted(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	user := seedUser(t, s, "u1")
	book := seedBook(t, s, "book-1")
	shelf := seedShelf(t, s, "shelf-1", user.ID)
	review := seedReview(t, s, "rev-1", book.ID, user.ID, 4)

	require.NoError(t, s.AddBookToShelf(ctx, user.ID, shelf.ID, book.ID))

	// Once a book is referenced by a review or a shelf membership, the
	// schema refuses to let the row go.
	_, err := s.db.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, book.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FOREIGN KEY constraint failed")

	// Vacating the shelf is not enough while the review remains.
	require.NoError(t, s.RemoveBookFromShelf(ctx, shelf.ID, book.ID))
	_, err = s.db.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, book.ID)
	require.Error(t, err)

	_, err = s.GetReview(ctx, review.ID)
	require.NoError(t, err)

	got, err := s.GetBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, book.ID, got.ID)
}

func TestAddBookToShelf_Ordering(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	user := seedUser(t, s, "u1")
	shelf := seedShelf(t, s, "shelf-1", user.ID)
	seedBook(t, s, "book-1")
	seedBook(t, s, "book-2")
	seedBook(t, s, "book-3")

	require.NoError(t, s.AddBookToShelf(ctx, user.ID, shelf.ID, "book-1"))
	require.NoError(t, s.AddBookToShelf(ctx, user.ID, shelf.ID, "book-2"))
	require.NoError(t, s.AddBookToShelf(ctx, user.ID, shelf.ID, "book-3"))

	got, err := s.GetShelf(ctx, shelf.ID)
	require.NoError(t, err)

	// Newest first.
	assert.Equal(t, []string{"book-3", "book-2", "book-1"}, got.BookIDs)
}

func TestAddBookToShelf_MovesBetweenShelves(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	user := seedUser(t, s, "u1")
	reading := seedShelf(t, s, "shelf-reading", user.ID)
	completed := seedShelf(t, s, "shelf-completed", user.ID)
	book := seedBook(t, s, "book-1")

	require.NoError(t, s.AddBookToShelf(ctx, user.ID, reading.ID, book.ID))

	// Moving to a second shelf removes it from the first.
	require.NoError(t, s.AddBookToShelf(ctx, user.ID, completed.ID, book.ID))

	gotReading, err := s.GetShelf(ctx, reading.ID)
	require.NoError(t, err)
	assert.Empty(t, gotReading.BookIDs)

	gotCompleted, err := s.GetShelf(ctx, completed.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{book.ID}, gotCompleted.BookIDs)
}

func TestAddBookToShelf_OtherOwnerUnaffected(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	alice := seedUser(t, s, "alice")
	bob := seedUser(t, s, "bob")
	aliceShelf := seedShelf(t, s, "shelf-alice", alice.ID)
	bobShelf := seedShelf(t, s, "shelf-bob", bob.ID)
	book := seedBook(t, s, "book-1")

	require.NoError(t, s.AddBookToShelf(ctx, alice.ID, aliceShelf.ID, book.ID))
	require.NoError(t, s.AddBookToShelf(ctx, bob.ID, bobShelf.ID, book.ID))

	// Exclusivity is per owner; Alice's shelf keeps the book.
	got, err := s.GetShelf(ctx, aliceShelf.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{book.ID}, got.BookIDs)
}

func TestAddBookToShelf_AlreadyPresent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	user := seedUser(t, s, "u1")
	shelf := seedShelf(t, s, "shelf-1", user.ID)
	book := seedBook(t, s, "book-1")

	require.NoError(t, s.AddBookToShelf(ctx, user.ID, shelf.ID, book.ID))
	require.NoError(t, s.AddBookToShelf(ctx, user.ID, shelf.ID, book.ID))

	got, err := s.GetShelf(ctx, shelf.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{book.ID}, got.BookIDs)
}

func TestRemoveBookFromShelf(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	user := seedUser(t, s, "u1")
	shelf := seedShelf(t, s, "shelf-1", user.ID)
	book := seedBook(t, s, "book-1")

	require.NoError(t, s.AddBookToShelf(ctx, user.ID, shelf.ID, book.ID))
	require.NoError(t, s.RemoveBookFromShelf(ctx, shelf.ID, book.ID))

	got, err := s.GetShelf(ctx, shelf.ID)
	require.NoError(t, err)
	assert.Empty(t, got.BookIDs)

	// Removing again is not found.
	err = s.RemoveBookFromShelf(ctx, shelf.ID, book.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestListShelvesByOwner(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	user := seedUser(t, s, "u1")
	other := seedUser(t, s, "u2")
	seedShelf(t, s, "shelf-1", user.ID)
	seedShelf(t, s, "shelf-2", user.ID)
	seedShelf(t, s, "shelf-other", other.ID)

	shelves, err := s.ListShelvesByOwner(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, shelves, 2)
	for _, sh := range shelves {
		assert.Equal(t, user.ID, sh.OwnerID)
	}
}

func TestCreateReview_DuplicatePerBookAndUser(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	user := seedUser(t, s, "u1")
	book := seedBook(t, s, "book-1")
	seedReview(t, s, "rev-1", book.ID, user.ID, 4)

	now := time.Now()
	dup := &domain.Review{
		ID:        "rev-2",
		BookID:    book.ID,
		UserID:    user.ID,
		Rating:    5,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := s.CreateReview(ctx, dup)
	assert.ErrorIs(t, err, store.ErrAlreadyExists)

	// A different user may still review the same book.
	other := seedUser(t, s, "u2")
	seedReview(t, s, "rev-3", book.ID, other.ID, 3)
}

func TestGetReviewByBookAndUser(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	user := seedUser(t, s, "u1")
	book := seedBook(t, s, "book-1")
	seedReview(t, s, "rev-1", book.ID, user.ID, 4)

	got, err := s.GetReviewByBookAndUser(ctx, book.ID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "rev-1", got.ID)

	_, err = s.GetReviewByBookAndUser(ctx, book.ID, "someone-else")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestLikeUnlikeReview(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	author := seedUser(t, s, "author")
	liker := seedUser(t, s, "liker")
	book := seedBook(t, s, "book-1")
	review := seedReview(t, s, "rev-1", book.ID, author.ID, 4)

	count, err := s.LikeReview(ctx, &domain.ReviewLike{
		ID:        "like-1",
		ReviewID:  review.ID,
		UserID:    liker.ID,
		CreatedAt: time.Now(),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	liked, err := s.HasLikedReview(ctx, review.ID, liker.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	// Counter on the stored review matches.
	got, err := s.GetReview(ctx, review.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Likes)

	count, err = s.UnlikeReview(ctx, review.ID, liker.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	liked, err = s.HasLikedReview(ctx, review.ID, liker.ID)
	require.NoError(t, err)
	assert.False(t, liked)
}

func TestLikeReview_Duplicate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	author := seedUser(t, s, "author")
	liker := seedUser(t, s, "liker")
	book := seedBook(t, s, "book-1")
	review := seedReview(t, s, "rev-1", book.ID, author.ID, 4)

	_, err := s.LikeReview(ctx, &domain.ReviewLike{
		ID: "like-1", ReviewID: review.ID, UserID: liker.ID, CreatedAt: time.Now(),
	})
	require.NoError(t, err)

	_, err = s.LikeReview(ctx, &domain.ReviewLike{
		ID: "like-2", ReviewID: review.ID, UserID: liker.ID, CreatedAt: time.Now(),
	})
	assert.ErrorIs(t, err, store.ErrAlreadyExists)

	// Counter unchanged by the rejected like.
	got, err := s.GetReview(ctx, review.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Likes)
}

func TestLikeReview_MissingReview(t *testing.T) {
	s := openTestStore(t)

	liker := seedUser(t, s, "liker")

	_, err := s.LikeReview(context.Background(), &domain.ReviewLike{
		ID: "like-1", ReviewID: "missing", UserID: liker.ID, CreatedAt: time.Now(),
	})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUnlikeReview_NotLiked(t *testing.T) {
	s := openTestStore(t)

	author := seedUser(t, s, "author")
	book := seedBook(t, s, "book-1")
	review := seedReview(t, s, "rev-1", book.ID, author.ID, 4)

	_, err := s.UnlikeReview(context.Background(), review.ID, "someone")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUnlikeReview_CounterAtZero(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	author := seedUser(t, s, "author")
	liker := seedUser(t, s, "liker")
	book := seedBook(t, s, "book-1")
	review := seedReview(t, s, "rev-1", book.ID, author.ID, 4)

	_, err := s.LikeReview(ctx, &domain.ReviewLike{
		ID: "like-1", ReviewID: review.ID, UserID: liker.ID, CreatedAt: time.Now(),
	})
	require.NoError(t, err)

	// Force the counter out of sync with the like rows.
	_, err = s.db.ExecContext(ctx, `UPDATE reviews SET likes = 0 WHERE id = ?`, review.ID)
	require.NoError(t, err)

	_, err = s.UnlikeReview(ctx, review.ID, liker.ID)
	assert.ErrorIs(t, err, store.ErrInconsistent)

	// The transaction rolled back; the like row survives.
	liked, err := s.HasLikedReview(ctx, review.ID, liker.ID)
	require.NoError(t, err)
	assert.True(t, liked)
}

func TestGetReviewStats(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	book := seedBook(t, s, "book-1")

	// No reviews yields the zero value, not an error.
	stats, err := s.GetReviewStats(ctx, book.ID)
	require.NoError(t, err)
	assert.Zero(t, stats.RatingSum)
	assert.Zero(t, stats.ReviewCount)

	for i, rating := range []int{5, 4, 3} {
		user := seedUser(t, s, fmt.Sprintf("u%d", i))
		seedReview(t, s, fmt.Sprintf("rev-%d", i), book.ID, user.ID, rating)
	}

	stats, err = s.GetReviewStats(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(12), stats.RatingSum)
	assert.Equal(t, 3, stats.ReviewCount)
}

func TestGetReviewStatsByBookIDs(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	user := seedUser(t, s, "u1")
	reviewed := seedBook(t, s, "book-1")
	unreviewed := seedBook(t, s, "book-2")
	seedReview(t, s, "rev-1", reviewed.ID, user.ID, 5)

	stats, err := s.GetReviewStatsByBookIDs(ctx, []string{reviewed.ID, unreviewed.ID})
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, int64(5), stats[reviewed.ID].RatingSum)
	assert.NotContains(t, stats, unreviewed.ID)
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	seedUser(t, s, "u1")

	now := time.Now()
	dup := &domain.User{
		ID:           "u2",
		Email:        "U1@EXAMPLE.COM", // differs only in case
		PasswordHash: "hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err := s.CreateUser(ctx, dup)
	assert.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestGetUserByEmail_CaseInsensitive(t *testing.T) {
	s := openTestStore(t)

	seedUser(t, s, "u1")

	got, err := s.GetUserByEmail(context.Background(), "U1@Example.Com")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)
}

func TestSessionLifecycle(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	user := seedUser(t, s, "u1")

	now := time.Now()
	session := &domain.Session{
		ID:               "sess-1",
		UserID:           user.ID,
		RefreshTokenHash: "token-hash",
		ExpiresAt:        now.Add(time.Hour),
		CreatedAt:        now,
		LastSeenAt:       now,
		DeviceType:       "mobile",
		Platform:         "iOS",
		ClientName:       "Shelfmark Mobile",
	}
	require.NoError(t, s.CreateSession(ctx, session))

	got, err := s.GetSessionByRefreshToken(ctx, "token-hash")
	require.NoError(t, err)
	assert.Equal(t, "sess-1", got.ID)
	assert.Equal(t, "mobile", got.DeviceType)

	require.NoError(t, s.DeleteSession(ctx, "sess-1"))

	_, err = s.GetSession(ctx, "sess-1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteExpiredSessions(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	user := seedUser(t, s, "u1")

	now := time.Now()
	for i, expires := range []time.Time{
		now.Add(-time.Hour), // expired
		now.Add(-time.Minute),
		now.Add(time.Hour), // live
	} {
		require.NoError(t, s.CreateSession(ctx, &domain.Session{
			ID:               fmt.Sprintf("sess-%d", i),
			UserID:           user.ID,
			RefreshTokenHash: fmt.Sprintf("hash-%d", i),
			ExpiresAt:        expires,
			CreatedAt:        now,
			LastSeenAt:       now,
		}))
	}

	removed, err := s.DeleteExpiredSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	_, err = s.GetSession(ctx, "sess-2")
	assert.NoError(t, err)
}
