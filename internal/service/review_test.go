package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/shelfmark/shelfmark-server/internal/errors"
)

func TestCreateReview(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "u1")
	env.source.Add("vol-1", "Dune", []string{"Frank Herbert"}, nil)

	review, err := env.reviews.CreateReview(t.Context(), user.ID, ReviewInput{
		BookRef: "vol-1",
		Rating:  5,
		Comment: "a classic",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, review.ID)
	assert.Equal(t, user.ID, review.UserID)
	assert.Equal(t, 5, review.Rating)
	assert.Zero(t, review.Likes)

	// First reference cached the book.
	cached, err := env.store.GetBookByExternalID(t.Context(), "vol-1")
	require.NoError(t, err)
	assert.Equal(t, cached.ID, review.BookID)
}

func TestCreateReview_OnePerBookAndUser(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "u1")
	other := env.seedUser(t, "u2")
	book := env.seedBook(t, "book-1", time.Now())

	_, err := env.reviews.CreateReview(t.Context(), user.ID, ReviewInput{BookRef: book.ID, Rating: 4})
	require.NoError(t, err)

	_, err = env.reviews.CreateReview(t.Context(), user.ID, ReviewInput{BookRef: book.ID, Rating: 2})
	assert.ErrorIs(t, err, domainerrors.ErrConflict)

	// A different user may still review the book.
	_, err = env.reviews.CreateReview(t.Context(), other.ID, ReviewInput{BookRef: book.ID, Rating: 3})
	require.NoError(t, err)
}

func TestCreateReview_Validation(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "u1")
	book := env.seedBook(t, "book-1", time.Now())

	tests := []struct {
		name  string
		input ReviewInput
	}{
		{"missing book", ReviewInput{Rating: 3}},
		{"rating too low", ReviewInput{BookRef: book.ID, Rating: 0}},
		{"rating too high", ReviewInput{BookRef: book.ID, Rating: 6}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.reviews.CreateReview(t.Context(), user.ID, tt.input)
			assert.ErrorIs(t, err, domainerrors.ErrValidation)
		})
	}
}

func TestUpdateReview(t *testing.T) {
	env := newTestEnv(t)
	author := env.seedUser(t, "author")
	intruder := env.seedUser(t, "intruder")
	book := env.seedBook(t, "book-1", time.Now())

	review, err := env.reviews.CreateReview(t.Context(), author.ID, ReviewInput{
		BookRef: book.ID, Rating: 3, Comment: "fine",
	})
	require.NoError(t, err)

	updated, err := env.reviews.UpdateReview(t.Context(), author.ID, review.ID, 5, "grew on me")
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Rating)
	assert.Equal(t, "grew on me", updated.Comment)

	// Book and author never change.
	assert.Equal(t, review.BookID, updated.BookID)
	assert.Equal(t, author.ID, updated.UserID)

	_, err = env.reviews.UpdateReview(t.Context(), intruder.ID, review.ID, 1, "no")
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)

	_, err = env.reviews.UpdateReview(t.Context(), author.ID, review.ID, 9, "")
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestDeleteReview(t *testing.T) {
	env := newTestEnv(t)
	author := env.seedUser(t, "author")
	intruder := env.seedUser(t, "intruder")
	book := env.seedBook(t, "book-1", time.Now())

	review, err := env.reviews.CreateReview(t.Context(), author.ID, ReviewInput{BookRef: book.ID, Rating: 3})
	require.NoError(t, err)

	err = env.reviews.DeleteReview(t.Context(), intruder.ID, review.ID)
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)

	require.NoError(t, env.reviews.DeleteReview(t.Context(), author.ID, review.ID))

	_, err = env.reviews.GetReview(t.Context(), review.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestListByBook(t *testing.T) {
	env := newTestEnv(t)
	u1 := env.seedUser(t, "u1")
	u2 := env.seedUser(t, "u2")
	book := env.seedBook(t, "book-1", time.Now())

	env.seedReview(t, book.ID, u1.ID, 5)
	env.seedReview(t, book.ID, u2.ID, 3)

	details, err := env.reviews.ListByBook(t.Context(), book.ID)
	require.NoError(t, err)
	require.Len(t, details, 2)

	for _, d := range details {
		require.NotNil(t, d.Book)
		assert.Equal(t, book.ID, d.Book.ID)
		require.NotNil(t, d.User)
		assert.Empty(t, d.User.PasswordHash)
	}

	// The enriched book carries the review aggregate.
	assert.Equal(t, 4.0, details[0].Book.Rating)
	assert.Equal(t, 2, details[0].Book.ReviewCount)
}

func TestToggleLike(t *testing.T) {
	env := newTestEnv(t)
	author := env.seedUser(t, "author")
	liker := env.seedUser(t, "liker")
	book := env.seedBook(t, "book-1", time.Now())
	review := env.seedReview(t, book.ID, author.ID, 4)

	likes, liked, err := env.reviews.ToggleLike(t.Context(), liker.ID, review.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, likes)
	assert.True(t, liked)

	isLiked, err := env.reviews.IsLiked(t.Context(), liker.ID, review.ID)
	require.NoError(t, err)
	assert.True(t, isLiked)

	// Second toggle flips it back off.
	likes, liked, err = env.reviews.ToggleLike(t.Context(), liker.ID, review.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, likes)
	assert.False(t, liked)

	isLiked, err = env.reviews.IsLiked(t.Context(), liker.ID, review.ID)
	require.NoError(t, err)
	assert.False(t, isLiked)
}

func TestToggleLike_TwoUsers(t *testing.T) {
	env := newTestEnv(t)
	author := env.seedUser(t, "author")
	l1 := env.seedUser(t, "l1")
	l2 := env.seedUser(t, "l2")
	book := env.seedBook(t, "book-1", time.Now())
	review := env.seedReview(t, book.ID, author.ID, 4)

	likes, _, err := env.reviews.ToggleLike(t.Context(), l1.ID, review.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, likes)

	likes, _, err = env.reviews.ToggleLike(t.Context(), l2.ID, review.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, likes)

	// One user toggling off leaves the other's like intact.
	likes, liked, err := env.reviews.ToggleLike(t.Context(), l1.ID, review.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, likes)
	assert.False(t, liked)
}

func TestUnlike_WithoutLike(t *testing.T) {
	env := newTestEnv(t)
	author := env.seedUser(t, "author")
	liker := env.seedUser(t, "liker")
	book := env.seedBook(t, "book-1", time.Now())
	review := env.seedReview(t, book.ID, author.ID, 4)

	// Unliking a review the user never liked is a bad request, and the
	// counter stays at zero.
	_, err := env.reviews.Unlike(t.Context(), liker.ID, review.ID)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	got, err := env.reviews.GetReview(t.Context(), review.ID)
	require.NoError(t, err)
	assert.Zero(t, got.Likes)

	// An unknown review is still a miss, not a validation failure.
	_, err = env.reviews.Unlike(t.Context(), liker.ID, "no-such-review")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestToggleLike_MissingReview(t *testing.T) {
	env := newTestEnv(t)
	liker := env.seedUser(t, "liker")

	_, _, err := env.reviews.ToggleLike(t.Context(), liker.ID, "no-such-review")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}
