package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfmark/shelfmark-server/internal/domain"
	domainerrors "github.com/shelfmark/shelfmark-server/internal/errors"
)

func TestCreateShelf(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "u1")

	shelf, err := env.shelves.CreateShelf(t.Context(), user.ID, "Sci-Fi Picks", "the good stuff")
	require.NoError(t, err)
	assert.NotEmpty(t, shelf.ID)
	assert.Equal(t, user.ID, shelf.OwnerID)
	assert.Equal(t, "Sci-Fi Picks", shelf.Name)
	assert.Empty(t, shelf.BookIDs)

	_, err = env.shelves.CreateShelf(t.Context(), user.ID, "", "")
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestCreateDefaultShelves(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "u1")

	env.shelves.CreateDefaultShelves(t.Context(), user.ID)

	shelves, err := env.shelves.ListShelves(t.Context(), user.ID)
	require.NoError(t, err)
	require.Len(t, shelves, len(domain.DefaultShelfNames))

	names := make([]string, len(shelves))
	for i, sh := range shelves {
		names[i] = sh.Name
	}
	assert.ElementsMatch(t, domain.DefaultShelfNames, names)
}

func TestShelfAddBook(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "u1")
	env.source.Add("vol-1", "Dune", []string{"Frank Herbert"}, nil)

	shelf, err := env.shelves.CreateShelf(t.Context(), user.ID, "Reading", "")
	require.NoError(t, err)

	// First reference caches the book from the source.
	updated, err := env.shelves.AddBook(t.Context(), user.ID, shelf.ID, "vol-1")
	require.NoError(t, err)
	require.Len(t, updated.BookIDs, 1)

	bookID := updated.BookIDs[0]
	cached, err := env.store.GetBookByExternalID(t.Context(), "vol-1")
	require.NoError(t, err)
	assert.Equal(t, cached.ID, bookID)

	// Adding the same book to the same shelf again is a conflict.
	_, err = env.shelves.AddBook(t.Context(), user.ID, shelf.ID, "vol-1")
	assert.ErrorIs(t, err, domainerrors.ErrConflict)
}

func TestShelfAddBook_MovesBetweenShelves(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "u1")
	env.source.Add("vol-1", "Dune", []string{"Frank Herbert"}, nil)

	reading, err := env.shelves.CreateShelf(t.Context(), user.ID, "Reading", "")
	require.NoError(t, err)
	completed, err := env.shelves.CreateShelf(t.Context(), user.ID, "Completed", "")
	require.NoError(t, err)

	_, err = env.shelves.AddBook(t.Context(), user.ID, reading.ID, "vol-1")
	require.NoError(t, err)

	// Moving to the second shelf vacates the first.
	updated, err := env.shelves.AddBook(t.Context(), user.ID, completed.ID, "vol-1")
	require.NoError(t, err)
	assert.Len(t, updated.BookIDs, 1)

	gotReading, err := env.shelves.GetShelf(t.Context(), reading.ID)
	require.NoError(t, err)
	assert.Empty(t, gotReading.BookIDs)
}

func TestShelfAddBook_OwnershipRequired(t *testing.T) {
	env := newTestEnv(t)
	owner := env.seedUser(t, "owner")
	intruder := env.seedUser(t, "intruder")

	shelf, err := env.shelves.CreateShelf(t.Context(), owner.ID, "Reading", "")
	require.NoError(t, err)

	_, err = env.shelves.AddBook(t.Context(), intruder.ID, shelf.ID, "vol-1")
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)
}

func TestShelfRemoveBook(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "u1")
	env.source.Add("vol-1", "Dune", []string{"Frank Herbert"}, nil)

	shelf, err := env.shelves.CreateShelf(t.Context(), user.ID, "Reading", "")
	require.NoError(t, err)

	added, err := env.shelves.AddBook(t.Context(), user.ID, shelf.ID, "vol-1")
	require.NoError(t, err)
	bookID := added.BookIDs[0]

	updated, err := env.shelves.RemoveBook(t.Context(), user.ID, shelf.ID, bookID)
	require.NoError(t, err)
	assert.Empty(t, updated.BookIDs)

	// Removing a book that is not on the shelf is a no-op.
	updated, err = env.shelves.RemoveBook(t.Context(), user.ID, shelf.ID, bookID)
	require.NoError(t, err)
	assert.Empty(t, updated.BookIDs)
}

func TestShelfUpdate(t *testing.T) {
	env := newTestEnv(t)
	owner := env.seedUser(t, "owner")
	intruder := env.seedUser(t, "intruder")

	shelf, err := env.shelves.CreateShelf(t.Context(), owner.ID, "Reading", "")
	require.NoError(t, err)

	updated, err := env.shelves.UpdateShelf(t.Context(), owner.ID, shelf.ID, "Current", "in progress")
	require.NoError(t, err)
	assert.Equal(t, "Current", updated.Name)
	assert.Equal(t, "in progress", updated.Description)

	_, err = env.shelves.UpdateShelf(t.Context(), intruder.ID, shelf.ID, "Stolen", "")
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)

	_, err = env.shelves.UpdateShelf(t.Context(), owner.ID, shelf.ID, "", "")
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}

func TestShelfDelete(t *testing.T) {
	env := newTestEnv(t)
	owner := env.seedUser(t, "owner")
	intruder := env.seedUser(t, "intruder")

	shelf, err := env.shelves.CreateShelf(t.Context(), owner.ID, "Reading", "")
	require.NoError(t, err)

	err = env.shelves.DeleteShelf(t.Context(), intruder.ID, shelf.ID)
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)

	require.NoError(t, env.shelves.DeleteShelf(t.Context(), owner.ID, shelf.ID))

	_, err = env.shelves.GetShelf(t.Context(), shelf.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestGetShelfBooks(t *testing.T) {
	env := newTestEnv(t)
	user := env.seedUser(t, "u1")
	reviewer := env.seedUser(t, "reviewer")

	book := env.seedBook(t, "book-1", time.Now())
	env.seedReview(t, book.ID, reviewer.ID, 4)

	shelf, err := env.shelves.CreateShelf(t.Context(), user.ID, "Reading", "")
	require.NoError(t, err)
	_, err = env.shelves.AddBook(t.Context(), user.ID, shelf.ID, book.ID)
	require.NoError(t, err)

	books, err := env.shelves.GetShelfBooks(t.Context(), shelf.ID)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, book.ID, books[0].ID)
	assert.Equal(t, 4.0, books[0].Rating)
	assert.Equal(t, 1, books[0].ReviewCount)
}
