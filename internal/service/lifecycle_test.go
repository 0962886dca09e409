package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfmark/shelfmark-server/internal/auth"
)

// TestReadingLifecycle walks the full happy path: a new user registers,
// finds a book, shelves it, moves it, and a second reader reviews it and
// collects a like.
func TestReadingLifecycle(t *testing.T) {
	env := newTestEnv(t)

	env.source.Add("vol-1", "The Dispossessed", []string{"Ursula K. Le Guin"}, []string{"Fiction"})
	env.source.SetSearchResults(fakeVolume{ID: "vol-1", VolumeInfo: map[string]any{
		"title":      "The Dispossessed",
		"authors":    []string{"Ursula K. Le Guin"},
		"categories": []string{"Fiction"},
	}})

	ada, err := env.auth.Register(t.Context(), RegisterRequest{
		Email:       "ada@example.com",
		Password:    "correct horse battery",
		DisplayName: "Ada",
	})
	require.NoError(t, err)

	shelves, err := env.shelves.ListShelves(t.Context(), ada.User.ID)
	require.NoError(t, err)

	var reading, completed string
	for _, sh := range shelves {
		switch sh.Name {
		case "Reading":
			reading = sh.ID
		case "Completed":
			completed = sh.ID
		}
	}
	require.NotEmpty(t, reading)
	require.NotEmpty(t, completed)

	results, err := env.catalog.Search(t.Context(), "dispossessed", SearchOptions{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "vol-1", results[0].ExternalID)

	shelf, err := env.shelves.AddBook(t.Context(), ada.User.ID, reading, results[0].ExternalID)
	require.NoError(t, err)
	require.Len(t, shelf.BookIDs, 1)
	bookID := shelf.BookIDs[0]

	// Finishing the book moves it, leaving the reading shelf empty.
	shelf, err = env.shelves.AddBook(t.Context(), ada.User.ID, completed, results[0].ExternalID)
	require.NoError(t, err)
	assert.Equal(t, []string{bookID}, shelf.BookIDs)

	emptied, err := env.shelves.GetShelf(t.Context(), reading)
	require.NoError(t, err)
	assert.Empty(t, emptied.BookIDs)

	grace, err := env.auth.Register(t.Context(), RegisterRequest{
		Email:       "grace@example.com",
		Password:    "another good phrase",
		DisplayName: "Grace",
	})
	require.NoError(t, err)

	_, err = env.auth.Login(t.Context(), LoginRequest{
		Email:      "grace@example.com",
		Password:   "another good phrase",
		DeviceInfo: auth.DeviceInfo{DeviceType: "web", Platform: "Linux"},
	})
	require.NoError(t, err)

	review, err := env.reviews.CreateReview(t.Context(), grace.User.ID, ReviewInput{
		BookRef: bookID,
		Rating:  5,
		Comment: "an ambiguous utopia",
	})
	require.NoError(t, err)
	assert.Equal(t, bookID, review.BookID)

	likes, liked, err := env.reviews.ToggleLike(t.Context(), ada.User.ID, review.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, likes)
	assert.True(t, liked)

	// The aggregate shows up on the cached record.
	got, err := env.catalog.GetByID(t.Context(), bookID)
	require.NoError(t, err)
	assert.Equal(t, 5.0, got.Rating)
	assert.Equal(t, 1, got.ReviewCount)
}
