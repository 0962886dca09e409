package service

import (
	"encoding/json/v2"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shelfmark/shelfmark-server/internal/auth"
	"github.com/shelfmark/shelfmark-server/internal/domain"
	"github.com/shelfmark/shelfmark-server/internal/metadata/googlebooks"
	"github.com/shelfmark/shelfmark-server/internal/search"
	"github.com/shelfmark/shelfmark-server/internal/store/sqlite"
)

// fakeVolume is the raw item shape served by the fake metadata source.
type fakeVolume struct {
	ID         string         `json:"id"`
	VolumeInfo map[string]any `json:"volumeInfo"`
}

// fakeSource stands in for the metadata API. Volumes registered with Add
// are served by ID; SetSearchResults controls the /volumes listing.
type fakeSource struct {
	mu       sync.Mutex
	volumes  map[string]fakeVolume
	results  []fakeVolume
	requests int
}

func newFakeSource() *fakeSource {
	return &fakeSource{volumes: map[string]fakeVolume{}}
}

func (f *fakeSource) Add(id, title string, authors []string, categories []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.volumes[id] = fakeVolume{
		ID: id,
		VolumeInfo: map[string]any{
			"title":      title,
			"authors":    authors,
			"categories": categories,
		},
	}
}

func (f *fakeSource) SetSearchResults(items ...fakeVolume) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = items
}

func (f *fakeSource) Requests() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests
}

func (f *fakeSource) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests++
		defer f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")

		if r.URL.Path == "/volumes" {
			json.MarshalWrite(w, map[string]any{"items": f.results}) //nolint:errcheck // Test server
			return
		}

		id := strings.TrimPrefix(r.URL.Path, "/volumes/")
		vol, ok := f.volumes[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.MarshalWrite(w, vol) //nolint:errcheck // Test server
	}
}

// testEnv wires real services over a temp SQLite store, a temp search
// index, and a fake metadata source.
type testEnv struct {
	store    *sqlite.Store
	source   *fakeSource
	catalog  *CatalogService
	shelves  *ShelfService
	reviews  *ReviewService
	sessions *SessionService
	auth     *AuthService
	tokens   *auth.TokenService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck // Test cleanup

	idx, err := search.NewSearchIndex(search.Options{
		DataPath: t.TempDir(),
		Logger:   logger,
	})
	require.NoError(t, err)
	t.Cleanup(func() { idx.Close() }) //nolint:errcheck // Test cleanup

	source := newFakeSource()
	srv := httptest.NewServer(source.handler())
	t.Cleanup(srv.Close)

	client := googlebooks.New(googlebooks.Config{BaseURL: srv.URL}, logger)
	t.Cleanup(client.Close)

	tokens, err := auth.NewTokenService(strings.Repeat("ab", 32), 15*time.Minute, 30*24*time.Hour)
	require.NoError(t, err)

	catalog := NewCatalogService(st, client, idx, logger)
	shelves := NewShelfService(st, catalog, logger)
	reviews := NewReviewService(st, catalog, logger)
	sessions := NewSessionService(st, tokens, logger)
	authSvc := NewAuthService(st, tokens, sessions, shelves, logger)

	return &testEnv{
		store:    st,
		source:   source,
		catalog:  catalog,
		shelves:  shelves,
		reviews:  reviews,
		sessions: sessions,
		auth:     authSvc,
		tokens:   tokens,
	}
}

// seedUser inserts a user directly, skipping the password hashing cost.
func (e *testEnv) seedUser(t *testing.T, id string) *domain.User {
	t.Helper()

	now := time.Now()
	user := &domain.User{
		ID:           id,
		Email:        id + "@example.com",
		PasswordHash: "not-a-real-hash",
		DisplayName:  "User " + id,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, e.store.CreateUser(t.Context(), user))
	return user
}

// seedBook inserts a cached book directly with an explicit creation time,
// so list ordering in tests is deterministic.
func (e *testEnv) seedBook(t *testing.T, id string, createdAt time.Time) *domain.Book {
	t.Helper()

	book := &domain.Book{
		ID:         id,
		ExternalID: "gb-" + id,
		Title:      "Book " + id,
		Authors:    []string{"Some Author"},
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}
	require.NoError(t, e.store.CreateBook(t.Context(), book))
	return book
}

// seedReview inserts a review directly.
func (e *testEnv) seedReview(t *testing.T, bookID, userID string, rating int) *domain.Review {
	t.Helper()

	now := time.Now()
	review := &domain.Review{
		ID:        "rev-" + bookID + "-" + userID,
		BookID:    bookID,
		UserID:    userID,
		Rating:    rating,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, e.store.CreateReview(t.Context(), review))
	return review
}
