package googlebooks

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := New(Config{BaseURL: srv.URL}, testLogger())
	t.Cleanup(client.Close)
	return client
}

func TestSearch(t *testing.T) {
	var gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/volumes", r.URL.Path)
		gotQuery = r.URL.Query().Get("q")
		assert.Equal(t, "20", r.URL.Query().Get("maxResults"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"items": [
				{
					"id": "vol-1",
					"volumeInfo": {
						"title": "The Left Hand of Darkness",
						"authors": ["Ursula K. Le Guin", "ursula k. le guin"],
						"industryIdentifiers": [
							{"type": "ISBN_10", "identifier": "0441478123"},
							{"type": "ISBN_13", "identifier": "9780441478125"}
						],
						"pageCount": 304,
						"categories": ["Fiction"],
						"language": "en",
						"imageLinks": {
							"thumbnail": "http://example.com/thumb.jpg",
							"large": "http://example.com/large.jpg"
						},
						"description": "<p>A classic of <b>science fiction</b>.</p>"
					}
				},
				{
					"id": "vol-2",
					"volumeInfo": {
						"title": "Untitled Draft"
					}
				}
			]
		}`)) //nolint:errcheck // Test server
	})

	results, err := client.Search(context.Background(), SearchParams{Query: "left hand"})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "left hand", gotQuery)

	vol := results[0]
	assert.Equal(t, "vol-1", vol.ExternalID)
	assert.Equal(t, "9780441478125", vol.ISBN) // ISBN-13 preferred
	assert.Equal(t, "The Left Hand of Darkness", vol.Title)
	assert.Equal(t, []string{"Ursula K. Le Guin"}, vol.Authors) // duplicate dropped
	assert.Equal(t, 304, vol.PageCount)
	assert.Equal(t, "en", vol.Language)
	assert.Equal(t, "http://example.com/large.jpg", vol.CoverURL) // larger size preferred
	assert.Equal(t, "A classic of science fiction.", vol.Description)

	// Entries without volumeInfo details still come through.
	assert.Equal(t, "vol-2", results[1].ExternalID)
	assert.Empty(t, results[1].Authors)
}

func TestSearch_AuthorAndOrdering(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "dune inauthor:Frank Herbert", r.URL.Query().Get("q"))
		assert.Equal(t, "newest", r.URL.Query().Get("orderBy"))
		assert.Equal(t, "20", r.URL.Query().Get("startIndex"))
		assert.Equal(t, "40", r.URL.Query().Get("maxResults")) // clamped to max

		w.Write([]byte(`{"items": []}`)) //nolint:errcheck // Test server
	})

	results, err := client.Search(context.Background(), SearchParams{
		Query:      "dune",
		Author:     "Frank Herbert",
		OrderBy:    OrderByNewest,
		StartIndex: 20,
		Limit:      100,
	})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_EmptyQuery(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	_, err := client.Search(context.Background(), SearchParams{})
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestSearch_APIKeyAndCountry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret-key", r.URL.Query().Get("key"))
		assert.Equal(t, "US", r.URL.Query().Get("country"))
		w.Write([]byte(`{}`)) //nolint:errcheck // Test server
	}))
	defer srv.Close()

	client := New(Config{BaseURL: srv.URL, APIKey: "secret-key", Country: "US"}, testLogger())
	defer client.Close()

	_, err := client.Search(context.Background(), SearchParams{Query: "anything"})
	require.NoError(t, err)
}

func TestGetVolume(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/volumes/abc123", r.URL.Path)
		w.Write([]byte(`{"id": "abc123", "volumeInfo": {"title": "Parable of the Sower"}}`)) //nolint:errcheck // Test server
	})

	vol, err := client.GetVolume(context.Background(), "abc123")
	require.NoError(t, err)
	assert.Equal(t, "abc123", vol.ExternalID)
	assert.Equal(t, "Parable of the Sower", vol.Title)
}

func TestGetVolume_EmptyID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	_, err := client.GetVolume(context.Background(), "")
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"not found", http.StatusNotFound, ErrNotFound},
		{"rate limited", http.StatusTooManyRequests, ErrRateLimited},
		{"bad request", http.StatusBadRequest, ErrBadRequest},
		{"server error", http.StatusInternalServerError, ErrServer},
		{"bad gateway", http.StatusBadGateway, ErrServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})

			_, err := client.GetVolume(context.Background(), "some-id")
			assert.ErrorIs(t, err, tt.want)

			var gbErr *Error
			require.True(t, errors.As(err, &gbErr))
			assert.Equal(t, "getVolume", gbErr.Op)
			assert.Equal(t, "some-id", gbErr.VolumeID)
		})
	}
}

func TestSelectISBN(t *testing.T) {
	assert.Equal(t, "9780441478125", selectISBN([]rawIdentifier{
		{Type: "ISBN_10", Identifier: "0441478123"},
		{Type: "ISBN_13", Identifier: "9780441478125"},
	}))
	assert.Equal(t, "0441478123", selectISBN([]rawIdentifier{
		{Type: "ISBN_10", Identifier: "0441478123"},
		{Type: "OTHER", Identifier: "xyz"},
	}))
	assert.Empty(t, selectISBN(nil))
}

func TestSelectCoverURL(t *testing.T) {
	assert.Equal(t, "xl", selectCoverURL(map[string]string{
		"thumbnail":  "thumb",
		"extraLarge": "xl",
		"medium":     "med",
	}))
	assert.Equal(t, "thumb", selectCoverURL(map[string]string{
		"smallThumbnail": "tiny",
		"thumbnail":      "thumb",
	}))
	assert.Empty(t, selectCoverURL(nil))
}
