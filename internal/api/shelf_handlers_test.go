package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/shelfmark/shelfmark-server/internal/errors"
)

func TestResolveBookRef(t *testing.T) {
	tests := []struct {
		name string
		body AddBookToShelfRequest
		want string
	}{
		{"flat id", AddBookToShelfRequest{BookID: "book-1"}, "book-1"},
		{"embedded internal id", AddBookToShelfRequest{Book: &EmbeddedBookRequest{ID: "book-2"}}, "book-2"},
		{"embedded external id", AddBookToShelfRequest{Book: &EmbeddedBookRequest{ExternalID: "vol-3"}}, "vol-3"},
		{"flat id wins over embedded", AddBookToShelfRequest{
			BookID: "book-1",
			Book:   &EmbeddedBookRequest{ID: "book-2"},
		}, "book-1"},
		{"internal id wins over external", AddBookToShelfRequest{
			Book: &EmbeddedBookRequest{ID: "book-2", ExternalID: "vol-3"},
		}, "book-2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := resolveBookRef(tt.body)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveBookRef_Empty(t *testing.T) {
	_, err := resolveBookRef(AddBookToShelfRequest{})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	_, err = resolveBookRef(AddBookToShelfRequest{Book: &EmbeddedBookRequest{}})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
}
