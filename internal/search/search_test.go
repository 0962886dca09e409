package search

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/shelfmark/shelfmark-server/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestIndex creates a temporary search index for testing.
func setupTestIndex(t *testing.T) (*SearchIndex, func()) {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "search-test-*")
	require.NoError(t, err)

	index, err := NewSearchIndex(Options{
		DataPath: tmpDir,
		Logger:   nil,
	})
	require.NoError(t, err)

	cleanup := func() {
		_ = index.Close()
		_ = os.RemoveAll(tmpDir)
	}

	return index, cleanup
}

func TestNewSearchIndex(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestSearchIndex_IndexBook(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	doc := &SearchDocument{
		ID:     "book-123",
		Name:   "The Hobbit",
		Author: "J.R.R. Tolkien",
	}

	err := index.IndexBook(doc)
	require.NoError(t, err)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)
}

func TestSearchIndex_IndexBooks_Batch(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	docs := []*SearchDocument{
		{ID: "book-1", Name: "Book One"},
		{ID: "book-2", Name: "Book Two"},
		{ID: "book-3", Name: "Book Three"},
	}

	err := index.IndexBooks(docs)
	require.NoError(t, err)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count)
}

func TestSearchIndex_DeleteBook(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	doc := &SearchDocument{
		ID:   "book-123",
		Name: "Test Book",
	}

	err := index.IndexBook(doc)
	require.NoError(t, err)

	err = index.DeleteBook("book-123")
	require.NoError(t, err)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestSearchIndex_Search_Basic(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	docs := []*SearchDocument{
		{ID: "book-1", Name: "The Hobbit", Author: "J.R.R. Tolkien"},
		{ID: "book-2", Name: "The Lord of the Rings", Author: "J.R.R. Tolkien"},
		{ID: "book-3", Name: "Harry Potter", Author: "J.K. Rowling"},
	}

	err := index.IndexBooks(docs)
	require.NoError(t, err)

	ctx := context.Background()

	// Search for "Tolkien"
	result, err := index.Search(ctx, SearchParams{
		Query: "Tolkien",
		Limit: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), result.Total)
	assert.Len(t, result.Hits, 2)
}

func TestSearchIndex_Search_Prefix(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	doc := &SearchDocument{
		ID:   "book-1",
		Name: "The Hobbit",
	}

	err := index.IndexBook(doc)
	require.NoError(t, err)

	ctx := context.Background()

	// Search with prefix - should find result
	result, err := index.Search(ctx, SearchParams{
		Query: "Hobb", // Prefix of Hobbit
		Limit: 10,
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, result.Total, uint64(1))
}

func TestSearchIndex_Search_CategoryFilter(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	docs := []*SearchDocument{
		{
			ID:         "book-1",
			Name:       "Epic Fantasy Book",
			Categories: []string{"FICTION"},
		},
		{
			ID:         "book-2",
			Name:       "A Life Story",
			Categories: []string{"BIOGRAPHY & AUTOBIOGRAPHY"},
		},
	}

	err := index.IndexBooks(docs)
	require.NoError(t, err)

	ctx := context.Background()

	result, err := index.Search(ctx, SearchParams{
		Query:      "",
		Categories: []string{"FICTION"},
		Limit:      10,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), result.Total)
	assert.Equal(t, "book-1", result.Hits[0].ID)
}

func TestSearchIndex_Search_YearRange(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	docs := []*SearchDocument{
		{ID: "book-1", Name: "Old Book", PublishYear: 1954},
		{ID: "book-2", Name: "Newer Book", PublishYear: 1999},
		{ID: "book-3", Name: "New Book", PublishYear: 2020},
	}

	err := index.IndexBooks(docs)
	require.NoError(t, err)

	ctx := context.Background()

	result, err := index.Search(ctx, SearchParams{
		Query:   "",
		MinYear: 1990,
		MaxYear: 2000,
		Limit:   10,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), result.Total)
	assert.Equal(t, "book-2", result.Hits[0].ID)
}

func TestSearchIndex_Rebuild(t *testing.T) {
	index, cleanup := setupTestIndex(t)
	defer cleanup()

	doc := &SearchDocument{ID: "book-1", Name: "Test"}
	err := index.IndexBook(doc)
	require.NoError(t, err)

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	// Rebuild - should clear the index
	err = index.Rebuild()
	require.NoError(t, err)

	count, err = index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), count)
}

func TestSearchIndex_Persistence(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "search-persist-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	// Create index and add document
	index1, err := NewSearchIndex(Options{DataPath: tmpDir})
	require.NoError(t, err)

	doc := &SearchDocument{ID: "book-1", Name: "Test Book"}
	err = index1.IndexBook(doc)
	require.NoError(t, err)

	err = index1.Close()
	require.NoError(t, err)

	// Reopen index and verify document is still there
	index2, err := NewSearchIndex(Options{DataPath: tmpDir})
	require.NoError(t, err)
	defer index2.Close()

	count, err := index2.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), count)

	// Verify we can search for it
	ctx := context.Background()
	result, err := index2.Search(ctx, SearchParams{Query: "Test", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), result.Total)
}

func TestBookToSearchDocument(t *testing.T) {
	now := time.Now()
	book := &domain.Book{
		ID:            "book-123",
		Title:         "The Great Book",
		Subtitle:      "A Story",
		Description:   "A wonderful tale",
		Authors:       []string{"Jane Author", "John Cowriter"},
		Publisher:     "Big House",
		ISBN:          "9781234567897",
		Categories:    []string{"FICTION"},
		Language:      "en",
		PublishedDate: "2023-05-01",
		PageCount:     320,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	doc := BookToSearchDocument(book)

	assert.Equal(t, "book-123", doc.ID)
	assert.Equal(t, "The Great Book", doc.Name)
	assert.Equal(t, "A Story", doc.Subtitle)
	assert.Equal(t, "Jane Author, John Cowriter", doc.Author)
	assert.Equal(t, "Big House", doc.Publisher)
	assert.Equal(t, "9781234567897", doc.ISBN)
	assert.Equal(t, []string{"FICTION"}, doc.Categories)
	assert.Equal(t, 2023, doc.PublishYear)
	assert.Equal(t, 320, doc.PageCount)
}

func TestBookToSearchDocument_YearOnlyDate(t *testing.T) {
	book := &domain.Book{
		ID:            "book-1",
		Title:         "Year Only",
		PublishedDate: "1988",
	}

	doc := BookToSearchDocument(book)
	assert.Equal(t, 1988, doc.PublishYear)
}

func TestSearchIndex_LargeBatch(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping large batch test in short mode")
	}

	index, cleanup := setupTestIndex(t)
	defer cleanup()

	// 1000 documents exercises the chunking path (batch size is 500)
	docs := make([]*SearchDocument, 1000)
	for i := 0; i < 1000; i++ {
		docs[i] = &SearchDocument{
			ID:   "book-" + string(rune('0'+i%10)) + string(rune('0'+i/10%10)) + string(rune('0'+i/100%10)),
			Name: "Book Number " + string(rune('0'+i%10)),
		}
	}

	start := time.Now()
	err := index.IndexBooks(docs)
	require.NoError(t, err)
	t.Logf("Indexed 1000 documents in %v", time.Since(start))

	count, err := index.DocumentCount()
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), count)
}
