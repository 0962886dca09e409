package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/shelfmark/shelfmark-server/internal/domain"
	domainerrors "github.com/shelfmark/shelfmark-server/internal/errors"
	"github.com/shelfmark/shelfmark-server/internal/genre"
	"github.com/shelfmark/shelfmark-server/internal/id"
	"github.com/shelfmark/shelfmark-server/internal/metadata/googlebooks"
	"github.com/shelfmark/shelfmark-server/internal/search"
	"github.com/shelfmark/shelfmark-server/internal/store"
)

// searchPageSize is the number of results requested from the metadata
// source per page.
const searchPageSize = 20

// trendingLimit caps the trending list.
const trendingLimit = 10

// CatalogService exposes the book catalog: external metadata search,
// the local cache, and derived rating fields.
type CatalogService struct {
	store       store.Store
	source      *googlebooks.Client
	searchIndex *search.SearchIndex
	logger      *slog.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(
	store store.Store,
	source *googlebooks.Client,
	searchIndex *search.SearchIndex,
	logger *slog.Logger,
) *CatalogService {
	return &CatalogService{
		store:       store,
		source:      source,
		searchIndex: searchIndex,
		logger:      logger,
	}
}

// SearchOptions refine a catalog search.
type SearchOptions struct {
	OrderBy  string // "relevance" (default) or "newest"
	Page     int    // Zero-based result page
	Category string // Canonical tag filter, applied after classification
}

// Search queries the metadata source and returns normalized, deduplicated
// books. Entries lacking both a title and at least one author are dropped.
// Locally cached matches carry their internal ID and review aggregates.
func (s *CatalogService) Search(ctx context.Context, query string, opts SearchOptions) ([]*domain.Book, error) {
	if query == "" {
		return nil, domainerrors.Validation("search query cannot be empty")
	}

	params := googlebooks.SearchParams{
		Query:      query,
		OrderBy:    googlebooks.OrderBy(opts.OrderBy),
		StartIndex: opts.Page * searchPageSize,
		Limit:      searchPageSize,
	}

	volumes, err := s.source.Search(ctx, params)
	if err != nil {
		return nil, mapSourceError(err)
	}

	// Normalize, classify, and drop unusable entries. Dedupe by external
	// ID, first occurrence wins.
	seen := make(map[string]bool, len(volumes))
	books := make([]*domain.Book, 0, len(volumes))
	for i := range volumes {
		book := volumeToBook(&volumes[i])
		if !book.IsUsable() {
			continue
		}
		if book.ExternalID == "" || seen[book.ExternalID] {
			continue
		}
		if opts.Category != "" && !hasCategory(book, opts.Category) {
			continue
		}
		seen[book.ExternalID] = true
		books = append(books, book)
	}

	if len(books) == 0 {
		return nil, domainerrors.NotFound("no books matched the query")
	}

	if err := s.attachCachedState(ctx, books); err != nil {
		return nil, err
	}

	return books, nil
}

// GetByID retrieves a single book. The argument may be an internal
// catalog ID or an external volume ID; the local cache is consulted
// first, then the metadata source.
func (s *CatalogService) GetByID(ctx context.Context, bookID string) (*domain.Book, error) {
	if bookID == "" {
		return nil, domainerrors.Validation("book id cannot be empty")
	}

	book, err := s.store.GetBook(ctx, bookID)
	if err != nil && errors.Is(err, store.ErrNotFound) {
		book, err = s.store.GetBookByExternalID(ctx, bookID)
	}
	if err == nil {
		stats, err := s.store.GetReviewStats(ctx, book.ID)
		if err != nil {
			return nil, fmt.Errorf("get review stats: %w", err)
		}
		book.SetRatingFrom(stats.RatingSum, stats.ReviewCount)
		return book, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("get book: %w", err)
	}

	// Unknown locally: try the source with the ID as a volume ID.
	volume, err := s.source.GetVolume(ctx, bookID)
	if err != nil {
		if errors.Is(err, googlebooks.ErrNotFound) {
			return nil, domainerrors.NotFound("book not found")
		}
		return nil, mapSourceError(err)
	}

	book = volumeToBook(volume)
	if !book.IsUsable() {
		return nil, domainerrors.NotFound("book not found")
	}
	return book, nil
}

// Create caches a book record. Returns CONFLICT when the external ID is
// already cached. The stored record is indexed for local search.
func (s *CatalogService) Create(ctx context.Context, book *domain.Book) (*domain.Book, error) {
	if book.ExternalID == "" {
		return nil, domainerrors.Validation("external_id is required")
	}
	if !book.IsUsable() {
		return nil, domainerrors.Validation("book needs a title and at least one author")
	}

	if _, err := s.store.GetBookByExternalID(ctx, book.ExternalID); err == nil {
		return nil, domainerrors.Conflictf("book %s is already in the catalog", book.ExternalID)
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("check existing book: %w", err)
	}

	bookID, err := id.Generate("book")
	if err != nil {
		return nil, fmt.Errorf("generate book ID: %w", err)
	}
	book.ID = bookID
	book.Categories = tagsToStrings(genre.ClassifyAll(book.Categories))
	book.InitTimestamps()

	if err := s.store.CreateBook(ctx, book); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.Conflictf("book %s is already in the catalog", book.ExternalID)
		}
		return nil, fmt.Errorf("create book: %w", err)
	}

	if err := s.searchIndex.IndexBook(search.BookToSearchDocument(book)); err != nil {
		// The catalog row is the source of truth; a missed index entry
		// is recoverable via rebuild.
		s.logger.Warn("failed to index book",
			"book_id", book.ID,
			"error", err,
		)
	}

	s.logger.Info("book cached",
		"book_id", book.ID,
		"external_id", book.ExternalID,
		"title", book.Title,
	)

	return book, nil
}

// EnsureCached returns the cached book for an external ID, fetching and
// caching it from the metadata source on first reference. This is the
// single entry point used by shelf adds and review creation.
func (s *CatalogService) EnsureCached(ctx context.Context, externalID string) (*domain.Book, error) {
	if externalID == "" {
		return nil, domainerrors.Validation("book id cannot be empty")
	}

	// Callers occasionally hold an internal ID already.
	if book, err := s.store.GetBook(ctx, externalID); err == nil {
		return book, nil
	}

	book, err := s.store.GetBookByExternalID(ctx, externalID)
	if err == nil {
		return book, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("get book by external id: %w", err)
	}

	volume, err := s.source.GetVolume(ctx, externalID)
	if err != nil {
		if errors.Is(err, googlebooks.ErrNotFound) {
			return nil, domainerrors.NotFound("book not found")
		}
		return nil, mapSourceError(err)
	}

	book, err = s.Create(ctx, volumeToBook(volume))
	if err != nil {
		// A concurrent caller may have cached it between our check and
		// the insert; the stored row wins.
		if domainerrors.Is(err, domainerrors.ErrConflict) {
			return s.store.GetBookByExternalID(ctx, externalID)
		}
		return nil, err
	}
	return book, nil
}

// Trending returns the ten most engaging cached books, ranked by
// avgRating*100 + reviewCount. Ties keep catalog order (stable sort).
func (s *CatalogService) Trending(ctx context.Context) ([]*domain.Book, error) {
	books, err := s.store.ListAllBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}

	ids := make([]string, len(books))
	for i, b := range books {
		ids[i] = b.ID
	}
	stats, err := s.store.GetReviewStatsByBookIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get review stats: %w", err)
	}
	for _, b := range books {
		st := stats[b.ID]
		b.SetRatingFrom(st.RatingSum, st.ReviewCount)
	}

	sort.SliceStable(books, func(i, j int) bool {
		return books[i].TrendingScore() > books[j].TrendingScore()
	})

	if len(books) > trendingLimit {
		books = books[:trendingLimit]
	}
	return books, nil
}

// SearchCached runs a full-text query over the locally cached catalog.
func (s *CatalogService) SearchCached(ctx context.Context, query string, limit int) ([]*domain.Book, error) {
	if query == "" {
		return nil, domainerrors.Validation("search query cannot be empty")
	}
	if limit <= 0 {
		limit = searchPageSize
	}

	result, err := s.searchIndex.Search(ctx, search.SearchParams{
		Query: query,
		Limit: limit,
	})
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	ids := make([]string, 0, len(result.Hits))
	for _, hit := range result.Hits {
		ids = append(ids, hit.ID)
	}

	byID, err := s.store.GetBooksByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load books: %w", err)
	}
	stats, err := s.store.GetReviewStatsByBookIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get review stats: %w", err)
	}

	// Preserve relevance order from the index.
	books := make([]*domain.Book, 0, len(ids))
	for _, hitID := range ids {
		book, ok := byID[hitID]
		if !ok {
			continue // Stale index entry
		}
		st := stats[book.ID]
		book.SetRatingFrom(st.RatingSum, st.ReviewCount)
		books = append(books, book)
	}
	return books, nil
}

// ReindexAll rebuilds the search index from the cached catalog.
func (s *CatalogService) ReindexAll(ctx context.Context) error {
	books, err := s.store.ListAllBooks(ctx)
	if err != nil {
		return fmt.Errorf("list books: %w", err)
	}

	if err := s.searchIndex.Rebuild(); err != nil {
		return fmt.Errorf("rebuild index: %w", err)
	}

	docs := make([]*search.SearchDocument, len(books))
	for i, b := range books {
		docs[i] = search.BookToSearchDocument(b)
	}
	if err := s.searchIndex.IndexBooks(docs); err != nil {
		return fmt.Errorf("index books: %w", err)
	}

	s.logger.Info("reindexed catalog", "count", len(books))
	return nil
}

// attachCachedState overlays local state onto transient search results:
// cached books contribute their internal ID and review aggregates.
func (s *CatalogService) attachCachedState(ctx context.Context, books []*domain.Book) error {
	for _, book := range books {
		cached, err := s.store.GetBookByExternalID(ctx, book.ExternalID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return fmt.Errorf("check cached book: %w", err)
		}

		book.ID = cached.ID
		book.CreatedAt = cached.CreatedAt
		book.UpdatedAt = cached.UpdatedAt

		stats, err := s.store.GetReviewStats(ctx, cached.ID)
		if err != nil {
			return fmt.Errorf("get review stats: %w", err)
		}
		book.SetRatingFrom(stats.RatingSum, stats.ReviewCount)
	}
	return nil
}

// volumeToBook converts a source volume into a transient domain book.
// Categories are classified into canonical tags; unmatched ones drop.
func volumeToBook(v *googlebooks.Volume) *domain.Book {
	return &domain.Book{
		ExternalID:    v.ExternalID,
		ISBN:          v.ISBN,
		Title:         v.Title,
		Subtitle:      v.Subtitle,
		Authors:       v.Authors,
		Description:   v.Description,
		Publisher:     v.Publisher,
		PublishedDate: v.PublishedDate,
		PageCount:     v.PageCount,
		Categories:    tagsToStrings(genre.ClassifyAll(v.Categories)),
		Language:      v.Language,
		CoverURL:      v.CoverURL,
		PreviewLink:   v.PreviewLink,
	}
}

// hasCategory reports whether the book carries the given canonical tag.
func hasCategory(book *domain.Book, category string) bool {
	for _, c := range book.Categories {
		if c == category {
			return true
		}
	}
	return false
}

// tagsToStrings converts canonical tags to plain strings for storage.
func tagsToStrings(tags []genre.Tag) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = string(t)
	}
	return out
}

// mapSourceError translates metadata source failures into domain errors.
// Anything the upstream did to us (5xx, throttling, network) surfaces as
// SOURCE_UNAVAILABLE; only our own malformed requests are VALIDATION.
func mapSourceError(err error) error {
	switch {
	case errors.Is(err, googlebooks.ErrBadRequest):
		return domainerrors.Validation("invalid search request").WithCause(err)
	case errors.Is(err, googlebooks.ErrNotFound):
		return domainerrors.NotFound("book not found").WithCause(err)
	default:
		return domainerrors.SourceUnavailable("metadata source unavailable").WithCause(err)
	}
}
