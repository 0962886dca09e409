package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/shelfmark/shelfmark-server/internal/domain"
	"github.com/shelfmark/shelfmark-server/internal/service"
)

func (s *Server) registerBookRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books",
		Summary:     "Search books",
		Description: "Searches the metadata source and returns normalized, deduplicated books. Cached books carry review aggregates.",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSearchBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "trendingBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/trending",
		Summary:     "Trending books",
		Description: "Returns the top cached books ranked by review engagement",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleTrendingBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "searchCachedBooks",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/cached",
		Summary:     "Search cached books",
		Description: "Full-text search over locally cached books only, without hitting the metadata source",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleSearchCachedBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBook",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{id}",
		Summary:     "Get book",
		Description: "Returns a book by internal or external ID",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetBook)
}

// === DTOs ===

// SearchBooksInput contains search query parameters.
type SearchBooksInput struct {
	Authorization string `header:"Authorization"`
	Query         string `query:"q" validate:"required" doc:"Search terms"`
	OrderBy       string `query:"orderBy" enum:"relevance,newest" doc:"Result ordering (default relevance)"`
	Category      string `query:"category" doc:"Canonical genre tag filter"`
	Page          int    `query:"page" minimum:"0" doc:"Zero-based result page"`
}

// BookResponse contains book data in API responses.
type BookResponse struct {
	ID            string    `json:"id,omitempty" doc:"Internal book ID (empty for uncached search results)"`
	ExternalID    string    `json:"external_id" doc:"Metadata source volume ID"`
	ISBN          string    `json:"isbn,omitempty" doc:"ISBN-13 when available, else ISBN-10"`
	Title         string    `json:"title" doc:"Book title"`
	Subtitle      string    `json:"subtitle,omitempty" doc:"Book subtitle"`
	Authors       []string  `json:"authors" doc:"Author names"`
	Description   string    `json:"description,omitempty" doc:"Description"`
	Publisher     string    `json:"publisher,omitempty" doc:"Publisher"`
	PublishedDate string    `json:"published_date,omitempty" doc:"Publication date as the source provides it"`
	PageCount     int       `json:"page_count,omitempty" doc:"Page count"`
	Categories    []string  `json:"categories,omitempty" doc:"Canonical genre tags"`
	Language      string    `json:"language,omitempty" doc:"ISO 639-1 language code"`
	CoverURL      string    `json:"cover_url,omitempty" doc:"Cover image URL"`
	PreviewLink   string    `json:"preview_link,omitempty" doc:"Source preview URL"`
	Rating        float64   `json:"rating" doc:"Average review rating, 0 when unreviewed"`
	ReviewCount   int       `json:"review_count" doc:"Number of reviews"`
	CreatedAt     time.Time `json:"created_at,omitzero" doc:"Cache time"`
	UpdatedAt     time.Time `json:"updated_at,omitzero" doc:"Last update time"`
}

// ListBooksResponse contains a list of books.
type ListBooksResponse struct {
	Books []BookResponse `json:"books" doc:"Matching books"`
}

// ListBooksOutput wraps the book list response for Huma.
type ListBooksOutput struct {
	Body ListBooksResponse
}

// TrendingBooksInput contains parameters for the trending list.
type TrendingBooksInput struct {
	Authorization string `header:"Authorization"`
}

// SearchCachedBooksInput contains cached search parameters.
type SearchCachedBooksInput struct {
	Authorization string `header:"Authorization"`
	Query         string `query:"q" validate:"required" doc:"Search terms"`
	Limit         int    `query:"limit" minimum:"1" maximum:"100" doc:"Maximum results (default 20)"`
}

// GetBookInput contains parameters for getting a book.
type GetBookInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Internal or external book ID"`
}

// BookOutput wraps a single book response for Huma.
type BookOutput struct {
	Body BookResponse
}

// === Handlers ===

func (s *Server) handleSearchBooks(ctx context.Context, input *SearchBooksInput) (*ListBooksOutput, error) {
	if _, err := GetUserID(ctx); err != nil {
		return nil, err
	}

	books, err := s.services.Catalog.Search(ctx, input.Query, service.SearchOptions{
		OrderBy:  input.OrderBy,
		Page:     input.Page,
		Category: input.Category,
	})
	if err != nil {
		return nil, err
	}

	return &ListBooksOutput{Body: ListBooksResponse{Books: mapBookResponses(books)}}, nil
}

func (s *Server) handleTrendingBooks(ctx context.Context, _ *TrendingBooksInput) (*ListBooksOutput, error) {
	if _, err := GetUserID(ctx); err != nil {
		return nil, err
	}

	books, err := s.services.Catalog.Trending(ctx)
	if err != nil {
		return nil, err
	}

	return &ListBooksOutput{Body: ListBooksResponse{Books: mapBookResponses(books)}}, nil
}

func (s *Server) handleSearchCachedBooks(ctx context.Context, input *SearchCachedBooksInput) (*ListBooksOutput, error) {
	if _, err := GetUserID(ctx); err != nil {
		return nil, err
	}

	books, err := s.services.Catalog.SearchCached(ctx, input.Query, input.Limit)
	if err != nil {
		return nil, err
	}

	return &ListBooksOutput{Body: ListBooksResponse{Books: mapBookResponses(books)}}, nil
}

func (s *Server) handleGetBook(ctx context.Context, input *GetBookInput) (*BookOutput, error) {
	if _, err := GetUserID(ctx); err != nil {
		return nil, err
	}

	book, err := s.services.Catalog.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	return &BookOutput{Body: mapBookResponse(book)}, nil
}

// === Mappers ===

func mapBookResponse(book *domain.Book) BookResponse {
	return BookResponse{
		ID:            book.ID,
		ExternalID:    book.ExternalID,
		ISBN:          book.ISBN,
		Title:         book.Title,
		Subtitle:      book.Subtitle,
		Authors:       book.Authors,
		Description:   book.Description,
		Publisher:     book.Publisher,
		PublishedDate: book.PublishedDate,
		PageCount:     book.PageCount,
		Categories:    book.Categories,
		Language:      book.Language,
		CoverURL:      book.CoverURL,
		PreviewLink:   book.PreviewLink,
		Rating:        book.Rating,
		ReviewCount:   book.ReviewCount,
		CreatedAt:     book.CreatedAt,
		UpdatedAt:     book.UpdatedAt,
	}
}

func mapBookResponses(books []*domain.Book) []BookResponse {
	resp := make([]BookResponse, len(books))
	for i, book := range books {
		resp[i] = mapBookResponse(book)
	}
	return resp
}
