package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/shelfmark/shelfmark-server/internal/color"
	"github.com/shelfmark/shelfmark-server/internal/domain"
	domainerrors "github.com/shelfmark/shelfmark-server/internal/errors"
)

func (s *Server) registerShelfRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listMyShelves",
		Method:      http.MethodGet,
		Path:        "/api/v1/shelves",
		Summary:     "List my shelves",
		Description: "Returns all shelves owned by the current user",
		Tags:        []string{"Shelves"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListMyShelves)

	huma.Register(s.api, huma.Operation{
		OperationID: "createShelf",
		Method:      http.MethodPost,
		Path:        "/api/v1/shelves",
		Summary:     "Create shelf",
		Description: "Creates a new shelf for organizing books",
		Tags:        []string{"Shelves"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateShelf)

	huma.Register(s.api, huma.Operation{
		OperationID: "getShelf",
		Method:      http.MethodGet,
		Path:        "/api/v1/shelves/{id}",
		Summary:     "Get shelf",
		Description: "Returns a shelf by ID with its books",
		Tags:        []string{"Shelves"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetShelf)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateShelf",
		Method:      http.MethodPatch,
		Path:        "/api/v1/shelves/{id}",
		Summary:     "Update shelf",
		Description: "Updates shelf metadata (owner only)",
		Tags:        []string{"Shelves"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateShelf)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteShelf",
		Method:      http.MethodDelete,
		Path:        "/api/v1/shelves/{id}",
		Summary:     "Delete shelf",
		Description: "Deletes a shelf (owner only)",
		Tags:        []string{"Shelves"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteShelf)

	huma.Register(s.api, huma.Operation{
		OperationID: "addBookToShelf",
		Method:      http.MethodPost,
		Path:        "/api/v1/shelves/{id}/books",
		Summary:     "Add book to shelf",
		Description: "Adds a book to a shelf, moving it from any other shelf of the same owner (owner only)",
		Tags:        []string{"Shelves"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleAddBookToShelf)

	huma.Register(s.api, huma.Operation{
		OperationID: "removeBookFromShelf",
		Method:      http.MethodDelete,
		Path:        "/api/v1/shelves/{id}/books/{bookId}",
		Summary:     "Remove book from shelf",
		Description: "Removes a book from a shelf (owner only)",
		Tags:        []string{"Shelves"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRemoveBookFromShelf)
}

// === DTOs ===

// ListMyShelvesInput contains parameters for listing user's shelves.
type ListMyShelvesInput struct {
	Authorization string `header:"Authorization"`
}

// ShelfOwnerResponse contains owner information in shelf responses.
type ShelfOwnerResponse struct {
	ID          string `json:"id" doc:"Owner user ID"`
	DisplayName string `json:"display_name" doc:"Owner display name"`
	AvatarColor string `json:"avatar_color" doc:"Owner avatar color"`
}

// ShelfResponse contains shelf data in API responses.
type ShelfResponse struct {
	ID          string             `json:"id" doc:"Shelf ID"`
	Name        string             `json:"name" doc:"Shelf name"`
	Description string             `json:"description,omitempty" doc:"Shelf description"`
	Owner       ShelfOwnerResponse `json:"owner" doc:"Shelf owner"`
	BookCount   int                `json:"book_count" doc:"Number of books in shelf"`
	CreatedAt   time.Time          `json:"created_at" doc:"Creation time"`
	UpdatedAt   time.Time          `json:"updated_at" doc:"Last update time"`
}

// ListShelvesResponse contains a list of shelves.
type ListShelvesResponse struct {
	Shelves []ShelfResponse `json:"shelves" doc:"List of shelves"`
}

// ListShelvesOutput wraps the list shelves response for Huma.
type ListShelvesOutput struct {
	Body ListShelvesResponse
}

// CreateShelfRequest is the request body for creating a shelf.
type CreateShelfRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=100" doc:"Shelf name"`
	Description string `json:"description" validate:"max=500" doc:"Shelf description"`
}

// CreateShelfInput wraps the create shelf request for Huma.
type CreateShelfInput struct {
	Authorization string `header:"Authorization"`
	Body          CreateShelfRequest
}

// ShelfOutput wraps the shelf response for Huma.
type ShelfOutput struct {
	Body ShelfResponse
}

// GetShelfInput contains parameters for getting a shelf.
type GetShelfInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Shelf ID"`
}

// ShelfDetailResponse contains shelf data with its books in shelf order.
type ShelfDetailResponse struct {
	ID          string             `json:"id" doc:"Shelf ID"`
	Name        string             `json:"name" doc:"Shelf name"`
	Description string             `json:"description,omitempty" doc:"Shelf description"`
	Owner       ShelfOwnerResponse `json:"owner" doc:"Shelf owner"`
	BookCount   int                `json:"book_count" doc:"Number of books in shelf"`
	Books       []BookResponse     `json:"books" doc:"Books in shelf, newest first"`
	CreatedAt   time.Time          `json:"created_at" doc:"Creation time"`
	UpdatedAt   time.Time          `json:"updated_at" doc:"Last update time"`
}

// ShelfDetailOutput wraps the shelf detail response for Huma.
type ShelfDetailOutput struct {
	Body ShelfDetailResponse
}

// UpdateShelfRequest is the request body for updating a shelf.
type UpdateShelfRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=100" doc:"New shelf name"`
	Description string `json:"description" validate:"max=500" doc:"New shelf description"`
}

// UpdateShelfInput wraps the update shelf request for Huma.
type UpdateShelfInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Shelf ID"`
	Body          UpdateShelfRequest
}

// DeleteShelfInput contains parameters for deleting a shelf.
type DeleteShelfInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Shelf ID"`
}

// EmbeddedBookRequest is a book object supplied inline by clients that
// pass a search result straight through. Only its identifiers matter;
// the catalog caches the book from the source on first reference.
type EmbeddedBookRequest struct {
	ID         string `json:"id,omitempty" doc:"Internal book ID"`
	ExternalID string `json:"external_id,omitempty" doc:"External volume ID"`
}

// AddBookToShelfRequest is the request body for adding a book to a shelf.
// Clients send either a flat ID or an embedded book object.
type AddBookToShelfRequest struct {
	BookID string               `json:"book_id,omitempty" doc:"Internal or external book ID"`
	Book   *EmbeddedBookRequest `json:"book,omitempty" doc:"Embedded book, alternative to book_id"`
}

// resolveBookRef extracts the book reference from an add-book body.
func resolveBookRef(body AddBookToShelfRequest) (string, error) {
	switch {
	case body.BookID != "":
		return body.BookID, nil
	case body.Book != nil && body.Book.ID != "":
		return body.Book.ID, nil
	case body.Book != nil && body.Book.ExternalID != "":
		return body.Book.ExternalID, nil
	}
	return "", domainerrors.Validation("book_id or an embedded book is required")
}

// AddBookToShelfInput wraps the add book request for Huma.
type AddBookToShelfInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Shelf ID"`
	Body          AddBookToShelfRequest
}

// RemoveBookFromShelfInput contains parameters for removing a book from a shelf.
type RemoveBookFromShelfInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Shelf ID"`
	BookID        string `path:"bookId" doc:"Book ID"`
}

// === Handlers ===

func (s *Server) handleListMyShelves(ctx context.Context, _ *ListMyShelvesInput) (*ListShelvesOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	shelves, err := s.services.Shelf.ListShelves(ctx, userID)
	if err != nil {
		return nil, err
	}

	owner, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := make([]ShelfResponse, len(shelves))
	for i, shelf := range shelves {
		resp[i] = mapShelfResponse(shelf, owner)
	}

	return &ListShelvesOutput{Body: ListShelvesResponse{Shelves: resp}}, nil
}

func (s *Server) handleCreateShelf(ctx context.Context, input *CreateShelfInput) (*ShelfOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	shelf, err := s.services.Shelf.CreateShelf(ctx, userID, input.Body.Name, input.Body.Description)
	if err != nil {
		return nil, err
	}

	owner, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &ShelfOutput{Body: mapShelfResponse(shelf, owner)}, nil
}

func (s *Server) handleGetShelf(ctx context.Context, input *GetShelfInput) (*ShelfDetailOutput, error) {
	if _, err := GetUserID(ctx); err != nil {
		return nil, err
	}

	return s.shelfDetail(ctx, input.ID)
}

func (s *Server) handleUpdateShelf(ctx context.Context, input *UpdateShelfInput) (*ShelfOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	shelf, err := s.services.Shelf.UpdateShelf(ctx, userID, input.ID, input.Body.Name, input.Body.Description)
	if err != nil {
		return nil, err
	}

	owner, err := s.store.GetUser(ctx, shelf.OwnerID)
	if err != nil {
		return nil, err
	}

	return &ShelfOutput{Body: mapShelfResponse(shelf, owner)}, nil
}

func (s *Server) handleDeleteShelf(ctx context.Context, input *DeleteShelfInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Shelf.DeleteShelf(ctx, userID, input.ID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Shelf deleted"}}, nil
}

func (s *Server) handleAddBookToShelf(ctx context.Context, input *AddBookToShelfInput) (*ShelfDetailOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	bookRef, err := resolveBookRef(input.Body)
	if err != nil {
		return nil, err
	}

	shelf, err := s.services.Shelf.AddBook(ctx, userID, input.ID, bookRef)
	if err != nil {
		return nil, err
	}

	return s.shelfDetail(ctx, shelf.ID)
}

func (s *Server) handleRemoveBookFromShelf(ctx context.Context, input *RemoveBookFromShelfInput) (*ShelfDetailOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	shelf, err := s.services.Shelf.RemoveBook(ctx, userID, input.ID, input.BookID)
	if err != nil {
		return nil, err
	}

	return s.shelfDetail(ctx, shelf.ID)
}

// === Mappers ===

// shelfDetail loads a shelf with its member books and owner.
func (s *Server) shelfDetail(ctx context.Context, shelfID string) (*ShelfDetailOutput, error) {
	shelf, err := s.services.Shelf.GetShelf(ctx, shelfID)
	if err != nil {
		return nil, err
	}

	owner, err := s.store.GetUser(ctx, shelf.OwnerID)
	if err != nil {
		return nil, err
	}

	books, err := s.services.Shelf.GetShelfBooks(ctx, shelfID)
	if err != nil {
		return nil, err
	}

	return &ShelfDetailOutput{Body: ShelfDetailResponse{
		ID:          shelf.ID,
		Name:        shelf.Name,
		Description: shelf.Description,
		Owner:       mapShelfOwner(owner),
		BookCount:   len(books),
		Books:       mapBookResponses(books),
		CreatedAt:   shelf.CreatedAt,
		UpdatedAt:   shelf.UpdatedAt,
	}}, nil
}

// mapShelfResponse converts a domain shelf to an API response.
func mapShelfResponse(shelf *domain.Shelf, owner *domain.User) ShelfResponse {
	return ShelfResponse{
		ID:          shelf.ID,
		Name:        shelf.Name,
		Description: shelf.Description,
		Owner:       mapShelfOwner(owner),
		BookCount:   len(shelf.BookIDs),
		CreatedAt:   shelf.CreatedAt,
		UpdatedAt:   shelf.UpdatedAt,
	}
}

// mapShelfOwner converts a domain user to a shelf owner response.
func mapShelfOwner(user *domain.User) ShelfOwnerResponse {
	return ShelfOwnerResponse{
		ID:          user.ID,
		DisplayName: user.Name(),
		AvatarColor: color.ForUser(user.ID),
	}
}
