package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/shelfmark/shelfmark-server/internal/color"
	"github.com/shelfmark/shelfmark-server/internal/domain"
	"github.com/shelfmark/shelfmark-server/internal/service"
)

func (s *Server) registerReviewRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listBookReviews",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{bookId}/reviews",
		Summary:     "List book reviews",
		Description: "Returns all reviews for a book, newest first, with author info",
		Tags:        []string{"Reviews"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListBookReviews)

	huma.Register(s.api, huma.Operation{
		OperationID: "createReview",
		Method:      http.MethodPost,
		Path:        "/api/v1/books/{bookId}/reviews",
		Summary:     "Create review",
		Description: "Creates a review for a book. Each user may review a book once.",
		Tags:        []string{"Reviews"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateReview)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateReview",
		Method:      http.MethodPatch,
		Path:        "/api/v1/books/{bookId}/reviews/{reviewId}",
		Summary:     "Update review",
		Description: "Updates a review's rating and comment (author only)",
		Tags:        []string{"Reviews"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateReview)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteReview",
		Method:      http.MethodDelete,
		Path:        "/api/v1/books/{bookId}/reviews/{reviewId}",
		Summary:     "Delete review",
		Description: "Deletes a review and its likes (author only)",
		Tags:        []string{"Reviews"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteReview)

	huma.Register(s.api, huma.Operation{
		OperationID: "toggleReviewLike",
		Method:      http.MethodPost,
		Path:        "/api/v1/books/{bookId}/reviews/{reviewId}/likes",
		Summary:     "Toggle review like",
		Description: "Likes the review, or removes the like if already present. Returns the new count and state.",
		Tags:        []string{"Reviews"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleToggleReviewLike)

	huma.Register(s.api, huma.Operation{
		OperationID: "getMyReviewLike",
		Method:      http.MethodGet,
		Path:        "/api/v1/books/{bookId}/reviews/{reviewId}/likes/me",
		Summary:     "Get my like state",
		Description: "Reports whether the current user has liked the review",
		Tags:        []string{"Reviews"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetMyReviewLike)
}

// === DTOs ===

// ListBookReviewsInput contains parameters for listing a book's reviews.
type ListBookReviewsInput struct {
	Authorization string `header:"Authorization"`
	BookID        string `path:"bookId" doc:"Book ID"`
}

// ReviewerResponse contains review author info in API responses.
type ReviewerResponse struct {
	ID          string `json:"id" doc:"Author user ID"`
	DisplayName string `json:"display_name" doc:"Author display name"`
	AvatarColor string `json:"avatar_color" doc:"Author avatar color"`
}

// ReviewResponse contains review data in API responses.
type ReviewResponse struct {
	ID        string            `json:"id" doc:"Review ID"`
	BookID    string            `json:"book_id" doc:"Reviewed book ID"`
	UserID    string            `json:"user_id" doc:"Author user ID"`
	Rating    int               `json:"rating" doc:"Rating from 1 to 5"`
	Comment   string            `json:"comment,omitempty" doc:"Review text"`
	Likes     int               `json:"likes" doc:"Number of likes"`
	User      *ReviewerResponse `json:"user,omitempty" doc:"Author info"`
	CreatedAt time.Time         `json:"created_at" doc:"Creation time"`
	UpdatedAt time.Time         `json:"updated_at" doc:"Last update time"`
}

// ListReviewsResponse contains a book's reviews.
type ListReviewsResponse struct {
	Book    BookResponse     `json:"book" doc:"Reviewed book"`
	Reviews []ReviewResponse `json:"reviews" doc:"Reviews, newest first"`
}

// ListReviewsOutput wraps the review list response for Huma.
type ListReviewsOutput struct {
	Body ListReviewsResponse
}

// CreateReviewRequest is the request body for creating a review.
type CreateReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5" doc:"Rating from 1 to 5"`
	Comment string `json:"comment" validate:"max=5000" doc:"Review text"`
}

// CreateReviewInput wraps the create review request for Huma.
type CreateReviewInput struct {
	Authorization string `header:"Authorization"`
	BookID        string `path:"bookId" doc:"Internal or external book ID"`
	Body          CreateReviewRequest
}

// ReviewOutput wraps a single review response for Huma.
type ReviewOutput struct {
	Body ReviewResponse
}

// UpdateReviewRequest is the request body for updating a review.
type UpdateReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5" doc:"New rating from 1 to 5"`
	Comment string `json:"comment" validate:"max=5000" doc:"New review text"`
}

// UpdateReviewInput wraps the update review request for Huma.
type UpdateReviewInput struct {
	Authorization string `header:"Authorization"`
	BookID        string `path:"bookId" doc:"Book ID"`
	ReviewID      string `path:"reviewId" doc:"Review ID"`
	Body          UpdateReviewRequest
}

// DeleteReviewInput contains parameters for deleting a review.
type DeleteReviewInput struct {
	Authorization string `header:"Authorization"`
	BookID        string `path:"bookId" doc:"Book ID"`
	ReviewID      string `path:"reviewId" doc:"Review ID"`
}

// ToggleReviewLikeInput contains parameters for toggling a review like.
type ToggleReviewLikeInput struct {
	Authorization string `header:"Authorization"`
	BookID        string `path:"bookId" doc:"Book ID"`
	ReviewID      string `path:"reviewId" doc:"Review ID"`
}

// ReviewLikeResponse contains the like count and the caller's state.
type ReviewLikeResponse struct {
	Likes int  `json:"likes" doc:"Total likes on the review"`
	Liked bool `json:"liked" doc:"Whether the current user likes the review"`
}

// ReviewLikeOutput wraps the like response for Huma.
type ReviewLikeOutput struct {
	Body ReviewLikeResponse
}

// GetMyReviewLikeInput contains parameters for reading the caller's like state.
type GetMyReviewLikeInput struct {
	Authorization string `header:"Authorization"`
	BookID        string `path:"bookId" doc:"Book ID"`
	ReviewID      string `path:"reviewId" doc:"Review ID"`
}

// MyReviewLikeResponse reports the caller's like state.
type MyReviewLikeResponse struct {
	Liked bool `json:"liked" doc:"Whether the current user likes the review"`
}

// MyReviewLikeOutput wraps the like state response for Huma.
type MyReviewLikeOutput struct {
	Body MyReviewLikeResponse
}

// === Handlers ===

func (s *Server) handleListBookReviews(ctx context.Context, input *ListBookReviewsInput) (*ListReviewsOutput, error) {
	if _, err := GetUserID(ctx); err != nil {
		return nil, err
	}

	details, err := s.services.Review.ListByBook(ctx, input.BookID)
	if err != nil {
		return nil, err
	}

	resp := ListReviewsResponse{Reviews: make([]ReviewResponse, len(details))}
	for i, detail := range details {
		resp.Reviews[i] = mapReviewDetail(detail)
	}
	if len(details) > 0 && details[0].Book != nil {
		resp.Book = mapBookResponse(details[0].Book)
	} else {
		book, err := s.services.Catalog.GetByID(ctx, input.BookID)
		if err != nil {
			return nil, err
		}
		resp.Book = mapBookResponse(book)
	}

	return &ListReviewsOutput{Body: resp}, nil
}

func (s *Server) handleCreateReview(ctx context.Context, input *CreateReviewInput) (*ReviewOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	review, err := s.services.Review.CreateReview(ctx, userID, service.ReviewInput{
		BookRef: input.BookID,
		Rating:  input.Body.Rating,
		Comment: input.Body.Comment,
	})
	if err != nil {
		return nil, err
	}

	return &ReviewOutput{Body: mapReviewResponse(review)}, nil
}

func (s *Server) handleUpdateReview(ctx context.Context, input *UpdateReviewInput) (*ReviewOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	review, err := s.services.Review.UpdateReview(ctx, userID, input.ReviewID, input.Body.Rating, input.Body.Comment)
	if err != nil {
		return nil, err
	}

	return &ReviewOutput{Body: mapReviewResponse(review)}, nil
}

func (s *Server) handleDeleteReview(ctx context.Context, input *DeleteReviewInput) (*MessageOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.Review.DeleteReview(ctx, userID, input.ReviewID); err != nil {
		return nil, err
	}

	return &MessageOutput{Body: MessageResponse{Message: "Review deleted"}}, nil
}

func (s *Server) handleToggleReviewLike(ctx context.Context, input *ToggleReviewLikeInput) (*ReviewLikeOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	likes, liked, err := s.services.Review.ToggleLike(ctx, userID, input.ReviewID)
	if err != nil {
		return nil, err
	}

	return &ReviewLikeOutput{Body: ReviewLikeResponse{Likes: likes, Liked: liked}}, nil
}

func (s *Server) handleGetMyReviewLike(ctx context.Context, input *GetMyReviewLikeInput) (*MyReviewLikeOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}

	liked, err := s.services.Review.IsLiked(ctx, userID, input.ReviewID)
	if err != nil {
		return nil, err
	}

	return &MyReviewLikeOutput{Body: MyReviewLikeResponse{Liked: liked}}, nil
}

// === Mappers ===

func mapReviewResponse(review *domain.Review) ReviewResponse {
	return ReviewResponse{
		ID:        review.ID,
		BookID:    review.BookID,
		UserID:    review.UserID,
		Rating:    review.Rating,
		Comment:   review.Comment,
		Likes:     review.Likes,
		CreatedAt: review.CreatedAt,
		UpdatedAt: review.UpdatedAt,
	}
}

func mapReviewDetail(detail *domain.ReviewDetail) ReviewResponse {
	resp := mapReviewResponse(&detail.Review)
	if detail.User != nil {
		resp.User = &ReviewerResponse{
			ID:          detail.User.ID,
			DisplayName: detail.User.Name(),
			AvatarColor: color.ForUser(detail.User.ID),
		}
	}
	return resp
}
