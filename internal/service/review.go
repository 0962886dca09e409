package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shelfmark/shelfmark-server/internal/domain"
	domainerrors "github.com/shelfmark/shelfmark-server/internal/errors"
	"github.com/shelfmark/shelfmark-server/internal/id"
	"github.com/shelfmark/shelfmark-server/internal/store"
)

// ReviewService handles reviews and review likes. One review per
// (book, user); the like counter on each review moves atomically with
// its like rows.
type ReviewService struct {
	store   store.Store
	catalog *CatalogService
	logger  *slog.Logger
}

// NewReviewService creates a new review service.
func NewReviewService(store store.Store, catalog *CatalogService, logger *slog.Logger) *ReviewService {
	return &ReviewService{
		store:   store,
		catalog: catalog,
		logger:  logger,
	}
}

// ReviewInput carries the mutable review fields.
// BookRef may be an internal catalog ID or an external volume ID; the
// book is cached on first reference.
type ReviewInput struct {
	BookRef string `json:"book_id" validate:"required"`
	Rating  int    `json:"rating" validate:"required,gte=1,lte=5"`
	Comment string `json:"comment" validate:"max=5000"`
}

// CreateReview creates a review for a book. The book is cached from the
// metadata source if this is its first reference. Returns CONFLICT when
// the user has already reviewed the book.
func (s *ReviewService) CreateReview(ctx context.Context, userID string, input ReviewInput) (*domain.Review, error) {
	if err := validate.Struct(input); err != nil {
		return nil, formatValidationError(err)
	}

	book, err := s.catalog.EnsureCached(ctx, input.BookRef)
	if err != nil {
		return nil, err
	}

	reviewID, err := id.Generate("review")
	if err != nil {
		return nil, fmt.Errorf("generate review ID: %w", err)
	}

	review := &domain.Review{
		ID:      reviewID,
		BookID:  book.ID,
		UserID:  userID,
		Rating:  input.Rating,
		Comment: input.Comment,
		Likes:   0,
	}
	now := timeNow()
	review.CreatedAt = now
	review.UpdatedAt = now

	if err := s.store.CreateReview(ctx, review); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.Conflict("you already reviewed this book")
		}
		return nil, fmt.Errorf("create review: %w", err)
	}

	s.logger.Info("review created",
		"review_id", reviewID,
		"book_id", book.ID,
		"user_id", userID,
		"rating", input.Rating,
	)

	return review, nil
}

// GetReview retrieves a review by ID.
func (s *ReviewService) GetReview(ctx context.Context, reviewID string) (*domain.Review, error) {
	review, err := s.store.GetReview(ctx, reviewID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("review not found")
		}
		return nil, fmt.Errorf("get review: %w", err)
	}
	return review, nil
}

// UpdateReview changes a review's rating and comment. Owner only;
// the review's book and author never change.
func (s *ReviewService) UpdateReview(ctx context.Context, userID, reviewID string, rating int, comment string) (*domain.Review, error) {
	if !domain.RatingValid(rating) {
		return nil, domainerrors.Validationf("rating must be between %d and %d", domain.MinRating, domain.MaxRating)
	}

	review, err := s.GetReview(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if !review.IsOwnedBy(userID) {
		return nil, domainerrors.Forbidden("you do not own this review")
	}

	review.ApplyUpdate(rating, comment)

	if err := s.store.UpdateReview(ctx, review); err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}

	s.logger.Info("review updated",
		"review_id", reviewID,
		"user_id", userID,
	)

	return review, nil
}

// DeleteReview deletes a review and its likes. Owner only.
func (s *ReviewService) DeleteReview(ctx context.Context, userID, reviewID string) error {
	review, err := s.GetReview(ctx, reviewID)
	if err != nil {
		return err
	}
	if !review.IsOwnedBy(userID) {
		return domainerrors.Forbidden("you do not own this review")
	}

	if err := s.store.DeleteReview(ctx, reviewID); err != nil {
		return fmt.Errorf("delete review: %w", err)
	}

	s.logger.Info("review deleted",
		"review_id", reviewID,
		"user_id", userID,
	)

	return nil
}

// ListByBook returns all reviews for a book, newest first, enriched
// with the full book record and each author's public user record.
func (s *ReviewService) ListByBook(ctx context.Context, bookID string) ([]*domain.ReviewDetail, error) {
	book, err := s.catalog.GetByID(ctx, bookID)
	if err != nil {
		return nil, err
	}

	reviews, err := s.store.ListReviewsByBook(ctx, book.ID)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}

	userIDs := make([]string, 0, len(reviews))
	for _, r := range reviews {
		userIDs = append(userIDs, r.UserID)
	}
	users, err := s.store.GetUsersByIDs(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("load review authors: %w", err)
	}

	details := make([]*domain.ReviewDetail, 0, len(reviews))
	for _, r := range reviews {
		detail := &domain.ReviewDetail{
			Review: *r,
			Book:   book,
		}
		if u, ok := users[r.UserID]; ok {
			detail.User = u.Public()
		}
		details = append(details, detail)
	}
	return details, nil
}

// ToggleLike flips the like state for a (review, user) pair and returns
// the new like count plus the resulting state. The counter moves in the
// same transaction as the like row, so it always equals the row count.
func (s *ReviewService) ToggleLike(ctx context.Context, userID, reviewID string) (likes int, liked bool, err error) {
	likes, err = s.Like(ctx, userID, reviewID)
	if err == nil {
		return likes, true, nil
	}
	if !domainerrors.Is(err, domainerrors.ErrAlreadyExists) {
		return 0, false, err
	}

	// Already liked: toggle off.
	likes, err = s.Unlike(ctx, userID, reviewID)
	if err != nil {
		return 0, false, err
	}
	return likes, false, nil
}

// Like records a like and returns the new count.
// Returns ALREADY_EXISTS when the user has already liked the review.
func (s *ReviewService) Like(ctx context.Context, userID, reviewID string) (int, error) {
	likeID, err := id.Generate("like")
	if err != nil {
		return 0, fmt.Errorf("generate like ID: %w", err)
	}

	like := &domain.ReviewLike{
		ID:        likeID,
		ReviewID:  reviewID,
		UserID:    userID,
		CreatedAt: timeNow(),
	}

	count, err := s.store.LikeReview(ctx, like)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrAlreadyExists):
			return 0, domainerrors.AlreadyExists("you already liked this review")
		case errors.Is(err, store.ErrNotFound):
			return 0, domainerrors.NotFound("review not found")
		}
		return 0, fmt.Errorf("like review: %w", err)
	}
	return count, nil
}

// Unlike removes a like and returns the new count.
// Returns NOT_FOUND for an unknown review and VALIDATION when the user
// had not liked it, so the counter never goes below zero.
func (s *ReviewService) Unlike(ctx context.Context, userID, reviewID string) (int, error) {
	count, err := s.store.UnlikeReview(ctx, reviewID, userID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			if _, getErr := s.GetReview(ctx, reviewID); getErr != nil {
				return 0, getErr
			}
			return 0, domainerrors.Validation("you have not liked this review")
		case errors.Is(err, store.ErrInconsistent):
			// A like row existed while the counter read zero.
			return 0, domainerrors.Inconsistent("review like counter out of sync").WithCause(err)
		}
		return 0, fmt.Errorf("unlike review: %w", err)
	}
	return count, nil
}

// IsLiked reports whether the user has liked the review.
func (s *ReviewService) IsLiked(ctx context.Context, userID, reviewID string) (bool, error) {
	if _, err := s.GetReview(ctx, reviewID); err != nil {
		return false, err
	}

	liked, err := s.store.HasLikedReview(ctx, reviewID, userID)
	if err != nil {
		return false, fmt.Errorf("check like: %w", err)
	}
	return liked, nil
}
