package domain

import (
	"time"
)

// Rating bounds for reviews.
const (
	MinRating = 1
	MaxRating = 5
)

// Review is a user's take on a book. At most one review exists per
// (book, user) pair. Likes is a denormalized counter over ReviewLike
// rows, maintained atomically with the like/unlike mutations; it
// defaults to 0 and never goes negative.
type Review struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ID        string    `json:"id"`
	BookID    string    `json:"book_id"`
	UserID    string    `json:"user_id"`
	Rating    int       `json:"rating"` // 1-5
	Comment   string    `json:"comment,omitempty"`
	Likes     int       `json:"likes"`
}

// RatingValid reports whether a rating value is in range.
func RatingValid(rating int) bool {
	return rating >= MinRating && rating <= MaxRating
}

// IsOwnedBy reports whether userID authored this review.
// Ownership fields are immutable after creation; only the author may
// update or delete the review.
func (r *Review) IsOwnedBy(userID string) bool {
	return r.UserID == userID
}

// ApplyUpdate changes the mutable fields of a review.
// BookID and UserID never change after creation.
func (r *Review) ApplyUpdate(rating int, comment string) {
	r.Rating = rating
	r.Comment = comment
	r.UpdatedAt = time.Now()
}

// ReviewLike records one user liking one review. Unique per
// (review, user); the review's Likes counter tracks the row count.
type ReviewLike struct {
	CreatedAt time.Time `json:"created_at"`
	ID        string    `json:"id"`
	ReviewID  string    `json:"review_id"`
	UserID    string    `json:"user_id"`
}

// ReviewDetail is a review enriched with its book and author for list
// responses, saving clients a round of lookups.
type ReviewDetail struct {
	Review
	Book *Book `json:"book,omitempty"`
	User *User `json:"user,omitempty"`
}
