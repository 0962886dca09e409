package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/shelfmark/shelfmark-server/internal/domain"
	"github.com/shelfmark/shelfmark-server/internal/store"
)

// reviewColumns is the ordered list of columns selected in review queries.
// Must match the scan order in scanReview.
const reviewColumns = `id, created_at, updated_at, book_id, user_id, rating, comment, likes`

// scanReview scans a sql.Row (or sql.Rows via its Scan method) into a domain.Review.
func scanReview(scanner interface{ Scan(dest ...any) error }) (*domain.Review, error) {
	var r domain.Review

	var (
		createdAt string
		updatedAt string
		comment   sql.NullString
	)

	err := scanner.Scan(
		&r.ID,
		&createdAt,
		&updatedAt,
		&r.BookID,
		&r.UserID,
		&r.Rating,
		&comment,
		&r.Likes,
	)
	if err != nil {
		return nil, err
	}

	// Parse timestamps.
	r.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	r.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	if comment.Valid {
		r.Comment = comment.String
	}

	return &r, nil
}

// CreateReview inserts a new review.
// Returns store.ErrAlreadyExists if the user already reviewed the book.
func (s *Store) CreateReview(ctx context.Context, review *domain.Review) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reviews (
			id, created_at, updated_at, book_id, user_id, rating, comment, likes
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		review.ID,
		formatTime(review.CreatedAt),
		formatTime(review.UpdatedAt),
		review.BookID,
		review.UserID,
		review.Rating,
		nullString(review.Comment),
		review.Likes,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetReview retrieves a review by ID.
// Returns store.ErrNotFound if the review does not exist.
func (s *Store) GetReview(ctx context.Context, id string) (*domain.Review, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE id = ?`, id)

	r, err := scanReview(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// GetReviewByBookAndUser retrieves the unique review for a (book, user) pair.
// Returns store.ErrNotFound if the user has not reviewed the book.
func (s *Store) GetReviewByBookAndUser(ctx context.Context, bookID, userID string) (*domain.Review, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE book_id = ? AND user_id = ?`, bookID, userID)

	r, err := scanReview(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// ListReviewsByBook returns all reviews for a book, newest first.
func (s *Store) ListReviewsByBook(ctx context.Context, bookID string) ([]*domain.Review, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE book_id = ? ORDER BY created_at DESC`, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []*domain.Review
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}

// UpdateReview updates a review's mutable fields.
// BookID and UserID are immutable post-creation and deliberately
// excluded from the SET list.
// Returns store.ErrNotFound if the review does not exist.
func (s *Store) UpdateReview(ctx context.Context, review *domain.Review) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE reviews SET
			updated_at = ?,
			rating = ?,
			comment = ?
		WHERE id = ?`,
		formatTime(review.UpdatedAt),
		review.Rating,
		nullString(review.Comment),
		review.ID,
	)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteReview performs a hard delete on a review.
// The ON DELETE CASCADE on review_likes removes its like rows.
// Returns store.ErrNotFound if the review does not exist.
func (s *Store) DeleteReview(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = ?`, id)
	if err != nil {
		return err
	}

	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// LikeReview inserts a like row and increments the review's counter in
// one transaction. The counter moves atomically with the row, never via
// read-modify-write. Returns the new counter value.
// Returns store.ErrAlreadyExists if the user already liked the review,
// store.ErrNotFound if the review does not exist.
func (s *Store) LikeReview(ctx context.Context, like *domain.ReviewLike) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO review_likes (id, created_at, review_id, user_id)
		VALUES (?, ?, ?, ?)`,
		like.ID,
		formatTime(like.CreatedAt),
		like.ReviewID,
		like.UserID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, store.ErrAlreadyExists
		}
		if strings.Contains(err.Error(), "FOREIGN KEY constraint failed") {
			return 0, store.ErrNotFound
		}
		return 0, err
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE reviews SET likes = likes + 1, updated_at = ? WHERE id = ?`,
		formatTime(timeNow()), like.ReviewID,
	)
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, store.ErrNotFound
	}

	var count int
	if err := tx.QueryRowContext(ctx,
		`SELECT likes FROM reviews WHERE id = ?`, like.ReviewID).Scan(&count); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return count, nil
}

// UnlikeReview removes a like row and decrements the review's counter
// in one transaction. Returns the new counter value.
// Returns store.ErrNotFound if the user had not liked the review,
// store.ErrInconsistent if the like row existed while the counter
// already read zero.
func (s *Store) UnlikeReview(ctx context.Context, reviewID, userID string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`DELETE FROM review_likes WHERE review_id = ? AND user_id = ?`,
		reviewID, userID,
	)
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, store.ErrNotFound
	}

	// Guarded decrement: the CHECK(likes >= 0) backstop means an
	// unguarded decrement at zero would abort the whole transaction.
	result, err = tx.ExecContext(ctx,
		`UPDATE reviews SET likes = likes - 1, updated_at = ? WHERE id = ? AND likes > 0`,
		formatTime(timeNow()), reviewID,
	)
	if err != nil {
		return 0, err
	}
	n, err = result.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, store.ErrInconsistent
	}

	var count int
	if err := tx.QueryRowContext(ctx,
		`SELECT likes FROM reviews WHERE id = ?`, reviewID).Scan(&count); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return count, nil
}

// HasLikedReview reports whether the user has liked the review.
func (s *Store) HasLikedReview(ctx context.Context, reviewID, userID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM review_likes WHERE review_id = ? AND user_id = ?`,
		reviewID, userID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetReviewStats returns the rating aggregate for one book.
// A book with no reviews yields the zero value, never an error.
func (s *Store) GetReviewStats(ctx context.Context, bookID string) (store.ReviewStats, error) {
	var stats store.ReviewStats
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(rating), 0), COUNT(*) FROM reviews WHERE book_id = ?`,
		bookID).Scan(&stats.RatingSum, &stats.ReviewCount)
	return stats, err
}

// GetReviewStatsByBookIDs returns rating aggregates keyed by book ID.
// Books without reviews are absent from the result.
func (s *Store) GetReviewStatsByBookIDs(ctx context.Context, bookIDs []string) (map[string]store.ReviewStats, error) {
	if len(bookIDs) == 0 {
		return map[string]store.ReviewStats{}, nil
	}

	placeholders := strings.Repeat("?,", len(bookIDs)-1) + "?"
	args := make([]any, len(bookIDs))
	for i, id := range bookIDs {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT book_id, SUM(rating), COUNT(*)
		FROM reviews
		WHERE book_id IN (`+placeholders+`)
		GROUP BY book_id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := make(map[string]store.ReviewStats, len(bookIDs))
	for rows.Next() {
		var (
			bookID string
			st     store.ReviewStats
		)
		if err := rows.Scan(&bookID, &st.RatingSum, &st.ReviewCount); err != nil {
			return nil, err
		}
		stats[bookID] = st
	}
	return stats, rows.Err()
}
