package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shelfmark/shelfmark-server/internal/domain"
	"github.com/shelfmark/shelfmark-server/internal/store"
)

// shelfColumns is the ordered list of columns selected in shelf queries.
// Must match the scan order in scanShelf.
const shelfColumns = `id, created_at, updated_at, owner_id, name, description`

// scanShelf scans a sql.Row (or sql.Rows via its Scan method) into a domain.Shelf.
func scanShelf(scanner interface{ Scan(dest ...any) error }) (*domain.Shelf, error) {
	var sh domain.Shelf

	var (
		createdAt   string
		updatedAt   string
		description sql.NullString
	)

	err := scanner.Scan(
		&sh.ID,
		&createdAt,
		&updatedAt,
		&sh.OwnerID,
		&sh.Name,
		&description,
	)
	if err != nil {
		return nil, err
	}

	// Parse timestamps.
	sh.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	sh.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	if description.Valid {
		sh.Description = description.String
	}

	return &sh, nil
}

// loadShelfBookIDs loads the book IDs for a shelf, newest first.
func (s *Store) loadShelfBookIDs(ctx context.Context, shelfID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT book_id FROM shelf_books WHERE shelf_id = ? ORDER BY sort_order DESC`, shelfID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookIDs []string
	for rows.Next() {
		var bookID string
		if err := rows.Scan(&bookID); err != nil {
			return nil, err
		}
		bookIDs = append(bookIDs, bookID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bookIDs, nil
}

// CreateShelf inserts a new shelf and its book associations.
// Returns store.ErrAlreadyExists on duplicate ID.
func (s *Store) CreateShelf(ctx context.Context, shelf *domain.Shelf) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO shelves (
			id, created_at, updated_at, owner_id, name, description
		) VALUES (?, ?, ?, ?, ?, ?)`,
		shelf.ID,
		formatTime(shelf.CreatedAt),
		formatTime(shelf.UpdatedAt),
		shelf.OwnerID,
		shelf.Name,
		nullString(shelf.Description),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists
		}
		return err
	}

	// BookIDs are newest-first; store them so higher sort_order means newer.
	for i, bookID := range shelf.BookIDs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO shelf_books (shelf_id, book_id, sort_order)
			VALUES (?, ?, ?)`,
			shelf.ID, bookID, len(shelf.BookIDs)-1-i,
		)
		if err != nil {
			return fmt.Errorf("insert shelf_book %s: %w", bookID, err)
		}
	}

	return tx.Commit()
}

// GetShelf retrieves a shelf by ID, including its ordered BookIDs.
// Returns store.ErrNotFound if the shelf does not exist.
func (s *Store) GetShelf(ctx context.Context, id string) (*domain.Shelf, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+shelfColumns+` FROM shelves WHERE id = ?`, id)

	sh, err := scanShelf(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	sh.BookIDs, err = s.loadShelfBookIDs(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load shelf book ids: %w", err)
	}

	return sh, nil
}

// UpdateShelf updates a shelf row and replaces its book associations in a transaction.
// Returns store.ErrNotFound if the shelf does not exist.
func (s *Store) UpdateShelf(ctx context.Context, shelf *domain.Shelf) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE shelves SET
			created_at = ?,
			updated_at = ?,
			owner_id = ?,
			name = ?,
			description = ?
		WHERE id = ?`,
		formatTime(shelf.CreatedAt),
		formatTime(shelf.UpdatedAt),
		shelf.OwnerID,
		shelf.Name,
		nullString(shelf.Description),
		shelf.ID,
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

	// Replace shelf_books: delete existing, then re-insert.
	if _, err := tx.ExecContext(ctx, `DELETE FROM shelf_books WHERE shelf_id = ?`, shelf.ID); err != nil {
		return err
	}

	for i, bookID := range shelf.BookIDs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO shelf_books (shelf_id, book_id, sort_order)
			VALUES (?, ?, ?)`,
			shelf.ID, bookID, len(shelf.BookIDs)-1-i,
		)
		if err != nil {
			return fmt.Errorf("insert shelf_book %s: %w", bookID, err)
		}
	}

	return tx.Commit()
}

// DeleteShelf performs a hard delete on a shelf.
// The ON DELETE CASCADE on shelf_books ensures book associations are removed.
// Returns store.ErrNotFound if the shelf does not exist.
func (s *Store) DeleteShelf(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM shelves WHERE id = ?`, id)
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

// ListShelvesByOwner returns all shelves owned by a user, ordered by creation time.
// BookIDs are loaded for each shelf.
func (s *Store) ListShelvesByOwner(ctx context.Context, ownerID string) ([]*domain.Shelf, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+shelfColumns+` FROM shelves WHERE owner_id = ? ORDER BY created_at`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var shelves []*domain.Shelf
	for rows.Next() {
		sh, err := scanShelf(rows)
		if err != nil {
			return nil, err
		}
		shelves = append(shelves, sh)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Load BookIDs for each shelf.
	for _, sh := range shelves {
		sh.BookIDs, err = s.loadShelfBookIDs(ctx, sh.ID)
		if err != nil {
			return nil, fmt.Errorf("load shelf book ids for %s: %w", sh.ID, err)
		}
	}

	return shelves, nil
}

// AddBookToShelf adds a book to a shelf, removing any membership of the
// same book in the owner's other shelves. Removal and insert run in one
// transaction, so a book never occupies two shelves for the same owner.
// Adding a book that is already on the target shelf is a no-op.
func (s *Store) AddBookToShelf(ctx context.Context, ownerID, shelfID, bookID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Drop the book from every other shelf belonging to this owner.
	_, err = tx.ExecContext(ctx, `
		DELETE FROM shelf_books
		WHERE book_id = ?
		  AND shelf_id != ?
		  AND shelf_id IN (SELECT id FROM shelves WHERE owner_id = ?)`,
		bookID, shelfID, ownerID,
	)
	if err != nil {
		return err
	}

	// Append at the top of the target shelf.
	var maxOrder sql.NullInt64
	err = tx.QueryRowContext(ctx,
		`SELECT MAX(sort_order) FROM shelf_books WHERE shelf_id = ?`, shelfID).Scan(&maxOrder)
	if err != nil {
		return err
	}

	nextOrder := 0
	if maxOrder.Valid {
		nextOrder = int(maxOrder.Int64) + 1
	}

	_, err = tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO shelf_books (shelf_id, book_id, sort_order)
		VALUES (?, ?, ?)`,
		shelfID, bookID, nextOrder,
	)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE shelves SET updated_at = ? WHERE id = ?`,
		formatTime(timeNow()), shelfID,
	)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// RemoveBookFromShelf removes a book from a shelf's book list.
// Returns store.ErrNotFound if the book was not on the shelf.
func (s *Store) RemoveBookFromShelf(ctx context.Context, shelfID, bookID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM shelf_books WHERE shelf_id = ? AND book_id = ?`,
		shelfID, bookID,
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
