package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/shelfmark/shelfmark-server/internal/domain"
	"github.com/shelfmark/shelfmark-server/internal/store"
)

// bookColumns is the ordered list of columns selected in book queries.
// Must match the scan order in scanBook.
const bookColumns = `id, created_at, updated_at, external_id, isbn, title, subtitle, authors, description, publisher, published_date, page_count, categories, language, cover_url, preview_link`

// scanBook scans a sql.Row (or sql.Rows via its Scan method) into a domain.Book.
// Derived rating fields are left zero; callers attach them from review stats.
func scanBook(scanner interface{ Scan(dest ...any) error }) (*domain.Book, error) {
	var b domain.Book

	var (
		createdAt     string
		updatedAt     string
		isbn          sql.NullString
		subtitle      sql.NullString
		authors       sql.NullString
		description   sql.NullString
		publisher     sql.NullString
		publishedDate sql.NullString
		pageCount     sql.NullInt64
		categories    sql.NullString
		language      sql.NullString
		coverURL      sql.NullString
		previewLink   sql.NullString
	)

	err := scanner.Scan(
		&b.ID,
		&createdAt,
		&updatedAt,
		&b.ExternalID,
		&isbn,
		&b.Title,
		&subtitle,
		&authors,
		&description,
		&publisher,
		&publishedDate,
		&pageCount,
		&categories,
		&language,
		&coverURL,
		&previewLink,
	)
	if err != nil {
		return nil, err
	}

	// Parse timestamps.
	b.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	b.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}

	// Optional fields.
	if isbn.Valid {
		b.ISBN = isbn.String
	}
	if subtitle.Valid {
		b.Subtitle = subtitle.String
	}
	b.Authors = splitList(authors)
	if description.Valid {
		b.Description = description.String
	}
	if publisher.Valid {
		b.Publisher = publisher.String
	}
	if publishedDate.Valid {
		b.PublishedDate = publishedDate.String
	}
	if pageCount.Valid {
		b.PageCount = int(pageCount.Int64)
	}
	b.Categories = splitList(categories)
	if language.Valid {
		b.Language = language.String
	}
	if coverURL.Valid {
		b.CoverURL = coverURL.String
	}
	if previewLink.Valid {
		b.PreviewLink = previewLink.String
	}

	return &b, nil
}

// CreateBook inserts a new book.
// Returns store.ErrAlreadyExists on duplicate ID or external ID.
func (s *Store) CreateBook(ctx context.Context, book *domain.Book) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO books (
			id, created_at, updated_at, external_id, isbn, title, subtitle,
			authors, description, publisher, published_date, page_count,
			categories, language, cover_url, preview_link
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		book.ID,
		formatTime(book.CreatedAt),
		formatTime(book.UpdatedAt),
		book.ExternalID,
		nullString(book.ISBN),
		book.Title,
		nullString(book.Subtitle),
		joinList(book.Authors),
		nullString(book.Description),
		nullString(book.Publisher),
		nullString(book.PublishedDate),
		nullInt64(int64(book.PageCount)),
		joinList(book.Categories),
		nullString(book.Language),
		nullString(book.CoverURL),
		nullString(book.PreviewLink),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetBook retrieves a book by ID.
// Returns store.ErrNotFound if the book does not exist.
func (s *Store) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE id = ?`, id)

	b, err := scanBook(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// GetBookByExternalID retrieves a book by its source identifier.
// Returns store.ErrNotFound if no book matches.
func (s *Store) GetBookByExternalID(ctx context.Context, externalID string) (*domain.Book, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE external_id = ?`, externalID)

	b, err := scanBook(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// GetBooksByIDs retrieves books keyed by ID. Missing IDs are simply
// absent from the result, not an error.
func (s *Store) GetBooksByIDs(ctx context.Context, ids []string) (map[string]*domain.Book, error) {
	if len(ids) == 0 {
		return map[string]*domain.Book{}, nil
	}

	placeholders := strings.Repeat("?,", len(ids)-1) + "?"
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	books := make(map[string]*domain.Book, len(ids))
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books[b.ID] = b
	}
	return books, rows.Err()
}

// UpdateBook updates a book row.
// Returns store.ErrNotFound if the book does not exist.
func (s *Store) UpdateBook(ctx context.Context, book *domain.Book) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE books SET
			created_at = ?,
			updated_at = ?,
			external_id = ?,
			isbn = ?,
			title = ?,
			subtitle = ?,
			authors = ?,
			description = ?,
			publisher = ?,
			published_date = ?,
			page_count = ?,
			categories = ?,
			language = ?,
			cover_url = ?,
			preview_link = ?
		WHERE id = ?`,
		formatTime(book.CreatedAt),
		formatTime(book.UpdatedAt),
		book.ExternalID,
		nullString(book.ISBN),
		book.Title,
		nullString(book.Subtitle),
		joinList(book.Authors),
		nullString(book.Description),
		nullString(book.Publisher),
		nullString(book.PublishedDate),
		nullInt64(int64(book.PageCount)),
		joinList(book.Categories),
		nullString(book.Language),
		nullString(book.CoverURL),
		nullString(book.PreviewLink),
		book.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists
		}
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

// ListAllBooks returns every cached book, ordered by creation time.
func (s *Store) ListAllBooks(ctx context.Context) ([]*domain.Book, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+bookColumns+` FROM books ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []*domain.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

// CountBooks returns the number of cached books.
func (s *Store) CountBooks(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books`).Scan(&count)
	return count, err
}
