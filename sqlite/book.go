package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/fwojciec/lectern"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ lectern.BookService = (*BookService)(nil)

// BookService implements lectern.BookService using SQLite.
// Chapters are stored in their own table, ordered by position.
type BookService struct {
	db *DB
}

// NewBookService creates a new BookService.
func NewBookService(db *DB) *BookService {
	return &BookService{db: db}
}

// CreateBook creates a new book with its chapter list.
// Returns EINVALID if a book with the same URL already exists.
func (s *BookService) CreateBook(ctx context.Context, book *lectern.Book) error {
	if err := book.Validate(); err != nil {
		return err
	}

	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM books WHERE url = ?", book.URL).Scan(&exists)
	if err != nil {
		return err
	}
	if exists > 0 {
		return lectern.Errorf(lectern.EINVALID, "book %q already exists", book.URL)
	}

	book.ID = uuid.New().String()
	now := time.Now().UTC()
	book.CreatedAt = now
	book.UpdatedAt = now

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO books (id, title, author, url, last_read_position, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, book.ID, book.Title, book.Author, book.URL, book.LastReadPosition,
		formatTime(book.CreatedAt), formatTime(book.UpdatedAt))
	if err != nil {
		return err
	}

	if err := insertChapters(ctx, tx, book.ID, book.Chapters); err != nil {
		return err
	}
	return tx.Commit()
}

// FindBookByID retrieves a book and its chapters by ID.
func (s *BookService) FindBookByID(ctx context.Context, id string) (*lectern.Book, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, author, url, last_read_position, created_at, updated_at
		FROM books
		WHERE id = ?
	`, id)
	book, err := scanBook(row)
	if err == sql.ErrNoRows {
		return nil, lectern.Errorf(lectern.ENOTFOUND, "book not found")
	}
	if err != nil {
		return nil, err
	}

	book.Chapters, err = s.findChapters(ctx, id)
	if err != nil {
		return nil, err
	}
	return book, nil
}

// FindBooks retrieves books matching the filter, newest first.
// Chapters are not loaded.
func (s *BookService) FindBooks(ctx context.Context, filter lectern.BookFilter) ([]*lectern.Book, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT id, title, author, url, last_read_position, created_at, updated_at FROM books WHERE 1=1")

	if filter.ID != nil {
		query.WriteString(" AND id = ?")
		args = append(args, *filter.ID)
	}
	if filter.URL != nil {
		query.WriteString(" AND url = ?")
		args = append(args, *filter.URL)
	}

	query.WriteString(" ORDER BY created_at DESC, rowid DESC")
	clause, limitArgs := limitClause(filter.Limit, filter.Offset)
	query.WriteString(clause)
	args = append(args, limitArgs...)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var books []*lectern.Book
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books = append(books, book)
	}
	return books, rows.Err()
}

// UpdateBook updates an existing book. A non-nil chapter list replaces the
// stored list.
func (s *BookService) UpdateBook(ctx context.Context, id string, upd lectern.BookUpdate) (*lectern.Book, error) {
	book, err := s.FindBookByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Title != nil {
		book.Title = *upd.Title
	}
	if upd.Author != nil {
		book.Author = *upd.Author
	}
	if upd.LastReadPosition != nil {
		book.LastReadPosition = *upd.LastReadPosition
	}
	if upd.Chapters != nil {
		book.Chapters = *upd.Chapters
	}

	if err := book.Validate(); err != nil {
		return nil, err
	}

	book.UpdatedAt = time.Now().UTC()

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		UPDATE books
		SET title = ?, author = ?, last_read_position = ?, updated_at = ?
		WHERE id = ?
	`, book.Title, book.Author, book.LastReadPosition, formatTime(book.UpdatedAt), id)
	if err != nil {
		return nil, err
	}

	if upd.Chapters != nil {
		if _, err := tx.ExecContext(ctx, "DELETE FROM chapters WHERE book_id = ?", id); err != nil {
			return nil, err
		}
		if err := insertChapters(ctx, tx, id, book.Chapters); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return book, nil
}

// DeleteBook permanently removes a book and its chapter list.
func (s *BookService) DeleteBook(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM books WHERE id = ?", id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return lectern.Errorf(lectern.ENOTFOUND, "book not found")
	}

	return nil
}

func (s *BookService) findChapters(ctx context.Context, bookID string) ([]lectern.ChapterRef, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT title, url FROM chapters WHERE book_id = ? ORDER BY position
	`, bookID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chapters []lectern.ChapterRef
	for rows.Next() {
		var ch lectern.ChapterRef
		if err := rows.Scan(&ch.Title, &ch.URL); err != nil {
			return nil, err
		}
		chapters = append(chapters, ch)
	}
	return chapters, rows.Err()
}

func insertChapters(ctx context.Context, tx *sql.Tx, bookID string, chapters []lectern.ChapterRef) error {
	if len(chapters) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO chapters (book_id, position, title, url) VALUES (?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, ch := range chapters {
		if _, err := stmt.ExecContext(ctx, bookID, i, ch.Title, ch.URL); err != nil {
			return err
		}
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBook(row scanner) (*lectern.Book, error) {
	var book lectern.Book
	var createdAt, updatedAt string

	if err := row.Scan(&book.ID, &book.Title, &book.Author, &book.URL, &book.LastReadPosition,
		&createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if book.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return nil, err
	}
	if book.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return nil, err
	}
	return &book, nil
}
