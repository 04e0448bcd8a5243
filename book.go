package lectern

import (
	"context"
	"time"
)

// Book represents a book discovered from a landing or contents page.
type Book struct {
	ID               string       `json:"id"`
	Title            string       `json:"title"`
	Author           string       `json:"author"`
	URL              string       `json:"url"`
	LastReadPosition int          `json:"lastReadPosition"`
	Chapters         []ChapterRef `json:"chapters"`
	CreatedAt        time.Time    `json:"createdAt"`
	UpdatedAt        time.Time    `json:"updatedAt"`
}

// Validate returns an error if the book contains invalid fields.
func (b *Book) Validate() error {
	if b.URL == "" {
		return Errorf(EINVALID, "book URL required")
	}
	if b.LastReadPosition < 0 {
		return Errorf(EINVALID, "book last read position must not be negative")
	}
	seen := make(map[string]struct{}, len(b.Chapters))
	for _, ch := range b.Chapters {
		if ch.URL == "" {
			return Errorf(EINVALID, "chapter URL required")
		}
		if _, ok := seen[ch.URL]; ok {
			return Errorf(EINVALID, "duplicate chapter URL %q", ch.URL)
		}
		seen[ch.URL] = struct{}{}
	}
	return nil
}

// BookSummary holds the metadata parsed from a book's landing page.
type BookSummary struct {
	Title  string
	Author string
}

// BookParser extracts book structure from decoded HTML pages.
type BookParser interface {
	// ParseSummary returns the book title and author. Missing fields are empty.
	ParseSummary(html string) BookSummary

	// ParseChapters returns chapter links in page order, deduplicated by URL.
	ParseChapters(html string, baseURL string) ([]ChapterRef, error)

	// ParseTOCLinks returns links labelled as a table of contents, in page order.
	ParseTOCLinks(html string, baseURL string) ([]string, error)
}

// BookService represents a service for managing books.
type BookService interface {
	// CreateBook creates a new book with its chapter list.
	CreateBook(ctx context.Context, book *Book) error

	// FindBookByID retrieves a book and its chapters by ID.
	// Returns ENOTFOUND if book does not exist.
	FindBookByID(ctx context.Context, id string) (*Book, error)

	// FindBooks retrieves books matching the filter. Chapters are not loaded.
	FindBooks(ctx context.Context, filter BookFilter) ([]*Book, error)

	// UpdateBook updates an existing book.
	// Returns ENOTFOUND if book does not exist.
	UpdateBook(ctx context.Context, id string, upd BookUpdate) (*Book, error)

	// DeleteBook permanently removes a book and its chapter list.
	// Returns ENOTFOUND if book does not exist.
	DeleteBook(ctx context.Context, id string) error
}

// BookFilter represents a filter for FindBooks.
type BookFilter struct {
	ID  *string `json:"id"`
	URL *string `json:"url"`

	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// BookUpdate represents fields that can be updated on a book.
type BookUpdate struct {
	Title            *string       `json:"title"`
	Author           *string       `json:"author"`
	LastReadPosition *int          `json:"lastReadPosition"`
	Chapters         *[]ChapterRef `json:"chapters"`
}
