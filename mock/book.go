package mock

import (
	"context"

	"github.com/fwojciec/lectern"
)

var (
	_ lectern.BookService = (*BookService)(nil)
	_ lectern.BookParser  = (*BookParser)(nil)
)

// BookService is a mock implementation of lectern.BookService.
type BookService struct {
	CreateBookFn   func(ctx context.Context, book *lectern.Book) error
	FindBookByIDFn func(ctx context.Context, id string) (*lectern.Book, error)
	FindBooksFn    func(ctx context.Context, filter lectern.BookFilter) ([]*lectern.Book, error)
	UpdateBookFn   func(ctx context.Context, id string, upd lectern.BookUpdate) (*lectern.Book, error)
	DeleteBookFn   func(ctx context.Context, id string) error
}

func (s *BookService) CreateBook(ctx context.Context, book *lectern.Book) error {
	return s.CreateBookFn(ctx, book)
}

func (s *BookService) FindBookByID(ctx context.Context, id string) (*lectern.Book, error) {
	return s.FindBookByIDFn(ctx, id)
}

func (s *BookService) FindBooks(ctx context.Context, filter lectern.BookFilter) ([]*lectern.Book, error) {
	return s.FindBooksFn(ctx, filter)
}

func (s *BookService) UpdateBook(ctx context.Context, id string, upd lectern.BookUpdate) (*lectern.Book, error) {
	return s.UpdateBookFn(ctx, id, upd)
}

func (s *BookService) DeleteBook(ctx context.Context, id string) error {
	return s.DeleteBookFn(ctx, id)
}

// BookParser is a mock implementation of lectern.BookParser.
type BookParser struct {
	ParseSummaryFn  func(html string) lectern.BookSummary
	ParseChaptersFn func(html, baseURL string) ([]lectern.ChapterRef, error)
	ParseTOCLinksFn func(html, baseURL string) ([]string, error)
}

func (p *BookParser) ParseSummary(html string) lectern.BookSummary {
	return p.ParseSummaryFn(html)
}

func (p *BookParser) ParseChapters(html, baseURL string) ([]lectern.ChapterRef, error) {
	return p.ParseChaptersFn(html, baseURL)
}

func (p *BookParser) ParseTOCLinks(html, baseURL string) ([]string, error) {
	return p.ParseTOCLinksFn(html, baseURL)
}
