package main

import (
	"fmt"

	"github.com/fwojciec/lectern"
)

// Run executes the add command.
func (c *AddCmd) Run(deps *Dependencies) error {
	existing, err := deps.Books.FindBooks(deps.Ctx, lectern.BookFilter{URL: &c.URL})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", lectern.ErrorMessage(err))
		return err
	}
	if len(existing) > 0 && !c.Force {
		fmt.Fprintf(deps.Stderr, "error: book already added as %s. Use --force to replace its chapter list.\n", existing[0].ID)
		return lectern.Errorf(lectern.EINVALID, "book %q already exists", c.URL)
	}

	book, err := deps.Reader.FetchBook(deps.Ctx, c.URL)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", lectern.ErrorMessage(err))
		return err
	}
	if len(book.Chapters) == 0 {
		fmt.Fprintf(deps.Stderr, "warning: no chapters found on %s\n", c.URL)
	}

	if len(existing) > 0 {
		book, err = deps.Books.UpdateBook(deps.Ctx, existing[0].ID, lectern.BookUpdate{
			Title:    &book.Title,
			Author:   &book.Author,
			Chapters: &book.Chapters,
		})
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", lectern.ErrorMessage(err))
			return err
		}
		fmt.Fprintf(deps.Stdout, "Updated %q (%s), %d chapters\n", displayTitle(book), book.ID, len(book.Chapters))
		return nil
	}

	if err := deps.Books.CreateBook(deps.Ctx, book); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", lectern.ErrorMessage(err))
		return err
	}
	fmt.Fprintf(deps.Stdout, "Added %q (%s), %d chapters\n", displayTitle(book), book.ID, len(book.Chapters))
	return nil
}

// Run executes the list command.
func (c *ListCmd) Run(deps *Dependencies) error {
	books, err := deps.Books.FindBooks(deps.Ctx, lectern.BookFilter{})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", lectern.ErrorMessage(err))
		return err
	}

	if len(books) == 0 {
		fmt.Fprintln(deps.Stdout, "No books found. Use 'lectern add' to add one.")
		return nil
	}

	for _, b := range books {
		author := b.Author
		if author == "" {
			author = "-"
		}
		fmt.Fprintf(deps.Stdout, "%s  %s  %s  %s\n", b.ID, displayTitle(b), author, b.URL)
	}
	return nil
}

// Run executes the chapters command.
func (c *ChaptersCmd) Run(deps *Dependencies) error {
	book, err := deps.Books.FindBookByID(deps.Ctx, c.ID)
	if err != nil {
		printNotFound(deps, c.ID, err)
		return err
	}

	if len(book.Chapters) == 0 {
		fmt.Fprintln(deps.Stdout, "No chapters. Use 'lectern refresh' to re-read the chapter list.")
		return nil
	}

	for i, ch := range book.Chapters {
		marker := " "
		if i+1 == book.LastReadPosition {
			marker = "*"
		}
		fmt.Fprintf(deps.Stdout, "%s%5d  %s\n", marker, i+1, ch.Title)
	}
	return nil
}

// Run executes the refresh command.
func (c *RefreshCmd) Run(deps *Dependencies) error {
	book, err := deps.Books.FindBookByID(deps.Ctx, c.ID)
	if err != nil {
		printNotFound(deps, c.ID, err)
		return err
	}

	fetched, err := deps.Reader.FetchBook(deps.Ctx, book.URL)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", lectern.ErrorMessage(err))
		return err
	}
	if len(fetched.Chapters) == 0 {
		fmt.Fprintf(deps.Stderr, "error: no chapters found on %s, keeping the saved list\n", book.URL)
		return lectern.Errorf(lectern.EPARSE, "no chapters found on %s", book.URL)
	}

	upd := lectern.BookUpdate{Chapters: &fetched.Chapters}
	if fetched.Title != "" {
		upd.Title = &fetched.Title
	}
	if fetched.Author != "" {
		upd.Author = &fetched.Author
	}
	updated, err := deps.Books.UpdateBook(deps.Ctx, book.ID, upd)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", lectern.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "%q: %d chapters (was %d)\n", displayTitle(updated), len(updated.Chapters), len(book.Chapters))
	return nil
}

// Run executes the delete command.
func (c *DeleteCmd) Run(deps *Dependencies) error {
	if !c.Force {
		fmt.Fprintf(deps.Stderr, "error: use --force to confirm deletion\n")
		return lectern.Errorf(lectern.EINVALID, "use --force to confirm deletion")
	}

	book, err := deps.Books.FindBookByID(deps.Ctx, c.ID)
	if err != nil {
		printNotFound(deps, c.ID, err)
		return err
	}

	if err := deps.Books.DeleteBook(deps.Ctx, book.ID); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", lectern.ErrorMessage(err))
		return err
	}
	if deps.Cache != nil {
		if err := deps.Cache.Clear(deps.Ctx, book.ID); err != nil {
			fmt.Fprintf(deps.Stderr, "warning: cached chapters not removed: %s\n", lectern.ErrorMessage(err))
		}
	}

	fmt.Fprintf(deps.Stdout, "Deleted %q\n", displayTitle(book))
	return nil
}

func printNotFound(deps *Dependencies, id string, err error) {
	if lectern.ErrorCode(err) == lectern.ENOTFOUND {
		fmt.Fprintf(deps.Stderr, "error: book %q not found. Use 'lectern list' to see saved books.\n", id)
		return
	}
	fmt.Fprintf(deps.Stderr, "error: %s\n", lectern.ErrorMessage(err))
}

func displayTitle(b *lectern.Book) string {
	if b.Title != "" {
		return b.Title
	}
	return b.URL
}
