package main

import (
	"fmt"
	"path/filepath"

	"github.com/fwojciec/lectern"
	"github.com/fwojciec/lectern/crawl"
)

// Run executes the read command.
func (c *ReadCmd) Run(deps *Dependencies) error {
	book, err := deps.Books.FindBookByID(deps.Ctx, c.ID)
	if err != nil {
		printNotFound(deps, c.ID, err)
		return err
	}
	if len(book.Chapters) == 0 {
		fmt.Fprintf(deps.Stderr, "error: %q has no chapters. Use 'lectern refresh %s' first.\n", displayTitle(book), book.ID)
		return lectern.Errorf(lectern.EINVALID, "book has no chapters")
	}

	pos := c.Position
	if pos == 0 {
		pos = book.LastReadPosition
		if c.Next {
			pos++
		}
		if pos < 1 {
			pos = 1
		}
	}
	if pos < 1 || pos > len(book.Chapters) {
		fmt.Fprintf(deps.Stderr, "error: chapter %d out of range (1-%d)\n", pos, len(book.Chapters))
		return lectern.Errorf(lectern.EINVALID, "chapter %d out of range", pos)
	}

	ref := book.Chapters[pos-1]
	ch := deps.Reader.ReadChapterOrPlaceholder(deps.Ctx, book.ID, ref)

	switch ch.Origin {
	case lectern.OriginStale:
		fmt.Fprintln(deps.Stderr, "note: network unavailable, showing a cached copy")
	case lectern.OriginPlaceholder:
		fmt.Fprintln(deps.Stderr, "note: chapter could not be loaded")
	}

	if ref.Title != "" {
		fmt.Fprintf(deps.Stdout, "%s\n\n", ref.Title)
	}
	fmt.Fprintln(deps.Stdout, ch.Text)

	if ch.Origin == lectern.OriginPlaceholder || pos == book.LastReadPosition {
		return nil
	}
	if _, err := deps.Books.UpdateBook(deps.Ctx, book.ID, lectern.BookUpdate{LastReadPosition: &pos}); err != nil {
		fmt.Fprintf(deps.Stderr, "warning: reading position not saved: %s\n", lectern.ErrorMessage(err))
	}
	return nil
}

// Run executes the prefetch command.
func (c *PrefetchCmd) Run(deps *Dependencies) error {
	book, err := deps.Books.FindBookByID(deps.Ctx, c.ID)
	if err != nil {
		printNotFound(deps, c.ID, err)
		return err
	}

	refs, err := chapterRange(book.Chapters, c.From, c.Count)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", lectern.ErrorMessage(err))
		return err
	}

	progress := func(event crawl.ProgressEvent) {
		switch event.Type {
		case crawl.ProgressStarted:
			fmt.Fprintf(deps.Stdout, "  Prefetching %d chapters\n", event.Total)
		case crawl.ProgressFailed:
			fmt.Fprintf(deps.Stderr, "  skip %s: %s\n", event.URL, lectern.ErrorMessage(event.Error))
		}
	}

	result, err := deps.Reader.Prefetch(deps.Ctx, book.ID, refs, progress)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error prefetching: %v\n", err)
		return err
	}

	fmt.Fprintf(deps.Stdout, "  %d cached, %d fetched, %d stale, %d failed\n",
		result.Cached, result.Fetched, result.Stale, result.Failed)
	if c.Stats {
		printHostStats(deps)
	}
	return nil
}

// Run executes the export command.
func (c *ExportCmd) Run(deps *Dependencies) error {
	book, err := deps.Books.FindBookByID(deps.Ctx, c.ID)
	if err != nil {
		printNotFound(deps, c.ID, err)
		return err
	}

	name := c.Name
	if name == "" {
		name = book.ID
	}
	export, err := deps.NewExport(c.Dir, name)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", lectern.ErrorMessage(err))
		return err
	}

	// Warm the cache concurrently so the ordered pass below reads locally.
	if deps.Cache != nil && len(book.Chapters) > 1 {
		if _, err := deps.Reader.Prefetch(deps.Ctx, book.ID, book.Chapters, nil); err != nil {
			_ = export.Abort()
			fmt.Fprintf(deps.Stderr, "error prefetching: %v\n", err)
			return err
		}
	}

	placeholders := 0
	for i, ref := range book.Chapters {
		if err := deps.Ctx.Err(); err != nil {
			_ = export.Abort()
			return err
		}
		ch := deps.Reader.ReadChapterOrPlaceholder(deps.Ctx, book.ID, ref)
		if ch.Origin == lectern.OriginPlaceholder {
			placeholders++
		}
		if err := export.Save(deps.Ctx, i+1, ch); err != nil {
			_ = export.Abort()
			fmt.Fprintf(deps.Stderr, "error: %s\n", lectern.ErrorMessage(err))
			return err
		}
	}

	if err := export.Commit(); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", lectern.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Exported %d chapters to %s\n", len(book.Chapters), filepath.Join(c.Dir, name))
	if placeholders > 0 {
		fmt.Fprintf(deps.Stderr, "warning: %d chapters could not be loaded and were exported as placeholders\n", placeholders)
	}
	return nil
}

// chapterRange returns count chapters starting at the 1-based position
// from. A count of zero or less means all remaining chapters.
func chapterRange(chapters []lectern.ChapterRef, from, count int) ([]lectern.ChapterRef, error) {
	if from < 1 {
		from = 1
	}
	if from > len(chapters) {
		return nil, lectern.Errorf(lectern.EINVALID, "chapter %d out of range (1-%d)", from, len(chapters))
	}
	end := len(chapters)
	if count > 0 && from-1+count < end {
		end = from - 1 + count
	}
	return chapters[from-1 : end], nil
}
