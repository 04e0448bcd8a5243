// Package crawl orchestrates book extraction. It wraps fetchers with
// retry, rate limiting and bounded concurrency, and drives the decode,
// locate, normalize and cache pipeline for books and chapters.
package crawl

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fwojciec/lectern"
	"github.com/fwojciec/lectern/bloom"
	"golang.org/x/sync/errgroup"
)

// Visited-page filter sizing for the contents page fallback.
const (
	tocFilterSize   = 256
	tocFilterFPRate = 0.001
)

// Reader turns book and chapter URLs into books and normalized chapters.
type Reader struct {
	Fetcher    lectern.Fetcher
	Decoder    lectern.Decoder
	Parser     lectern.BookParser
	Normalizer *lectern.Normalizer

	// Cache is optional. Nil disables caching and stale fallback.
	Cache lectern.ChapterCache

	// Robots is optional. Nil allows every URL.
	Robots lectern.RobotsPolicy

	// CPU bounds concurrent decode and normalize work. Nil runs inline.
	CPU *Pool

	Logger      *slog.Logger
	Concurrency int

	// Now returns the current time. Nil uses time.Now.
	Now func() time.Time

	// spaceSwept is set once a full cache triggered an eviction sweep.
	spaceSwept atomic.Bool
}

// FetchBook fetches a landing page and returns its summary and chapter list.
// When the landing page yields no chapters, pages linked as a table of
// contents are tried in order until one yields a non-empty list. A book
// without chapters is returned with an empty list, not an error.
func (r *Reader) FetchBook(ctx context.Context, rawURL string) (*lectern.Book, error) {
	page, err := r.fetchPage(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch book page: %w", err)
	}

	summary := r.Parser.ParseSummary(page.HTML)
	chapters, err := r.Parser.ParseChapters(page.HTML, page.URL)
	if err != nil {
		return nil, fmt.Errorf("parse chapters: %w", err)
	}

	if len(chapters) == 0 {
		chapters = r.chaptersFromTOC(ctx, rawURL, page)
	}
	if len(chapters) == 0 {
		r.logger().Warn("no chapters found", "url", rawURL)
	}

	return &lectern.Book{
		Title:    summary.Title,
		Author:   summary.Author,
		URL:      rawURL,
		Chapters: lectern.DedupeChapters(chapters),
	}, nil
}

// chaptersFromTOC follows contents links from page, stopping at the first
// page that yields chapters.
func (r *Reader) chaptersFromTOC(ctx context.Context, rawURL string, page *lectern.SourceDocument) []lectern.ChapterRef {
	links, err := r.Parser.ParseTOCLinks(page.HTML, page.URL)
	if err != nil || len(links) == 0 {
		return nil
	}

	visited := bloom.NewFilter(tocFilterSize, tocFilterFPRate)
	visited.Add(rawURL)
	visited.Add(page.URL)

	for _, link := range links {
		if visited.TestAndAdd(link) {
			continue
		}
		if ctx.Err() != nil {
			return nil
		}

		toc, err := r.fetchPage(ctx, link)
		if err != nil {
			r.logger().Warn("contents page failed", "url", link, "err", err)
			continue
		}
		chapters, err := r.Parser.ParseChapters(toc.HTML, toc.URL)
		if err != nil {
			r.logger().Warn("contents page unparsable", "url", link, "err", err)
			continue
		}
		if len(chapters) > 0 {
			r.logger().Debug("chapters from contents page", "url", link, "count", len(chapters))
			return chapters
		}
	}
	return nil
}

// fetchPage fetches rawURL and decodes it as a landing or contents page.
func (r *Reader) fetchPage(ctx context.Context, rawURL string) (*lectern.SourceDocument, error) {
	if err := r.checkRobots(ctx, rawURL); err != nil {
		return nil, err
	}
	res, err := r.Fetcher.Fetch(ctx, rawURL, nil)
	if err != nil {
		return nil, err
	}

	var doc *lectern.SourceDocument
	err = r.cpu(ctx, func() error {
		doc = r.Decoder.DecodePage(res.Body, res.ContentType)
		return nil
	})
	if err != nil {
		return nil, err
	}
	doc.URL = res.URL
	if doc.URL == "" {
		doc.URL = rawURL
	}
	return doc, nil
}

// ReadChapter returns a chapter's normalized text. Fresh cache entries are
// served directly. Otherwise the chapter is fetched and written through the
// cache. When fetching fails, stale cache content is returned instead.
func (r *Reader) ReadChapter(ctx context.Context, bookID string, ref lectern.ChapterRef) (*lectern.Chapter, error) {
	if r.Cache != nil {
		text, ok, err := r.Cache.Get(ctx, bookID, ref.URL)
		if err != nil {
			r.logger().Warn("cache read failed", "book", bookID, "url", ref.URL, "err", err)
		} else if ok {
			return r.chapter(bookID, ref, text, lectern.OriginCache), nil
		}
	}

	text, fetchErr := r.fetchChapter(ctx, ref)
	if fetchErr == nil {
		r.store(ctx, bookID, ref, text)
		return r.chapter(bookID, ref, text, lectern.OriginNetwork), nil
	}

	if r.Cache != nil && ctx.Err() == nil {
		text, ok, err := r.Cache.GetFallback(ctx, bookID, ref.URL)
		if err != nil {
			r.logger().Warn("stale cache read failed", "book", bookID, "url", ref.URL, "err", err)
		} else if ok {
			r.logger().Warn("serving stale chapter", "book", bookID, "url", ref.URL, "err", fetchErr)
			return r.chapter(bookID, ref, text, lectern.OriginStale), nil
		}
	}

	return nil, fetchErr
}

// store writes text through the cache. The first ENOSPACE seen by the
// Reader runs an eviction sweep and retries the write once.
func (r *Reader) store(ctx context.Context, bookID string, ref lectern.ChapterRef, text string) {
	if r.Cache == nil {
		return
	}
	err := r.Cache.Put(ctx, bookID, ref.URL, text)
	if lectern.ErrorCode(err) == lectern.ENOSPACE && r.spaceSwept.CompareAndSwap(false, true) {
		r.SweepCache(ctx)
		err = r.Cache.Put(ctx, bookID, ref.URL, text)
	}
	if err != nil {
		r.logger().Warn("cache write skipped", "book", bookID, "url", ref.URL, "err", err)
	}
}

// SweepCache runs the cache eviction sweep, deleting expired entries and
// then the oldest ones until the cache is within its limits. Failures are
// logged; the cache is best effort.
func (r *Reader) SweepCache(ctx context.Context) {
	if r.Cache == nil || ctx.Err() != nil {
		return
	}
	res, err := r.Cache.Cleanup(ctx)
	if err != nil {
		r.logger().Warn("cache sweep failed", "err", err)
		return
	}
	r.logger().Debug("cache swept", "expired", res.Expired, "evicted", res.Evicted, "freed", res.FreedBytes)
}

// ReadChapterOrPlaceholder is ReadChapter with total failure turned into a
// placeholder chapter explaining what went wrong.
func (r *Reader) ReadChapterOrPlaceholder(ctx context.Context, bookID string, ref lectern.ChapterRef) *lectern.Chapter {
	ch, err := r.ReadChapter(ctx, bookID, ref)
	if err == nil {
		return ch
	}
	r.logger().Warn("chapter unavailable", "book", bookID, "url", ref.URL, "err", err)
	return r.chapter(bookID, ref, lectern.Placeholder(ref, err), lectern.OriginPlaceholder)
}

func (r *Reader) fetchChapter(ctx context.Context, ref lectern.ChapterRef) (string, error) {
	if err := r.checkRobots(ctx, ref.URL); err != nil {
		return "", err
	}
	res, err := r.Fetcher.Fetch(ctx, ref.URL, nil)
	if err != nil {
		return "", err
	}

	var text string
	err = r.cpu(ctx, func() error {
		doc := r.Decoder.DecodeContent(res.Body, res.ContentType)
		if doc.Block == nil {
			return lectern.Errorf(lectern.EPARSE, "no content block in %s", ref.URL)
		}
		if doc.Block.Text != "" {
			text = r.normalizer().Normalize(doc.Block.Text, ref.Title)
		} else {
			text = r.normalizer().NormalizeHTML(doc.Block.HTML, ref.Title)
		}
		if strings.TrimSpace(text) == "" {
			return lectern.Errorf(lectern.EPARSE, "empty chapter text in %s", ref.URL)
		}
		return nil
	})
	return text, err
}

func (r *Reader) checkRobots(ctx context.Context, rawURL string) error {
	if r.Robots == nil || r.Robots.Allowed(ctx, rawURL) {
		return nil
	}
	return lectern.Errorf(lectern.EFORBIDDEN, "robots.txt disallows %s", rawURL)
}

func (r *Reader) cpu(ctx context.Context, fn func() error) error {
	if r.CPU == nil {
		return fn()
	}
	return r.CPU.Do(ctx, fn)
}

func (r *Reader) chapter(bookID string, ref lectern.ChapterRef, text string, origin lectern.Origin) *lectern.Chapter {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	return &lectern.Chapter{
		BookID:    bookID,
		Ref:       ref,
		Text:      text,
		Origin:    origin,
		FetchedAt: now(),
	}
}

func (r *Reader) normalizer() *lectern.Normalizer {
	if r.Normalizer == nil {
		return lectern.NewNormalizer(nil)
	}
	return r.Normalizer
}

func (r *Reader) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return r.Logger
}

// PrefetchResult holds the outcome of a prefetch operation.
type PrefetchResult struct {
	Cached  int
	Fetched int
	Stale   int
	Failed  int
}

// ProgressEvent reports progress during a prefetch operation.
type ProgressEvent struct {
	Type      ProgressType
	Completed int
	Total     int
	URL       string
	Origin    lectern.Origin
	Error     error
}

// ProgressType indicates the type of progress event.
type ProgressType int

const (
	ProgressStarted ProgressType = iota
	ProgressCompleted
	ProgressFailed
	ProgressFinished
)

// ProgressFunc is a callback for reporting prefetch progress.
type ProgressFunc func(event ProgressEvent)

type prefetchResult struct {
	url    string
	origin lectern.Origin
	err    error
}

// Prefetch reads every chapter so it lands in the cache, then sweeps the
// cache when anything was written. Individual failures are counted, not
// returned. The error is non-nil only when ctx is done before all chapters
// were attempted.
func (r *Reader) Prefetch(ctx context.Context, bookID string, refs []lectern.ChapterRef, progress ProgressFunc) (*PrefetchResult, error) {
	concurrency := r.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	total := len(refs)
	if progress != nil {
		progress(ProgressEvent{Type: ProgressStarted, Total: total})
	}

	resultCh := make(chan prefetchResult, total)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	go func() {
		for _, ref := range refs {
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error {
				ch, err := r.ReadChapter(gctx, bookID, ref)
				res := prefetchResult{url: ref.URL, err: err}
				if err == nil {
					res.origin = ch.Origin
				}
				resultCh <- res
				return nil
			})
		}
		_ = g.Wait()
		close(resultCh)
	}()

	var completed atomic.Int64
	result := &PrefetchResult{}
	for res := range resultCh {
		completed.Add(1)
		event := ProgressEvent{
			Type:      ProgressCompleted,
			Completed: int(completed.Load()),
			Total:     total,
			URL:       res.url,
			Origin:    res.origin,
			Error:     res.err,
		}

		switch {
		case res.err != nil:
			result.Failed++
			event.Type = ProgressFailed
		case res.origin == lectern.OriginCache:
			result.Cached++
		case res.origin == lectern.OriginStale:
			result.Stale++
		default:
			result.Fetched++
		}

		if progress != nil {
			progress(event)
		}
	}

	// Prefetch is the bulk writer, so it leaves the cache within its limits.
	if result.Fetched > 0 {
		r.SweepCache(ctx)
		r.spaceSwept.Store(false)
	}

	if progress != nil {
		progress(ProgressEvent{
			Type:      ProgressFinished,
			Completed: int(completed.Load()),
			Total:     total,
		})
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}
