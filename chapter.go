package lectern

import (
	"context"
	"fmt"
	"time"
)

// ChapterRef identifies one chapter. The URL is the canonical key.
type ChapterRef struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// DedupeChapters removes repeated URLs, keeping the first occurrence
// and the original discovery order.
func DedupeChapters(refs []ChapterRef) []ChapterRef {
	if len(refs) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(refs))
	out := make([]ChapterRef, 0, len(refs))
	for _, ref := range refs {
		if _, ok := seen[ref.URL]; ok {
			continue
		}
		seen[ref.URL] = struct{}{}
		out = append(out, ref)
	}
	return out
}

// Origin tells where a chapter's text came from.
type Origin string

// Chapter origins.
const (
	OriginCache       Origin = "cache"
	OriginNetwork     Origin = "network"
	OriginStale       Origin = "stale"
	OriginPlaceholder Origin = "placeholder"
)

// Chapter is normalized chapter text. It is immutable once persisted.
type Chapter struct {
	BookID    string
	Ref       ChapterRef
	Text      string
	Origin    Origin
	FetchedAt time.Time
}

// Placeholder returns the text shown in place of a chapter that could not
// be loaded from the network or the cache.
func Placeholder(ref ChapterRef, err error) string {
	title := ref.Title
	if title == "" {
		title = ref.URL
	}
	reason := "unknown error"
	switch ErrorCode(err) {
	case ENETWORK:
		reason = "the network is unavailable"
	case EPARSE:
		reason = "no readable content was found on the page"
	case "":
	default:
		reason = ErrorMessage(err)
	}
	return fmt.Sprintf("%s\n\nThis chapter could not be loaded: %s.\nIt will be retried the next time it is opened.", title, reason)
}

// CacheUsage summarizes cache disk usage.
type CacheUsage struct {
	Books int
	Files int
	Bytes int64
}

// CleanupResult reports what a cache eviction sweep removed.
type CleanupResult struct {
	Expired    int
	Evicted    int
	FreedBytes int64
}

// ChapterCache persists chapter text keyed by (book, chapter).
// Different keys are independent; writes to one key are atomic for readers.
type ChapterCache interface {
	// Get returns content younger than the configured max age.
	// A missing or expired entry is a miss (false), not an error.
	Get(ctx context.Context, bookID, chapterID string) (string, bool, error)

	// GetFallback returns content regardless of age.
	// Use it only after a fresh fetch has failed.
	GetFallback(ctx context.Context, bookID, chapterID string) (string, bool, error)

	// Put writes or overwrites an entry.
	// Returns ENOSPACE without writing when free disk space is below the floor.
	Put(ctx context.Context, bookID, chapterID, content string) error

	// Cleanup deletes expired entries, then the oldest entries until the
	// space constraints are satisfied or the cache is empty.
	Cleanup(ctx context.Context) (*CleanupResult, error)

	// Clear removes all entries of one book.
	Clear(ctx context.Context, bookID string) error

	// ClearAll removes every entry.
	ClearAll(ctx context.Context) error

	// Usage reports current disk usage.
	Usage(ctx context.Context) (*CacheUsage, error)
}

// BookExport writes a book's chapters to files. Nothing is visible at the
// destination until Commit.
type BookExport interface {
	// Save stages one chapter at its 1-based position in the book.
	Save(ctx context.Context, position int, ch *Chapter) error

	// Commit replaces the destination with the staged chapters.
	Commit() error

	// Abort discards the staged chapters.
	Abort() error
}
