// Package lru keeps recently read chapters in memory in front of a
// persistent chapter cache.
package lru

import (
	"context"
	"time"

	"github.com/fwojciec/lectern"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Ensure ChapterCache implements lectern.ChapterCache at compile time.
var _ lectern.ChapterCache = (*ChapterCache)(nil)

type key struct {
	book    string
	chapter string
}

type hotEntry struct {
	text    string
	expires time.Time // zero when entries never expire
}

// ModTimer is implemented by caches that can report when an entry was last
// written. Disk hits are promoted into memory only when the wrapped cache
// is a ModTimer, so a promoted entry never outlives its disk freshness.
type ModTimer interface {
	ModTime(ctx context.Context, bookID, chapterID string) (time.Time, bool, error)
}

// ChapterCache is a write-through in-memory layer over another
// ChapterCache. Only fresh content is held in memory, and never past the
// moment it would go stale on disk.
type ChapterCache struct {
	next lectern.ChapterCache
	hot  *expirable.LRU[key, hotEntry]
	ttl  time.Duration
	now  func() time.Time
}

// Option configures a ChapterCache.
type Option func(*ChapterCache)

// WithClock replaces the clock used to judge entry freshness.
func WithClock(now func() time.Time) Option {
	return func(c *ChapterCache) {
		c.now = now
	}
}

// NewChapterCache wraps next with an LRU of size entries. ttl is the
// wrapped cache's max age; a non-positive ttl keeps entries until they are
// evicted by size.
func NewChapterCache(next lectern.ChapterCache, size int, ttl time.Duration, opts ...Option) *ChapterCache {
	c := &ChapterCache{
		next: next,
		hot:  expirable.NewLRU[key, hotEntry](size, nil, ttl),
		ttl:  ttl,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *ChapterCache) Get(ctx context.Context, bookID, chapterID string) (string, bool, error) {
	k := key{bookID, chapterID}
	if text, ok := c.fresh(k); ok {
		return text, true, nil
	}
	text, ok, err := c.next.Get(ctx, bookID, chapterID)
	if err != nil || !ok {
		return text, ok, err
	}
	c.promote(ctx, k, text)
	return text, true, nil
}

// fresh returns the in-memory entry for k unless it has expired.
func (c *ChapterCache) fresh(k key) (string, bool) {
	e, ok := c.hot.Get(k)
	if !ok {
		return "", false
	}
	if !e.expires.IsZero() && !c.now().Before(e.expires) {
		c.hot.Remove(k)
		return "", false
	}
	return e.text, true
}

// promote keeps a disk hit in memory for the rest of its disk lifetime.
func (c *ChapterCache) promote(ctx context.Context, k key, text string) {
	if c.ttl <= 0 {
		c.hot.Add(k, hotEntry{text: text})
		return
	}
	mt, ok := c.next.(ModTimer)
	if !ok {
		return
	}
	written, found, err := mt.ModTime(ctx, k.book, k.chapter)
	if err != nil || !found {
		return
	}
	expires := written.Add(c.ttl)
	if !c.now().Before(expires) {
		return
	}
	c.hot.Add(k, hotEntry{text: text, expires: expires})
}

// entry returns a hot entry for content written now.
func (c *ChapterCache) entry(text string) hotEntry {
	if c.ttl <= 0 {
		return hotEntry{text: text}
	}
	return hotEntry{text: text, expires: c.now().Add(c.ttl)}
}

// GetFallback serves fresh in-memory content, then defers to the wrapped
// cache. Stale content is never promoted into memory.
func (c *ChapterCache) GetFallback(ctx context.Context, bookID, chapterID string) (string, bool, error) {
	if text, ok := c.fresh(key{bookID, chapterID}); ok {
		return text, true, nil
	}
	return c.next.GetFallback(ctx, bookID, chapterID)
}

// Put writes through. The entry is kept in memory only when the write
// succeeded.
func (c *ChapterCache) Put(ctx context.Context, bookID, chapterID, content string) error {
	k := key{bookID, chapterID}
	if err := c.next.Put(ctx, bookID, chapterID, content); err != nil {
		c.hot.Remove(k)
		return err
	}
	c.hot.Add(k, c.entry(content))
	return nil
}

// Cleanup sweeps the wrapped cache and drops all in-memory entries.
func (c *ChapterCache) Cleanup(ctx context.Context) (*lectern.CleanupResult, error) {
	res, err := c.next.Cleanup(ctx)
	c.hot.Purge()
	return res, err
}

func (c *ChapterCache) Clear(ctx context.Context, bookID string) error {
	for _, k := range c.hot.Keys() {
		if k.book == bookID {
			c.hot.Remove(k)
		}
	}
	return c.next.Clear(ctx, bookID)
}

func (c *ChapterCache) ClearAll(ctx context.Context) error {
	c.hot.Purge()
	return c.next.ClearAll(ctx)
}

func (c *ChapterCache) Usage(ctx context.Context) (*lectern.CacheUsage, error) {
	return c.next.Usage(ctx)
}

// Len returns the number of in-memory entries.
func (c *ChapterCache) Len() int {
	return c.hot.Len()
}
