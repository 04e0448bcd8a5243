package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/lectern"
)

// Ensure LoggingChapterCache implements lectern.ChapterCache.
var _ lectern.ChapterCache = (*LoggingChapterCache)(nil)

// LoggingChapterCache wraps a ChapterCache with debug logging for reads and
// writes and info logging for sweeps.
type LoggingChapterCache struct {
	next   lectern.ChapterCache
	logger *slog.Logger
}

// NewLoggingChapterCache creates a new LoggingChapterCache.
func NewLoggingChapterCache(next lectern.ChapterCache, logger *slog.Logger) *LoggingChapterCache {
	return &LoggingChapterCache{next: next, logger: logger}
}

func (c *LoggingChapterCache) Get(ctx context.Context, bookID, chapterID string) (text string, ok bool, err error) {
	defer func(begin time.Time) {
		c.logger.Debug("cache get",
			"book", bookID,
			"chapter", chapterID,
			"hit", ok,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return c.next.Get(ctx, bookID, chapterID)
}

func (c *LoggingChapterCache) GetFallback(ctx context.Context, bookID, chapterID string) (text string, ok bool, err error) {
	defer func(begin time.Time) {
		c.logger.Debug("cache get fallback",
			"book", bookID,
			"chapter", chapterID,
			"hit", ok,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return c.next.GetFallback(ctx, bookID, chapterID)
}

func (c *LoggingChapterCache) Put(ctx context.Context, bookID, chapterID, content string) (err error) {
	defer func(begin time.Time) {
		c.logger.Debug("cache put",
			"book", bookID,
			"chapter", chapterID,
			"bytes", len(content),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return c.next.Put(ctx, bookID, chapterID, content)
}

func (c *LoggingChapterCache) Cleanup(ctx context.Context) (res *lectern.CleanupResult, err error) {
	defer func(begin time.Time) {
		attrs := []any{"duration", time.Since(begin), "err", err}
		if res != nil {
			attrs = append(attrs, "expired", res.Expired, "evicted", res.Evicted, "freed", res.FreedBytes)
		}
		c.logger.Info("cache cleanup", attrs...)
	}(time.Now())
	return c.next.Cleanup(ctx)
}

func (c *LoggingChapterCache) Clear(ctx context.Context, bookID string) (err error) {
	defer func(begin time.Time) {
		c.logger.Info("cache clear",
			"book", bookID,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return c.next.Clear(ctx, bookID)
}

func (c *LoggingChapterCache) ClearAll(ctx context.Context) (err error) {
	defer func(begin time.Time) {
		c.logger.Info("cache clear all",
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return c.next.ClearAll(ctx)
}

// Usage delegates to the wrapped cache.
func (c *LoggingChapterCache) Usage(ctx context.Context) (*lectern.CacheUsage, error) {
	return c.next.Usage(ctx)
}
