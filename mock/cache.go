package mock

import (
	"context"

	"github.com/fwojciec/lectern"
)

var _ lectern.ChapterCache = (*ChapterCache)(nil)

// ChapterCache is a mock implementation of lectern.ChapterCache.
type ChapterCache struct {
	GetFn         func(ctx context.Context, bookID, chapterID string) (string, bool, error)
	GetFallbackFn func(ctx context.Context, bookID, chapterID string) (string, bool, error)
	PutFn         func(ctx context.Context, bookID, chapterID, content string) error
	CleanupFn     func(ctx context.Context) (*lectern.CleanupResult, error)
	ClearFn       func(ctx context.Context, bookID string) error
	ClearAllFn    func(ctx context.Context) error
	UsageFn       func(ctx context.Context) (*lectern.CacheUsage, error)
}

func (c *ChapterCache) Get(ctx context.Context, bookID, chapterID string) (string, bool, error) {
	return c.GetFn(ctx, bookID, chapterID)
}

func (c *ChapterCache) GetFallback(ctx context.Context, bookID, chapterID string) (string, bool, error) {
	return c.GetFallbackFn(ctx, bookID, chapterID)
}

func (c *ChapterCache) Put(ctx context.Context, bookID, chapterID, content string) error {
	return c.PutFn(ctx, bookID, chapterID, content)
}

func (c *ChapterCache) Cleanup(ctx context.Context) (*lectern.CleanupResult, error) {
	return c.CleanupFn(ctx)
}

func (c *ChapterCache) Clear(ctx context.Context, bookID string) error {
	return c.ClearFn(ctx, bookID)
}

func (c *ChapterCache) ClearAll(ctx context.Context) error {
	return c.ClearAllFn(ctx)
}

func (c *ChapterCache) Usage(ctx context.Context) (*lectern.CacheUsage, error) {
	return c.UsageFn(ctx)
}
