package slog_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/fwojciec/lectern"
	"github.com/fwojciec/lectern/mock"
	lslog "github.com/fwojciec/lectern/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func debugLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestLoggingChapterCache_Get(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	inner := &mock.ChapterCache{
		GetFn: func(context.Context, string, string) (string, bool, error) {
			return "正文", true, nil
		},
	}
	cache := lslog.NewLoggingChapterCache(inner, debugLogger(&buf))

	text, ok, err := cache.Get(context.Background(), "b1", "c1")

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "正文", text)
	output := buf.String()
	assert.Contains(t, output, `msg="cache get"`)
	assert.Contains(t, output, "book=b1")
	assert.Contains(t, output, "chapter=c1")
	assert.Contains(t, output, "hit=true")
}

func TestLoggingChapterCache_PutLogsError(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	inner := &mock.ChapterCache{
		PutFn: func(context.Context, string, string, string) error {
			return lectern.Errorf(lectern.ENOSPACE, "disk full")
		},
	}
	cache := lslog.NewLoggingChapterCache(inner, debugLogger(&buf))

	err := cache.Put(context.Background(), "b1", "c1", "正文")

	assert.Equal(t, lectern.ENOSPACE, lectern.ErrorCode(err))
	output := buf.String()
	assert.Contains(t, output, `msg="cache put"`)
	assert.Contains(t, output, "bytes=6")
	assert.Contains(t, output, "disk full")
}

func TestLoggingChapterCache_Cleanup(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	inner := &mock.ChapterCache{
		CleanupFn: func(context.Context) (*lectern.CleanupResult, error) {
			return &lectern.CleanupResult{Expired: 2, Evicted: 1, FreedBytes: 300}, nil
		},
	}
	cache := lslog.NewLoggingChapterCache(inner, slog.New(slog.NewTextHandler(&buf, nil)))

	res, err := cache.Cleanup(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, res.Expired)
	output := buf.String()
	assert.Contains(t, output, `msg="cache cleanup"`)
	assert.Contains(t, output, "expired=2")
	assert.Contains(t, output, "evicted=1")
	assert.Contains(t, output, "freed=300")
}

func TestLoggingChapterCache_Clear(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	var cleared []string
	inner := &mock.ChapterCache{
		ClearFn: func(_ context.Context, bookID string) error {
			cleared = append(cleared, bookID)
			return nil
		},
		ClearAllFn: func(context.Context) error {
			cleared = append(cleared, "*")
			return nil
		},
		UsageFn: func(context.Context) (*lectern.CacheUsage, error) {
			return &lectern.CacheUsage{Files: 3}, nil
		},
	}
	cache := lslog.NewLoggingChapterCache(inner, slog.New(slog.NewTextHandler(&buf, nil)))
	ctx := context.Background()

	require.NoError(t, cache.Clear(ctx, "b1"))
	require.NoError(t, cache.ClearAll(ctx))
	u, err := cache.Usage(ctx)

	require.NoError(t, err)
	assert.Equal(t, 3, u.Files)
	assert.Equal(t, []string{"b1", "*"}, cleared)
	assert.Contains(t, buf.String(), `msg="cache clear" book=b1`)
	assert.Contains(t, buf.String(), `msg="cache clear all"`)
}
