// Package slog provides logging decorators for lectern services.
package slog

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/fwojciec/lectern"
)

// Ensure LoggingFetcher implements lectern.Fetcher.
var _ lectern.Fetcher = (*LoggingFetcher)(nil)

// LoggingFetcher wraps a Fetcher with logging.
type LoggingFetcher struct {
	next   lectern.Fetcher
	logger *slog.Logger
}

// NewLoggingFetcher creates a new LoggingFetcher.
func NewLoggingFetcher(next lectern.Fetcher, logger *slog.Logger) *LoggingFetcher {
	return &LoggingFetcher{next: next, logger: logger}
}

// Fetch logs each attempt at debug level and failures at warn level.
func (f *LoggingFetcher) Fetch(ctx context.Context, url string, header http.Header) (res *lectern.FetchResult, err error) {
	defer func(begin time.Time) {
		var n int
		if res != nil {
			n = len(res.Body)
		}
		level := slog.LevelDebug
		if err != nil {
			level = slog.LevelWarn
		}
		f.logger.Log(ctx, level, "fetch",
			"url", url,
			"bytes", n,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return f.next.Fetch(ctx, url, header)
}

// Close delegates to the wrapped fetcher.
func (f *LoggingFetcher) Close() error {
	return f.next.Close()
}
