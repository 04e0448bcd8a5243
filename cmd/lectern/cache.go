package main

import (
	"fmt"
	"time"

	"github.com/fwojciec/lectern"
)

// Run executes the cache clean command.
func (c *CacheCleanCmd) Run(deps *Dependencies) error {
	if deps.Cache == nil {
		return errCacheDisabled(deps)
	}

	res, err := deps.Cache.Cleanup(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", lectern.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "Removed %d expired and %d evicted chapters (%s freed)\n",
		res.Expired, res.Evicted, formatBytes(res.FreedBytes))
	return nil
}

// Run executes the cache clear command.
func (c *CacheClearCmd) Run(deps *Dependencies) error {
	if deps.Cache == nil {
		return errCacheDisabled(deps)
	}

	if c.ID == "" {
		if err := deps.Cache.ClearAll(deps.Ctx); err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", lectern.ErrorMessage(err))
			return err
		}
		fmt.Fprintln(deps.Stdout, "Cleared the chapter cache")
		return nil
	}

	if err := deps.Cache.Clear(deps.Ctx, c.ID); err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", lectern.ErrorMessage(err))
		return err
	}
	fmt.Fprintf(deps.Stdout, "Cleared cached chapters of %s\n", c.ID)
	return nil
}

// Run executes the cache usage command.
func (c *CacheUsageCmd) Run(deps *Dependencies) error {
	if deps.Cache == nil {
		return errCacheDisabled(deps)
	}

	usage, err := deps.Cache.Usage(deps.Ctx)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", lectern.ErrorMessage(err))
		return err
	}

	fmt.Fprintf(deps.Stdout, "%d chapters in %d books, %s\n", usage.Files, usage.Books, formatBytes(usage.Bytes))
	return nil
}

// Run executes the stats command.
func (c *StatsCmd) Run(deps *Dependencies) error {
	books, err := deps.Books.FindBooks(deps.Ctx, lectern.BookFilter{})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "error: %s\n", lectern.ErrorMessage(err))
		return err
	}
	fmt.Fprintf(deps.Stdout, "Books:  %d\n", len(books))

	if deps.Cache == nil {
		fmt.Fprintln(deps.Stdout, "Cache:  disabled")
	} else {
		usage, err := deps.Cache.Usage(deps.Ctx)
		if err != nil {
			fmt.Fprintf(deps.Stderr, "error: %s\n", lectern.ErrorMessage(err))
			return err
		}
		fmt.Fprintf(deps.Stdout, "Cache:  %d chapters, %s\n", usage.Files, formatBytes(usage.Bytes))
	}

	if deps.Config != nil {
		cfg := deps.Config
		fmt.Fprintf(deps.Stdout, "Limits: %d MB, %d days, %d MB free floor\n",
			cfg.MaxCacheSizeMB, cfg.MaxCacheAgeDays, cfg.MinFreeSpaceMB)
	}
	return nil
}

// printHostStats prints the monitor's per-host counters.
func printHostStats(deps *Dependencies) {
	if deps.Monitor == nil {
		return
	}
	stats := deps.Monitor.Stats()
	if len(stats) == 0 {
		return
	}
	fmt.Fprintln(deps.Stdout, "  host  requests  success  timeouts  avg")
	for _, s := range stats {
		fmt.Fprintf(deps.Stdout, "  %s  %d  %.0f%%  %d  %s\n",
			s.Host, s.Requests, 100*s.SuccessRate(), s.Timeouts, s.AverageLatency().Round(time.Millisecond))
	}
}

func errCacheDisabled(deps *Dependencies) error {
	fmt.Fprintln(deps.Stderr, "error: the chapter cache is disabled")
	return lectern.Errorf(lectern.EINVALID, "cache disabled")
}

// formatBytes formats a byte count in human-readable form.
func formatBytes(n int64) string {
	const (
		KB = 1024
		MB = KB * 1024
	)
	switch {
	case n >= MB:
		return fmt.Sprintf("%.1f MB", float64(n)/float64(MB))
	case n >= KB:
		return fmt.Sprintf("%.1f KB", float64(n)/float64(KB))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
