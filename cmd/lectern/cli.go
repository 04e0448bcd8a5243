package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/fwojciec/lectern"
	"github.com/fwojciec/lectern/crawl"
)

// Dependencies holds all services and configuration for command execution.
type Dependencies struct {
	Ctx     context.Context
	Stdout  io.Writer
	Stderr  io.Writer
	Logger  *slog.Logger
	Config  *lectern.Config
	Books   lectern.BookService
	Cache   lectern.ChapterCache
	Reader  *crawl.Reader
	Monitor lectern.Monitor

	// NewExport opens an export destination for one book.
	NewExport func(dir, name string) (lectern.BookExport, error)
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Config      string `help:"YAML config file" env:"LECTERN_CONFIG" type:"path"`
	DB          string `name:"db" help:"SQLite database path" env:"LECTERN_DB" type:"path"`
	CacheDir    string `help:"Chapter cache directory" env:"LECTERN_CACHE" type:"path"`
	NoCache     bool   `help:"Disable the chapter cache"`
	Render      bool   `help:"Render pages in headless Chrome"`
	MetricsAddr string `help:"Serve Prometheus metrics on this address while running"`
	Verbose     bool   `short:"v" help:"Enable debug logging"`

	Add      AddCmd      `cmd:"" help:"Add a book from its landing page"`
	List     ListCmd     `cmd:"" help:"List saved books"`
	Chapters ChaptersCmd `cmd:"" help:"List a book's chapters"`
	Read     ReadCmd     `cmd:"" help:"Print a chapter"`
	Prefetch PrefetchCmd `cmd:"" help:"Download chapters into the cache"`
	Export   ExportCmd   `cmd:"" help:"Write a book's chapters to text files"`
	Refresh  RefreshCmd  `cmd:"" help:"Re-read a book's chapter list"`
	Delete   DeleteCmd   `cmd:"" help:"Delete a book and its cached chapters"`
	Cache    CacheCmd    `cmd:"" help:"Manage the chapter cache"`
	Stats    StatsCmd    `cmd:"" help:"Show library and cache statistics"`
}

// AddCmd is the "add" subcommand.
type AddCmd struct {
	URL   string `arg:"" help:"Book landing or contents page URL"`
	Force bool   `short:"f" help:"Replace an existing book with the same URL"`
}

// ListCmd is the "list" subcommand.
type ListCmd struct{}

// ChaptersCmd is the "chapters" subcommand.
type ChaptersCmd struct {
	ID string `arg:"" help:"Book ID"`
}

// ReadCmd is the "read" subcommand.
type ReadCmd struct {
	ID       string `arg:"" help:"Book ID"`
	Position int    `arg:"" optional:"" help:"1-based chapter position (default: continue where you left off)"`
	Next     bool   `short:"n" help:"Read the chapter after the last one read"`
}

// PrefetchCmd is the "prefetch" subcommand.
type PrefetchCmd struct {
	ID    string `arg:"" help:"Book ID"`
	From  int    `default:"1" help:"First chapter position"`
	Count int    `short:"c" help:"Number of chapters (default: all remaining)"`
	Stats bool   `help:"Print per-host fetch statistics when done"`
}

// ExportCmd is the "export" subcommand.
type ExportCmd struct {
	ID   string `arg:"" help:"Book ID"`
	Dir  string `arg:"" type:"path" help:"Destination directory"`
	Name string `help:"Subdirectory name (default: book ID)"`
}

// RefreshCmd is the "refresh" subcommand.
type RefreshCmd struct {
	ID string `arg:"" help:"Book ID"`
}

// DeleteCmd is the "delete" subcommand.
type DeleteCmd struct {
	ID    string `arg:"" help:"Book ID"`
	Force bool   `help:"Confirm deletion"`
}

// CacheCmd groups the cache subcommands.
type CacheCmd struct {
	Clean CacheCleanCmd `cmd:"" help:"Remove expired entries and enforce size limits"`
	Clear CacheClearCmd `cmd:"" help:"Remove cached chapters"`
	Usage CacheUsageCmd `cmd:"" help:"Show cache disk usage"`
}

// CacheCleanCmd is the "cache clean" subcommand.
type CacheCleanCmd struct{}

// CacheClearCmd is the "cache clear" subcommand.
type CacheClearCmd struct {
	ID string `arg:"" optional:"" help:"Book ID (default: every book)"`
}

// CacheUsageCmd is the "cache usage" subcommand.
type CacheUsageCmd struct{}

// StatsCmd is the "stats" subcommand.
type StatsCmd struct{}
