package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/lectern"
	"github.com/fwojciec/lectern/bluemonday"
	"github.com/fwojciec/lectern/charset"
	"github.com/fwojciec/lectern/crawl"
	"github.com/fwojciec/lectern/fs"
	"github.com/fwojciec/lectern/goquery"
	lhttp "github.com/fwojciec/lectern/http"
	"github.com/fwojciec/lectern/lru"
	"github.com/fwojciec/lectern/prometheus"
	"github.com/fwojciec/lectern/readability"
	"github.com/fwojciec/lectern/robotstxt"
	"github.com/fwojciec/lectern/rod"
	lslog "github.com/fwojciec/lectern/slog"
	"github.com/fwojciec/lectern/sqlite"
	"github.com/fwojciec/lectern/trafilatura"
	"github.com/fwojciec/lectern/yaml"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Default paths. Flags and environment variables override them.
	DBPath   string
	CacheDir string

	// SQLite database used by SQLite service implementations.
	DB *sqlite.DB

	// Services for end-to-end testing.
	BookService *sqlite.BookService

	// Fetcher overrides the network transport. Set in tests.
	Fetcher lectern.Fetcher

	closers []io.Closer
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		DBPath:   defaultDBPath(),
		CacheDir: defaultCacheDir(),
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	var errs []error
	for i := len(m.closers) - 1; i >= 0; i-- {
		errs = append(errs, m.closers[i].Close())
	}
	m.closers = nil
	if m.DB != nil {
		errs = append(errs, m.DB.Close())
	}
	return errors.Join(errs...)
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("lectern"),
		kong.Description("Read web novels offline."),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'lectern --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if cli.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
	deps.Logger = logger

	cfg, err := m.loadConfig(cli)
	if err != nil {
		fmt.Fprintln(stderr, "Hint: Set LECTERN_CONFIG to use a different config file")
		return fmt.Errorf("failed to load config: %w", err)
	}
	deps.Config = cfg

	dbPath := m.DBPath
	if cli.DB != "" {
		dbPath = cli.DB
	}
	if dir := filepath.Dir(dbPath); dir != "" {
		_ = os.MkdirAll(dir, 0755)
	}
	m.DB = sqlite.NewDB(dbPath)
	if err := m.DB.Open(); err != nil {
		fmt.Fprintf(stderr, "Hint: Set LECTERN_DB to use a different database path\n")
		return fmt.Errorf("failed to open database at %q: %w", dbPath, err)
	}
	defer m.Close()

	m.BookService = sqlite.NewBookService(m.DB)
	deps.Books = m.BookService

	if cfg.CacheEnabled {
		// The memory layer sits directly on disk so it can see entry ages.
		var cache lectern.ChapterCache = fs.NewChapterCacheFromConfig(*cfg)
		if cfg.MemoryCacheEntries > 0 {
			cache = lru.NewChapterCache(cache, cfg.MemoryCacheEntries, cfg.MaxCacheAge())
		}
		deps.Cache = lslog.NewLoggingChapterCache(cache, logger)
	}

	if needsNetwork(kongCtx.Command()) {
		monitor := prometheus.NewMonitor()
		deps.Monitor = monitor

		if cli.MetricsAddr != "" {
			shutdown := serveMetrics(cli.MetricsAddr, monitor.Handler(), logger)
			defer shutdown()
		}

		reader, err := m.newReader(cli, cfg, deps.Cache, monitor, logger)
		if err != nil {
			if cli.Render {
				fmt.Fprintln(stderr, "Hint: Chrome or Chromium must be installed for --render")
			}
			return err
		}
		deps.Reader = reader
	}

	deps.NewExport = func(dir, name string) (lectern.BookExport, error) {
		return fs.NewExporter(dir, name)
	}

	return kongCtx.Run(deps)
}

// loadConfig layers defaults, the config file and flag overrides.
func (m *Main) loadConfig(cli *CLI) (*lectern.Config, error) {
	base := lectern.DefaultConfig()
	base.CacheDir = m.CacheDir

	cfg, err := yaml.LoadConfig(cli.Config, base)
	if err != nil {
		return nil, err
	}
	if cli.CacheDir != "" {
		cfg.CacheDir = cli.CacheDir
	}
	if cli.NoCache {
		cfg.CacheEnabled = false
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newReader wires the fetch, decode and normalize pipeline.
func (m *Main) newReader(cli *CLI, cfg *lectern.Config, cache lectern.ChapterCache, monitor lectern.Monitor, logger *slog.Logger) (*crawl.Reader, error) {
	transport := m.Fetcher
	if transport == nil {
		if cli.Render {
			opts := []rod.Option{rod.WithFetchTimeout(cfg.FetchTimeout())}
			if cfg.UserAgent != "" {
				opts = append(opts, rod.WithUserAgent(cfg.UserAgent))
			}
			opts = append(opts, rod.WithBrowserOptions(rod.WithLogger(logger)))
			f, err := rod.NewFetcher(opts...)
			if err != nil {
				return nil, fmt.Errorf("failed to start browser: %w", err)
			}
			transport = f
		} else {
			var opts []lhttp.Option
			if cfg.UserAgent != "" {
				opts = append(opts, lhttp.WithUserAgent(cfg.UserAgent))
			}
			transport = lhttp.NewFetcher(opts...)
		}
	}
	m.closers = append(m.closers, transport)

	retrier := crawl.NewRetrier(lslog.NewLoggingFetcher(transport, logger))
	retrier.Pool = crawl.NewPool(cfg.FetchConcurrency)
	retrier.Limiter = crawl.NewDomainLimiter(cfg.RequestsPerSecond)
	retrier.Monitor = monitor
	retrier.Policy = crawl.RetryPolicyFromConfig(*cfg)
	retrier.Timeout = cfg.FetchTimeout()
	retrier.Logger = logger

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "lectern"
	}
	robots := robotstxt.NewPolicy(retrier, userAgent,
		robotstxt.WithEnabled(cfg.RespectRobots),
		robotstxt.WithTTL(cfg.RobotsCacheTTL()),
	)

	locator := goquery.NewLocator(readability.NewLocator(), trafilatura.NewLocator())

	return &crawl.Reader{
		Fetcher:     retrier,
		Decoder:     charset.NewResolver(locator, cfg.GarbageWeights),
		Parser:      goquery.NewParser(),
		Normalizer:  lectern.NewNormalizer(bluemonday.NewSanitizer()),
		Cache:       cache,
		Robots:      robots,
		CPU:         crawl.NewCPUPool(),
		Logger:      logger,
		Concurrency: cfg.FetchConcurrency,
	}, nil
}

// needsNetwork reports whether a command fetches pages.
func needsNetwork(command string) bool {
	switch commandName(command) {
	case "add", "read", "prefetch", "export", "refresh":
		return true
	}
	return false
}

// commandName returns the first word of a kong command path such as
// "read <id>".
func commandName(command string) string {
	for i, r := range command {
		if r == ' ' {
			return command[:i]
		}
	}
	return command
}

// serveMetrics exposes handler on addr until the returned func is called.
func serveMetrics(addr string, handler http.Handler, logger *slog.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "err", err)
		}
	}()
	logger.Info("metrics server enabled", "addr", addr)
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("metrics server shutdown failed", "err", err)
		}
	}
}

func defaultDBPath() string {
	if path := os.Getenv("LECTERN_DB"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "lectern.db"
	}
	return filepath.Join(home, ".lectern", "lectern.db")
}

func defaultCacheDir() string {
	if dir := os.Getenv("LECTERN_CACHE"); dir != "" {
		return dir
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "lectern")
	}
	return filepath.Join(dir, "lectern", "chapters")
}
