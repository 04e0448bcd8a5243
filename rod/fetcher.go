// Package rod renders script-built chapter pages in headless Chrome.
package rod

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/fwojciec/lectern"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// Ensure Fetcher implements lectern.Fetcher at compile time.
var _ lectern.Fetcher = (*Fetcher)(nil)

// DefaultFetchTimeout bounds one page render when the caller's context has
// no earlier deadline.
const DefaultFetchTimeout = 30 * time.Second

// renderedContentType labels page.HTML output, which Chrome always
// serializes as UTF-8.
const renderedContentType = "text/html; charset=utf-8"

// Fetcher retrieves rendered HTML from URLs using Chrome browser automation.
// Fetcher is safe for concurrent use by multiple goroutines.
type Fetcher struct {
	manager   *BrowserManager
	timeout   time.Duration
	userAgent string
	closed    atomic.Bool
}

// Option configures a Fetcher.
type Option func(*fetcherConfig)

type fetcherConfig struct {
	timeout   time.Duration
	userAgent string
	manager   []ManagerOption
}

// WithFetchTimeout sets the per-page render timeout.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *fetcherConfig) { c.timeout = d }
}

// WithUserAgent overrides the browser's User-Agent.
func WithUserAgent(ua string) Option {
	return func(c *fetcherConfig) { c.userAgent = ua }
}

// WithBrowserOptions passes options to the underlying BrowserManager.
func WithBrowserOptions(opts ...ManagerOption) Option {
	return func(c *fetcherConfig) { c.manager = append(c.manager, opts...) }
}

// NewFetcher creates a new Fetcher that launches a headless Chrome browser.
// Close must be called when the Fetcher is no longer needed.
//
// Returns an error if Chrome/Chromium cannot be found or launched.
func NewFetcher(opts ...Option) (*Fetcher, error) {
	cfg := fetcherConfig{timeout: DefaultFetchTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}

	manager, err := NewBrowserManager(cfg.manager...)
	if err != nil {
		return nil, err
	}
	return &Fetcher{
		manager:   manager,
		timeout:   cfg.timeout,
		userAgent: cfg.userAgent,
	}, nil
}

// Fetch navigates to the URL and returns the rendered HTML. Header values
// are sent as extra request headers. Chrome does not expose the document's
// status code here, so HTTP errors surface only as rendered error pages.
func (f *Fetcher) Fetch(ctx context.Context, url string, header http.Header) (*lectern.FetchResult, error) {
	if f.closed.Load() {
		return nil, lectern.Errorf(lectern.EINVALID, "fetcher closed")
	}
	if err := ctx.Err(); err != nil {
		return nil, &lectern.NetworkError{URL: url, Kind: lectern.KindCanceled, Err: err}
	}

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	browser, err := f.manager.Browser()
	if err != nil {
		return nil, err
	}
	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, &lectern.NetworkError{URL: url, Kind: lectern.KindOther, Err: err}
	}
	defer page.Close()
	defer f.manager.IncrementPageCount()

	page = page.Context(ctx)

	if f.userAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: f.userAgent}); err != nil {
			return nil, f.classify(ctx, url, err)
		}
	}
	if len(header) > 0 {
		cleanup, err := page.SetExtraHeaders(headerDict(header))
		if err != nil {
			return nil, f.classify(ctx, url, err)
		}
		defer cleanup()
	}

	if err := page.Navigate(url); err != nil {
		return nil, f.classify(ctx, url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, f.classify(ctx, url, err)
	}

	html, err := page.HTML()
	if err != nil {
		return nil, f.classify(ctx, url, err)
	}

	final := url
	if info, err := page.Info(); err == nil && info.URL != "" {
		final = info.URL
	}
	return &lectern.FetchResult{
		URL:         final,
		ContentType: renderedContentType,
		Body:        []byte(html),
	}, nil
}

// classify maps a rod error to a NetworkError. Context errors take
// precedence over whatever the browser reported.
func (f *Fetcher) classify(ctx context.Context, url string, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		return &lectern.NetworkError{URL: url, Kind: lectern.KindTimeout, Err: context.DeadlineExceeded}
	case errors.Is(ctx.Err(), context.Canceled), errors.Is(err, context.Canceled):
		return &lectern.NetworkError{URL: url, Kind: lectern.KindCanceled, Err: context.Canceled}
	}
	var navErr *rod.NavigationError
	if errors.As(err, &navErr) {
		return &lectern.NetworkError{URL: url, Kind: lectern.KindConnection, Err: err}
	}
	return &lectern.NetworkError{URL: url, Kind: lectern.KindOther, Err: err}
}

// headerDict flattens header into the key, value list SetExtraHeaders takes.
func headerDict(header http.Header) []string {
	dict := make([]string, 0, 2*len(header))
	for k, vs := range header {
		for _, v := range vs {
			dict = append(dict, k, v)
		}
	}
	return dict
}

// Close releases browser resources. Close is safe to call multiple times.
func (f *Fetcher) Close() error {
	if !f.closed.CompareAndSwap(false, true) {
		return nil
	}
	return f.manager.Close()
}

// LauncherPID returns the process ID of the browser launcher.
func (f *Fetcher) LauncherPID() int {
	return f.manager.LauncherPID()
}
