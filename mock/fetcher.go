package mock

import (
	"context"
	"net/http"

	"github.com/fwojciec/lectern"
)

var (
	_ lectern.Fetcher       = (*Fetcher)(nil)
	_ lectern.DomainLimiter = (*DomainLimiter)(nil)
	_ lectern.RobotsPolicy  = (*RobotsPolicy)(nil)
)

// Fetcher is a mock implementation of lectern.Fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, url string, header http.Header) (*lectern.FetchResult, error)
	CloseFn func() error
}

func (f *Fetcher) Fetch(ctx context.Context, url string, header http.Header) (*lectern.FetchResult, error) {
	return f.FetchFn(ctx, url, header)
}

func (f *Fetcher) Close() error {
	return f.CloseFn()
}

// DomainLimiter is a mock implementation of lectern.DomainLimiter.
type DomainLimiter struct {
	WaitFn func(ctx context.Context, domain string) error
}

func (l *DomainLimiter) Wait(ctx context.Context, domain string) error {
	return l.WaitFn(ctx, domain)
}

// RobotsPolicy is a mock implementation of lectern.RobotsPolicy.
type RobotsPolicy struct {
	AllowedFn func(ctx context.Context, rawURL string) bool
}

func (p *RobotsPolicy) Allowed(ctx context.Context, rawURL string) bool {
	return p.AllowedFn(ctx, rawURL)
}
