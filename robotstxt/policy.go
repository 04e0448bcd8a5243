// Package robotstxt decides whether URLs may be fetched under each site's
// robots.txt rules.
package robotstxt

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/fwojciec/lectern"
	"github.com/temoto/robotstxt"
)

// Ensure Policy implements lectern.RobotsPolicy at compile time.
var _ lectern.RobotsPolicy = (*Policy)(nil)

// DefaultTTL is how long rules are cached per host.
const DefaultTTL = 30 * time.Minute

// failureTTL is how long a host whose robots.txt could not be fetched is
// treated as allowing everything before the next attempt.
const failureTTL = time.Minute

// Policy evaluates robots.txt rules, fetching them once per host and
// caching them for a TTL. Errors fail open.
type Policy struct {
	fetcher   lectern.Fetcher
	userAgent string
	ttl       time.Duration
	enabled   bool
	now       func() time.Time

	mu    sync.Mutex
	cache map[string]cacheEntry
}

type cacheEntry struct {
	expires time.Time
	rules   *robotstxt.RobotsData
}

// Option configures a Policy.
type Option func(*Policy)

// WithTTL sets how long rules are cached per host.
func WithTTL(d time.Duration) Option {
	return func(p *Policy) {
		if d > 0 {
			p.ttl = d
		}
	}
}

// WithEnabled turns rule checking on or off. A disabled policy allows
// everything.
func WithEnabled(enabled bool) Option {
	return func(p *Policy) {
		p.enabled = enabled
	}
}

// WithClock replaces the clock used for cache expiry.
func WithClock(now func() time.Time) Option {
	return func(p *Policy) {
		p.now = now
	}
}

// NewPolicy creates a Policy that fetches robots.txt with fetcher and
// matches rules for userAgent.
func NewPolicy(fetcher lectern.Fetcher, userAgent string, opts ...Option) *Policy {
	p := &Policy{
		fetcher:   fetcher,
		userAgent: userAgent,
		ttl:       DefaultTTL,
		enabled:   true,
		now:       time.Now,
		cache:     make(map[string]cacheEntry),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Allowed reports whether rawURL may be fetched. The group for the
// configured user agent is used, falling back to the "*" group.
func (p *Policy) Allowed(ctx context.Context, rawURL string) bool {
	if !p.enabled {
		return true
	}
	u, err := url.Parse(rawURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return true
	}

	rules := p.rules(ctx, u)
	if rules == nil {
		return true
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return rules.FindGroup(p.userAgent).Test(path)
}

// Purge drops the cached rules for a host.
func (p *Policy) Purge(host string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.cache, strings.ToLower(host))
}

func (p *Policy) rules(ctx context.Context, u *url.URL) *robotstxt.RobotsData {
	host := strings.ToLower(u.Host)

	p.mu.Lock()
	entry, ok := p.cache[host]
	p.mu.Unlock()
	if ok && p.now().Before(entry.expires) {
		return entry.rules
	}

	rules, err := p.fetch(ctx, u.Scheme+"://"+u.Host+"/robots.txt")
	ttl := p.ttl
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		rules, ttl = nil, failureTTL
	}

	p.mu.Lock()
	p.cache[host] = cacheEntry{expires: p.now().Add(ttl), rules: rules}
	p.mu.Unlock()
	return rules
}

func (p *Policy) fetch(ctx context.Context, robotsURL string) (*robotstxt.RobotsData, error) {
	res, err := p.fetcher.Fetch(ctx, robotsURL, nil)
	if err != nil {
		var ne *lectern.NetworkError
		if errors.As(err, &ne) && ne.Kind == lectern.KindStatus && ne.StatusCode >= 400 && ne.StatusCode < 500 {
			// No robots.txt: everything is allowed.
			return robotstxt.FromStatusAndBytes(ne.StatusCode, nil)
		}
		return nil, err
	}
	return robotstxt.FromStatusAndBytes(200, res.Body)
}
