package crawl

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"math/rand/v2"
	"net/http"
	"net/url"
	"time"

	"github.com/fwojciec/lectern"
)

// RetryPolicy computes the delay between fetch attempts.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int

	// BaseDelay is the delay after the first failure. Each further failure
	// doubles it.
	BaseDelay time.Duration

	// MaxDelay caps every delay, jitter included.
	MaxDelay time.Duration

	// JitterMin and JitterMax bound the relative jitter applied in either
	// direction.
	JitterMin float64
	JitterMax float64

	// Rand returns a number in [0, 1). Nil uses math/rand/v2.
	Rand func() float64
}

// DefaultRetryPolicy returns 3 attempts starting at 1s, capped at 30s, with
// 10-30% jitter.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		MaxDelay:    30 * time.Second,
		JitterMin:   0.10,
		JitterMax:   0.30,
	}
}

// RetryPolicyFromConfig builds a policy from configuration.
func RetryPolicyFromConfig(cfg lectern.Config) RetryPolicy {
	p := DefaultRetryPolicy()
	p.MaxAttempts = cfg.MaxRetries
	p.BaseDelay = cfg.RetryBaseDelay()
	if d := cfg.RetryMaxDelay(); d > 0 {
		p.MaxDelay = d
	}
	return p
}

// Backoff returns the delay after the given number of failed attempts
// (starting at 1): min(base*2^(n-1), max), scaled up or down by a random
// jitter, and never above max.
func (p RetryPolicy) Backoff(failures int) time.Duration {
	if failures < 1 || p.BaseDelay <= 0 {
		return 0
	}

	d := float64(p.BaseDelay) * math.Pow(2, float64(failures-1))
	limit := float64(p.MaxDelay)
	if p.MaxDelay > 0 && d > limit {
		d = limit
	}

	rnd := p.Rand
	if rnd == nil {
		rnd = rand.Float64
	}
	u := rnd()
	sign := 1.0
	if u < 0.5 {
		sign = -1
		u *= 2
	} else {
		u = (u - 0.5) * 2
	}
	jitter := p.JitterMin + u*(p.JitterMax-p.JitterMin)
	d *= 1 + sign*jitter

	if p.MaxDelay > 0 && d > limit {
		d = limit
	}
	if d < 0 {
		d = 0
	}
	return time.Duration(d)
}

// Ensure Retrier implements lectern.Fetcher at compile time.
var _ lectern.Fetcher = (*Retrier)(nil)

// Retrier wraps a Fetcher with bounded concurrency, per-host rate limiting,
// a hard per-attempt timeout and retry with exponential backoff. Only
// retryable network errors are retried.
type Retrier struct {
	Fetcher lectern.Fetcher
	Pool    *Pool
	Limiter lectern.DomainLimiter
	Monitor lectern.Monitor
	Policy  RetryPolicy

	// Timeout bounds each attempt. The attempt's context is cancelled when
	// it expires. Zero disables the per-attempt timeout.
	Timeout time.Duration

	Logger *slog.Logger
}

// NewRetrier creates a Retrier with the default policy and a network pool
// sized for the host.
func NewRetrier(fetcher lectern.Fetcher) *Retrier {
	return &Retrier{
		Fetcher: fetcher,
		Pool:    NewPool(0),
		Policy:  DefaultRetryPolicy(),
		Timeout: 15 * time.Second,
	}
}

// Fetch retrieves rawURL, retrying retryable failures. After the attempts
// are exhausted the last error is returned as a *lectern.NetworkError with
// Attempts set.
func (r *Retrier) Fetch(ctx context.Context, rawURL string, header http.Header) (*lectern.FetchResult, error) {
	host := hostOf(rawURL)
	maxAttempts := r.Policy.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	attempt := 1
	for ; ; attempt++ {
		res, err := r.attempt(ctx, host, rawURL, header)
		if err == nil {
			return res, nil
		}
		lastErr = err

		if attempt >= maxAttempts || ctx.Err() != nil || !lectern.IsRetryable(err) {
			break
		}

		delay := r.Policy.Backoff(attempt)
		r.logger().Debug("retry", "url", rawURL, "attempt", attempt+1, "delay", delay, "err", err)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, &lectern.NetworkError{URL: rawURL, Kind: lectern.KindCanceled, Attempts: attempt, Err: ctx.Err()}
		case <-timer.C:
		}
	}

	var ne *lectern.NetworkError
	if errors.As(lastErr, &ne) {
		out := *ne
		out.Attempts = attempt
		return nil, &out
	}
	return nil, lastErr
}

func (r *Retrier) attempt(ctx context.Context, host, rawURL string, header http.Header) (*lectern.FetchResult, error) {
	if r.Pool != nil {
		if err := r.Pool.Acquire(ctx); err != nil {
			return nil, &lectern.NetworkError{URL: rawURL, Kind: lectern.KindCanceled, Err: err}
		}
		defer r.Pool.Release()
	}

	if r.Limiter != nil {
		if err := r.Limiter.Wait(ctx, host); err != nil {
			return nil, &lectern.NetworkError{URL: rawURL, Kind: lectern.KindCanceled, Err: err}
		}
	}

	actx, cancel := ctx, context.CancelFunc(func() {})
	if r.Timeout > 0 {
		actx, cancel = context.WithTimeout(ctx, r.Timeout)
	}
	defer cancel()

	start := time.Now()
	res, err := r.Fetcher.Fetch(actx, rawURL, header)
	latency := time.Since(start)

	if err != nil && ctx.Err() == nil && errors.Is(actx.Err(), context.DeadlineExceeded) {
		err = &lectern.NetworkError{URL: rawURL, Kind: lectern.KindTimeout, Err: err}
	}

	r.observe(host, latency, err)
	return res, err
}

func (r *Retrier) observe(host string, latency time.Duration, err error) {
	if r.Monitor == nil {
		return
	}
	outcome := lectern.OutcomeSuccess
	if err != nil {
		outcome = lectern.OutcomeFailure
		var ne *lectern.NetworkError
		if errors.As(err, &ne) && ne.Kind == lectern.KindTimeout {
			outcome = lectern.OutcomeTimeout
		}
	}
	r.Monitor.Observe(host, latency, outcome)
}

// Close closes the wrapped fetcher.
func (r *Retrier) Close() error {
	return r.Fetcher.Close()
}

func (r *Retrier) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return r.Logger
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
