package lectern

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// FetchResult holds the raw response of a successful fetch.
type FetchResult struct {
	// URL is the final URL after redirects.
	URL string

	// ContentType is the response Content-Type header, used as a charset hint.
	ContentType string

	// Body is the undecoded response body.
	Body []byte
}

// Fetcher retrieves raw page bytes from URLs.
type Fetcher interface {
	// Fetch performs a GET request. Header values override the
	// implementation's defaults. Non-2xx responses are errors.
	// The context controls timeout and cancellation.
	Fetch(ctx context.Context, url string, header http.Header) (*FetchResult, error)

	// Close releases transport resources.
	Close() error
}

// DomainLimiter provides per-domain rate limiting.
type DomainLimiter interface {
	// Wait blocks until the rate limit allows a request to the domain.
	// Returns an error if the context is canceled.
	Wait(ctx context.Context, domain string) error
}

// NetworkErrorKind classifies a failed fetch.
type NetworkErrorKind string

// Network error kinds. Timeout, connection, DNS and transient failures
// are retryable; status errors depend on the status code.
const (
	KindTimeout    NetworkErrorKind = "timeout"
	KindConnection NetworkErrorKind = "connection"
	KindDNS        NetworkErrorKind = "dns"
	KindTransient  NetworkErrorKind = "transient"
	KindStatus     NetworkErrorKind = "status"
	KindCanceled   NetworkErrorKind = "canceled"
	KindOther      NetworkErrorKind = "other"
)

// NetworkError is returned by fetchers when a request fails.
type NetworkError struct {
	URL        string
	Kind       NetworkErrorKind
	StatusCode int
	Attempts   int
	Err        error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	msg := fmt.Sprintf("fetch %s: %s", e.URL, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.Attempts > 1 {
		msg += fmt.Sprintf(" after %d attempts", e.Attempts)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Retryable reports whether another attempt may succeed.
func (e *NetworkError) Retryable() bool {
	switch e.Kind {
	case KindTimeout, KindConnection, KindDNS, KindTransient:
		return true
	case KindStatus:
		return RetryableStatus(e.StatusCode)
	default:
		return false
	}
}

// RetryableStatus reports whether an HTTP status indicates a transient failure.
func RetryableStatus(code int) bool {
	switch code {
	case http.StatusRequestTimeout, http.StatusTooEarly, http.StatusTooManyRequests:
		return true
	}
	return code >= 500 && code <= 599
}

// IsRetryable reports whether err is a NetworkError worth retrying.
func IsRetryable(err error) bool {
	var ne *NetworkError
	if errors.As(err, &ne) {
		return ne.Retryable()
	}
	return false
}

// RobotsPolicy decides whether a URL may be fetched under the site's
// robots.txt rules.
type RobotsPolicy interface {
	Allowed(ctx context.Context, rawURL string) bool
}
