// Package bloom tracks visited pages with a Bloom filter.
package bloom

import (
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
)

// Filter records page URLs that have already been visited. URLs that differ
// only in their fragment are the same page. The Bloom filter answers most
// lookups; its positives are confirmed against the recorded pages, so a
// page is never reported as visited when it was not.
type Filter struct {
	f     *bloom.BloomFilter
	pages map[string]struct{}
}

// NewFilter creates a filter sized for n expected URLs with the given
// false positive rate for the Bloom layer.
func NewFilter(n uint, fpRate float64) *Filter {
	return &Filter{
		f:     bloom.NewWithEstimates(n, fpRate),
		pages: make(map[string]struct{}, n),
	}
}

// Add records a URL.
func (f *Filter) Add(url string) {
	k := pageKey(url)
	f.f.AddString(k)
	f.pages[k] = struct{}{}
}

// Test reports whether the URL has been recorded.
func (f *Filter) Test(url string) bool {
	return f.test(pageKey(url))
}

// TestAndAdd records a URL and reports whether it had been recorded before.
func (f *Filter) TestAndAdd(url string) bool {
	k := pageKey(url)
	seen := f.test(k)
	if !seen {
		f.f.AddString(k)
		f.pages[k] = struct{}{}
	}
	return seen
}

func (f *Filter) test(k string) bool {
	if !f.f.TestString(k) {
		return false
	}
	_, ok := f.pages[k]
	return ok
}

// EstimatedCount returns the Bloom filter's estimate of recorded pages.
func (f *Filter) EstimatedCount() uint {
	return uint(f.f.ApproximatedSize())
}

// Len returns the exact number of recorded pages.
func (f *Filter) Len() int {
	return len(f.pages)
}

func pageKey(url string) string {
	url = strings.TrimSpace(url)
	if i := strings.IndexByte(url, '#'); i >= 0 {
		url = url[:i]
	}
	return url
}
