package bloom_test

import (
	"fmt"
	"testing"

	"github.com/fwojciec/lectern/bloom"
	"github.com/stretchr/testify/assert"
)

func TestFilter_AddAndTest(t *testing.T) {
	t.Parallel()

	f := bloom.NewFilter(256, 0.001)

	assert.False(t, f.Test("https://novel.example/book/1/"))

	f.Add("https://novel.example/book/1/")

	assert.True(t, f.Test("https://novel.example/book/1/"))
	assert.False(t, f.Test("https://novel.example/book/1/index.html"))
}

func TestFilter_TestAndAdd(t *testing.T) {
	t.Parallel()

	f := bloom.NewFilter(256, 0.001)
	toc := "https://novel.example/book/1/catalog"

	// Given a contents page that has not been visited
	// When it is visited for the first time
	// Then it is reported as new and recorded
	assert.False(t, f.TestAndAdd(toc))
	assert.True(t, f.Test(toc))

	// When the same page is linked again
	// Then it is reported as already visited
	assert.True(t, f.TestAndAdd(toc))
}

func TestFilter_IgnoresFragments(t *testing.T) {
	t.Parallel()

	f := bloom.NewFilter(256, 0.001)
	f.Add("https://novel.example/book/1/catalog#top")

	assert.True(t, f.Test("https://novel.example/book/1/catalog"))
	assert.True(t, f.TestAndAdd(" https://novel.example/book/1/catalog#list"))
	assert.False(t, f.Test("https://novel.example/book/1/catalog?page=2"))
}

func TestFilter_EstimatedCount(t *testing.T) {
	t.Parallel()

	f := bloom.NewFilter(256, 0.001)
	assert.Equal(t, uint(0), f.EstimatedCount())

	for i := range 3 {
		f.Add(fmt.Sprintf("https://novel.example/book/1/toc_%d.html", i))
	}
	f.Add("https://novel.example/book/1/toc_0.html")

	count := f.EstimatedCount()
	assert.True(t, count >= 2 && count <= 4, "expected count near 3, got %d", count)
}

func TestFilter_NoFalsePositives(t *testing.T) {
	t.Parallel()

	// Given a Bloom layer far too small for what it holds
	f := bloom.NewFilter(1, 0.5)
	for i := range 1000 {
		f.Add(fmt.Sprintf("https://novel.example/visited/%d", i))
	}

	// Then pages never recorded are still reported as new
	for i := range 1000 {
		url := fmt.Sprintf("https://novel.example/fresh/%d", i)
		assert.False(t, f.Test(url), url)
		assert.False(t, f.TestAndAdd(url), url)
	}
	assert.Equal(t, 2000, f.Len())
}
