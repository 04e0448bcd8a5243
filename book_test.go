package lectern_test

import (
	"errors"
	"testing"

	"github.com/fwojciec/lectern"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBook_Validate(t *testing.T) {
	t.Parallel()

	t.Run("accepts book with unique chapters", func(t *testing.T) {
		t.Parallel()

		book := &lectern.Book{
			URL: "https://example.com/book/1/",
			Chapters: []lectern.ChapterRef{
				{Title: "第一章", URL: "https://example.com/book/1/1.html"},
				{Title: "第二章", URL: "https://example.com/book/1/2.html"},
			},
		}
		require.NoError(t, book.Validate())
	})

	t.Run("requires URL", func(t *testing.T) {
		t.Parallel()

		err := (&lectern.Book{}).Validate()
		assert.Equal(t, lectern.EINVALID, lectern.ErrorCode(err))
	})

	t.Run("rejects duplicate chapter URLs", func(t *testing.T) {
		t.Parallel()

		book := &lectern.Book{
			URL: "https://example.com/book/1/",
			Chapters: []lectern.ChapterRef{
				{Title: "第一章", URL: "https://example.com/book/1/1.html"},
				{Title: "第一章（重复）", URL: "https://example.com/book/1/1.html"},
			},
		}
		err := book.Validate()
		assert.Equal(t, lectern.EINVALID, lectern.ErrorCode(err))
	})

	t.Run("rejects negative read position", func(t *testing.T) {
		t.Parallel()

		book := &lectern.Book{URL: "https://example.com/b", LastReadPosition: -1}
		assert.Equal(t, lectern.EINVALID, lectern.ErrorCode(book.Validate()))
	})
}

func TestDedupeChapters(t *testing.T) {
	t.Parallel()

	t.Run("keeps first occurrence in discovery order", func(t *testing.T) {
		t.Parallel()

		refs := []lectern.ChapterRef{
			{Title: "c", URL: "/3"},
			{Title: "a", URL: "/1"},
			{Title: "c again", URL: "/3"},
			{Title: "b", URL: "/2"},
		}

		got := lectern.DedupeChapters(refs)

		assert.Equal(t, []lectern.ChapterRef{
			{Title: "c", URL: "/3"},
			{Title: "a", URL: "/1"},
			{Title: "b", URL: "/2"},
		}, got)
	})

	t.Run("returns nil for empty input", func(t *testing.T) {
		t.Parallel()

		assert.Nil(t, lectern.DedupeChapters(nil))
	})
}

func TestPlaceholder(t *testing.T) {
	t.Parallel()

	ref := lectern.ChapterRef{Title: "第十章 风起", URL: "https://example.com/10.html"}

	t.Run("explains network failures", func(t *testing.T) {
		t.Parallel()

		text := lectern.Placeholder(ref, &lectern.NetworkError{Kind: lectern.KindDNS})
		assert.Contains(t, text, "第十章 风起")
		assert.Contains(t, text, "network is unavailable")
	})

	t.Run("explains parse failures", func(t *testing.T) {
		t.Parallel()

		text := lectern.Placeholder(ref, lectern.Errorf(lectern.EPARSE, "no block"))
		assert.Contains(t, text, "no readable content")
	})

	t.Run("falls back to URL without title", func(t *testing.T) {
		t.Parallel()

		text := lectern.Placeholder(lectern.ChapterRef{URL: "https://example.com/x"}, errors.New("boom"))
		assert.Contains(t, text, "https://example.com/x")
	})
}
