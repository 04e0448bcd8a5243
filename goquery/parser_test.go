package goquery_test

import (
	"testing"

	"github.com/fwojciec/lectern"
	"github.com/fwojciec/lectern/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParser_ParseSummary(t *testing.T) {
	t.Parallel()

	t.Run("prefers open graph novel metadata", func(t *testing.T) {
		t.Parallel()

		html := `<html><head>
<meta property="og:novel:book_name" content="风起长安">
<meta property="og:novel:author" content="张三">
<title>风起长安最新章节_笔趣阁</title>
</head><body><h1>风起长安</h1></body></html>`

		s := goquery.NewParser().ParseSummary(html)

		assert.Equal(t, lectern.BookSummary{Title: "风起长安", Author: "张三"}, s)
	})

	t.Run("falls back to heading and author label", func(t *testing.T) {
		t.Parallel()

		html := `<html><head><title>ignored</title></head>
<body><h1>风起长安</h1><p>作者：李四 更新时间：2024-01-01</p></body></html>`

		s := goquery.NewParser().ParseSummary(html)

		assert.Equal(t, "风起长安", s.Title)
		assert.Equal(t, "李四", s.Author)
	})

	t.Run("trims site name from document title", func(t *testing.T) {
		t.Parallel()

		html := `<html><head><title>The Long Road - Example Novels</title></head>
<body><p>Author: Jane Roe</p></body></html>`

		s := goquery.NewParser().ParseSummary(html)

		assert.Equal(t, "The Long Road", s.Title)
		assert.Equal(t, "Jane Roe", s.Author)
	})

	t.Run("returns empty fields when nothing matches", func(t *testing.T) {
		t.Parallel()

		s := goquery.NewParser().ParseSummary(`<html><body><p>hello</p></body></html>`)

		assert.Empty(t, s.Title)
		assert.Empty(t, s.Author)
	})
}

func TestParser_ParseChapters(t *testing.T) {
	t.Parallel()

	t.Run("classifies anchors in page order", func(t *testing.T) {
		t.Parallel()

		// Given a landing page with navigation and chapter links
		html := `<html><body>
<a href="/">首页</a>
<a href="/login">登录</a>
<a href="1.html">第一章 开始</a>
<a href="2.html">第二章 风起</a>
<a href="1.html#top">第一章 开始</a>
<a href="javascript:;">第三章 未完</a>
</body></html>`

		// When parsing chapters
		refs, err := goquery.NewParser().ParseChapters(html, "https://example.com/book/1/")

		// Then navigation and duplicates are dropped and order is kept
		require.NoError(t, err)
		assert.Equal(t, []lectern.ChapterRef{
			{Title: "第一章 开始", URL: "https://example.com/book/1/1.html"},
			{Title: "第二章 风起", URL: "https://example.com/book/1/2.html"},
		}, refs)
	})

	t.Run("prefers chapter list container", func(t *testing.T) {
		t.Parallel()

		// Given a latest-chapters teaser above the full list
		html := `<html><body>
<div class="latest"><a href="9.html">第九章 终</a></div>
<div id="list">
  <a href="1.html">第一章 开始</a>
  <a href="2.html">第二章 风起</a>
</div>
</body></html>`

		refs, err := goquery.NewParser().ParseChapters(html, "https://example.com/book/1/")

		require.NoError(t, err)
		require.Len(t, refs, 2)
		assert.Equal(t, "https://example.com/book/1/1.html", refs[0].URL)
		assert.Equal(t, "https://example.com/book/1/2.html", refs[1].URL)
	})

	t.Run("uses title attribute for empty labels", func(t *testing.T) {
		t.Parallel()

		html := `<a href="/novel/7/chapter-3" title="Chapter 3"><img src="x.png"></a>`

		refs, err := goquery.NewParser().ParseChapters(html, "https://example.com/novel/7/")

		require.NoError(t, err)
		require.Len(t, refs, 1)
		assert.Equal(t, "Chapter 3", refs[0].Title)
	})

	t.Run("returns empty list without chapters", func(t *testing.T) {
		t.Parallel()

		refs, err := goquery.NewParser().ParseChapters(`<a href="/about">About us</a>`, "https://example.com/")

		require.NoError(t, err)
		assert.Empty(t, refs)
	})

	t.Run("rejects invalid base URL", func(t *testing.T) {
		t.Parallel()

		_, err := goquery.NewParser().ParseChapters("<html></html>", "://bad")

		assert.Equal(t, lectern.EINVALID, lectern.ErrorCode(err))
	})
}

func TestParser_ParseTOCLinks(t *testing.T) {
	t.Parallel()

	html := `<html><body>
<a href="/">首页</a>
<a href="/book/1/">目录</a>
<a href="/book/1/all.html">查看全部章节</a>
<a href="/book/1/">章节目录</a>
</body></html>`

	links, err := goquery.NewParser().ParseTOCLinks(html, "https://example.com/book/1")

	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://example.com/book/1/",
		"https://example.com/book/1/all.html",
	}, links)
}
