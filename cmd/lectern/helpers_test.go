package main_test

import (
	"bytes"
	"context"
	"net/http"
	"sync"

	"github.com/fwojciec/lectern"
	"github.com/fwojciec/lectern/charset"
	main "github.com/fwojciec/lectern/cmd/lectern"
	"github.com/fwojciec/lectern/crawl"
	"github.com/fwojciec/lectern/goquery"
	"github.com/fwojciec/lectern/mock"
)

const (
	bookURL     = "https://novel.example/book/1/"
	chapter1URL = "https://novel.example/book/1/1.html"
	chapter2URL = "https://novel.example/book/1/2.html"
)

const landingPage = `<html><head><title>山门_笔趣阁</title>
<meta property="og:novel:book_name" content="山门">
<meta property="og:novel:author" content="青松">
</head><body>
<div class="nav"><a href="/">首页</a> <a href="/login">登录</a></div>
<div id="list">
<a href="/book/1/1.html">第一章 风起</a>
<a href="/book/1/2.html">第二章 云涌</a>
</div>
</body></html>`

const chapter1Page = `<html><head><title>第一章 风起</title></head><body>
<div class="nav"><a href="/">首页</a> <a href="/book/1/">返回书页</a></div>
<h1>第一章 风起</h1>
<div id="content">第一章 风起<br/><br/>天色渐暗，少年站在山门前。<br/><br/>“你来了。”老者说道。<br/>“我来了。”<br/>山风吹过，松涛阵阵。</div>
</body></html>`

const chapter2Page = `<html><head><title>第二章 云涌</title></head><body>
<h1>第二章 云涌</h1>
<div id="content">云海翻腾，群峰若隐若现。<br/><br/>少年沿着石阶一步步向上走去，身后的山门渐渐隐没在雾中。</div>
</body></html>`

// site serves fixed pages by URL and counts requests.
type site struct {
	mu    sync.Mutex
	pages map[string]string
	hits  map[string]int
}

func newSite() *site {
	return &site{
		pages: map[string]string{
			bookURL:     landingPage,
			chapter1URL: chapter1Page,
			chapter2URL: chapter2Page,
		},
		hits: map[string]int{},
	}
}

func (s *site) fetcher() *mock.Fetcher {
	return &mock.Fetcher{
		FetchFn: func(_ context.Context, url string, _ http.Header) (*lectern.FetchResult, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.hits[url]++
			page, ok := s.pages[url]
			if !ok {
				return nil, &lectern.NetworkError{URL: url, Kind: lectern.KindStatus, StatusCode: http.StatusNotFound}
			}
			return &lectern.FetchResult{URL: url, ContentType: "text/html; charset=utf-8", Body: []byte(page)}, nil
		},
		CloseFn: func() error { return nil },
	}
}

func (s *site) hitsFor(url string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[url]
}

// newReader builds the real extraction pipeline over fetcher.
func newReader(fetcher lectern.Fetcher, cache lectern.ChapterCache) *crawl.Reader {
	return &crawl.Reader{
		Fetcher:    fetcher,
		Decoder:    charset.NewResolver(goquery.NewLocator(), lectern.DefaultGarbageWeights()),
		Parser:     goquery.NewParser(),
		Normalizer: lectern.NewNormalizer(nil),
		Cache:      cache,
	}
}

// memBooks is an in-memory BookService for command tests.
func memBooks(books ...*lectern.Book) *mock.BookService {
	var mu sync.Mutex
	byID := map[string]*lectern.Book{}
	for _, b := range books {
		byID[b.ID] = b
	}
	return &mock.BookService{
		CreateBookFn: func(_ context.Context, b *lectern.Book) error {
			mu.Lock()
			defer mu.Unlock()
			b.ID = "book-new"
			byID[b.ID] = b
			return nil
		},
		FindBookByIDFn: func(_ context.Context, id string) (*lectern.Book, error) {
			mu.Lock()
			defer mu.Unlock()
			b, ok := byID[id]
			if !ok {
				return nil, lectern.Errorf(lectern.ENOTFOUND, "book not found")
			}
			cp := *b
			return &cp, nil
		},
		FindBooksFn: func(_ context.Context, f lectern.BookFilter) ([]*lectern.Book, error) {
			mu.Lock()
			defer mu.Unlock()
			var out []*lectern.Book
			for _, b := range byID {
				if f.URL != nil && b.URL != *f.URL {
					continue
				}
				out = append(out, b)
			}
			return out, nil
		},
		UpdateBookFn: func(_ context.Context, id string, upd lectern.BookUpdate) (*lectern.Book, error) {
			mu.Lock()
			defer mu.Unlock()
			b, ok := byID[id]
			if !ok {
				return nil, lectern.Errorf(lectern.ENOTFOUND, "book not found")
			}
			if upd.Title != nil {
				b.Title = *upd.Title
			}
			if upd.Author != nil {
				b.Author = *upd.Author
			}
			if upd.LastReadPosition != nil {
				b.LastReadPosition = *upd.LastReadPosition
			}
			if upd.Chapters != nil {
				b.Chapters = *upd.Chapters
			}
			cp := *b
			return &cp, nil
		},
		DeleteBookFn: func(_ context.Context, id string) error {
			mu.Lock()
			defer mu.Unlock()
			if _, ok := byID[id]; !ok {
				return lectern.Errorf(lectern.ENOTFOUND, "book not found")
			}
			delete(byID, id)
			return nil
		},
	}
}

func savedBook() *lectern.Book {
	return &lectern.Book{
		ID:     "book-1",
		Title:  "山门",
		Author: "青松",
		URL:    bookURL,
		Chapters: []lectern.ChapterRef{
			{Title: "第一章 风起", URL: chapter1URL},
			{Title: "第二章 云涌", URL: chapter2URL},
		},
	}
}

func newDeps(books lectern.BookService) (*main.Dependencies, *bytes.Buffer, *bytes.Buffer) {
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	return &main.Dependencies{
		Ctx:    context.Background(),
		Stdout: stdout,
		Stderr: stderr,
		Books:  books,
	}, stdout, stderr
}
