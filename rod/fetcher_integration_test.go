//go:build integration

package rod_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fwojciec/lectern"
	"github.com/fwojciec/lectern/charset"
	"github.com/fwojciec/lectern/crawl"
	"github.com/fwojciec/lectern/goquery"
	"github.com/fwojciec/lectern/rod"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetcher_Integration_ReaderOnScriptBuiltChapter(t *testing.T) {
	t.Parallel()

	// Given: a chapter whose paragraphs are appended by script
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<!DOCTYPE html>
<html><head><title>第一章 山门</title></head>
<body>
<div class="nav"><a href="/">首页</a></div>
<div id="content"></div>
<script>
var lines = ['天色渐暗，少年站在山门前。', '“你来了。”老者说道。', '山风吹过，松涛阵阵。'];
var box = document.getElementById('content');
lines.forEach(function (l) { var p = document.createElement('p'); p.textContent = l; box.appendChild(p); });
</script>
</body></html>`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	fetcher, err := rod.NewFetcher()
	require.NoError(t, err)
	defer fetcher.Close()

	reader := &crawl.Reader{
		Fetcher:    fetcher,
		Decoder:    charset.NewResolver(goquery.NewLocator(), lectern.DefaultGarbageWeights()),
		Normalizer: lectern.NewNormalizer(nil),
	}

	// When: reading the chapter through the browser
	ch, err := reader.ReadChapter(ctx, "book", lectern.ChapterRef{URL: srv.URL, Title: "第一章 山门"})

	// Then: the rendered paragraphs are extracted and normalized
	require.NoError(t, err)
	assert.Equal(t, lectern.OriginNetwork, ch.Origin)
	assert.Contains(t, ch.Text, "天色渐暗，少年站在山门前。")
	assert.Contains(t, ch.Text, "山风吹过，松涛阵阵。")
	assert.NotContains(t, ch.Text, "首页")
}
