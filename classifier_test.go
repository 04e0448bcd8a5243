package lectern_test

import (
	"strings"
	"testing"

	"github.com/fwojciec/lectern"
	"github.com/stretchr/testify/assert"
)

func TestIsChapter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		href  string
		title string
		want  bool
	}{
		{"localized chapter title with any href", "https://example.com/about", "第十章 风起", true},
		{"localized chapter title with empty href", "", "第十章 风起", true},
		{"login link", "https://example.com/login", "登录", false},
		{"login link with bracketed label", "/user/login.php", "【登录】", false},
		{"navigation wins over chapter URL", "/book/12/345.html", "下一章", false},
		{"numeric book path", "/book/123/456.html", "风起云涌", true},
		{"chapter path segment", "/novel/x/chapter-12", "The Storm", true},
		{"chapter query parameter", "/read.php?cid=1001", "A Quiet Night", true},
		{"english chapter number", "/about", "Chapter 3: The Road", true},
		{"english chapter word", "/about", "Chapter Three", true},
		{"roman volume", "/about", "Volume II", true},
		{"word starting with ch is not a chapter", "/about", "Child", false},
		{"sequential href with prose title", "/story/the-end-0042.html", "Homecoming", true},
		{"no signals", "/story/about.html", "Homecoming", false},
		{"sequential href with numeric title", "/story/0042.html", "12", false},
		{"empty title", "/book/123/456.html", "   ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, lectern.IsChapter(tt.href, tt.title))
		})
	}
}

func TestIsChapterTitle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		title string
		want  bool
	}{
		{"第一章 开始", true},
		{"第 12 回", true},
		{"第三卷 风雪", true},
		{"序章 开端", true},
		{"番外一", true},
		{"Prologue", true},
		{"Epilogue: Home", true},
		{"Ch. 7", true},
		{"Episode 5", true},
		{"1. Beginning", true},
		{"一、初见", true},
		{"首页", false},
		{"他推开门走了进去", false},
		{"Chapter", false},
		{"第一章" + strings.Repeat("长", 60), false},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, lectern.IsChapterTitle(tt.title))
		})
	}
}

func TestIsNavigation(t *testing.T) {
	t.Parallel()

	assert.True(t, lectern.IsNavigation("首页"))
	assert.True(t, lectern.IsNavigation("【下一章】"))
	assert.True(t, lectern.IsNavigation("Next Chapter →"))
	assert.True(t, lectern.IsNavigation("  Sign In "))
	assert.False(t, lectern.IsNavigation("第一章 开始"))
	assert.False(t, lectern.IsNavigation("The Next Morning"))
}

func TestIsTOCLabel(t *testing.T) {
	t.Parallel()

	assert.True(t, lectern.IsTOCLabel("目录"))
	assert.True(t, lectern.IsTOCLabel("查看全部章节"))
	assert.True(t, lectern.IsTOCLabel("Table of Contents"))
	assert.True(t, lectern.IsTOCLabel("Contents"))
	assert.False(t, lectern.IsTOCLabel("第一章"))
	assert.False(t, lectern.IsTOCLabel(""))
	assert.False(t, lectern.IsTOCLabel(strings.Repeat("目录", 11)))
}
