package lectern

import (
	"net/url"
	"path"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Title length bounds, in runes.
const (
	maxChapterTitleLen  = 60
	minFallbackTitleLen = 2
	maxFallbackTitleLen = 40
)

const chineseNumerals = `0-9０-９零〇一二两三四五六七八九十百千万壹贰叁肆伍陆柒捌玖拾佰仟`

const englishNumberWords = `one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve|` +
	`thirteen|fourteen|fifteen|sixteen|seventeen|eighteen|nineteen|twenty|thirty|` +
	`forty|fifty|sixty|seventy|eighty|ninety|hundred`

// Title grammar.
var (
	chineseChapterRe = regexp.MustCompile(`^第\s*[` + chineseNumerals + `]+\s*[章节回卷集部篇幕话折]`)
	englishChapterRe = regexp.MustCompile(`(?i)^(chapter|chap\.?|ch\.?|episode|ep\.?|part|volume|vol\.?|book)(\s*[-#.:]?\s*[0-9]+|[\s.:#-]+([ivxlcdm]+|` + englishNumberWords + `)\b)`)
	numberedTitleRe  = regexp.MustCompile(`^[0-9０-９]{1,5}\s*[.、．:：\-—]\s*\S`)
	chineseNumTitle  = regexp.MustCompile(`^[零〇一二两三四五六七八九十百千]+\s*[、.．]\s*\S`)
	specialChapterRe = regexp.MustCompile(`(?i)^(序章|序言|序幕|楔子|引子|前言|尾声|后记|番外|终章|大结局|完本感言|间章|外传|卷首语|prologue|epilogue|afterword|interlude|preface|foreword|side story|extra\b)`)
)

// URL patterns.
var (
	chapterSegmentRe = regexp.MustCompile(`(?i)/(chapter|chap|episode|zhangjie)s?(/|[-_]?\d)`)
	shortSegmentRe   = regexp.MustCompile(`(?i)/(ch|ep|vol|read)[-_]?\d+`)
	chapterQueryRe   = regexp.MustCompile(`(?i)[?&](chapter|chapterid|chapter_id|cid)=\d+`)
	numericPathRe    = regexp.MustCompile(`/\d+/\d+(\.s?html?)?/?$`)
	numericPairRe    = regexp.MustCompile(`/\d+_\d+/\d+\.s?html?$`)
	bookPathRe       = regexp.MustCompile(`(?i)/(book|novel|txt|html)/\d+/\d+`)
	sequentialRe     = regexp.MustCompile(`\d{3,}`)
)

// navigationWords are link labels that are never chapters.
var navigationWords = map[string]struct{}{
	"首页": {}, "主页": {}, "登录": {}, "登陆": {}, "注册": {}, "退出": {}, "搜索": {},
	"上一章": {}, "下一章": {}, "上一页": {}, "下一页": {}, "返回": {}, "返回目录": {},
	"返回书页": {}, "目录": {}, "章节目录": {}, "查看目录": {}, "全部章节": {}, "最新章节": {},
	"书架": {}, "我的书架": {}, "加入书架": {}, "加入书签": {}, "投推荐票": {}, "排行榜": {},
	"书库": {}, "全本": {}, "完本": {}, "阅读记录": {}, "用户中心": {}, "点击阅读": {},
	"开始阅读": {}, "立即阅读": {}, "免费阅读": {}, "繁體": {}, "繁体": {}, "简体": {},
	"home": {}, "login": {}, "log in": {}, "sign in": {}, "sign up": {}, "register": {},
	"logout": {}, "search": {}, "next": {}, "previous": {}, "prev": {}, "next page": {},
	"previous page": {}, "next chapter": {}, "previous chapter": {}, "prev chapter": {},
	"index": {}, "contents": {}, "table of contents": {}, "toc": {}, "back": {},
	"bookmark": {}, "library": {},
}

var navigationContainsRe = regexp.MustCompile(`(?i)(上一章|下一章|上一页|下一页|返回书页|加入书签|next chapter|previous chapter|prev chapter)`)

var tocLabelRe = regexp.MustCompile(`(?i)(目录|章节列表|全部章节|完整章节|table of contents|^contents$|all chapters|chapter list|chapter index|^toc$)`)

// IsChapter reports whether an anchor with the given href and title is a
// chapter entry. Navigation labels are always rejected. Otherwise a link is
// a chapter when its URL has a chapter shape, when its title follows chapter
// grammar, or, conservatively, when the last path segment carries a
// sequential number and the title looks like prose.
func IsChapter(href, title string) bool {
	title = cleanTitle(title)
	if title == "" || IsNavigation(title) {
		return false
	}
	if chapterURL(href) {
		return true
	}
	if IsChapterTitle(title) {
		return true
	}
	return sequentialHref(href) && plausibleTitle(title)
}

// IsChapterTitle reports whether title follows chapter title grammar:
// numbered chapters, volumes and parts in digit or numeral-word form, or
// preface, afterword and interlude markers.
func IsChapterTitle(title string) bool {
	title = cleanTitle(title)
	n := utf8.RuneCountInString(title)
	if n == 0 || n > maxChapterTitleLen {
		return false
	}
	if IsNavigation(title) {
		return false
	}
	return chineseChapterRe.MatchString(title) ||
		englishChapterRe.MatchString(title) ||
		numberedTitleRe.MatchString(title) ||
		chineseNumTitle.MatchString(title) ||
		specialChapterRe.MatchString(title)
}

// IsNavigation reports whether a link label is site navigation vocabulary.
func IsNavigation(title string) bool {
	t := strings.ToLower(cleanTitle(title))
	t = strings.Trim(t, "[]【】()（）<>《》«»|·:：-—>")
	t = strings.TrimSpace(t)
	if _, ok := navigationWords[t]; ok {
		return true
	}
	return navigationContainsRe.MatchString(t)
}

// IsTOCLabel reports whether a link label points at a table of contents.
func IsTOCLabel(text string) bool {
	t := strings.TrimSpace(text)
	if t == "" || utf8.RuneCountInString(t) > 20 {
		return false
	}
	return tocLabelRe.MatchString(t)
}

func chapterURL(href string) bool {
	p := hrefPath(href)
	return chapterSegmentRe.MatchString(p) ||
		shortSegmentRe.MatchString(p) ||
		chapterQueryRe.MatchString(href) ||
		numericPathRe.MatchString(p) ||
		numericPairRe.MatchString(p) ||
		bookPathRe.MatchString(p)
}

func sequentialHref(href string) bool {
	last := path.Base(hrefPath(href))
	if ext := path.Ext(last); ext != "" {
		last = strings.TrimSuffix(last, ext)
	}
	return sequentialRe.MatchString(last)
}

func plausibleTitle(title string) bool {
	n := utf8.RuneCountInString(title)
	if n < minFallbackTitleLen || n > maxFallbackTitleLen {
		return false
	}
	for _, r := range title {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// hrefPath returns the path of href, or href itself when it cannot be parsed.
func hrefPath(href string) string {
	u, err := url.Parse(strings.TrimSpace(href))
	if err != nil || u.Path == "" {
		return href
	}
	return u.Path
}

// cleanTitle trims a link label and collapses inner whitespace.
func cleanTitle(title string) string {
	return strings.Join(strings.Fields(title), " ")
}
