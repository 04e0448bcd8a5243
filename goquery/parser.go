package goquery

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/lectern"
)

// Ensure Parser implements lectern.BookParser at compile time.
var _ lectern.BookParser = (*Parser)(nil)

// chapterListSelectors are containers that hold the full chapter list on
// common site layouts. They take precedence over a whole-page scan, which
// would also pick up "latest chapters" teasers out of order.
var chapterListSelectors = []string{
	"#list",
	".listmain",
	"#chapterlist, #chapter-list, .chapter-list, .chapterlist",
	"#catalog, .catalog, .mulu, #mulu",
	".volume-list, .volume",
	"#chapters, .chapters, .toc",
}

var (
	authorRe        = regexp.MustCompile(`作\s*者\s*[:：]\s*([^\s|/｜]+)`)
	englishAuthorRe = regexp.MustCompile(`(?i)\bauthor\s*[:：]\s*([^\n|]+)`)
	titleSepRe      = regexp.MustCompile(`\s*[_|｜]\s*|\s+[-–—]\s+`)
)

// Parser extracts book metadata and chapter links from decoded pages.
type Parser struct{}

// NewParser creates a new Parser.
func NewParser() *Parser {
	return &Parser{}
}

// ParseSummary returns the book title and author from a landing page.
// Open Graph novel metadata is preferred, then headings and the document
// title. Fields that cannot be found are empty.
func (p *Parser) ParseSummary(html string) lectern.BookSummary {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return lectern.BookSummary{}
	}

	var s lectern.BookSummary
	s.Title = firstNonEmpty(
		metaContent(doc, "meta[property='og:novel:book_name']"),
		metaContent(doc, "meta[property='og:title']"),
		strings.TrimSpace(doc.Find("h1").First().Text()),
		pageTitle(doc),
	)
	s.Author = firstNonEmpty(
		metaContent(doc, "meta[property='og:novel:author']"),
		metaContent(doc, "meta[name='author']"),
		matchAuthor(doc.Find("body").Text()),
	)
	return s
}

// ParseChapters returns chapter links in page order, deduplicated by URL.
// A known chapter list container is used when it yields chapters;
// otherwise every anchor on the page is classified.
func (p *Parser) ParseChapters(html string, baseURL string) ([]lectern.ChapterRef, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, lectern.Errorf(lectern.EINVALID, "invalid base URL: %v", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, lectern.Errorf(lectern.EPARSE, "failed to parse HTML: %v", err)
	}

	for _, selector := range chapterListSelectors {
		container := doc.Find(selector).First()
		if container.Length() == 0 {
			continue
		}
		if refs := chapterLinks(container.Find("a[href]"), base); len(refs) > 0 {
			return refs, nil
		}
	}
	return chapterLinks(doc.Find("a[href]"), base), nil
}

// ParseTOCLinks returns the targets of links labelled as a table of
// contents, in page order.
func (p *Parser) ParseTOCLinks(html string, baseURL string) ([]string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, lectern.Errorf(lectern.EINVALID, "invalid base URL: %v", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, lectern.Errorf(lectern.EPARSE, "failed to parse HTML: %v", err)
	}

	seen := make(map[string]bool)
	var links []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		if !lectern.IsTOCLabel(linkText(sel)) {
			return
		}
		href, _ := sel.Attr("href")
		if isNonHTTPLink(href) {
			return
		}
		resolved := resolveURL(base, href)
		if resolved == "" || seen[resolved] {
			return
		}
		seen[resolved] = true
		links = append(links, resolved)
	})
	return links, nil
}

func chapterLinks(anchors *goquery.Selection, base *url.URL) []lectern.ChapterRef {
	seen := make(map[string]bool)
	var refs []lectern.ChapterRef
	anchors.Each(func(_ int, sel *goquery.Selection) {
		href, exists := sel.Attr("href")
		if !exists || href == "" || isNonHTTPLink(href) {
			return
		}
		title := linkText(sel)
		if !lectern.IsChapter(href, title) {
			return
		}
		resolved := resolveURL(base, href)
		if resolved == "" || seen[resolved] {
			return
		}
		seen[resolved] = true
		refs = append(refs, lectern.ChapterRef{Title: title, URL: resolved})
	})
	return refs
}

// linkText returns the anchor's label, falling back to its title attribute.
func linkText(sel *goquery.Selection) string {
	text := strings.Join(strings.Fields(sel.Text()), " ")
	if text != "" {
		return text
	}
	title, _ := sel.Attr("title")
	return strings.Join(strings.Fields(title), " ")
}

func metaContent(doc *goquery.Document, selector string) string {
	content, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(content)
}

// pageTitle returns the document title up to its first site separator.
func pageTitle(doc *goquery.Document) string {
	title := strings.TrimSpace(doc.Find("title").First().Text())
	if parts := titleSepRe.Split(title, 2); len(parts) > 0 {
		return strings.TrimSpace(parts[0])
	}
	return title
}

func matchAuthor(text string) string {
	if m := authorRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := englishAuthorRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// resolveURL resolves a relative URL against a base URL.
// Returns empty string if the href cannot be parsed or if the resolved URL
// is self-referential (same as base URL after stripping fragment).
func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(ref)
	resolved.Fragment = ""

	result := resolved.String()
	baseNoFragment := *base
	baseNoFragment.Fragment = ""
	if result == baseNoFragment.String() {
		return ""
	}
	return result
}

// isNonHTTPLink checks if a href is a non-HTTP link that should be skipped.
func isNonHTTPLink(href string) bool {
	href = strings.ToLower(strings.TrimSpace(href))
	return strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:") ||
		strings.HasPrefix(href, "#")
}
