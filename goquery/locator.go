package goquery

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/lectern"
)

// Ensure Locator implements lectern.ContentLocator at compile time.
var _ lectern.ContentLocator = (*Locator)(nil)

// Strategy finds the content block in a parsed document.
// Find returns nil when the strategy has no candidate.
type Strategy interface {
	Name() string
	Find(doc *goquery.Document) *goquery.Selection
}

// Locator runs an ordered chain of strategies over a page and returns the
// first non-empty result. Fallback locators run after the built-in
// strategies, on the raw HTML.
type Locator struct {
	strategies []Strategy
	fallbacks  []lectern.ContentLocator
}

// NewLocator creates a Locator with the signature and density strategies,
// followed by the given fallbacks.
func NewLocator(fallbacks ...lectern.ContentLocator) *Locator {
	return NewLocatorWithStrategies([]Strategy{
		NewSignatureStrategy(DefaultSignatures()),
		NewDensityStrategy(),
	}, fallbacks...)
}

// NewLocatorWithStrategies creates a Locator with a custom strategy chain.
func NewLocatorWithStrategies(strategies []Strategy, fallbacks ...lectern.ContentLocator) *Locator {
	return &Locator{
		strategies: strategies,
		fallbacks:  fallbacks,
	}
}

// Locate returns the content block of html, or false when no strategy
// found one.
func (l *Locator) Locate(html string) (*lectern.ContentBlock, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, false
	}

	for _, s := range l.strategies {
		sel := s.Find(doc)
		if sel == nil || sel.Length() == 0 {
			continue
		}
		text := RenderText(sel)
		if text == "" {
			continue
		}
		out, err := goquery.OuterHtml(sel)
		if err != nil {
			continue
		}
		return &lectern.ContentBlock{HTML: out, Text: text, Strategy: s.Name()}, true
	}

	for _, f := range l.fallbacks {
		block, ok := f.Locate(html)
		if !ok || block == nil {
			continue
		}
		if block.HTML != "" {
			block.Text = RenderHTML(block.HTML)
		}
		if strings.TrimSpace(block.Text) == "" {
			continue
		}
		return block, true
	}

	return nil, false
}

// nonContentTags never hold narrative text.
const nonContentTags = "nav, header, footer, aside, form, menu"

// nonContentTokens are id and class tokens marking boilerplate regions.
var nonContentTokens = map[string]bool{
	"nav": true, "navbar": true, "navigation": true, "menu": true, "footer": true,
	"header": true, "comment": true, "comments": true, "sidebar": true, "ad": true,
	"ads": true, "advert": true, "banner": true, "breadcrumb": true, "related": true,
	"recommend": true, "share": true, "social": true, "copyright": true, "pagination": true,
}

// uncountedTags are formatting tags that do not count as markup when
// scoring density.
var uncountedTags = map[string]bool{
	"p": true, "br": true, "b": true, "i": true, "em": true, "strong": true,
	"span": true, "font": true, "u": true, "small": true, "big": true, "sub": true, "sup": true,
}

// DensityStrategy scores block-level nodes by visible text length per markup
// tag and returns the highest scorer.
type DensityStrategy struct {
	// MinText is the minimum visible rune count of a candidate.
	MinText int
}

// NewDensityStrategy creates a DensityStrategy with default thresholds.
func NewDensityStrategy() *DensityStrategy {
	return &DensityStrategy{MinText: 40}
}

// Name returns the strategy's identifier.
func (s *DensityStrategy) Name() string {
	return "density"
}

// Find returns the densest content candidate, or nil.
func (s *DensityStrategy) Find(doc *goquery.Document) *goquery.Selection {
	var best *goquery.Selection
	bestScore := 0.0

	doc.Find("div, article, section, main, td, body").Each(func(_ int, sel *goquery.Selection) {
		if sel.Closest(nonContentTags).Length() > 0 || hasNonContentToken(sel) {
			return
		}

		text := utf8.RuneCountInString(compactText(RenderText(sel)))
		if text < s.MinText {
			return
		}

		links := 0
		sel.Find("a").Each(func(_ int, a *goquery.Selection) {
			links += utf8.RuneCountInString(compactText(a.Text()))
		})
		if links*2 > text {
			return
		}

		tags := 0
		sel.Find("*").Each(func(_ int, c *goquery.Selection) {
			if !uncountedTags[goquery.NodeName(c)] {
				tags++
			}
		})

		score := float64(text) / float64(1+tags)
		if best == nil || score > bestScore {
			best, bestScore = sel, score
		}
	})

	return best
}

func hasNonContentToken(sel *goquery.Selection) bool {
	for _, attr := range []string{"id", "class"} {
		v, ok := sel.Attr(attr)
		if !ok {
			continue
		}
		for _, tok := range strings.FieldsFunc(strings.ToLower(v), func(r rune) bool {
			return r == ' ' || r == '-' || r == '_'
		}) {
			if nonContentTokens[tok] {
				return true
			}
		}
	}
	return false
}

// compactText drops whitespace so indentation does not inflate counts.
func compactText(s string) string {
	return strings.Join(strings.Fields(s), "")
}
