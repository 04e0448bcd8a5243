package readability

import (
	"strings"

	"github.com/fwojciec/lectern"
	"github.com/go-shiori/go-readability"
)

// Ensure Locator implements lectern.ContentLocator at compile time.
var _ lectern.ContentLocator = (*Locator)(nil)

// Locator wraps go-readability as a last-resort content locator.
type Locator struct{}

// NewLocator creates a new Locator.
func NewLocator() *Locator {
	return &Locator{}
}

// Locate returns the main content of rawHTML as judged by readability.
func (l *Locator) Locate(rawHTML string) (*lectern.ContentBlock, bool) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, false
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), nil)
	if err != nil {
		return nil, false
	}
	if strings.TrimSpace(article.TextContent) == "" {
		return nil, false
	}

	return &lectern.ContentBlock{
		HTML:     article.Content,
		Text:     article.TextContent,
		Strategy: "readability",
	}, true
}
