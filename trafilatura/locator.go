package trafilatura

import (
	"bytes"
	"strings"

	"github.com/fwojciec/lectern"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"
)

// Ensure Locator implements lectern.ContentLocator at compile time.
var _ lectern.ContentLocator = (*Locator)(nil)

// Locator wraps go-trafilatura as a fallback content locator.
type Locator struct {
	opts trafilatura.Options
}

// NewLocator creates a new Locator.
func NewLocator() *Locator {
	return &Locator{
		opts: trafilatura.Options{
			EnableFallback: true,
			ExcludeTables:  true,
		},
	}
}

// Locate returns the main content of rawHTML as judged by trafilatura.
func (l *Locator) Locate(rawHTML string) (*lectern.ContentBlock, bool) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, false
	}

	result, err := trafilatura.Extract(strings.NewReader(rawHTML), l.opts)
	if err != nil || result == nil || result.ContentNode == nil {
		return nil, false
	}

	contentHTML, err := renderNode(result.ContentNode)
	if err != nil {
		return nil, false
	}
	if strings.TrimSpace(result.ContentText) == "" {
		return nil, false
	}

	return &lectern.ContentBlock{
		HTML:     contentHTML,
		Text:     result.ContentText,
		Strategy: "trafilatura",
	}, true
}

// renderNode converts an html.Node to a string.
func renderNode(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}
