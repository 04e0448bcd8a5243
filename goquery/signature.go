package goquery

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Signature is a known structural marker of a content container.
type Signature struct {
	Name     string
	Selector string
}

// DefaultSignatures returns the built-in content container signatures in
// lookup order.
func DefaultSignatures() []Signature {
	return []Signature{
		{Name: "content", Selector: "#content"},
		{Name: "chaptercontent", Selector: "#chaptercontent, #chapterContent, #chapter-content"},
		{Name: "booktext", Selector: "#BookText, #booktext, #TextContent"},
		{Name: "htmlcontent", Selector: "#htmlContent, #txtContent, #txt"},
		{Name: "read-content", Selector: ".read-content, .readcontent, #readcontent"},
		{Name: "chapter-content", Selector: ".chapter-content, .chapter_content, .chapter-inner, .text-content"},
		{Name: "nr", Selector: "#nr1, #nr, #novelcontent"},
		{Name: "userstuff", Selector: "#chapters .userstuff"},
		{Name: "entry-content", Selector: "article .entry-content, .post-content"},
	}
}

// SignatureStrategy looks up content by known container selectors.
// The first signature whose match holds non-empty text wins.
type SignatureStrategy struct {
	signatures []Signature
}

// NewSignatureStrategy creates a SignatureStrategy for the given signatures.
func NewSignatureStrategy(signatures []Signature) *SignatureStrategy {
	return &SignatureStrategy{signatures: signatures}
}

// Name returns the strategy's identifier.
func (s *SignatureStrategy) Name() string {
	return "signature"
}

// Find returns the first matching container, or nil.
func (s *SignatureStrategy) Find(doc *goquery.Document) *goquery.Selection {
	for _, sig := range s.signatures {
		sel := doc.Find(sig.Selector).First()
		if sel.Length() == 0 {
			continue
		}
		if strings.TrimSpace(sel.Text()) == "" {
			continue
		}
		return sel
	}
	return nil
}
