package lectern

// ContentBlock is the region of a page judged to hold narrative content.
type ContentBlock struct {
	// HTML is the block's inner markup.
	HTML string

	// Text is the block's visible text with line breaks preserved.
	// Locators that only produce HTML may leave it empty.
	Text string

	// Strategy names the strategy that found the block (e.g., "signature").
	Strategy string
}

// ContentLocator finds the content block of an HTML page.
type ContentLocator interface {
	// Locate returns the content block, or false when no candidate is found.
	// Not finding a block is an expected outcome, not an error.
	Locate(html string) (*ContentBlock, bool)
}

// SourceDocument is a decoded page. It is ephemeral and never persisted.
type SourceDocument struct {
	URL     string
	Raw     []byte
	Charset string
	HTML    string

	// Block is the located content block, nil when none was found.
	Block *ContentBlock

	// Score is the garbage score of the winning decoding (lower is better).
	Score int
}

// Decoder resolves the character encoding of raw page bytes.
type Decoder interface {
	// DecodeContent chooses the decoding whose content block looks least
	// corrupted. When no decoding yields a block, the first candidate is
	// used and the returned document has a nil Block.
	DecodeContent(raw []byte, contentType string) *SourceDocument

	// DecodePage chooses the decoding whose whole-page text looks least
	// corrupted. Used for landing and contents pages.
	DecodePage(raw []byte, contentType string) *SourceDocument
}

// Sanitizer strips markup that survived content extraction.
type Sanitizer interface {
	// Sanitize returns s with all HTML tags removed.
	Sanitize(s string) string
}
