package mock

import "github.com/fwojciec/lectern"

var (
	_ lectern.ContentLocator = (*ContentLocator)(nil)
	_ lectern.Decoder        = (*Decoder)(nil)
	_ lectern.Sanitizer      = (*Sanitizer)(nil)
)

// ContentLocator is a mock implementation of lectern.ContentLocator.
type ContentLocator struct {
	LocateFn func(html string) (*lectern.ContentBlock, bool)
}

func (l *ContentLocator) Locate(html string) (*lectern.ContentBlock, bool) {
	return l.LocateFn(html)
}

// Decoder is a mock implementation of lectern.Decoder.
type Decoder struct {
	DecodeContentFn func(raw []byte, contentType string) *lectern.SourceDocument
	DecodePageFn    func(raw []byte, contentType string) *lectern.SourceDocument
}

func (d *Decoder) DecodeContent(raw []byte, contentType string) *lectern.SourceDocument {
	return d.DecodeContentFn(raw, contentType)
}

func (d *Decoder) DecodePage(raw []byte, contentType string) *lectern.SourceDocument {
	return d.DecodePageFn(raw, contentType)
}

// Sanitizer is a mock implementation of lectern.Sanitizer.
type Sanitizer struct {
	SanitizeFn func(s string) string
}

func (s *Sanitizer) Sanitize(in string) string {
	return s.SanitizeFn(in)
}
