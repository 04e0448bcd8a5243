// Package charset picks the decoding of raw page bytes that yields the least
// corrupted text.
package charset

import (
	"bytes"
	"mime"
	"strings"

	"github.com/fwojciec/lectern"
	"golang.org/x/net/html"
	htmlcharset "golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
	"golang.org/x/text/encoding/unicode"
)

// Ensure Resolver implements lectern.Decoder.
var _ lectern.Decoder = (*Resolver)(nil)

// DefaultCandidates is the trial order used after any declared charset.
// The gb2312 label resolves to the GBK decoder, which is a superset.
var DefaultCandidates = []string{"utf-8", "gbk", "gb18030", "big5"}

// prescanLen is how much of the body is searched for a <meta> charset.
const prescanLen = 1024

// Resolver decodes raw bytes by trying each candidate encoding and keeping
// the one whose extracted text has the lowest garbage score.
type Resolver struct {
	// Locator supplies the content sample scored for each candidate.
	Locator lectern.ContentLocator

	// Weights tunes GarbageScore.
	Weights lectern.GarbageWeights

	// Candidates overrides DefaultCandidates.
	Candidates []string
}

// NewResolver creates a Resolver with the default candidate list.
func NewResolver(locator lectern.ContentLocator, weights lectern.GarbageWeights) *Resolver {
	return &Resolver{
		Locator: locator,
		Weights: weights,
	}
}

type candidate struct {
	name string
	enc  encoding.Encoding
}

// DecodeContent decodes a chapter page. Each candidate is scored on its
// located content block. When no candidate yields a block, the first
// candidate's decoding is returned with a nil Block.
func (r *Resolver) DecodeContent(raw []byte, contentType string) *lectern.SourceDocument {
	cands := r.candidates(raw, contentType)

	var first, best *lectern.SourceDocument
	for _, c := range cands {
		text, ok := decode(raw, c.enc)
		if !ok {
			continue
		}
		doc := &lectern.SourceDocument{Raw: raw, Charset: c.name, HTML: text}
		if first == nil {
			first = doc
		}
		if r.Locator == nil {
			continue
		}
		block, ok := r.Locator.Locate(text)
		if !ok {
			continue
		}
		doc.Block = block
		doc.Score = GarbageScore(block.Text, r.Weights)
		if best == nil || doc.Score < best.Score {
			best = doc
		}
	}

	if best != nil {
		return best
	}
	if first == nil {
		first = &lectern.SourceDocument{Raw: raw, Charset: cands[0].name, HTML: string(raw)}
	}
	return first
}

// DecodePage decodes a page that has no content block of its own, such as
// a book landing page or a table of contents. Candidates are scored on the
// page's visible text.
func (r *Resolver) DecodePage(raw []byte, contentType string) *lectern.SourceDocument {
	var best *lectern.SourceDocument
	for _, c := range r.candidates(raw, contentType) {
		text, ok := decode(raw, c.enc)
		if !ok {
			continue
		}
		score := GarbageScore(VisibleText(text), r.Weights)
		if best == nil || score < best.Score {
			best = &lectern.SourceDocument{Raw: raw, Charset: c.name, HTML: text, Score: score}
		}
	}
	if best == nil {
		return &lectern.SourceDocument{Raw: raw, Charset: "utf-8", HTML: string(raw)}
	}
	return best
}

// candidates returns the declared charset, if recognised, followed by the
// configured candidates with duplicates removed.
func (r *Resolver) candidates(raw []byte, contentType string) []candidate {
	names := r.Candidates
	if len(names) == 0 {
		names = DefaultCandidates
	}

	var out []candidate
	seen := make(map[string]bool)
	add := func(label string) {
		enc, name := lookup(label)
		if enc == nil || seen[name] {
			return
		}
		seen[name] = true
		out = append(out, candidate{name: name, enc: enc})
	}

	if label := Declared(raw, contentType); label != "" {
		add(label)
	}
	for _, name := range names {
		add(name)
	}
	if len(out) == 0 {
		out = append(out, candidate{name: "utf-8", enc: unicode.UTF8})
	}
	return out
}

// Declared returns the charset label declared by the Content-Type header or,
// failing that, by a <meta> element or byte order mark near the start of the
// body. It returns "" when nothing is declared.
func Declared(raw []byte, contentType string) string {
	if contentType != "" {
		if _, params, err := mime.ParseMediaType(contentType); err == nil {
			if label := strings.TrimSpace(params["charset"]); label != "" {
				return strings.ToLower(label)
			}
		}
	}

	head := raw
	if len(head) > prescanLen {
		head = head[:prescanLen]
	}
	if !bytes.Contains(bytes.ToLower(head), []byte("charset")) && !hasBOM(head) {
		return ""
	}
	_, name, certain := htmlcharset.DetermineEncoding(head, "text/html")
	if !certain && name == "windows-1252" && !declaresLatin(head) {
		return ""
	}
	return name
}

// declaresLatin distinguishes a real windows-1252 declaration from the
// prescan's default guess.
func declaresLatin(head []byte) bool {
	lower := bytes.ToLower(head)
	return bytes.Contains(lower, []byte("1252")) ||
		bytes.Contains(lower, []byte("8859")) ||
		bytes.Contains(lower, []byte("latin"))
}

func hasBOM(b []byte) bool {
	return bytes.HasPrefix(b, []byte{0xEF, 0xBB, 0xBF}) ||
		bytes.HasPrefix(b, []byte{0xFE, 0xFF}) ||
		bytes.HasPrefix(b, []byte{0xFF, 0xFE})
}

// lookup maps a charset label to its decoder and canonical name.
func lookup(label string) (encoding.Encoding, string) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "utf-8", "utf8":
		return unicode.UTF8, "utf-8"
	case "gbk", "gb2312", "gb_2312-80", "cp936", "x-gbk":
		return simplifiedchinese.GBK, "gbk"
	case "gb18030":
		return simplifiedchinese.GB18030, "gb18030"
	case "big5", "big5-hkscs", "cn-big5", "x-x-big5":
		return traditionalchinese.Big5, "big5"
	}
	enc, name := htmlcharset.Lookup(label)
	return enc, name
}

// decode converts raw to UTF-8. Undecodable bytes become U+FFFD.
func decode(raw []byte, enc encoding.Encoding) (string, bool) {
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", false
	}
	return string(out), true
}

// VisibleText returns the text content of an HTML page, skipping script,
// style and other non-rendered elements.
func VisibleText(page string) string {
	z := html.NewTokenizer(strings.NewReader(page))
	var b strings.Builder
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.StartTagToken:
			if hidden(z) {
				skip++
			}
		case html.EndTagToken:
			if hidden(z) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
				b.WriteByte('\n')
			}
		}
	}
}

func hidden(z *html.Tokenizer) bool {
	name, _ := z.TagName()
	switch string(name) {
	case "script", "style", "noscript", "template", "iframe":
		return true
	}
	return false
}
