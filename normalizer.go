package lectern

import (
	"html"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Line layout constants, in runes.
const (
	longLineLen      = 200
	sceneBreakWidth  = 30
	maxSceneBreakLen = 20
	maxQuoteCarry    = 5
)

var (
	markupRe     = regexp.MustCompile(`(?i)</?[a-z][a-z0-9]*(\s[^<>]*)?/?>`)
	lineBreakRe  = regexp.MustCompile(`(?i)<br\s*/?>|</p\s*>|</div\s*>`)
	scriptRe     = regexp.MustCompile(`(?is)<script\b.*?</script\s*>`)
	styleRe      = regexp.MustCompile(`(?is)<style\b.*?</style\s*>`)
	iframeRe     = regexp.MustCompile(`(?is)<iframe\b.*?</iframe\s*>`)
	adContainRe  = regexp.MustCompile(`(?is)<(div|ins|aside)\b[^>]*(class|id)\s*=\s*["'][^"']*\b(ad|ads|advert|adsbygoogle|gg)\b[^"']*["'][^>]*>.*?</(div|ins|aside)\s*>`)
	spacesRe     = regexp.MustCompile(`[ \t\f\v\x{00a0}\x{3000}\x{2002}\x{2003}\x{200b}\x{feff}]+`)
	sentenceEnds = "。！？!?…"
	closers      = "”」』’\"'）)》"
)

// DefaultAdPatterns returns the built-in ad signature and watermark patterns.
func DefaultAdPatterns() []*regexp.Regexp {
	return []*regexp.Regexp{
		regexp.MustCompile(`(?i)(https?://|www\.)[^\s\p{Han}]+`),
		regexp.MustCompile(`(?i)\b[a-z0-9-]+\.(com|net|org|cc|la|info|me|tw|xyz|vip|co|io)\b(/[^\s\p{Han}]*)?`),
		regexp.MustCompile(`请记住本书首发域名[:：]?\S*`),
		regexp.MustCompile(`(?m)^.*(天才一秒记住|笔趣阁|顶点小说|八一中文网|手机版阅读网址|手机用户请浏览|最快更新|无弹窗|全文字更新|请点击下一页继续阅读|章节错误[,，]?点此举报|加入书签方便阅读|投推荐票).*$`),
		regexp.MustCompile(`(?m)^\s*[(（]本章完[)）]\s*$`),
		regexp.MustCompile(`(?im)^.*(please (remember|bookmark) (this|our) (site|domain)|(find|read) the (latest|newest) chapters? (at|on)|this chapter is (updated|uploaded) (by|at)).*$`),
	}
}

// Normalizer cleans extracted chapter text into paragraphs.
// The zero value strips HTML markup with a regular expression and applies
// no ad patterns; use NewNormalizer for the defaults.
type Normalizer struct {
	// Sanitizer strips markup in NormalizeHTML. Nil falls back to a regexp
	// strip.
	Sanitizer Sanitizer

	// AdPatterns are removed from the text before re-segmentation.
	AdPatterns []*regexp.Regexp
}

// NewNormalizer returns a Normalizer with the default ad patterns.
func NewNormalizer(sanitizer Sanitizer) *Normalizer {
	return &Normalizer{
		Sanitizer:  sanitizer,
		AdPatterns: DefaultAdPatterns(),
	}
}

// Normalize cleans plain chapter text: it removes ads, re-segments the text
// into lines, drops duplicated chapter-title lines and formats paragraphs.
// Dialogue lines of the same turn are separated by a single newline, scene
// breaks are centred and every other paragraph is separated by one blank
// line. Angle brackets and entities in text are content and are kept.
//
// Normalize is idempotent: normalizing its output changes nothing but
// leading and trailing whitespace.
func (n *Normalizer) Normalize(text, title string) string {
	for _, re := range n.AdPatterns {
		text = re.ReplaceAllString(text, "")
	}
	lines := segmentLines(text)
	lines = stripTitleLines(lines, title)
	return formatParagraphs(lines)
}

// NormalizeHTML strips markup from an HTML fragment, decodes its entities
// once and normalizes the resulting text.
func (n *Normalizer) NormalizeHTML(fragment, title string) string {
	return n.Normalize(n.stripMarkup(fragment), title)
}

func (n *Normalizer) stripMarkup(fragment string) string {
	fragment = scriptRe.ReplaceAllString(fragment, "")
	fragment = styleRe.ReplaceAllString(fragment, "")
	fragment = iframeRe.ReplaceAllString(fragment, "")
	fragment = adContainRe.ReplaceAllString(fragment, "")
	fragment = lineBreakRe.ReplaceAllString(fragment, "\n")
	if n.Sanitizer != nil {
		fragment = n.Sanitizer.Sanitize(fragment)
	} else {
		fragment = markupRe.ReplaceAllString(fragment, "")
	}
	return html.UnescapeString(fragment)
}

// segmentLines splits text into trimmed, non-empty lines. Overlong lines are
// broken after sentence punctuation.
func segmentLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(spacesRe.ReplaceAllString(line, " "))
		if line == "" {
			continue
		}
		if utf8.RuneCountInString(line) > longLineLen {
			lines = append(lines, splitSentences(line)...)
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// splitSentences breaks a line after each run of sentence-ending punctuation
// and any closing quotes that follow it.
func splitSentences(line string) []string {
	runes := []rune(line)
	var out []string
	start := 0
	for i := 0; i < len(runes); i++ {
		if !strings.ContainsRune(sentenceEnds, runes[i]) {
			continue
		}
		j := i + 1
		for j < len(runes) && (strings.ContainsRune(sentenceEnds, runes[j]) || strings.ContainsRune(closers, runes[j])) {
			j++
		}
		if j >= len(runes) {
			break
		}
		if piece := strings.TrimSpace(string(runes[start:j])); piece != "" {
			out = append(out, piece)
		}
		start = j
		i = j - 1
	}
	if piece := strings.TrimSpace(string(runes[start:])); piece != "" {
		out = append(out, piece)
	}
	return out
}

// stripTitleLines drops the leading run of chapter-title lines and any line
// repeating the known title.
func stripTitleLines(lines []string, title string) []string {
	key := compact(title)
	sameTitle := func(line string) bool {
		return key != "" && compact(line) == key
	}

	i := 0
	for i < len(lines) && (IsChapterTitle(lines[i]) || sameTitle(lines[i])) {
		i++
	}

	out := make([]string, 0, len(lines)-i)
	for _, line := range lines[i:] {
		if sameTitle(line) {
			continue
		}
		out = append(out, line)
	}
	return out
}

func formatParagraphs(lines []string) string {
	var b strings.Builder
	prevDialogue := false
	depth, carried := 0, 0

	for i, line := range lines {
		if isSceneBreak(line) {
			if i > 0 {
				b.WriteString("\n\n")
			}
			b.WriteString(centre(line))
			prevDialogue = false
			depth, carried = 0, 0
			continue
		}

		continuing := depth > 0 && carried < maxQuoteCarry
		dialogue := startsWithQuote(line)
		if i > 0 {
			if continuing || (dialogue && prevDialogue) {
				b.WriteString("\n")
			} else {
				b.WriteString("\n\n")
			}
		}
		b.WriteString(line)

		if continuing {
			carried++
		} else {
			depth, carried = 0, 0
		}
		depth = quoteDepth(depth, line)
		prevDialogue = dialogue || continuing
	}
	return b.String()
}

func startsWithQuote(line string) bool {
	r, _ := utf8.DecodeRuneInString(line)
	return strings.ContainsRune("“「『\"‘'", r)
}

// quoteDepth returns the number of quotes still open after line.
func quoteDepth(depth int, line string) int {
	ascii := 0
	for _, r := range line {
		switch r {
		case '“', '「', '『':
			depth++
		case '”', '」', '』':
			if depth > 0 {
				depth--
			}
		case '"':
			ascii++
		}
	}
	if ascii%2 == 1 {
		if depth > 0 {
			depth--
		} else {
			depth++
		}
	}
	return depth
}

func isSceneBreak(line string) bool {
	n := 0
	for _, r := range line {
		switch {
		case r == ' ':
		case strings.ContainsRune("*＊-—–_~～=＝#＃◇◆○●□■☆★·•§※", r):
			n++
		default:
			return false
		}
	}
	return n >= 3 && utf8.RuneCountInString(line) <= maxSceneBreakLen ||
		line == "§" || line == "※"
}

func centre(line string) string {
	pad := (sceneBreakWidth - utf8.RuneCountInString(line)) / 2
	if pad <= 0 {
		return line
	}
	return strings.Repeat(" ", pad) + line
}

// compact removes all whitespace from s.
func compact(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
