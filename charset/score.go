package charset

import (
	"unicode"
	"unicode/utf8"

	"github.com/fwojciec/lectern"
)

// maxSampleRunes bounds how much text is scored per candidate.
const maxSampleRunes = 8192

// GarbageScore estimates how corrupted a decoded text sample is.
// Lower is better; zero means no corruption signal was found.
func GarbageScore(sample string, w lectern.GarbageWeights) int {
	score := 0
	run := 0
	hasHan, hasPunct := false, false

	endRun := func() {
		if run > 2 {
			score += w.ForeignRun
		}
		run = 0
	}

	n := 0
	for _, r := range sample {
		if n == maxSampleRunes {
			break
		}
		n++

		switch {
		case isGarbageRune(r):
			score += w.Replacement
			endRun()
		case unicode.Is(unicode.Han, r):
			hasHan = true
			endRun()
		case isCJKPunct(r):
			hasPunct = true
			endRun()
		case r < utf8.RuneSelf || unicode.IsSpace(r) || isGeneralPunct(r):
			endRun()
		default:
			run++
		}
	}
	endRun()

	if hasHan && !hasPunct {
		score += w.MissingPunctuation
	}
	return score
}

func isGarbageRune(r rune) bool {
	switch r {
	case utf8.RuneError:
		return true
	case '\n', '\r', '\t':
		return false
	}
	return unicode.IsControl(r) || unicode.Is(unicode.Co, r)
}

// isCJKPunct reports whether r belongs to the punctuation that accompanies
// Chinese text: CJK symbols, fullwidth forms and curly quotes.
func isCJKPunct(r rune) bool {
	switch {
	case r >= 0x3000 && r <= 0x303F:
		return true
	case r >= 0xFF00 && r <= 0xFFEF:
		return true
	}
	switch r {
	case '“', '”', '‘', '’', '…', '—', '·':
		return true
	}
	return false
}

func isGeneralPunct(r rune) bool {
	return r >= 0x2000 && r <= 0x206F || r == 0x00A0
}
