package recognition

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// NormalizeText applies NFKC compatibility folding (full-width Latin and
// digits become ASCII), drops control characters, collapses runs of
// whitespace to one space and trims the result.
func NormalizeText(text string) string {
	text = norm.NFKC.String(text)
	var b strings.Builder
	b.Grow(len(text))
	space := false
	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			space = b.Len() > 0
			continue
		case unicode.IsControl(r):
			continue
		}
		if space {
			b.WriteByte(' ')
			space = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// TextLength counts characters, not bytes, so CJK subtitles are measured the
// same way as Latin ones.
func TextLength(text string) int {
	return utf8.RuneCountInString(text)
}
