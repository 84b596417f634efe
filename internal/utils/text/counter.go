// Package text provides rune-aware helpers for the mixed Japanese and English text
// handled by the scraper, translator, feed, and notifiers.
package text

import (
	"strings"
	"unicode"
)

// CountRunes counts the number of Unicode characters (runes) in the given text.
// Japanese text is multi-byte, so byte length is never used for limits.
//
//	CountRunes("hello")      // 5
//	CountRunes("こんにちは") // 5
//	CountRunes("")           // 0
func CountRunes(text string) int {
	return len([]rune(text))
}

// Truncate shortens text to at most max runes, ending with "..." when cut.
// A non-positive max returns text unchanged.
func Truncate(text string, max int) string {
	if max <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return strings.TrimRightFunc(string(runes[:max-3]), unicode.IsSpace) + "..."
}

// ContainsKana reports whether text has at least one hiragana or katakana character.
func ContainsKana(text string) bool {
	for _, r := range text {
		if unicode.In(r, unicode.Hiragana, unicode.Katakana) {
			return true
		}
	}
	return false
}
