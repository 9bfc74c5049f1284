package shared

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

func Capitalize(s string) string {
	return cases.Title(language.Und).String(s)
}

func NormalizeLineEndings(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// TruncateText truncates text to maxLen runes, marking the cut with "...".
func TruncateText(text string, maxLen int) string {
	if utf8.RuneCountInString(text) <= maxLen {
		return text
	}
	if maxLen < 0 {
		maxLen = 0
	}
	runes := []rune(text)
	return string(runes[:maxLen]) + "..."
}

// Snippet returns the first non-blank line of text, truncated for listings.
func Snippet(text string, maxLen int) string {
	for line := range strings.SplitSeq(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return TruncateText(line, maxLen)
		}
	}
	return ""
}

func BoolPtr(b bool) *bool { return &b }
