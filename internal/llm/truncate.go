package llm

import "unicode/utf8"

const truncationMarker = "..."

// Truncate cuts text to at most limit runes and appends a marker when it cuts.
func Truncate(text string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	n := 0
	for i := range text {
		if n == limit {
			return text[:i] + truncationMarker
		}
		n++
	}
	return text
}
