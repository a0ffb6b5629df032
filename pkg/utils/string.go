package utils

import "strings"

// Truncate shortens s to maxLen runes, appending "..." when it cut
// anything. Newlines are flattened to spaces so the result fits on one line.
func Truncate(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}
