package util

import "strings"

// DisplaySnippet collapses whitespace and truncates s to at most max runes
// for use in API responses and prompts.
func DisplaySnippet(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return strings.TrimSpace(string(runes[:max])) + "..."
}
