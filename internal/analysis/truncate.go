package analysis

import "unicode/utf8"

// Truncate cuts s to at most budget bytes without splitting a UTF-8 sequence.
func Truncate(s string, budget int) string {
	if budget <= 0 {
		return ""
	}
	if len(s) <= budget {
		return s
	}
	cut := budget
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
