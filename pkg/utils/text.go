// Package utils provides shared utilities for text, math, and logging.
package utils

import (
	"regexp"
	"strings"
	"unicode"
)

var possessive = regexp.MustCompile(`['’]s\b`)

// Truncate returns s truncated to maxLen runes, with "..." appended if truncated.
// If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	r := []rune(s)
	if maxLen <= 0 || len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}

// CollapseSpaces trims s and replaces every run of whitespace with a single space.
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeText lowercases s, drops possessive 's, dots and apostrophes, turns any
// other non-alphanumeric rune into a space, and collapses whitespace. Company names
// and question text both go through it, so "AT&T" and "Hewlett-Packard" tokenize
// the same way on either side.
func NormalizeText(s string) string {
	s = possessive.ReplaceAllString(strings.ToLower(s), "")
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '.' || r == '\'' || r == '’':
		default:
			b.WriteRune(' ')
		}
	}
	return CollapseSpaces(b.String())
}
