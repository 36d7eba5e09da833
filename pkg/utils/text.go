package utils

import (
	"strings"
	"unicode/utf8"
)

// CleanToValidUTF8 strips invalid UTF-8 sequences and NUL bytes, which
// Postgres text columns reject.
func CleanToValidUTF8(s string) string {
	if utf8.ValidString(s) && !strings.ContainsRune(s, 0) {
		return s
	}
	s = strings.ToValidUTF8(s, "")
	return strings.ReplaceAll(s, "\x00", "")
}

// CollapseWhitespace normalizes runs of whitespace in extracted article
// text down to single spaces.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ContainsString reports whether list contains s.
func ContainsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
