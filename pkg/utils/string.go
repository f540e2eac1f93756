package utils

import (
	"strings"
	"unicode/utf8"
)

// StringHelper provides string utility functions.
type StringHelper struct{}

// NewStringHelper creates a new string helper.
func NewStringHelper() *StringHelper {
	return &StringHelper{}
}

// TrimLabel removes leading and trailing whitespace. Inner spacing is kept so labels
// still compare by exact string equality.
func (s *StringHelper) TrimLabel(str string) string {
	return strings.TrimSpace(str)
}

// StripBOM removes a leading UTF-8 byte order mark.
func (s *StringHelper) StripBOM(str string) string {
	return strings.TrimPrefix(str, "\ufeff")
}

// TruncateString truncates str to at most maxLength bytes without splitting a rune.
func (s *StringHelper) TruncateString(str string, maxLength int) string {
	if len(str) <= maxLength {
		return str
	}

	cut := max(maxLength, 0)
	for cut > 0 && !utf8.RuneStart(str[cut]) {
		cut--
	}

	return str[:cut] + "..."
}
