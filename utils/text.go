package utils

import (
	"strings"
	"unicode"
)

// NormaliseText strips leading/trailing whitespace and collapses internal whitespace.
func NormaliseText(s string) string {
	fields := strings.FieldsFunc(s, unicode.IsSpace)
	return strings.Join(fields, " ")
}

// TextPtr returns a pointer to the normalised text, or nil when it is empty.
func TextPtr(s string) *string {
	s = NormaliseText(s)
	if s == "" {
		return nil
	}
	return &s
}
