package utils

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// numberRegexp matches an unsigned decimal number. Word boundaries are
// checked separately because RE2's \b only knows ASCII word characters.
var numberRegexp = regexp.MustCompile(`\d+(?:\.\d+)?`)

// ExtractNumbers returns every numeric token of s, left to right, in its
// original textual form. A token must not follow a letter, digit or
// underscore in any script, so "45 м2" yields only "45".
func ExtractNumbers(s string) []string {
	return scanNumbers(s, -1)
}

func scanNumbers(s string, n int) []string {
	var tokens []string
	pos := 0
	for pos < len(s) && (n < 0 || len(tokens) < n) {
		loc := numberRegexp.FindStringIndex(s[pos:])
		if loc == nil {
			break
		}
		start, end := pos+loc[0], pos+loc[1]
		if !wordBoundaryBefore(s, start) {
			// A later digit of the same run may still start a token.
			pos = start + 1
			continue
		}
		tokens = append(tokens, s[start:end])
		pos = end
	}
	return tokens
}

func wordBoundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return !(unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsNumber(r) || unicode.IsMark(r) || r == '_')
}

// ExtractFirstNumber returns the first numeric token of s as a float.
// ok is false when s has no numeric token.
func ExtractFirstNumber(s string) (n float64, ok bool) {
	tokens := scanNumbers(s, 1)
	if len(tokens) == 0 {
		return 0, false
	}
	token := tokens[0]
	n, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// FirstNumber is ExtractFirstNumber returning nil instead of ok=false.
func FirstNumber(s string) *float64 {
	n, ok := ExtractFirstNumber(s)
	if !ok {
		return nil
	}
	return &n
}

// JoinNumbers concatenates every numeric token of s. Sites print large values
// with group separators ("120,000"), so joining the groups recovers the value.
func JoinNumbers(s string) string {
	return strings.Join(ExtractNumbers(s), "")
}

// ParseNumber parses a joined numeric string, returning nil for empty or
// unparsable input.
func ParseNumber(s string) *float64 {
	if s == "" {
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &n
}
