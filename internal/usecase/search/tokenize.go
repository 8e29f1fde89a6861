package search

import "strings"

// Tokenize lowercases text and splits it into alphanumeric terms.
// Punctuation and symbols act as separators.
func Tokenize(text string) []string {
	lowered := strings.ToLower(text)
	return strings.FieldsFunc(lowered, func(r rune) bool {
		return !isWordRune(r)
	})
}

func isWordRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z':
		return true
	case r >= '0' && r <= '9':
		return true
	case r > 127: // keep non-ASCII letters intact
		return true
	}
	return false
}
