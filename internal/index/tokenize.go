package index

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MinTokenLen is the shortest token, in runes, that is indexed.
const MinTokenLen = 2

// Tokenize lowercases text and splits it on every rune that is not a letter
// or digit, dropping tokens shorter than MinTokenLen. Order and duplicates
// are preserved.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	tokens := fields[:0]
	for _, f := range fields {
		if utf8.RuneCountInString(f) < MinTokenLen {
			continue
		}
		tokens = append(tokens, strings.ToLower(f))
	}
	return tokens
}

// uniqueTokens tokenizes text and drops repeats, keeping first occurrence order.
func uniqueTokens(text string) []string {
	tokens := Tokenize(text)
	seen := make(map[string]bool, len(tokens))
	out := tokens[:0]
	for _, t := range tokens {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
