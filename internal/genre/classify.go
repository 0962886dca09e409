package genre

import (
	"strings"
)

// Classify maps one free-text category string to a canonical tag.
// The raw string is split on whitespace and ampersands, tokens are
// uppercased, and the first canonical tag containing any token wins.
// Returns ok=false when nothing matches; unmatched categories are
// dropped by callers, never defaulted.
func Classify(raw string) (Tag, bool) {
	tokens := tokenize(raw)
	if len(tokens) == 0 {
		return "", false
	}

	for _, tag := range CanonicalTags {
		key := string(tag)
		for _, tok := range tokens {
			if strings.Contains(key, tok) {
				return tag, true
			}
		}
	}
	return "", false
}

// ClassifyAll classifies a list of raw category strings, dropping
// unmatched entries and deduplicating while preserving order.
// An empty result is valid: a book with no recognizable categories
// simply has none.
func ClassifyAll(raw []string) []Tag {
	if len(raw) == 0 {
		return nil
	}

	seen := make(map[Tag]bool, len(raw))
	out := make([]Tag, 0, len(raw))
	for _, r := range raw {
		tag, ok := Classify(r)
		if !ok || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// tokenize splits on whitespace and ampersands and uppercases tokens.
func tokenize(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == '&' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		tokens = append(tokens, strings.ToUpper(f))
	}
	return tokens
}
