// Package nlu implements the natural-language-understanding pipeline:
// text normalization, rule-table entity extraction, lexicon sentiment
// scoring, and similarity-based intent classification. Every function in
// this package is pure over its inputs; the trained classifier is
// read-only after Train and safe for concurrent use.
package nlu

import (
	"regexp"
	"strings"
)

// disallowed matches every character outside the normalizer allow-list:
// word characters, common punctuation, and the characters the entity rule
// table needs to survive normalization (@ : / for emails and URLs).
var (
	disallowed = regexp.MustCompile(`[^a-z0-9_ .,!?'@:/-]+`)
	whitespace = regexp.MustCompile(`\s+`)
)

// Normalize canonicalizes raw user text: lowercases, strips characters
// outside the allow-list, collapses whitespace runs to single spaces, and
// trims. Idempotent: Normalize(Normalize(x)) == Normalize(x).
func Normalize(text string) string {
	t := strings.ToLower(text)
	t = disallowed.ReplaceAllString(t, "")
	t = whitespace.ReplaceAllString(t, " ")
	return strings.TrimSpace(t)
}

// Tokenize splits normalized text into scoring tokens, stripping trailing
// sentence punctuation from each token.
func Tokenize(normalized string) []string {
	fields := strings.Fields(normalized)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,!?'")
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
