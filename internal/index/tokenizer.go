package index

import (
	"strings"
	"unicode"
)

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "by": {}, "for": {}, "in": {}, "is": {}, "it": {},
	"of": {}, "on": {}, "or": {}, "the": {}, "to": {}, "was": {},
	"with": {}, "this": {}, "that": {},
}

// tokenize lower-cases text, splits on non-alphanumeric boundaries,
// drops stop-words and single characters, and applies a light
// suffix-stripping stemmer. Both record text and query text go through
// the same pipeline, which is what gives paraphrased queries their
// term overlap with seeded records.
func tokenize(text string) []string {
	text = strings.ToLower(text)
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := make([]string, 0, len(words))
	for _, word := range words {
		if len(word) < 2 {
			continue
		}
		if _, stop := stopWords[word]; stop {
			continue
		}
		tokens = append(tokens, stem(word))
	}
	return tokens
}

var suffixRules = []struct {
	suffix      string
	replacement string
	minLen      int
}{
	{"ations", "ate", 2},
	{"ing", "", 4},
	{"ies", "y", 2},
	{"ers", "er", 2},
	{"ed", "", 4},
	{"ly", "", 3},
	{"es", "", 4},
	{"ss", "ss", 2},
	{"s", "", 3},
}

// stem strips a single common suffix. Deliberately crude: the goal is
// matching "failing" with "fails", not linguistic correctness.
func stem(word string) string {
	for _, rule := range suffixRules {
		if strings.HasSuffix(word, rule.suffix) {
			stemmed := word[:len(word)-len(rule.suffix)] + rule.replacement
			if len(stemmed) >= rule.minLen {
				return stemmed
			}
		}
	}
	return word
}
