// Package lexical implements the deterministic token pipeline shared by
// corpus indexing and query processing.
//
// Tokenization lowercases the text, splits on non-alphanumeric runes, drops
// a fixed stop-word set and pure-numeric tokens, and applies light suffix
// stemming. Indexing and querying must tokenize identically, so both sides
// of the engine go through this package.
package lexical

import (
	"strings"
	"unicode"
)

// stopWords are function words that carry no retrieval signal for SQL
// example lookup. Quantifiers that discriminate query shapes ("many",
// "count", "total", "average", "top") are deliberately kept indexable.
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {},
	"is": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {}, "being": {}, "am": {},
	"do": {}, "does": {}, "did": {},
	"have": {}, "has": {}, "had": {},
	"will": {}, "would": {}, "could": {}, "should": {}, "can": {}, "may": {}, "might": {}, "must": {}, "shall": {},
	"to": {}, "of": {}, "in": {}, "for": {}, "on": {}, "with": {}, "at": {}, "by": {}, "from": {}, "as": {}, "into": {}, "about": {},
	"and": {}, "but": {}, "or": {}, "nor": {}, "so": {}, "if": {}, "then": {}, "else": {},
	"when": {}, "where": {}, "why": {}, "how": {}, "what": {}, "which": {}, "who": {}, "whom": {}, "whose": {},
	"this": {}, "that": {}, "these": {}, "those": {}, "there": {}, "here": {},
	"i": {}, "you": {}, "he": {}, "she": {}, "it": {}, "we": {}, "they": {},
	"me": {}, "him": {}, "her": {}, "us": {}, "them": {},
	"my": {}, "your": {}, "his": {}, "its": {}, "our": {}, "their": {},
	"not": {}, "no": {}, "yes": {}, "all": {}, "any": {}, "also": {}, "just": {}, "only": {}, "very": {}, "too": {}, "than": {},
	"please": {}, "show": {}, "list": {}, "display": {}, "give": {}, "get": {}, "find": {}, "tell": {}, "want": {},
}

// Tokenize splits text into lowercase stemmed tokens, minus stop words and
// pure-numeric tokens. Duplicates are preserved in input order; use TokenSet
// when set semantics are needed.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		// Single runes are split-off possessives and initials, never signal.
		if len(f) < 2 {
			continue
		}
		if _, ok := stopWords[f]; ok {
			continue
		}
		if isNumeric(f) {
			continue
		}
		tokens = append(tokens, stem(f))
	}
	return tokens
}

// TokenSet returns the tokens of text as a set.
func TokenSet(text string) map[string]struct{} {
	tokens := Tokenize(text)
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

// Normalize lowercases and stems a single curated keyword without stop-word
// filtering. Curated keywords are registered verbatim; only the spelling is
// aligned with the token pipeline.
func Normalize(word string) string {
	return stem(strings.ToLower(strings.TrimSpace(word)))
}

func isNumeric(s string) bool {
	if s == "" {
		return true
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// stem strips plural suffixes. It is intentionally shallow: the corpus and
// query sides apply the same rules, which is all retrieval consistency
// requires.
func stem(w string) string {
	if len(w) > 4 && strings.HasSuffix(w, "ies") {
		return w[:len(w)-3] + "y"
	}
	if len(w) > 3 && strings.HasSuffix(w, "s") &&
		!strings.HasSuffix(w, "ss") && !strings.HasSuffix(w, "us") && !strings.HasSuffix(w, "is") {
		return w[:len(w)-1]
	}
	return w
}
