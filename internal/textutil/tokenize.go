package textutil

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var tokenSplitPattern = regexp.MustCompile(`[^a-z0-9]+`)

var stopWords = map[string]bool{
	"the": true, "and": true, "but": true, "for": true, "with": true,
	"are": true, "was": true, "were": true, "been": true, "have": true,
	"has": true, "had": true, "does": true, "did": true, "will": true,
	"would": true, "could": true, "should": true, "may": true, "might": true,
	"can": true, "this": true, "that": true, "these": true, "those": true,
	"our": true, "their": true, "its": true, "from": true, "into": true,
	"about": true, "through": true, "over": true, "your": true, "who": true,
	"what": true, "which": true, "how": true, "all": true, "any": true,
	"not": true, "than": true, "then": true, "also": true, "more": true,
}

// Normalize folds compatibility characters and lowercases the text.
func Normalize(text string) string {
	return strings.ToLower(norm.NFKC.String(strings.TrimSpace(text)))
}

// Tokenize splits text into lowercase tokens, dropping stop words and tokens
// shorter than three characters. Duplicates are kept.
func Tokenize(text string) []string {
	raw := tokenSplitPattern.Split(Normalize(text), -1)
	tokens := make([]string, 0, len(raw))
	for _, token := range raw {
		if len(token) < 3 || stopWords[token] {
			continue
		}
		tokens = append(tokens, token)
	}
	return tokens
}

// Words returns the unique tokens of text in first-seen order.
func Words(text string) []string {
	return uniqPreserveOrder(Tokenize(text))
}

// WordSet returns the unique tokens of text as a set.
func WordSet(text string) map[string]struct{} {
	tokens := Tokenize(text)
	set := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		set[token] = struct{}{}
	}
	return set
}

// SplitList splits a comma or semicolon separated list into trimmed,
// normalized, non-empty entries.
func SplitList(list string) []string {
	parts := strings.FieldsFunc(Normalize(list), func(r rune) bool {
		return r == ',' || r == ';' || r == '\n' || r == '|'
	})
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return uniqPreserveOrder(out)
}

// FirstContained returns the first term that occurs as a substring of text.
// Both sides are expected to be normalized already.
func FirstContained(text string, terms []string) (string, bool) {
	for _, term := range terms {
		if term != "" && strings.Contains(text, term) {
			return term, true
		}
	}
	return "", false
}

// Contained returns every term that occurs as a substring of text, in term order.
func Contained(text string, terms []string) []string {
	var found []string
	for _, term := range terms {
		if term != "" && strings.Contains(text, term) {
			found = append(found, term)
		}
	}
	return found
}

func uniqPreserveOrder(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
