// Package answer checks typed answers against the target word.
package answer

import (
	"strings"
	"unicode/utf8"

	"github.com/agext/levenshtein"
)

// Normalize trims surrounding whitespace and lowercases s.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Threshold returns the number of typos tolerated for a target word:
// 2 for eight letters or more, 1 for four to seven, none below that.
func Threshold(target string) int {
	n := utf8.RuneCountInString(Normalize(target))
	switch {
	case n >= 8:
		return 2
	case n >= 4:
		return 1
	default:
		return 0
	}
}

// Distance is the Levenshtein edit distance between the normalized forms
// of a and b, with unit costs for insertion, deletion and substitution.
func Distance(a, b string) int {
	return levenshtein.Distance(Normalize(a), Normalize(b), nil)
}

// IsMatch reports whether input is the target word, allowing for case,
// surrounding whitespace and a few typos on longer words. An empty input
// never matches.
func IsMatch(input, target string) bool {
	in, want := Normalize(input), Normalize(target)
	if in == "" || want == "" {
		return false
	}
	if in == want {
		return true
	}
	return levenshtein.Distance(in, want, nil) <= Threshold(want)
}
