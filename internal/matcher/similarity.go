package matcher

import (
	"strings"
	"unicode"
)

// Normalize prepares a name for comparison: lowercase, punctuation stripped,
// whitespace collapsed to single spaces.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// Similarity returns the normalized Levenshtein similarity of two strings:
// (len(longer) - editDistance) / len(longer), in [0, 1]. Two empty strings
// compare as a perfect 1.0; empty versus non-empty is 0.0. The measure is
// symmetric.
func Similarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	longer := len(ra)
	if len(rb) > longer {
		longer = len(rb)
	}
	if longer == 0 {
		return 1.0
	}

	dist := editDistance(ra, rb)
	return float64(longer-dist) / float64(longer)
}

// editDistance computes the Levenshtein distance between two rune slices
// counting single-character inserts, deletes, and substitutions, using the
// two-row dynamic programming formulation.
func editDistance(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}

			ins := curr[j-1] + 1
			del := prev[j] + 1
			sub := prev[j-1] + cost

			m := ins
			if del < m {
				m = del
			}
			if sub < m {
				m = sub
			}
			curr[j] = m
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}
