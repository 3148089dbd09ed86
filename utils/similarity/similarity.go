// Package similarity compares movie titles coming from different catalogues.
package similarity

import (
	"strings"
	"unicode"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/cases"
)

var folder = cases.Fold()

// NormalizeTitle folds case, transliterates to ASCII and strips punctuation so
// that "Amélie" and "Amelie", or "Me & You" and "me and you", compare equal.
func NormalizeTitle(s string) string {
	s = folder.String(s)
	s = unidecode.Unidecode(s)
	s = strings.ReplaceAll(s, "&", " and ")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '.' || r == '-' || r == '_' || r == ':' || r == '/':
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Equal reports whether two titles are identical after normalisation.
func Equal(a, b string) bool {
	na, nb := NormalizeTitle(a), NormalizeTitle(b)
	return na != "" && na == nb
}

// Similarity returns a score in [0, 1] based on Levenshtein distance between
// the normalised titles. A title that is a word-aligned suffix covering at
// least 60% of the other ("Disney's Frozen" vs "Frozen") scores 0.9 or more.
func Similarity(s1, s2 string) float64 {
	s1, s2 = NormalizeTitle(s1), NormalizeTitle(s2)
	if s1 == s2 {
		return 1.0
	}
	if s1 == "" || s2 == "" {
		return 0.0
	}

	if score := suffixScore(s1, s2); score > 0 {
		return score
	}

	r1, r2 := []rune(s1), []rune(s2)
	longest := max(len(r1), len(r2))
	return 1.0 - float64(levenshtein(r1, r2))/float64(longest)
}

func suffixScore(s1, s2 string) float64 {
	longer, shorter := s1, s2
	if len(s1) < len(s2) {
		longer, shorter = s2, s1
	}
	if !strings.HasSuffix(longer, shorter) {
		return 0
	}
	prefixLen := len(longer) - len(shorter)
	if prefixLen > 0 && longer[prefixLen-1] != ' ' {
		return 0
	}
	ratio := float64(len(shorter)) / float64(len(longer))
	if ratio < 0.6 {
		return 0
	}
	return 0.90 + ratio*0.10
}

// levenshtein computes edit distance keeping only two rows.
func levenshtein(a, b []rune) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
