package query

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases s, strips accents and collapses every non-alphanumeric
// run to a single space, so "Compañía  Minera" and "compania minera" produce
// the same key. Registry names mix accented and plain spellings freely.
func Normalize(s string) string {
	if folded, _, err := transform.String(foldAccents, s); err == nil {
		s = folded
	}
	s = strings.ToLower(strings.TrimSpace(s))

	var b strings.Builder
	b.Grow(len(s))
	prevSpace := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			prevSpace = false
			continue
		}
		if !prevSpace {
			b.WriteByte(' ')
			prevSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}

// Tokens splits s into normalized words.
func Tokens(s string) []string {
	return strings.Fields(Normalize(s))
}

// TokenSet returns the set of normalized words in s.
func TokenSet(s string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, t := range Tokens(s) {
		out[t] = struct{}{}
	}
	return out
}

// OverlapRatio is the share of a's tokens also present in b. Returns 0 when a
// is empty.
func OverlapRatio(a, b map[string]struct{}) float64 {
	if len(a) == 0 {
		return 0
	}
	hits := 0
	for t := range a {
		if _, ok := b[t]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(a))
}
