package search

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/kozaktomas/image-compare/internal/compare"
)

// RemoveDiacritics removes diacritical marks from a string (e.g., "Café" -> "Cafe").
func RemoveDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// normalizeName lowercases, strips diacritics and collapses whitespace.
func normalizeName(name string) string {
	name = RemoveDiacritics(name)
	name = strings.ToLower(name)
	return strings.Join(strings.Fields(name), " ")
}

// FilterByName keeps the candidates whose name contains needle, ignoring
// case and diacritics. An empty needle keeps everything.
func FilterByName(candidates []compare.Candidate, needle string) []compare.Candidate {
	needle = normalizeName(needle)
	if needle == "" {
		return candidates
	}

	out := make([]compare.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if strings.Contains(normalizeName(c.Name), needle) {
			out = append(out, c)
		}
	}
	return out
}
