// Package cities normalizes city names so that free text, geocoder output and
// catalog rows can be compared regardless of case, accents or spacing.
package cities

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize folds a city name to lower case, strips combining marks and
// collapses internal whitespace. "  Mérida " and "MERIDA" normalize equally.
func Normalize(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}

// Equal reports whether two city names refer to the same city.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// Initials returns an upper-case code for a city used in human-readable
// folios. Multi-word names use the first letter of each word ("Playa del
// Carmen" -> "PDC"); single words use their first three letters ("Mérida" ->
// "MER"). Empty names yield "XX".
func Initials(name string) string {
	words := strings.Fields(Normalize(name))
	if len(words) == 0 {
		return "XX"
	}

	var b strings.Builder
	if len(words) == 1 {
		for i, r := range words[0] {
			if i >= 3 {
				break
			}
			b.WriteRune(unicode.ToUpper(r))
		}
		return b.String()
	}

	for _, w := range words {
		r := []rune(w)
		b.WriteRune(unicode.ToUpper(r[0]))
	}
	return b.String()
}
