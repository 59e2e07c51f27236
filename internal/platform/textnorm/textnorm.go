// Package textnorm folds review text into comparable word sequences.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lower-cases s and strips diacritics ("Más" -> "mas").
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	return strings.ToLower(folded)
}

// Words returns the folded words of s. Punctuation and symbols separate words,
// and so does a switch between letters and digits ("1star" -> "1", "star").
func Words(s string) []string {
	folded := Fold(s)

	var (
		words []string
		b     strings.Builder
		prev  rune
	)

	flush := func() {
		if b.Len() > 0 {
			words = append(words, b.String())
			b.Reset()
		}
	}

	for _, r := range folded {
		if !unicode.IsLetter(r) && !unicode.IsNumber(r) {
			flush()

			prev = 0

			continue
		}

		if prev != 0 && unicode.IsLetter(prev) != unicode.IsLetter(r) {
			flush()
		}

		b.WriteRune(r)

		prev = r
	}

	flush()

	return words
}

// Fingerprint returns the normalized form used for near-duplicate comparison:
// folded, punctuation-free, single-space separated.
func Fingerprint(s string) string {
	return strings.Join(Words(s), " ")
}

// RawWords splits s on anything that is not a letter or digit, keeping case.
func RawWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// CountPhrase counts non-overlapping occurrences of a multi-word phrase in a
// word sequence. Both sides are expected to be folded.
func CountPhrase(words []string, phrase []string) int {
	if len(phrase) == 0 || len(phrase) > len(words) {
		return 0
	}

	count := 0

	for i := 0; i+len(phrase) <= len(words); {
		if equalAt(words, phrase, i) {
			count++
			i += len(phrase)

			continue
		}

		i++
	}

	return count
}

func equalAt(words, phrase []string, at int) bool {
	for j, p := range phrase {
		if words[at+j] != p {
			return false
		}
	}

	return true
}
