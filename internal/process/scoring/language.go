package scoring

import (
	"strings"
	"unicode"

	"github.com/lueurxax/humor-review-scout/internal/platform/textnorm"
)

const (
	langEnglish = "en"
	langSpanish = "es"

	stopwordMin   = 1
	stopwordRatio = 0.08
	latinRatioMin = 0.5
)

var englishStopwords = map[string]struct{}{
	"the": {}, "and": {}, "of": {}, "to": {}, "in": {}, "is": {}, "for": {}, "on": {}, "with": {},
	"was": {}, "were": {}, "it": {}, "this": {}, "that": {}, "they": {}, "we": {}, "my": {},
	"i": {}, "you": {}, "not": {}, "have": {}, "had": {}, "but": {}, "at": {}, "there": {},
}

// Folded forms: accents are stripped before lookup.
var spanishStopwords = map[string]struct{}{
	"el": {}, "la": {}, "los": {}, "las": {}, "de": {}, "que": {}, "y": {}, "en": {}, "un": {},
	"una": {}, "es": {}, "por": {}, "con": {}, "no": {}, "para": {}, "lo": {}, "se": {}, "me": {},
	"muy": {}, "pero": {}, "mas": {}, "nos": {}, "del": {}, "al": {}, "sitio": {}, "fue": {},
}

// DetectLanguage returns "en", "es" or "" for text, using stopword frequency
// and Spanish-only punctuation and letters.
func DetectLanguage(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}

	if latinShare(text) < latinRatioMin {
		return ""
	}

	words := textnorm.Words(text)
	if len(words) == 0 {
		return ""
	}

	var en, es int

	for _, w := range words {
		if _, ok := englishStopwords[w]; ok {
			en++
		}

		if _, ok := spanishStopwords[w]; ok {
			es++
		}
	}

	es += spanishMarks(text)

	switch {
	case es > en && likely(es, len(words)):
		return langSpanish
	case en > es && likely(en, len(words)):
		return langEnglish
	default:
		return ""
	}
}

func likely(hits, total int) bool {
	return hits >= stopwordMin && float64(hits)/float64(total) >= stopwordRatio
}

func spanishMarks(text string) int {
	n := 0

	for _, r := range text {
		switch r {
		case 'ñ', 'Ñ', '¿', '¡':
			n++
		}
	}

	return n
}

func latinShare(text string) float64 {
	var letters, latin int

	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}

		letters++

		if unicode.Is(unicode.Latin, r) {
			latin++
		}
	}

	if letters == 0 {
		return 0
	}

	return float64(latin) / float64(letters)
}
