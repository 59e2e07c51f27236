package scoring

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/lueurxax/humor-review-scout/internal/core/domain"
	"github.com/lueurxax/humor-review-scout/internal/platform/textnorm"
)

const (
	// prefixMinLen guards against short terms turning every word into an uncertain hit.
	prefixMinLen = 4

	notesNoRisk = "No obvious risks"
)

// Assessment is the outcome of the safety deny-list scan.
type Assessment struct {
	Flag       domain.SafetyFlag
	Categories []string
	Notes      string
}

// SafetyAssessor scans review text against deny-lists.
type SafetyAssessor struct {
	risky     map[string]lexicon
	pii       []*regexp.Regexp
	uncertain lexicon
}

// NewSafetyAssessor compiles the safety rules.
func NewSafetyAssessor(rules SafetyRules) (*SafetyAssessor, error) {
	a := &SafetyAssessor{
		risky:     make(map[string]lexicon, len(rules.Risky)),
		uncertain: newLexicon(rules.Uncertain),
	}

	for category, terms := range rules.Risky {
		a.risky[category] = newLexicon(terms)
	}

	for _, pattern := range rules.PIIPatterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("compile pii pattern %q: %w", pattern, err)
		}

		a.pii = append(a.pii, re)
	}

	return a, nil
}

// Assess classifies text. Any deny-list hit is risky; near misses (a deny-listed
// word used as a prefix, e.g. "scammy") and sensitive topics are uncertain.
func (a *SafetyAssessor) Assess(text string) Assessment {
	words := textnorm.Words(text)
	categories := make(map[string]struct{})
	uncertain := make(map[string]struct{})

	for _, re := range a.pii {
		if re.MatchString(text) {
			categories[CategoryPersonalData] = struct{}{}
			break
		}
	}

	for category, lex := range a.risky {
		if lex.count(words) > 0 {
			categories[category] = struct{}{}
			continue
		}

		if lex.prefixHit(words) {
			uncertain["possible "+category] = struct{}{}
		}
	}

	if a.uncertain.count(words) > 0 {
		uncertain["sensitive topic"] = struct{}{}
	}

	switch {
	case len(categories) > 0:
		names := sortedKeys(categories)

		return Assessment{Flag: domain.SafetyRisky, Categories: names, Notes: strings.Join(names, "; ")}
	case len(uncertain) > 0:
		names := sortedKeys(uncertain)

		return Assessment{Flag: domain.SafetyUncertain, Notes: strings.Join(names, "; ")}
	default:
		return Assessment{Flag: domain.SafetySafe, Notes: notesNoRisk}
	}
}

// lexicon matches folded single words and phrases.
type lexicon struct {
	words   map[string]struct{}
	phrases [][]string
}

func newLexicon(terms []string) lexicon {
	lex := lexicon{words: make(map[string]struct{})}

	for _, term := range terms {
		parts := textnorm.Words(term)

		switch len(parts) {
		case 0:
			continue
		case 1:
			lex.words[parts[0]] = struct{}{}
		default:
			lex.phrases = append(lex.phrases, parts)
		}
	}

	return lex
}

func (l lexicon) count(words []string) int {
	n := 0

	for _, w := range words {
		if _, ok := l.words[w]; ok {
			n++
		}
	}

	for _, phrase := range l.phrases {
		n += textnorm.CountPhrase(words, phrase)
	}

	return n
}

func (l lexicon) prefixHit(words []string) bool {
	for _, w := range words {
		for term := range l.words {
			if len(term) >= prefixMinLen && len(w) > len(term) && strings.HasPrefix(w, term) {
				return true
			}
		}
	}

	return false
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}

	sort.Strings(out)

	return out
}
