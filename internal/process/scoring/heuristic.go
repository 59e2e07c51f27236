package scoring

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/lueurxax/humor-review-scout/internal/core/domain"
	apperrors "github.com/lueurxax/humor-review-scout/internal/core/errors"
	"github.com/lueurxax/humor-review-scout/internal/platform/textnorm"
)

const (
	capsMinLetters  = 3
	charsPerDensity = 100
	scorePrecision  = 100

	tagRant     = "rant"
	tagLaughter = "laughter"
	tagSarcasm  = "sarcasm"
	tagShouting = "shouting"
	tagOwner    = "owner_reply"
)

// Options configures the scale and language handling of the heuristic scorer.
type Options struct {
	// MaxScore is the top of the humor scale (scores are clamped to 0..MaxScore).
	MaxScore float64
	// DefaultLanguage is the language that receives no bonus.
	DefaultLanguage string
	// LanguageBonus is added to reviews in a known, non-default language.
	LanguageBonus float64
	// LanguageBonusCeiling caps what the bonus can lift a score to.
	LanguageBonusCeiling float64
	// MismatchMaxRating is the highest rating at which positive words count as sarcasm.
	MismatchMaxRating int
}

// DefaultOptions returns a 0-100 scale with an English default language.
func DefaultOptions() Options {
	return Options{
		MaxScore:             100,
		DefaultLanguage:      langEnglish,
		LanguageBonus:        8,
		LanguageBonusCeiling: 80,
		MismatchMaxRating:    2,
	}
}

// Heuristic is the deterministic rule-based scorer.
type Heuristic struct {
	opts         Options
	weights      Weights
	superlatives lexicon
	positive     lexicon
	laughter     []*regexp.Regexp
	symbols      []string
	safety       *SafetyAssessor
}

// NewHeuristic compiles rules into a scorer.
func NewHeuristic(rules Rules, opts Options) (*Heuristic, error) {
	if opts.MaxScore <= 0 {
		return nil, fmt.Errorf("%w: max score must be positive", apperrors.ErrInvalidInput)
	}

	safety, err := NewSafetyAssessor(rules.Safety)
	if err != nil {
		return nil, err
	}

	h := &Heuristic{
		opts:         opts,
		weights:      rules.Weights,
		superlatives: newLexicon(rules.Superlatives),
		positive:     newLexicon(rules.Positive),
		symbols:      rules.LaughterSymbols,
		safety:       safety,
	}

	for _, pattern := range rules.Laughter {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("compile laughter pattern %q: %w", pattern, err)
		}

		h.laughter = append(h.laughter, re)
	}

	return h, nil
}

// Score implements Scorer.
func (h *Heuristic) Score(_ context.Context, review domain.Review) (Result, error) {
	body := strings.TrimSpace(review.Body)
	if body == "" {
		return Result{}, fmt.Errorf("%w: review %s has empty body", apperrors.ErrMalformedReview, review.ID)
	}

	sig := h.signals(body, review.OwnerReply, review.Rating)

	language := review.Language
	if language == "" {
		language = DetectLanguage(body)
	}

	base := clamp(sig.total, 0, h.opts.MaxScore)
	humor := h.withLanguageBonus(base, language)

	assessment := h.safety.Assess(body + "\n" + review.OwnerReply)

	return Result{
		Humor:       round(humor),
		Safety:      assessment.Flag,
		SafetyNotes: assessment.Notes,
		Source:      domain.ScoreSourceHeuristic,
		Language:    language,
		Notes:       sig.notes(),
		Tags:        sig.tags,
	}, nil
}

// withLanguageBonus rewards reviews in a known non-default language. The bonus
// never lowers a score and never lifts one above the configured ceiling.
func (h *Heuristic) withLanguageBonus(base float64, language string) float64 {
	if language == "" || strings.EqualFold(language, h.opts.DefaultLanguage) || h.opts.LanguageBonus <= 0 {
		return base
	}

	ceiling := h.opts.LanguageBonusCeiling
	if ceiling <= 0 || ceiling > h.opts.MaxScore {
		ceiling = h.opts.MaxScore
	}

	return math.Max(base, math.Min(base+h.opts.LanguageBonus, ceiling))
}

type signals struct {
	total float64
	parts []string
	tags  []string
}

func (s *signals) add(name string, points float64, tag string) {
	if points == 0 {
		return
	}

	s.total += points
	s.parts = append(s.parts, fmt.Sprintf("%s %+.1f", name, points))

	if tag != "" {
		s.tags = append(s.tags, tag)
	}
}

func (s *signals) notes() string {
	if len(s.parts) == 0 {
		return "no humor signals"
	}

	return strings.Join(s.parts, ", ")
}

func (h *Heuristic) signals(body, ownerReply string, rating int) signals {
	w := h.weights
	words := textnorm.Words(body)
	length := utf8.RuneCountInString(body)

	sig := signals{}
	sig.add("base", w.Base, "")
	sig.add("superlatives", capped(float64(h.superlatives.count(words))*w.Superlative, w.SuperlativeCap), tagRant)
	sig.add("exclamations", capped(exclamationDensity(body, length)*w.ExclamationPer100, w.ExclamationCap), "")
	sig.add("caps", capped(float64(capsWords(body))*w.Caps, w.CapsCap), tagShouting)
	sig.add("laughter", capped(float64(h.laughterCount(body, words))*w.Laughter, w.LaughterCap), tagLaughter)

	if rating <= h.opts.MismatchMaxRating && h.positive.count(words) > 0 {
		sig.add("rating mismatch", w.Mismatch, tagSarcasm)
	}

	switch {
	case length <= w.TooShortMax:
		sig.add("too short", w.TooShort, "")
	case length >= w.SweetSpotMin && length <= w.SweetSpotMax:
		sig.add("sweet spot", w.SweetSpot, "")
	}

	if strings.TrimSpace(ownerReply) != "" {
		sig.add("owner reply", w.OwnerReply, tagOwner)
	}

	if len(sig.tags) == 0 {
		sig.tags = []string{domain.DefaultTag}
	}

	return sig
}

func (h *Heuristic) laughterCount(body string, words []string) int {
	n := 0

	for _, word := range words {
		for _, re := range h.laughter {
			if re.MatchString(word) {
				n++
				break
			}
		}
	}

	for _, symbol := range h.symbols {
		if symbol != "" {
			n += strings.Count(body, symbol)
		}
	}

	return n
}

func exclamationDensity(body string, length int) float64 {
	if length == 0 {
		return 0
	}

	return float64(strings.Count(body, "!")) * charsPerDensity / float64(length)
}

func capsWords(body string) int {
	n := 0

	for _, word := range textnorm.RawWords(body) {
		letters := 0
		upper := true

		for _, r := range word {
			if !unicode.IsLetter(r) {
				continue
			}

			letters++

			if !unicode.IsUpper(r) {
				upper = false
				break
			}
		}

		if upper && letters >= capsMinLetters {
			n++
		}
	}

	return n
}

func capped(points, limit float64) float64 {
	if limit > 0 && points > limit {
		return limit
	}

	return points
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(v, hi))
}

func round(v float64) float64 {
	return math.Round(v*scorePrecision) / scorePrecision
}
