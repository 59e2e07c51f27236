package scoring

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/humor-review-scout/internal/core/domain"
	apperrors "github.com/lueurxax/humor-review-scout/internal/core/errors"
)

func newTestHeuristic(t *testing.T, opts Options) *Heuristic {
	t.Helper()

	h, err := NewHeuristic(DefaultRules(), opts)
	require.NoError(t, err)

	return h
}

func TestHeuristic_Signals(t *testing.T) {
	h := newTestHeuristic(t, DefaultOptions())

	tests := []struct {
		name     string
		review   domain.Review
		want     float64
		wantTags []string
	}{
		{
			name:     "superlatives and phrase",
			review:   domain.Review{ID: "r1", Body: "Terrible service, never again.", Rating: 1},
			want:     28,
			wantTags: []string{tagRant},
		},
		{
			name:     "exclamations and laughter",
			review:   domain.Review{ID: "r2", Body: "Worst place ever!!! lol 1 star", Rating: 1},
			want:     39,
			wantTags: []string{tagRant, tagLaughter},
		},
		{
			name:     "too short is penalized",
			review:   domain.Review{ID: "r3", Body: "meh", Rating: 2},
			want:     0,
			wantTags: []string{domain.DefaultTag},
		},
		{
			name:     "positive words in a one star review",
			review:   domain.Review{ID: "r4", Body: "Loved the cockroaches in my soup", Rating: 1},
			want:     20,
			wantTags: []string{tagSarcasm},
		},
		{
			name:     "shouting",
			review:   domain.Review{ID: "r5", Body: "NEVER AGAIN said my wife", Rating: 2},
			want:     28,
			wantTags: []string{tagRant, tagShouting},
		},
		{
			name:     "owner reply",
			review:   domain.Review{ID: "r6", Body: "Cold food and a long wait", OwnerReply: "Thanks for your feedback", Rating: 2},
			want:     15,
			wantTags: []string{tagOwner},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.review.Language = langEnglish

			got, err := h.Score(context.Background(), tt.review)
			require.NoError(t, err)

			assert.InDelta(t, tt.want, got.Humor, 0.001)
			assert.Equal(t, tt.wantTags, got.Tags)
			assert.Equal(t, domain.ScoreSourceHeuristic, got.Source)
			assert.NotEmpty(t, got.Notes)
			assert.NoError(t, got.Warning)
		})
	}
}

func TestHeuristic_ScoreIsClamped(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxScore = 30

	h := newTestHeuristic(t, opts)

	got, err := h.Score(context.Background(), domain.Review{
		ID:       "r1",
		Body:     "WORST. PLACE. EVER!!! Horrible, disgusting, awful nightmare lol haha 😂",
		Rating:   1,
		Language: langEnglish,
	})
	require.NoError(t, err)
	assert.InDelta(t, 30, got.Humor, 0.001)
}

func TestHeuristic_EmptyBody(t *testing.T) {
	h := newTestHeuristic(t, DefaultOptions())

	for _, body := range []string{"", "   \n\t"} {
		_, err := h.Score(context.Background(), domain.Review{ID: "r1", Body: body, Rating: 1})
		require.ErrorIs(t, err, apperrors.ErrMalformedReview)
	}
}

func TestHeuristic_LanguageBonus(t *testing.T) {
	const body = "Terrible service, never again."

	tests := []struct {
		name    string
		bonus   float64
		ceiling float64
		wantEN  float64
		wantES  float64
	}{
		{name: "exact bonus below ceiling", bonus: 8, ceiling: 80, wantEN: 28, wantES: 36},
		{name: "bonus capped at ceiling", bonus: 8, ceiling: 30, wantEN: 28, wantES: 30},
		{name: "ceiling below base never lowers score", bonus: 8, ceiling: 20, wantEN: 28, wantES: 28},
		{name: "no bonus configured", bonus: 0, ceiling: 80, wantEN: 28, wantES: 28},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.LanguageBonus = tt.bonus
			opts.LanguageBonusCeiling = tt.ceiling

			h := newTestHeuristic(t, opts)

			en, err := h.Score(context.Background(), domain.Review{ID: "en", Body: body, Rating: 1, Language: langEnglish})
			require.NoError(t, err)

			es, err := h.Score(context.Background(), domain.Review{ID: "es", Body: body, Rating: 1, Language: langSpanish})
			require.NoError(t, err)

			assert.InDelta(t, tt.wantEN, en.Humor, 0.001)
			assert.InDelta(t, tt.wantES, es.Humor, 0.001)
		})
	}
}

func TestHeuristic_DetectsLanguageWhenUndeclared(t *testing.T) {
	h := newTestHeuristic(t, DefaultOptions())

	got, err := h.Score(context.Background(), domain.Review{
		ID:     "r1",
		Body:   "El sitio es muy malo y la comida fue un asco",
		Rating: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, langSpanish, got.Language)
}

func TestHeuristic_Safety(t *testing.T) {
	h := newTestHeuristic(t, DefaultOptions())

	tests := []struct {
		name string
		body string
		want domain.SafetyFlag
	}{
		{"plain complaint", "Terrible service, never again.", domain.SafetySafe},
		{"criminal accusation", "The owner is a thief and a liar", domain.SafetyRisky},
		{"email address", "Complain to manager@example.com like I did", domain.SafetyRisky},
		{"phone number", "Call them at +1 (555) 123-4567 and yell", domain.SafetyRisky},
		{"minors", "The kids menu made my children cry", domain.SafetyRisky},
		{"sensitive topic", "Someone called the police over a burrito", domain.SafetyUncertain},
		{"near miss", "Felt scammy but the fries were fine", domain.SafetyUncertain},
		{"spanish accusation", "Son unos ladrones", domain.SafetyRisky},
		{"slur", "The cashier called my brother a retard", domain.SafetyRisky},
		{"spanish slur", "El camarero nos llamó sudacas", domain.SafetyRisky},
		{"spicy food is not a slur", "Spicy salsa, terrible service.", domain.SafetySafe},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := h.Score(context.Background(), domain.Review{ID: "r1", Body: tt.body, Rating: 1})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Safety, got.SafetyNotes)
			assert.NotEmpty(t, got.SafetyNotes)
		})
	}
}

func TestNewHeuristic_InvalidInput(t *testing.T) {
	_, err := NewHeuristic(DefaultRules(), Options{})
	require.ErrorIs(t, err, apperrors.ErrInvalidInput)

	rules := DefaultRules()
	rules.Laughter = append(rules.Laughter, "(")

	_, err = NewHeuristic(rules, DefaultOptions())
	require.Error(t, err)

	rules = DefaultRules()
	rules.Safety.PIIPatterns = []string{"["}

	_, err = NewHeuristic(rules, DefaultOptions())
	require.Error(t, err)
}

func TestLoadRulesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := `
weights:
  base: 20
safety:
  risky:
    slurs: ["badword"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	rules, err := LoadRulesFile(path)
	require.NoError(t, err)

	assert.InDelta(t, 20, rules.Weights.Base, 0.001)
	assert.InDelta(t, DefaultRules().Weights.Superlative, rules.Weights.Superlative, 0.001)
	assert.Equal(t, DefaultRules().Superlatives, rules.Superlatives)
	assert.Equal(t, []string{"badword"}, rules.Safety.Risky[CategorySlurs])
	assert.NotEmpty(t, rules.Safety.Risky[CategoryLegalRisk])

	h, err := NewHeuristic(rules, DefaultOptions())
	require.NoError(t, err)

	got, err := h.Score(context.Background(), domain.Review{ID: "r1", Body: "what a BADWORD", Rating: 1})
	require.NoError(t, err)
	assert.Equal(t, domain.SafetyRisky, got.Safety)
}

func TestLoadRulesFile_Errors(t *testing.T) {
	rules, err := LoadRulesFile("")
	require.NoError(t, err)
	assert.Equal(t, DefaultRules().Weights, rules.Weights)

	_, err = LoadRulesFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("weights: [1, 2"), 0o600))

	_, err = LoadRulesFile(path)
	require.Error(t, err)
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"english", "The food was cold and the waiter was rude", langEnglish},
		{"spanish", "El sitio es muy malo y la comida fue un asco", langSpanish},
		{"spanish marks", "¡Qué horror! ¿Dónde está el baño?", langSpanish},
		{"empty", "", ""},
		{"non latin", "Ужасное место, никогда больше", ""},
		{"no cues", "Pizza pizza pizza", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectLanguage(tt.text))
		})
	}
}
