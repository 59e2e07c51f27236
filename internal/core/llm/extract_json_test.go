package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/humor-review-scout/internal/core/domain"
	apperrors "github.com/lueurxax/humor-review-scout/internal/core/errors"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "pure_object",
			input: `{"score":70}`,
			want:  `{"score":70}`,
		},
		{
			name:  "object_with_preamble",
			input: `Here: {"score":70} done.`,
			want:  `{"score":70}`,
		},
		{
			name:  "markdown_wrapped_object",
			input: "```json\n{\"score\":70}\n```",
			want:  `{"score":70}`,
		},
		{
			name:  "nested_braces",
			input: `{"notes":"a {quoted} aside","score":1}`,
			want:  `{"notes":"a {quoted} aside","score":1}`,
		},
		{
			name:  "no_json",
			input: "just some text",
			want:  "just some text",
		},
		{
			name:  "empty_object",
			input: `Result: {}`,
			want:  `{}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractJSON(tt.input)
			if got != tt.want {
				t.Errorf("extractJSON(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseJudgment(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		wantScore  float64
		wantSafety domain.SafetyFlag
		wantTags   []string
	}{
		{
			name:       "full payload",
			content:    `{"score":72,"notes":"absurd","tags":["Food"," food ","drama"],"safety":"uncertain","safety_notes":"mentions police"}`,
			wantScore:  72,
			wantSafety: domain.SafetyUncertain,
			wantTags:   []string{"food", "drama"},
		},
		{
			name:       "missing safety means no objection",
			content:    `{"score":40,"notes":"meh","tags":[]}`,
			wantScore:  40,
			wantSafety: domain.SafetySafe,
		},
		{
			name:       "score above scale is clamped",
			content:    `{"score":250}`,
			wantScore:  100,
			wantSafety: domain.SafetySafe,
		},
		{
			name:       "negative score is clamped",
			content:    `{"score":-5}`,
			wantScore:  0,
			wantSafety: domain.SafetySafe,
		},
		{
			name:       "bare number fallback is never safe",
			content:    "I would say 65 out of 100",
			wantScore:  65,
			wantSafety: domain.SafetyUncertain,
		},
		{
			name:       "score as numeric string keeps risky verdict",
			content:    `{"score":"85","notes":"funny","safety":"risky","safety_notes":"names an employee"}`,
			wantScore:  85,
			wantSafety: domain.SafetyRisky,
		},
		{
			name:       "quoted score with spaces",
			content:    `{"score":" 42.5 ","safety":"safe"}`,
			wantScore:  42.5,
			wantSafety: domain.SafetySafe,
		},
		{
			name:       "unusable score field falls back but keeps safety",
			content:    `Verdict: {"score":"high","notes":"rated 70","safety":"risky"}`,
			wantScore:  70,
			wantSafety: domain.SafetyRisky,
		},
		{
			name:       "null score falls back to uncertain",
			content:    `{"score":null,"notes":"about 30"}`,
			wantScore:  30,
			wantSafety: domain.SafetyUncertain,
		},
		{
			name:       "risky label variants",
			content:    `{"score":80,"safety":"not_recommended"}`,
			wantScore:  80,
			wantSafety: domain.SafetyRisky,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseJudgment(tt.content, 100)
			require.NoError(t, err)
			assert.InDelta(t, tt.wantScore, got.Score, 0.001)
			assert.Equal(t, tt.wantSafety, got.Safety)
			assert.Equal(t, tt.wantTags, got.Tags)
		})
	}
}

func TestParseJudgment_StringScoreKeepsSafetyNotes(t *testing.T) {
	got, err := parseJudgment(`{"score":"85","notes":"funny","safety":"risky","safety_notes":"names an employee"}`, 100)
	require.NoError(t, err)
	assert.Equal(t, "names an employee", got.SafetyNotes)
	assert.Equal(t, "funny", got.Notes)
}

func TestParseJudgment_Errors(t *testing.T) {
	_, err := parseJudgment("   ", 100)
	require.ErrorIs(t, err, apperrors.ErrEmptyResponse)

	_, err = parseJudgment("no numbers here", 100)
	require.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestBuildHumorPrompt(t *testing.T) {
	review := domain.Review{Body: "  The soup was sentient  ", OwnerReply: "We disagree", Rating: 1}

	got := buildHumorPrompt("", review, 100)
	assert.Contains(t, got, "STARS:\n1")
	assert.Contains(t, got, "REVIEW:\nThe soup was sentient\n")
	assert.Contains(t, got, "OWNER REPLY:\nWe disagree")
	assert.Contains(t, got, "0-100 scale")
	assert.NotContains(t, got, "{{")

	custom := buildHumorPrompt("Rate {{REVIEW}} ({{RATING}} stars) out of {{MAX_SCORE}}", review, 10)
	assert.Equal(t, "Rate The soup was sentient (1 stars) out of 10", custom)

	assert.Contains(t, buildSystemPrompt(100), "integer 0-100")
}
