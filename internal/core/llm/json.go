package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/lueurxax/humor-review-scout/internal/core/domain"
	apperrors "github.com/lueurxax/humor-review-scout/internal/core/errors"
)

var bareScorePattern = regexp.MustCompile(`\b(\d{1,3}(?:\.\d+)?)\b`)

// extractJSON returns the outermost JSON object in text, tolerating
// preambles and markdown fences. Text without an object is returned as is.
func extractJSON(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")

	if start != -1 && end != -1 && end > start {
		return text[start : end+1]
	}

	return text
}

// judgedScore accepts a score sent as a JSON number or as a numeric string.
type judgedScore struct {
	value float64
	valid bool
}

func (s *judgedScore) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" {
		return nil
	}

	if unquoted, err := strconv.Unquote(raw); err == nil {
		raw = strings.TrimSpace(unquoted)
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		// A non-numeric score is treated as absent so the rest of the object survives.
		return nil //nolint:nilerr // handled by the bare number fallback
	}

	s.value, s.valid = v, true

	return nil
}

// parseJudgment decodes a model answer. A reply without a usable score field
// but with a bare number is accepted as a score; such a reply keeps any safety
// verdict the object carried and is never judged safer than uncertain.
func parseJudgment(content string, maxScore float64) (domain.HumorJudgment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return domain.HumorJudgment{}, apperrors.ErrEmptyResponse
	}

	var payload judgmentPayload

	decoded := json.Unmarshal([]byte(extractJSON(content)), &payload) == nil
	if decoded && payload.Score.valid {
		return payload.toJudgment(maxScore), nil
	}

	match := bareScorePattern.FindStringSubmatch(content)
	if match == nil {
		return domain.HumorJudgment{}, fmt.Errorf(errParseResponse, fmt.Errorf("%w: no score in %q", apperrors.ErrInvalidInput, truncate(content)))
	}

	score, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return domain.HumorJudgment{}, fmt.Errorf(errParseResponse, err)
	}

	if !decoded {
		payload = judgmentPayload{}
	}

	payload.Score = judgedScore{value: score, valid: true}
	if payload.Notes == "" {
		payload.Notes = "parsed score"
	}

	judgment := payload.toJudgment(maxScore)
	judgment.Safety = domain.Stricter(judgment.Safety, domain.SafetyUncertain)

	return judgment, nil
}

func (p judgmentPayload) toJudgment(maxScore float64) domain.HumorJudgment {
	score := p.Score.value
	if score < 0 {
		score = 0
	}

	if maxScore > 0 && score > maxScore {
		score = maxScore
	}

	return domain.HumorJudgment{
		Score:       score,
		Safety:      judgeSafety(p.Safety),
		SafetyNotes: strings.TrimSpace(p.SafetyNotes),
		Notes:       strings.TrimSpace(p.Notes),
		Tags:        normalizeTags(p.Tags),
	}
}

// judgeSafety treats a missing verdict as no objection. The scorer keeps the
// stricter of this and the heuristic flag.
func judgeSafety(label string) domain.SafetyFlag {
	if strings.TrimSpace(label) == "" {
		return domain.SafetySafe
	}

	return domain.ParseSafety(label)
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))

	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}

		if _, ok := seen[tag]; ok {
			continue
		}

		seen[tag] = struct{}{}
		out = append(out, tag)
	}

	if len(out) == 0 {
		return nil
	}

	return out
}

const maxErrorSnippet = 120

func truncate(s string) string {
	if len(s) <= maxErrorSnippet {
		return s
	}

	return s[:maxErrorSnippet] + "..."
}
