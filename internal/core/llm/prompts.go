package llm

import (
	"strconv"
	"strings"

	"github.com/lueurxax/humor-review-scout/internal/core/domain"
)

const (
	promptRatingPlaceholder = "{{RATING}}"
	promptReviewPlaceholder = "{{REVIEW}}"
	promptReplyPlaceholder  = "{{OWNER_REPLY}}"
	promptScalePlaceholder  = "{{MAX_SCORE}}"
)

const systemPrompt = `Return STRICT JSON ONLY with the keys:
score (integer 0-{{MAX_SCORE}}), notes (short string), tags (array of short lowercase strings),
safety ("safe", "uncertain" or "risky"), safety_notes (short string).
No markdown. No extra keys.`

const defaultHumorPrompt = `Rate ONE business review for humor potential on a 0-{{MAX_SCORE}} scale,
where 0 is not funny at all and {{MAX_SCORE}} is hilarious.
Prefer one-star reviews that are funny. Our humor is irreverent: absurd situations,
dramatic exaggeration and funny anecdotes. A funny owner reply that is not copy-paste raises the score.
If nothing is funny, give a low score.
Mark safety "risky" if surfacing the review could harass someone, expose personal data,
contain slurs, accuse someone of a crime or involve minors. Mark "uncertain" for sensitive topics.

STARS:
{{RATING}}

REVIEW:
{{REVIEW}}

OWNER REPLY:
{{OWNER_REPLY}}`

func buildHumorPrompt(template string, review domain.Review, maxScore float64) string {
	if strings.TrimSpace(template) == "" {
		template = defaultHumorPrompt
	}

	replacer := strings.NewReplacer(
		promptRatingPlaceholder, strconv.Itoa(review.Rating),
		promptReviewPlaceholder, strings.TrimSpace(review.Body),
		promptReplyPlaceholder, strings.TrimSpace(review.OwnerReply),
		promptScalePlaceholder, strconv.FormatFloat(maxScore, 'f', -1, 64),
	)

	return replacer.Replace(template)
}

func buildSystemPrompt(maxScore float64) string {
	return strings.ReplaceAll(systemPrompt, promptScalePlaceholder, strconv.FormatFloat(maxScore, 'f', -1, 64))
}
