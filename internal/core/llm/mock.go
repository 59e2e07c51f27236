package llm

import (
	"context"
	"strings"

	"github.com/lueurxax/humor-review-scout/internal/core/domain"
	apperrors "github.com/lueurxax/humor-review-scout/internal/core/errors"
)

// mockClient is an offline judge for local runs and tests. It scores by
// counting exclamation marks and never reports safety concerns.
type mockClient struct {
	maxScore float64
}

// NewMock creates a deterministic offline judge.
func NewMock(maxScore float64) Client {
	if maxScore <= 0 {
		maxScore = defaultMaxScore
	}

	return &mockClient{maxScore: maxScore}
}

// JudgeHumor implements Client.
func (m *mockClient) JudgeHumor(ctx context.Context, review domain.Review) (domain.HumorJudgment, error) {
	if err := ctx.Err(); err != nil {
		return domain.HumorJudgment{}, err
	}

	if strings.TrimSpace(review.Body) == "" {
		return domain.HumorJudgment{}, apperrors.ErrEmptyResponse
	}

	score := float64(mockBaseScore + mockScorePerMark*strings.Count(review.Body, "!"))
	if score > m.maxScore {
		score = m.maxScore
	}

	return domain.HumorJudgment{
		Score:  score,
		Safety: domain.SafetySafe,
		Notes:  "mock judgment",
		Tags:   []string{mockTag},
		Model:  llmAPIKeyMock,
	}, nil
}
