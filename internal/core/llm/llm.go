// Package llm provides the optional external humor judge.
package llm

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/lueurxax/humor-review-scout/internal/core/domain"
	apperrors "github.com/lueurxax/humor-review-scout/internal/core/errors"
	"github.com/lueurxax/humor-review-scout/internal/platform/config"
)

// Client judges the humor and safety of a single review.
type Client interface {
	JudgeHumor(ctx context.Context, review domain.Review) (domain.HumorJudgment, error)
}

// judgmentPayload is the JSON object the model is asked to return.
type judgmentPayload struct {
	Score       judgedScore `json:"score"`
	Notes       string      `json:"notes"`
	Tags        []string    `json:"tags"`
	Safety      string      `json:"safety"`
	SafetyNotes string      `json:"safety_notes"`
}

// New creates the configured judge. The "mock" key selects an offline judge.
func New(cfg *config.Config, logger *zerolog.Logger) (Client, error) {
	if logger == nil {
		nopLogger := zerolog.Nop()
		logger = &nopLogger
	}

	switch cfg.LLM.APIKey {
	case "":
		return nil, fmt.Errorf("llm judge: %w", apperrors.ErrMissingAPIKey)
	case llmAPIKeyMock:
		return NewMock(cfg.Scoring.MaxScore), nil
	default:
		return NewOpenAI(cfg, logger), nil
	}
}
