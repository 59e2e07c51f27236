package scoring

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/humor-review-scout/internal/core/domain"
	apperrors "github.com/lueurxax/humor-review-scout/internal/core/errors"
)

const (
	defaultJudgeTimeout = 20 * time.Second

	// LogFieldReviewID is the zerolog field name for review identifiers.
	LogFieldReviewID = "review_id"
)

// Result is the outcome of scoring a single review.
type Result struct {
	Humor       float64
	Safety      domain.SafetyFlag
	SafetyNotes string
	Source      string
	Notes       string
	Tags        []string
	Language    string
	LLMScore    *float64
	// Warning is set when the result was degraded but still usable.
	// It wraps ErrScoringUnavailable when the external judge could not be used.
	Warning error
}

// Apply copies the result onto a review.
func (r Result) Apply(review *domain.Review, at time.Time) {
	review.HumorScore = r.Humor
	review.Safety = r.Safety
	review.SafetyNotes = r.SafetyNotes
	review.ScoreSource = r.Source
	review.Notes = r.Notes
	review.Tags = append([]string(nil), r.Tags...)
	review.LLMScore = r.LLMScore

	if review.Language == "" {
		review.Language = r.Language
	}

	scoredAt := at
	review.ScoredAt = &scoredAt
}

// Scorer assigns a humor score and safety flag to a review.
type Scorer interface {
	Score(ctx context.Context, review domain.Review) (Result, error)
}

// Judge is the optional external humor judge.
type Judge interface {
	JudgeHumor(ctx context.Context, review domain.Review) (domain.HumorJudgment, error)
}

// ExternalScorer decorates a base scorer with an external judge. The judge
// score replaces the base score; safety keeps the stricter of both verdicts.
type ExternalScorer struct {
	base     Scorer
	judge    Judge
	timeout  time.Duration
	maxScore float64
	logger   *zerolog.Logger
}

// NewExternalScorer wraps base with judge. A non-positive timeout uses the default.
func NewExternalScorer(base Scorer, judge Judge, timeout time.Duration, maxScore float64, logger *zerolog.Logger) *ExternalScorer {
	if timeout <= 0 {
		timeout = defaultJudgeTimeout
	}

	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &ExternalScorer{
		base:     base,
		judge:    judge,
		timeout:  timeout,
		maxScore: maxScore,
		logger:   logger,
	}
}

// Score implements Scorer. Judge failures never fail the call: the base
// result is returned with Warning set.
func (s *ExternalScorer) Score(ctx context.Context, review domain.Review) (Result, error) {
	result, err := s.base.Score(ctx, review)
	if err != nil {
		return Result{}, err
	}

	judgeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	judgment, err := s.judge.JudgeHumor(judgeCtx, review)
	if err != nil {
		result.Warning = fmt.Errorf("%w: %w", apperrors.ErrScoringUnavailable, err)

		s.logger.Warn().
			Err(err).
			Str(LogFieldReviewID, review.ID).
			Msg("external humor judge unavailable, using heuristic score")

		return result, nil
	}

	score := clamp(judgment.Score, 0, s.maxScore)
	result.Humor = round(score)
	result.LLMScore = &score
	result.Source = domain.ScoreSourceLLM

	if len(judgment.Tags) > 0 {
		result.Tags = judgment.Tags
	}

	if judgment.Notes != "" {
		result.Notes = judgment.Notes
	}

	result.Safety, result.SafetyNotes = mergeSafety(result, judgment)

	return result, nil
}

func mergeSafety(result Result, judgment domain.HumorJudgment) (domain.SafetyFlag, string) {
	flag := domain.Stricter(result.Safety, judgment.Safety)

	switch {
	case judgment.SafetyNotes == "" || judgment.Safety < result.Safety:
		return flag, result.SafetyNotes
	case judgment.Safety > result.Safety || result.Safety == domain.SafetySafe:
		return flag, judgment.SafetyNotes
	default:
		return flag, strings.Join([]string{result.SafetyNotes, judgment.SafetyNotes}, "; ")
	}
}
