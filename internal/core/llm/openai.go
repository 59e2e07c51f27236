package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/lueurxax/humor-review-scout/internal/core/domain"
	apperrors "github.com/lueurxax/humor-review-scout/internal/core/errors"
	"github.com/lueurxax/humor-review-scout/internal/platform/config"
	"github.com/lueurxax/humor-review-scout/internal/platform/observability"
)

const (
	statusOK    = "ok"
	statusError = "error"
	statusOpen  = "circuit_open"
)

type openaiClient struct {
	cfg         config.LLMConfig
	maxScore    float64
	client      *openai.Client
	logger      *zerolog.Logger
	rateLimiter *rate.Limiter
	now         func() time.Time

	// Circuit breaker state
	consecutiveFailures int
	circuitOpenUntil    time.Time
	mu                  sync.Mutex
}

// NewOpenAI creates a judge backed by an OpenAI-compatible chat completions API.
// Calls are rate limited and guarded by a circuit breaker.
func NewOpenAI(cfg *config.Config, logger *zerolog.Logger) Client {
	llmCfg := cfg.LLM

	clientCfg := openai.DefaultConfig(llmCfg.APIKey)
	if llmCfg.BaseURL != "" {
		clientCfg.BaseURL = llmCfg.BaseURL
	}

	if llmCfg.CircuitThreshold <= 0 {
		llmCfg.CircuitThreshold = defaultCircuitThreshold
	}

	if llmCfg.CircuitTimeout <= 0 {
		llmCfg.CircuitTimeout = defaultCircuitTimeout
	}

	if llmCfg.Model == "" {
		llmCfg.Model = defaultModel
	}

	if llmCfg.MaxTokens <= 0 {
		llmCfg.MaxTokens = defaultMaxTokens
	}

	limit := rate.Inf
	if llmCfg.RateLimitRPS > 0 {
		limit = rate.Limit(llmCfg.RateLimitRPS)
	}

	maxScore := cfg.Scoring.MaxScore
	if maxScore <= 0 {
		maxScore = defaultMaxScore
	}

	return &openaiClient{
		cfg:         llmCfg,
		maxScore:    maxScore,
		client:      openai.NewClientWithConfig(clientCfg),
		logger:      logger,
		rateLimiter: rate.NewLimiter(limit, rateLimiterBurst),
		now:         time.Now,
	}
}

func (c *openaiClient) checkCircuit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.now().Before(c.circuitOpenUntil) {
		return fmt.Errorf("%w until %v", apperrors.ErrCircuitBreakerOpen, c.circuitOpenUntil)
	}

	return nil
}

func (c *openaiClient) recordSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.consecutiveFailures = 0
}

func (c *openaiClient) recordFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.consecutiveFailures++
	if c.consecutiveFailures >= c.cfg.CircuitThreshold {
		c.circuitOpenUntil = c.now().Add(c.cfg.CircuitTimeout)
		c.logger.Warn().
			Int("consecutive_failures", c.consecutiveFailures).
			Time("open_until", c.circuitOpenUntil).
			Msg("Circuit breaker opened")
	}
}

// JudgeHumor asks the model for a humor score and safety verdict.
func (c *openaiClient) JudgeHumor(ctx context.Context, review domain.Review) (domain.HumorJudgment, error) {
	if err := c.checkCircuit(); err != nil {
		observability.LLMRequests.WithLabelValues(statusOpen).Inc()

		return domain.HumorJudgment{}, err
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return domain.HumorJudgment{}, fmt.Errorf(errRateLimiter, err)
	}

	start := time.Now()

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: buildSystemPrompt(c.maxScore)},
			{Role: openai.ChatMessageRoleUser, Content: buildHumorPrompt(c.cfg.Prompt, review, c.maxScore)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	})

	observability.LLMRequestDuration.WithLabelValues(c.cfg.Model).Observe(time.Since(start).Seconds())

	if err != nil {
		c.recordFailure()
		observability.LLMRequests.WithLabelValues(statusError).Inc()

		return domain.HumorJudgment{}, fmt.Errorf(errOpenAIChatCompletion, c.redact(err))
	}

	c.recordSuccess()

	if len(resp.Choices) == 0 {
		observability.LLMRequests.WithLabelValues(statusError).Inc()

		return domain.HumorJudgment{}, fmt.Errorf("openai: %w", apperrors.ErrEmptyResponse)
	}

	content := resp.Choices[0].Message.Content
	c.logger.Debug().Str(logKeyReviewID, review.ID).Str("content", content).Msg("LLM response")

	judgment, err := parseJudgment(content, c.maxScore)
	if err != nil {
		observability.LLMRequests.WithLabelValues(statusError).Inc()

		return domain.HumorJudgment{}, err
	}

	judgment.Model = c.cfg.Model
	observability.LLMRequests.WithLabelValues(statusOK).Inc()

	c.logger.Debug().
		Str(logKeyReviewID, review.ID).
		Str(logKeyModel, c.cfg.Model).
		Float64(logKeyScore, judgment.Score).
		Msg("LLM humor judgment")

	return judgment, nil
}

// redact hides the API key in provider errors while keeping the error chain.
func (c *openaiClient) redact(err error) error {
	if c.cfg.APIKey == "" || !strings.Contains(err.Error(), c.cfg.APIKey) {
		return err
	}

	return &redactedError{err: err, secret: c.cfg.APIKey}
}

type redactedError struct {
	err    error
	secret string
}

func (e *redactedError) Error() string {
	return strings.ReplaceAll(e.err.Error(), e.secret, redactedSecret)
}

func (e *redactedError) Unwrap() error {
	return e.err
}
