package llm

import "time"

// Error message templates
const (
	errRateLimiter          = "rate limiter error: %w"
	errOpenAIChatCompletion = "openai chat completion error: %w"
	errParseResponse        = "failed to parse response: %w"
)

const (
	// llmAPIKeyMock selects the offline mock judge.
	llmAPIKeyMock = "mock"

	rateLimiterBurst = 5

	defaultCircuitThreshold = 5
	defaultCircuitTimeout   = time.Minute
	defaultMaxTokens        = 300
	defaultMaxScore         = 100
	defaultModel            = "gpt-4o-mini"

	redactedSecret = "REDACTED"
)

// Log key strings
const (
	logKeyModel    = "model"
	logKeyReviewID = "review_id"
	logKeyScore    = "score"
)

// Mock judge values.
const (
	mockBaseScore    = 20
	mockScorePerMark = 10
	mockTag          = "mock"
)
