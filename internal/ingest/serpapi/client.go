// Package serpapi discovers places and fetches their reviews through the
// SerpApi Google Maps engines.
package serpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	apperrors "github.com/lueurxax/humor-review-scout/internal/core/errors"
	"github.com/lueurxax/humor-review-scout/internal/platform/observability"
)

const (
	// Provider is recorded on places discovered through this client.
	Provider = "serpapi"

	defaultBaseURL  = "https://serpapi.com/search.json"
	defaultTimeout  = 30 * time.Second
	defaultRPS      = 1.0
	defaultMaxPages = 5

	engineMaps    = "google_maps"
	engineReviews = "google_maps_reviews"
	sortRatingLow = "ratingLow"

	paramAPIKey    = "api_key"
	redactedValue  = "REDACTED"
	maxErrorBody   = 512
	noResultsError = "hasn't returned any results"
)

var errProvider = errors.New("serpapi error")

// Config holds client settings.
type Config struct {
	APIKey       string
	BaseURL      string
	Language     string
	Country      string
	RateLimitRPS float64
	Timeout      time.Duration
	MaxPages     int
}

// Client talks to the SerpApi search endpoint. It is safe for concurrent use.
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zerolog.Logger
	now        func() time.Time
}

// New creates a client. An API key is required.
func New(cfg Config, logger *zerolog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("serpapi: %w", apperrors.ErrMissingAPIKey)
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	if cfg.RateLimitRPS <= 0 {
		cfg.RateLimitRPS = defaultRPS
	}

	if cfg.MaxPages <= 0 {
		cfg.MaxPages = defaultMaxPages
	}

	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), 1),
		logger:     logger,
		now:        time.Now,
	}, nil
}

// get performs one rate limited request and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, engine string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("serpapi rate limit: %w", err)
	}

	params.Set("engine", engine)
	params.Set(paramAPIKey, c.cfg.APIKey)

	if c.cfg.Language != "" {
		params.Set("hl", c.cfg.Language)
	}

	if c.cfg.Country != "" {
		params.Set("gl", c.cfg.Country)
	}

	reqURL := c.cfg.BaseURL + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("create serpapi request: %w", errors.New(redact(err.Error(), c.cfg.APIKey)))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		observability.ProviderRequests.WithLabelValues(engine, "error").Inc()

		return fmt.Errorf("serpapi request %s: %w", redactURL(reqURL), unwrapURLError(err))
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	observability.ProviderRequests.WithLabelValues(engine, strconv.Itoa(resp.StatusCode)).Inc()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read serpapi response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %d from %s: %s", apperrors.ErrUnexpectedStatus, resp.StatusCode,
			redactURL(reqURL), truncate(redact(string(body), c.cfg.APIKey), maxErrorBody))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse serpapi json: %w", err)
	}

	return nil
}

// checkError turns the error field of a payload into an error. Empty result
// sets are not errors.
func checkError(message string) error {
	if message == "" || strings.Contains(message, noResultsError) {
		return nil
	}

	return fmt.Errorf("%w: %s", errProvider, message)
}

// redactURL hides the API key in a request URL.
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "request_url_unavailable"
	}

	q := u.Query()
	for key := range q {
		switch strings.ToLower(key) {
		case paramAPIKey, "key", "apikey":
			q.Set(key, redactedValue)
		}
	}

	u.RawQuery = q.Encode()

	return u.String()
}

func redact(s, secret string) string {
	if secret == "" {
		return s
	}

	return strings.ReplaceAll(s, secret, redactedValue)
}

// unwrapURLError drops the request URL that net/http embeds in transport errors.
func unwrapURLError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}

	return err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}

	return s[:n] + "..."
}
