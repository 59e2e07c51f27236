package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	apperrors "github.com/lueurxax/humor-review-scout/internal/core/errors"
)

const (
	hoursPerDay = 24
	maxHour     = hoursPerDay - 1
)

type Config struct {
	AppEnv     string `env:"APP_ENV" envDefault:"local"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
	HealthPort int    `env:"HEALTH_PORT" envDefault:"8080"`
	OutputDir  string `env:"OUTPUT_DIR" envDefault:"out"`

	Database  DatabaseConfig
	Scoring   ScoringConfig
	LLM       LLMConfig
	SerpAPI   SerpAPIConfig
	Discovery DiscoveryConfig
	Curation  CurationConfig
	Schedule  ScheduleConfig
}

func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env file is optional, error is expected when not present

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}

	applyAliases(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyAliases honors the variable names used by earlier deployments.
func applyAliases(cfg *Config) {
	if !hasEnv("LLM_API_KEY") {
		setStringFromEnv("OPENAI_API_KEY", &cfg.LLM.APIKey)
	}

	if !hasEnv("HUMOR_THRESHOLD") {
		setFloatFromEnv("MIN_HUMOR_SCORE", &cfg.Curation.HumorThreshold)
	}
}

// Validate checks cross-field constraints env tags cannot express.
func (c *Config) Validate() error {
	if c.Scoring.MaxScore <= 0 {
		return fmt.Errorf("%w: SCORE_MAX must be positive", apperrors.ErrInvalidInput)
	}

	if c.Scoring.LanguageBonus < 0 {
		return fmt.Errorf("%w: LANGUAGE_BONUS must not be negative", apperrors.ErrInvalidInput)
	}

	if c.Scoring.LanguageBonusCeiling > c.Scoring.MaxScore {
		return fmt.Errorf("%w: LANGUAGE_BONUS_CEILING exceeds SCORE_MAX", apperrors.ErrInvalidInput)
	}

	if c.Curation.DedupThreshold <= 0 || c.Curation.DedupThreshold > 1 {
		return fmt.Errorf("%w: DEDUP_THRESHOLD must be in (0, 1]", apperrors.ErrInvalidInput)
	}

	if c.Curation.ShortlistLimit <= 0 || c.Curation.PerPlaceCap <= 0 {
		return fmt.Errorf("%w: WEEKLY_TARGET_COUNT and PER_PLACE_CAP must be positive", apperrors.ErrInvalidInput)
	}

	if c.LLM.Enabled && c.LLM.APIKey == "" {
		return fmt.Errorf("LLM_ENABLED requires LLM_API_KEY: %w", apperrors.ErrMissingAPIKey)
	}

	if c.Schedule.Hour < 0 || c.Schedule.Hour > maxHour {
		return fmt.Errorf("%w: SCHEDULE_HOUR must be 0-23", apperrors.ErrInvalidInput)
	}

	if _, err := c.Schedule.Day(); err != nil {
		return err
	}

	if _, err := c.Schedule.Location(); err != nil {
		return err
	}

	return nil
}

// IsLocal reports whether the app runs in a developer environment.
func (c *Config) IsLocal() bool {
	return strings.EqualFold(c.AppEnv, "local")
}

// Day parses the configured weekday name.
func (s ScheduleConfig) Day() (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(s.Weekday))

	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.ToLower(d.String()) == name || strings.ToLower(d.String()[:3]) == name {
			return d, nil
		}
	}

	return time.Sunday, fmt.Errorf("%w: unknown SCHEDULE_WEEKDAY %q", apperrors.ErrInvalidInput, s.Weekday)
}

// Location loads the configured time zone.
func (s ScheduleConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: SCHEDULE_TIMEZONE: %w", apperrors.ErrInvalidInput, err)
	}

	return loc, nil
}

func hasEnv(key string) bool {
	_, ok := os.LookupEnv(key)
	return ok
}

func setStringFromEnv(key string, target *string) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}

	val = strings.TrimSpace(val)
	if val == "" {
		return
	}

	*target = val
}

func setFloatFromEnv(key string, target *float64) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}

	parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
	if err != nil {
		return
	}

	*target = parsed
}
