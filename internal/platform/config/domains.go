package config

import "time"

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	PostgresDSN       string        `env:"POSTGRES_DSN,required"`
	MaxConnections    int32         `env:"DB_MAX_CONNECTIONS" envDefault:"10"`
	MinConnections    int32         `env:"DB_MIN_CONNECTIONS" envDefault:"1"`
	MaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	MaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	HealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`
}

// ScoringConfig holds heuristic scorer settings.
type ScoringConfig struct {
	// RulesFile is an optional YAML file overriding lexicons, deny-lists and weights.
	RulesFile            string  `env:"SCORING_RULES_FILE"`
	MaxScore             float64 `env:"SCORE_MAX" envDefault:"100"`
	DefaultLanguage      string  `env:"DEFAULT_LANGUAGE" envDefault:"en"`
	LanguageBonus        float64 `env:"LANGUAGE_BONUS" envDefault:"8"`
	LanguageBonusCeiling float64 `env:"LANGUAGE_BONUS_CEILING" envDefault:"80"`
	// RatingThreshold excludes reviews rated at or above it from curation.
	RatingThreshold   int `env:"RATING_THRESHOLD" envDefault:"3"`
	MismatchMaxRating int `env:"MISMATCH_MAX_RATING" envDefault:"2"`
}

// LLMConfig holds the optional external humor judge settings.
type LLMConfig struct {
	Enabled          bool          `env:"LLM_ENABLED" envDefault:"false"`
	APIKey           string        `env:"LLM_API_KEY"`
	Model            string        `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`
	BaseURL          string        `env:"LLM_BASE_URL"`
	Prompt           string        `env:"LLM_PROMPT"`
	Temperature      float32       `env:"LLM_TEMPERATURE" envDefault:"0.2"`
	MaxTokens        int           `env:"LLM_MAX_TOKENS" envDefault:"300"`
	RateLimitRPS     float64       `env:"LLM_RATE_LIMIT_RPS" envDefault:"1"`
	Timeout          time.Duration `env:"LLM_TIMEOUT" envDefault:"20s"`
	CircuitThreshold int           `env:"LLM_CIRCUIT_THRESHOLD" envDefault:"5"`
	CircuitTimeout   time.Duration `env:"LLM_CIRCUIT_TIMEOUT" envDefault:"1m"`
}

// SerpAPIConfig holds the discovery and collection provider settings.
type SerpAPIConfig struct {
	APIKey       string        `env:"SERPAPI_API_KEY"`
	BaseURL      string        `env:"SERPAPI_BASE_URL" envDefault:"https://serpapi.com/search.json"`
	Language     string        `env:"SERPAPI_HL" envDefault:"es"`
	Country      string        `env:"SERPAPI_GL" envDefault:"us"`
	RateLimitRPS float64       `env:"SERPAPI_RATE_LIMIT_RPS" envDefault:"1"`
	Timeout      time.Duration `env:"SERPAPI_TIMEOUT" envDefault:"30s"`
	MaxPages     int           `env:"SERPAPI_MAX_PAGES" envDefault:"5"`
}

// DiscoveryConfig drives place discovery queries.
type DiscoveryConfig struct {
	Regions         []string `env:"DISCOVERY_REGIONS" envSeparator:","`
	Categories      []string `env:"DISCOVERY_CATEGORIES" envSeparator:","`
	MinTotalReviews int      `env:"DISCOVERY_MIN_TOTAL_REVIEWS" envDefault:"100"`
	MaxPlacesPerRun int      `env:"MAX_PLACES_PER_RUN" envDefault:"40"`
}

// CurationConfig holds collection, dedup and shortlist settings.
type CurationConfig struct {
	MaxReviewsPerPlace int            `env:"MAX_REVIEWS_PER_PLACE" envDefault:"25"`
	CollectWorkers     int            `env:"COLLECT_WORKERS" envDefault:"4"`
	DedupThreshold     float64        `env:"DEDUP_THRESHOLD" envDefault:"0.85"`
	DedupMinLength     int            `env:"DEDUP_MIN_LENGTH" envDefault:"10"`
	ShortlistLimit     int            `env:"WEEKLY_TARGET_COUNT" envDefault:"40"`
	PerPlaceCap        int            `env:"PER_PLACE_CAP" envDefault:"3"`
	HumorThreshold     float64        `env:"HUMOR_THRESHOLD" envDefault:"55"`
	TagCaps            map[string]int `env:"THEME_LIMITS" envSeparator:"," envKeyValSeparator:":"`
	AllowRepeat        bool           `env:"ALLOW_REPEAT_SUGGESTIONS" envDefault:"false"`
}

// ScheduleConfig holds the weekly run schedule used by scheduler mode.
type ScheduleConfig struct {
	Weekday      string        `env:"SCHEDULE_WEEKDAY" envDefault:"monday"`
	Hour         int           `env:"SCHEDULE_HOUR" envDefault:"9"`
	Timezone     string        `env:"SCHEDULE_TIMEZONE" envDefault:"UTC"`
	TickInterval time.Duration `env:"SCHEDULER_TICK_INTERVAL" envDefault:"10m"`
}
