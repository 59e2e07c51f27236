// Package app provides the main application bootstrap and runtime orchestration.
//
// The App type wires together all dependencies and exposes methods to run
// different operational modes:
//
//   - Discover mode: search configured regions and categories for places
//   - Collect mode: fetch low-rated reviews of active places
//   - Shortlist mode: run one curation cycle over stored reviews
//   - Weekly mode: discover, collect and curate in one pass
//   - Scheduler mode: run the weekly pass on the configured weekday and hour
//   - Operator commands: add, hide or restore a place, list reviews by state or
//     place, move a review between lifecycle states
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/humor-review-scout/internal/core/domain"
	apperrors "github.com/lueurxax/humor-review-scout/internal/core/errors"
	"github.com/lueurxax/humor-review-scout/internal/core/llm"
	"github.com/lueurxax/humor-review-scout/internal/core/ports"
	"github.com/lueurxax/humor-review-scout/internal/ingest/collector"
	"github.com/lueurxax/humor-review-scout/internal/ingest/serpapi"
	"github.com/lueurxax/humor-review-scout/internal/output/shortlist"
	"github.com/lueurxax/humor-review-scout/internal/platform/config"
	"github.com/lueurxax/humor-review-scout/internal/platform/observability"
	"github.com/lueurxax/humor-review-scout/internal/platform/worker"
	"github.com/lueurxax/humor-review-scout/internal/process/dedup"
	"github.com/lueurxax/humor-review-scout/internal/process/lifecycle"
	"github.com/lueurxax/humor-review-scout/internal/process/pipeline"
	"github.com/lueurxax/humor-review-scout/internal/process/scoring"
)

const (
	weeklyTaskName = "curation"
	daysPerWeek    = 7

	logFieldCycleID = "cycle_id"
	logFieldReview  = "review_id"
	logFieldPlace   = "place_id"
	logFieldStatus  = "status"
)

// Store is the persistence the application runs on.
type Store interface {
	ports.ReviewStore
	Ping(ctx context.Context) error
}

// App holds the application dependencies and provides methods to run different modes.
type App struct {
	cfg    *config.Config
	store  Store
	logger *zerolog.Logger
	now    func() time.Time

	// newSource builds the review provider; replaced in tests.
	newSource func() (collector.Source, error)
}

// New creates a new App instance with the given dependencies.
func New(cfg *config.Config, store Store, logger *zerolog.Logger) *App {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	a := &App{
		cfg:    cfg,
		store:  store,
		logger: logger,
		now:    time.Now,
	}

	a.newSource = a.newSerpAPIClient

	return a
}

// StartHealthServer starts the health, metrics and shortlist file server.
func (a *App) StartHealthServer(ctx context.Context) error {
	files := http.FileServer(http.Dir(a.cfg.OutputDir))

	server := observability.NewServerWithShortlists(a.store, a.cfg.HealthPort, files, a.logger)

	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("health server: %w", err)
	}

	return nil
}

// RunDiscover searches for places and stores them.
func (a *App) RunDiscover(ctx context.Context) (collector.DiscoverReport, error) {
	c, err := a.newCollector()
	if err != nil {
		return collector.DiscoverReport{}, err
	}

	report, err := c.Discover(ctx)
	if err != nil {
		return report, fmt.Errorf("discover: %w", err)
	}

	return report, nil
}

// RunCollect fetches reviews for active places.
func (a *App) RunCollect(ctx context.Context) (collector.CollectReport, error) {
	c, err := a.newCollector()
	if err != nil {
		return collector.CollectReport{}, err
	}

	report, err := c.Collect(ctx)
	if err != nil {
		return report, fmt.Errorf("collect: %w", err)
	}

	return report, nil
}

// RunShortlist runs one curation cycle over the stored reviews.
func (a *App) RunShortlist(ctx context.Context, opts pipeline.RunOptions) (*pipeline.Report, error) {
	p, err := a.newPipeline()
	if err != nil {
		return nil, err
	}

	report, err := p.Run(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("curation cycle: %w", err)
	}

	a.logReport(report)

	return report, nil
}

// RunWeekly discovers places, collects reviews and curates the shortlist.
// Ingest is skipped when no provider key is configured.
func (a *App) RunWeekly(ctx context.Context, opts pipeline.RunOptions) (*pipeline.Report, error) {
	if err := a.ingest(ctx); err != nil {
		return nil, err
	}

	return a.RunShortlist(ctx, opts)
}

func (a *App) ingest(ctx context.Context) error {
	c, err := a.newCollector()
	if errors.Is(err, apperrors.ErrMissingAPIKey) {
		a.logger.Warn().Msg("SERPAPI_API_KEY not set, skipping discovery and collection")

		return nil
	}

	if err != nil {
		return err
	}

	if len(a.cfg.Discovery.Regions) > 0 && len(a.cfg.Discovery.Categories) > 0 {
		if _, err := c.Discover(ctx); err != nil {
			return fmt.Errorf("discover: %w", err)
		}
	}

	if _, err := c.Collect(ctx); err != nil {
		return fmt.Errorf("collect: %w", err)
	}

	return nil
}

// RunScheduler runs the weekly pass on schedule and serves health endpoints
// until ctx is canceled.
func (a *App) RunScheduler(ctx context.Context) error {
	scheduler, err := a.newScheduler(ctx)
	if err != nil {
		return err
	}

	go func() {
		if err := a.StartHealthServer(ctx); err != nil {
			a.logger.Error().Err(err).Msg("health check server error")
		}
	}()

	if err := scheduler.Run(ctx); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}

	return nil
}

func (a *App) newScheduler(ctx context.Context) (*worker.Scheduler, error) {
	day, err := a.cfg.Schedule.Day()
	if err != nil {
		return nil, fmt.Errorf("schedule: %w", err)
	}

	loc, err := a.cfg.Schedule.Location()
	if err != nil {
		return nil, fmt.Errorf("schedule: %w", err)
	}

	task := &worker.WeeklyTask{
		Name:     weeklyTaskName,
		Day:      day,
		Hour:     a.cfg.Schedule.Hour,
		Location: loc,
		Run: func(ctx context.Context) error {
			_, err := a.RunWeekly(ctx, pipeline.RunOptions{})
			return err
		},
	}

	scheduler := worker.NewScheduler(task, a.cfg.Schedule.TickInterval, a.logger)
	a.seedLastRun(ctx, task, scheduler)

	return scheduler, nil
}

// seedLastRun marks the current slot as done when its cycle already has a
// stored shortlist, so a restart inside the run hour does not repeat it.
func (a *App) seedLastRun(ctx context.Context, task *worker.WeeklyTask, scheduler *worker.Scheduler) {
	now := a.now()
	previous := task.Next(now).AddDate(0, 0, -daysPerWeek)

	// Cycles are keyed by the UTC week, the same way the pipeline derives them.
	stored, err := a.store.GetShortlistByCycle(ctx, domain.CycleIDFor(previous.UTC()))
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			a.logger.Warn().Err(err).Msg("could not load last shortlist")
		}

		return
	}

	if stored.DryRun || stored.GeneratedAt.Before(previous) {
		return
	}

	scheduler.SetLastRun(previous)
	a.logger.Info().Str(logFieldCycleID, stored.CycleID).Msg("current slot already curated")
}

// AddPlace registers a place by provider id.
func (a *App) AddPlace(ctx context.Context, placeID string) (*domain.Place, error) {
	c := collector.New(nil, a.store, collector.Options{}, a.logger)

	place, err := c.AddPlace(ctx, placeID)
	if err != nil {
		return nil, err
	}

	a.logger.Info().Str(logFieldPlace, place.ID).Msg("place added")

	return place, nil
}

// SetStatus moves a review to another lifecycle state.
func (a *App) SetStatus(ctx context.Context, reviewID, status string) (*domain.Review, error) {
	if reviewID == "" {
		return nil, fmt.Errorf("%w: review id is required", apperrors.ErrInvalidInput)
	}

	to, err := domain.ParseStatus(status)
	if err != nil {
		return nil, err
	}

	review, err := lifecycle.NewManager(a.store, a.logger).SetStatus(ctx, reviewID, to)
	if err != nil {
		return nil, fmt.Errorf("set status of %s: %w", reviewID, err)
	}

	a.logger.Info().Str(logFieldReview, reviewID).Str(logFieldStatus, review.Status.String()).Msg("status updated")

	return review, nil
}

func (a *App) newCollector() (*collector.Collector, error) {
	source, err := a.newSource()
	if err != nil {
		return nil, err
	}

	return collector.New(source, a.store, collector.Options{
		Regions:            a.cfg.Discovery.Regions,
		Categories:         a.cfg.Discovery.Categories,
		MinTotalReviews:    a.cfg.Discovery.MinTotalReviews,
		MaxPlacesPerRun:    a.cfg.Discovery.MaxPlacesPerRun,
		RatingThreshold:    a.cfg.Scoring.RatingThreshold,
		MaxReviewsPerPlace: a.cfg.Curation.MaxReviewsPerPlace,
		Workers:            a.cfg.Curation.CollectWorkers,
	}, a.logger), nil
}

func (a *App) newSerpAPIClient() (collector.Source, error) {
	client, err := serpapi.New(serpapi.Config{
		APIKey:       a.cfg.SerpAPI.APIKey,
		BaseURL:      a.cfg.SerpAPI.BaseURL,
		Language:     a.cfg.SerpAPI.Language,
		Country:      a.cfg.SerpAPI.Country,
		RateLimitRPS: a.cfg.SerpAPI.RateLimitRPS,
		Timeout:      a.cfg.SerpAPI.Timeout,
		MaxPages:     a.cfg.SerpAPI.MaxPages,
	}, a.logger)
	if err != nil {
		return nil, fmt.Errorf("review provider: %w", err)
	}

	return client, nil
}

func (a *App) newScorer() (scoring.Scorer, error) {
	rules, err := scoring.LoadRulesFile(a.cfg.Scoring.RulesFile)
	if err != nil {
		return nil, fmt.Errorf("scoring rules: %w", err)
	}

	heuristic, err := scoring.NewHeuristic(rules, scoring.Options{
		MaxScore:             a.cfg.Scoring.MaxScore,
		DefaultLanguage:      a.cfg.Scoring.DefaultLanguage,
		LanguageBonus:        a.cfg.Scoring.LanguageBonus,
		LanguageBonusCeiling: a.cfg.Scoring.LanguageBonusCeiling,
		MismatchMaxRating:    a.cfg.Scoring.MismatchMaxRating,
	})
	if err != nil {
		return nil, fmt.Errorf("heuristic scorer: %w", err)
	}

	if !a.cfg.LLM.Enabled {
		return heuristic, nil
	}

	judge, err := llm.New(a.cfg, a.logger)
	if err != nil {
		return nil, fmt.Errorf("humor judge: %w", err)
	}

	a.logger.Info().Str("model", a.cfg.LLM.Model).Msg("external humor judge enabled")

	return scoring.NewExternalScorer(heuristic, judge, a.cfg.LLM.Timeout, a.cfg.Scoring.MaxScore, a.logger), nil
}

func (a *App) newPipeline() (*pipeline.Pipeline, error) {
	scorer, err := a.newScorer()
	if err != nil {
		return nil, err
	}

	renderer, err := shortlist.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("shortlist renderer: %w", err)
	}

	builder := shortlist.NewBuilder(lifecycle.NewManager(a.store, a.logger), shortlist.Options{
		Limit:       a.cfg.Curation.ShortlistLimit,
		PerPlaceCap: a.cfg.Curation.PerPlaceCap,
		MinScore:    a.cfg.Curation.HumorThreshold,
		TagCaps:     a.cfg.Curation.TagCaps,
	}, a.logger)

	return pipeline.New(a.store, scorer, builder, renderer, pipeline.Options{
		RatingThreshold: a.cfg.Scoring.RatingThreshold,
		AllowRepeat:     a.cfg.Curation.AllowRepeat,
		Dedup: dedup.Options{
			Threshold: a.cfg.Curation.DedupThreshold,
			MinLength: a.cfg.Curation.DedupMinLength,
		},
		OutputDir: a.cfg.OutputDir,
	}, a.logger), nil
}

func (a *App) logReport(report *pipeline.Report) {
	event := a.logger.Info().
		Str(logFieldCycleID, report.CycleID).
		Int("candidates", report.Candidates).
		Int("scored", report.Scored).
		Int("malformed", report.Malformed).
		Int("scoring_warnings", report.ScoringWarnings).
		Int("groups", report.Groups).
		Strs("files", report.Files).
		Dur("duration", report.Duration)

	if report.Shortlist != nil {
		event = event.Int("selected", len(report.Shortlist.Entries)).Bool("dry_run", report.Shortlist.DryRun)
	}

	event.Msg("curation cycle finished")
}
