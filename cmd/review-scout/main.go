package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/humor-review-scout/internal/app"
	"github.com/lueurxax/humor-review-scout/internal/platform/config"
	"github.com/lueurxax/humor-review-scout/internal/process/pipeline"
	db "github.com/lueurxax/humor-review-scout/internal/storage"
)

const usage = "Usage: %s -mode=[discover|collect|shortlist|weekly|scheduler|add-place|deactivate-place|activate-place|list|set-status]"

type flags struct {
	mode     string
	dryRun   bool
	rescore  bool
	cycle    string
	reviewID string
	status   string
	placeID  string
	limit    int
}

func main() {
	var f flags

	flag.StringVar(&f.mode, "mode", "", "Service mode (discover, collect, shortlist, weekly, scheduler, add-place, deactivate-place, activate-place, list, set-status)")
	flag.BoolVar(&f.dryRun, "dry-run", false, "Export the shortlist without marking reviews or saving it")
	flag.BoolVar(&f.rescore, "rescore", false, "Recompute scores of new reviews that were already scored")
	flag.StringVar(&f.cycle, "cycle", "", "Cycle id (default: ISO week of today)")
	flag.StringVar(&f.reviewID, "review", "", "Review id (set-status mode)")
	flag.StringVar(&f.status, "status", "", "Lifecycle status: target of set-status, filter of list")
	flag.StringVar(&f.placeID, "place", "", "Provider place id (add-place, deactivate-place, activate-place, list modes)")
	flag.IntVar(&f.limit, "limit", 0, "Maximum reviews printed by list mode (0: all)")

	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := newLogger(cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	poolOpts := db.PoolOptions{
		MaxConns:          cfg.Database.MaxConnections,
		MinConns:          cfg.Database.MinConnections,
		MaxConnIdleTime:   cfg.Database.MaxConnIdleTime,
		MaxConnLifetime:   cfg.Database.MaxConnLifetime,
		HealthCheckPeriod: cfg.Database.HealthCheckPeriod,
	}

	database, err := db.NewWithOptions(ctx, cfg.Database.PostgresDSN, poolOpts, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}

	application := app.New(cfg, database, &logger)

	if err := runMode(ctx, application, f); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info().Msg("application stopped")
			return
		}

		logger.Fatal().Err(err).Msg("application error")
	}
}

func newLogger(appEnv, level string) zerolog.Logger {
	var logger zerolog.Logger

	if appEnv == "local" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	} else {
		logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	if lvl, err := zerolog.ParseLevel(level); err == nil && level != "" {
		logger = logger.Level(lvl)
	}

	return logger
}

func runMode(ctx context.Context, application *app.App, f flags) error {
	runOpts := pipeline.RunOptions{CycleID: f.cycle, DryRun: f.dryRun, Rescore: f.rescore}

	switch f.mode {
	case "discover":
		_, err := application.RunDiscover(ctx)
		return err
	case "collect":
		_, err := application.RunCollect(ctx)
		return err
	case "shortlist":
		_, err := application.RunShortlist(ctx, runOpts)
		return err
	case "weekly":
		_, err := application.RunWeekly(ctx, runOpts)
		return err
	case "scheduler":
		return application.RunScheduler(ctx)
	case "add-place":
		_, err := application.AddPlace(ctx, f.placeID)
		return err
	case "deactivate-place":
		return application.SetPlaceActive(ctx, f.placeID, false)
	case "activate-place":
		return application.SetPlaceActive(ctx, f.placeID, true)
	case "list":
		reviews, err := application.ListReviews(ctx, app.ReviewQuery{Status: f.status, PlaceID: f.placeID, Limit: f.limit})
		if err != nil {
			return err
		}

		return app.WriteReviews(os.Stdout, reviews)
	case "set-status":
		_, err := application.SetStatus(ctx, f.reviewID, f.status)
		return err
	default:
		return fmt.Errorf(usage, os.Args[0])
	}
}
