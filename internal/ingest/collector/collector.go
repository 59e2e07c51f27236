// Package collector discovers places and stores their low-rated reviews as
// new curation candidates.
package collector

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/lueurxax/humor-review-scout/internal/core/domain"
	apperrors "github.com/lueurxax/humor-review-scout/internal/core/errors"
	"github.com/lueurxax/humor-review-scout/internal/ingest/serpapi"
	"github.com/lueurxax/humor-review-scout/internal/platform/observability"
)

const (
	logFieldPlaceID = "place_id"
	logFieldQuery   = "query"

	resultInserted  = "inserted"
	resultExisting  = "existing"
	resultFiltered  = "filtered"
	resultMalformed = "malformed"
	resultNew       = "new"
	resultUpdated   = "updated"
	resultSkipped   = "skipped"

	defaultWorkers = 4

	manualPlaceName     = "Manual"
	manualPlaceCategory = "manual"
)

// Source is the review provider.
type Source interface {
	DiscoverPlaces(ctx context.Context, query string) ([]domain.Place, error)
	FetchReviews(ctx context.Context, dataID string, limit int) ([]serpapi.RawReview, error)
}

// Store is the persistence the collector writes to.
type Store interface {
	UpsertPlace(ctx context.Context, place *domain.Place) (bool, error)
	ListActivePlaces(ctx context.Context, limit int) ([]domain.Place, error)
	InsertReview(ctx context.Context, review *domain.Review) (bool, error)
	RecordIngestStats(ctx context.Context, stats domain.IngestStats) error
}

// Options configures discovery and collection.
type Options struct {
	Regions         []string
	Categories      []string
	MinTotalReviews int
	// MaxPlacesPerRun bounds places stored by one discovery pass. Collection
	// always covers every active place.
	MaxPlacesPerRun int

	// RatingThreshold drops reviews rated at or above it. Zero keeps all.
	RatingThreshold    int
	MaxReviewsPerPlace int
	Workers            int
}

// DiscoverReport summarizes one discovery pass.
type DiscoverReport struct {
	Queries       int
	FailedQueries int
	New           int
	Updated       int
	Skipped       int
}

// CollectReport summarizes one collection pass.
type CollectReport struct {
	Places       int
	FailedPlaces int
	Fetched      int
	Inserted     int
	Existing     int
	Filtered     int
	Malformed    int
}

func (r *CollectReport) add(s domain.IngestStats) {
	r.Places++
	r.Fetched += s.Fetched
	r.Inserted += s.Inserted
	r.Existing += s.Existing
	r.Filtered += s.Filtered
	r.Malformed += s.Malformed
}

// Collector runs discovery and collection passes.
type Collector struct {
	source Source
	store  Store
	opts   Options
	logger *zerolog.Logger
	now    func() time.Time
}

// New creates a collector.
func New(source Source, store Store, opts Options, logger *zerolog.Logger) *Collector {
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}

	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Collector{
		source: source,
		store:  store,
		opts:   opts,
		logger: logger,
		now:    time.Now,
	}
}

// Discover searches every region and category pair and upserts the places
// found. Failed queries are logged and skipped; store failures abort.
func (c *Collector) Discover(ctx context.Context) (DiscoverReport, error) {
	var report DiscoverReport

	seen := make(map[string]struct{})

	for _, region := range c.opts.Regions {
		for _, category := range c.opts.Categories {
			if c.placeBudgetReached(report) {
				return report, nil
			}

			query := fmt.Sprintf("%s in %s", strings.TrimSpace(category), strings.TrimSpace(region))
			report.Queries++

			places, err := c.source.DiscoverPlaces(ctx, query)
			if err != nil {
				if ctx.Err() != nil {
					return report, fmt.Errorf("discover places: %w", ctx.Err())
				}

				report.FailedQueries++
				c.logger.Warn().Err(err).Str(logFieldQuery, query).Msg("discovery query failed")

				continue
			}

			if err := c.storePlaces(ctx, places, category, seen, &report); err != nil {
				return report, err
			}
		}
	}

	c.logger.Info().
		Int("queries", report.Queries).
		Int("new", report.New).
		Int("updated", report.Updated).
		Int("skipped", report.Skipped).
		Msg("discovery finished")

	return report, nil
}

func (c *Collector) storePlaces(ctx context.Context, places []domain.Place, category string, seen map[string]struct{}, report *DiscoverReport) error {
	for i := range places {
		place := places[i]

		if _, dup := seen[place.ID]; dup {
			continue
		}

		seen[place.ID] = struct{}{}

		if place.TotalReviews < c.opts.MinTotalReviews {
			report.Skipped++
			observability.PlacesDiscovered.WithLabelValues(resultSkipped).Inc()

			continue
		}

		if c.placeBudgetReached(*report) {
			return nil
		}

		if category = strings.TrimSpace(category); category != "" {
			place.Category = category
		}

		inserted, err := c.store.UpsertPlace(ctx, &place)
		if err != nil {
			return fmt.Errorf("%w: upsert place %s: %w", apperrors.ErrPersistenceFailure, place.ID, err)
		}

		if inserted {
			report.New++
			observability.PlacesDiscovered.WithLabelValues(resultNew).Inc()
		} else {
			report.Updated++
			observability.PlacesDiscovered.WithLabelValues(resultUpdated).Inc()
		}
	}

	return nil
}

func (c *Collector) placeBudgetReached(r DiscoverReport) bool {
	return c.opts.MaxPlacesPerRun > 0 && r.New+r.Updated >= c.opts.MaxPlacesPerRun
}

// Collect fetches reviews for every active place with bounded parallelism.
// Provider failures skip the place; store failures abort the pass.
func (c *Collector) Collect(ctx context.Context) (CollectReport, error) {
	places, err := c.store.ListActivePlaces(ctx, 0)
	if err != nil {
		return CollectReport{}, fmt.Errorf("%w: list places: %w", apperrors.ErrPersistenceFailure, err)
	}

	var (
		mu     sync.Mutex
		report CollectReport
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Workers)

	for i := range places {
		place := places[i]

		g.Go(func() error {
			stats, err := c.CollectPlace(gctx, place)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				if errors.Is(err, apperrors.ErrPersistenceFailure) || gctx.Err() != nil {
					return err
				}

				report.FailedPlaces++
				c.logger.Warn().Err(err).Str(logFieldPlaceID, place.ID).Msg("review collection failed")

				return nil
			}

			report.add(stats)

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return report, fmt.Errorf("collect reviews: %w", err)
	}

	c.logger.Info().
		Int("places", report.Places).
		Int("fetched", report.Fetched).
		Int("inserted", report.Inserted).
		Int("existing", report.Existing).
		Int("filtered", report.Filtered).
		Int("malformed", report.Malformed).
		Msg("collection finished")

	return report, nil
}

// CollectPlace fetches, validates and stores the reviews of one place and
// records the pass statistics.
func (c *Collector) CollectPlace(ctx context.Context, place domain.Place) (domain.IngestStats, error) {
	stats := domain.IngestStats{PlaceID: place.ID, RunAt: c.now().UTC()}

	raw, err := c.source.FetchReviews(ctx, place.LookupID(), c.opts.MaxReviewsPerPlace)
	if err != nil {
		return stats, fmt.Errorf("fetch reviews of %s: %w", place.ID, err)
	}

	stats.Fetched = len(raw)

	for _, r := range raw {
		review := toReview(place.ID, r)

		if err := Validate(review); err != nil {
			stats.Malformed++
			c.logger.Debug().Err(err).Str(logFieldPlaceID, place.ID).Msg("skipping malformed review")

			continue
		}

		if c.opts.RatingThreshold > 0 && review.Rating >= c.opts.RatingThreshold {
			stats.Filtered++

			continue
		}

		inserted, err := c.store.InsertReview(ctx, &review)
		if err != nil {
			return stats, fmt.Errorf("%w: insert review %s: %w", apperrors.ErrPersistenceFailure, review.ID, err)
		}

		if inserted {
			stats.Inserted++
		} else {
			stats.Existing++
		}
	}

	observability.ReviewsCollected.WithLabelValues(resultInserted).Add(float64(stats.Inserted))
	observability.ReviewsCollected.WithLabelValues(resultExisting).Add(float64(stats.Existing))
	observability.ReviewsCollected.WithLabelValues(resultFiltered).Add(float64(stats.Filtered))
	observability.ReviewsCollected.WithLabelValues(resultMalformed).Add(float64(stats.Malformed))

	if err := c.store.RecordIngestStats(ctx, stats); err != nil {
		return stats, fmt.Errorf("%w: record ingest stats: %w", apperrors.ErrPersistenceFailure, err)
	}

	return stats, nil
}

// AddPlace registers a place by provider id so it is collected on the next
// pass. Existing places keep their details.
func (c *Collector) AddPlace(ctx context.Context, id string) (*domain.Place, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: place id is required", apperrors.ErrInvalidInput)
	}

	place := &domain.Place{
		ID:       id,
		DataID:   id,
		Name:     manualPlaceName,
		Category: manualPlaceCategory,
		Provider: serpapi.Provider,
		Active:   true,
	}

	if _, err := c.store.UpsertPlace(ctx, place); err != nil {
		return nil, fmt.Errorf("%w: add place %s: %w", apperrors.ErrPersistenceFailure, id, err)
	}

	return place, nil
}

func toReview(placeID string, r serpapi.RawReview) domain.Review {
	return domain.Review{
		ID:           strings.TrimSpace(r.ID),
		PlaceID:      placeID,
		Body:         strings.TrimSpace(r.Body),
		OwnerReply:   strings.TrimSpace(r.OwnerReply),
		Rating:       r.Rating,
		PostedAt:     r.PostedAt,
		ReviewerName: r.ReviewerName,
		ReviewerURL:  r.ReviewerURL,
		ReviewURL:    r.ReviewURL,
		Status:       domain.StatusNew,
		Safety:       domain.SafetySafe,
	}
}

// Validate checks the fields every stored review must carry.
func Validate(r domain.Review) error {
	switch {
	case r.ID == "":
		return fmt.Errorf("%w: missing id", apperrors.ErrMalformedReview)
	case r.PlaceID == "":
		return fmt.Errorf("%w: %s: missing place", apperrors.ErrMalformedReview, r.ID)
	case strings.TrimSpace(r.Body) == "":
		return fmt.Errorf("%w: %s: empty body", apperrors.ErrMalformedReview, r.ID)
	case r.Rating < domain.MinRating || r.Rating > domain.MaxRating:
		return fmt.Errorf("%w: %s: rating %d out of range", apperrors.ErrMalformedReview, r.ID, r.Rating)
	case r.PostedAt.IsZero():
		return fmt.Errorf("%w: %s: missing timestamp", apperrors.ErrMalformedReview, r.ID)
	}

	return nil
}
