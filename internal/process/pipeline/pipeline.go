// Package pipeline runs one curation cycle over the review store.
//
// A cycle loads the candidate population, scores new reviews, groups near
// duplicates, builds the shortlist and exports it. Per-review problems are
// counted and skipped; any store failure aborts the cycle.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/humor-review-scout/internal/core/domain"
	apperrors "github.com/lueurxax/humor-review-scout/internal/core/errors"
	"github.com/lueurxax/humor-review-scout/internal/core/ports"
	"github.com/lueurxax/humor-review-scout/internal/output/shortlist"
	"github.com/lueurxax/humor-review-scout/internal/platform/observability"
	"github.com/lueurxax/humor-review-scout/internal/process/dedup"
	"github.com/lueurxax/humor-review-scout/internal/process/scoring"
)

// Repository is the slice of the review store a cycle needs.
type Repository interface {
	ListCandidates(ctx context.Context, query ports.CandidateQuery) ([]domain.Review, error)
	GetPlace(ctx context.Context, id string) (*domain.Place, error)
	SaveScore(ctx context.Context, review *domain.Review) error
	SaveGrouping(ctx context.Context, groups map[string]string, ineligible []string) error
	SaveShortlist(ctx context.Context, shortlist *domain.Shortlist) error
	TryLockCycle(ctx context.Context) (func(), error)
}

// ShortlistBuilder turns groups into a shortlist and marks the selection.
type ShortlistBuilder interface {
	Build(ctx context.Context, groups []domain.DedupGroup, cycleID string, dryRun bool) (*domain.Shortlist, error)
}

// Exporter writes the rendered shortlist files.
type Exporter interface {
	Export(dir string, report shortlist.Report) ([]string, error)
}

// Options configures a pipeline.
type Options struct {
	// RatingThreshold excludes reviews rated at or above it.
	RatingThreshold int
	// AllowRepeat keeps reviews selected in earlier cycles in the candidate pool.
	AllowRepeat bool
	Dedup       dedup.Options
	// OutputDir receives the exported files. Empty disables export.
	OutputDir string
}

// RunOptions controls a single cycle.
type RunOptions struct {
	// CycleID defaults to the ISO week of the run time.
	CycleID string
	// DryRun computes and exports the shortlist without writing to the store.
	DryRun bool
	// Rescore recomputes scores of new reviews that were already scored.
	Rescore bool
}

// Report summarizes a cycle.
type Report struct {
	CycleID         string
	Candidates      int
	Scored          int
	Malformed       int
	ScoreFailures   int
	ScoringWarnings int
	Groups          int
	Ineligible      int
	Shortlist       *domain.Shortlist
	Files           []string
	Duration        time.Duration
}

// Pipeline wires the curation components.
type Pipeline struct {
	repo     Repository
	scorer   scoring.Scorer
	builder  ShortlistBuilder
	exporter Exporter
	opts     Options
	logger   *zerolog.Logger
	now      func() time.Time
}

// New creates a pipeline. exporter may be nil when no files are wanted.
func New(repo Repository, scorer scoring.Scorer, builder ShortlistBuilder, exporter Exporter, opts Options, logger *zerolog.Logger) *Pipeline {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Pipeline{
		repo:     repo,
		scorer:   scorer,
		builder:  builder,
		exporter: exporter,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
	}
}

// Run executes one cycle. It fails with ErrCycleLocked when another cycle
// holds the run lock and with ErrPersistenceFailure when the store fails.
func (p *Pipeline) Run(ctx context.Context, ro RunOptions) (*Report, error) {
	start := p.now()

	if ro.CycleID == "" {
		ro.CycleID = domain.CycleIDFor(start.UTC())
	}

	logger := p.logger.With().Str(LogFieldCycleID, ro.CycleID).Bool(LogFieldDryRun, ro.DryRun).Logger()

	unlock, err := p.repo.TryLockCycle(ctx)
	if err != nil {
		if errors.Is(err, apperrors.ErrCycleLocked) {
			observability.CycleRuns.WithLabelValues(cycleStatusLocked).Inc()

			return nil, err
		}

		observability.CycleRuns.WithLabelValues(cycleStatusError).Inc()

		return nil, persistence("lock cycle", err)
	}
	defer unlock()

	report, err := p.run(ctx, ro, logger)
	if err != nil {
		observability.CycleRuns.WithLabelValues(cycleStatusError).Inc()
		logger.Error().Err(err).Msg("curation cycle failed")

		return report, err
	}

	report.Duration = p.now().Sub(start)

	observability.CycleRuns.WithLabelValues(cycleStatusSuccess).Inc()
	observability.CycleDurationSeconds.Observe(report.Duration.Seconds())
	observability.LastCycleSuccess.SetToCurrentTime()

	logger.Info().
		Int(LogFieldCandidates, report.Candidates).
		Int(LogFieldScored, report.Scored).
		Int(LogFieldGroups, report.Groups).
		Int(LogFieldSelected, len(report.Shortlist.Entries)).
		Dur("duration", report.Duration).
		Msg("curation cycle completed")

	return report, nil
}

func (p *Pipeline) run(ctx context.Context, ro RunOptions, logger zerolog.Logger) (*Report, error) {
	report := &Report{CycleID: ro.CycleID}

	candidates, err := p.repo.ListCandidates(ctx, ports.CandidateQuery{
		CycleID:     ro.CycleID,
		AllowRepeat: p.opts.AllowRepeat,
		RatingBelow: p.opts.RatingThreshold,
	})
	if err != nil {
		return report, persistence("list candidates", err)
	}

	report.Candidates = len(candidates)

	scored, err := p.scoreAll(ctx, candidates, ro, report, logger)
	if err != nil {
		return report, err
	}

	result := dedup.Deduplicate(scored, p.opts.Dedup)
	report.Groups = len(result.Groups)
	report.Ineligible = len(result.Ineligible)

	observability.DedupGroups.Set(float64(report.Groups))
	observability.DedupIneligible.Set(float64(report.Ineligible))

	if !ro.DryRun {
		if err := p.repo.SaveGrouping(ctx, result.GroupOf(), result.Ineligible); err != nil {
			return report, persistence("save grouping", err)
		}
	}

	sl, err := p.builder.Build(ctx, result.Groups, ro.CycleID, ro.DryRun)
	if err != nil {
		return report, persistence("build shortlist", err)
	}

	report.Shortlist = sl

	if !ro.DryRun {
		if err := p.repo.SaveShortlist(ctx, sl); err != nil {
			return report, persistence("save shortlist", err)
		}
	}

	if p.exporter == nil || p.opts.OutputDir == "" {
		return report, nil
	}

	rendered, err := p.buildReport(ctx, sl, scored)
	if err != nil {
		return report, err
	}

	files, err := p.exporter.Export(p.opts.OutputDir, rendered)
	if err != nil {
		return report, fmt.Errorf("export shortlist: %w", err)
	}

	report.Files = files

	for _, f := range files {
		logger.Info().Str(LogFieldPath, f).Msg("shortlist exported")
	}

	return report, nil
}

// scoreAll scores new reviews that need it and returns every review that can
// take part in grouping.
func (p *Pipeline) scoreAll(ctx context.Context, candidates []domain.Review, ro RunOptions, report *Report, logger zerolog.Logger) ([]domain.Review, error) {
	out := make([]domain.Review, 0, len(candidates))

	for i := range candidates {
		review := candidates[i]

		if strings.TrimSpace(review.Body) == "" {
			report.Malformed++

			logger.Debug().Str(LogFieldReviewID, review.ID).Msg("skipping review without body")

			continue
		}

		if !needsScore(review, ro.Rescore) {
			out = append(out, review)

			continue
		}

		result, err := p.scorer.Score(ctx, review)
		if err != nil {
			if errors.Is(err, apperrors.ErrMalformedReview) {
				report.Malformed++
			} else {
				report.ScoreFailures++
			}

			logger.Warn().Err(err).Str(LogFieldReviewID, review.ID).Msg("failed to score review")

			continue
		}

		if result.Warning != nil {
			report.ScoringWarnings++

			observability.ScoringWarnings.Inc()
		}

		result.Apply(&review, p.now().UTC())

		if !ro.DryRun {
			if err := p.repo.SaveScore(ctx, &review); err != nil {
				return nil, persistence("save score of "+review.ID, err)
			}
		}

		report.Scored++

		observability.ReviewsScored.WithLabelValues(result.Source).Inc()

		out = append(out, review)
	}

	return out, nil
}

// needsScore reports whether a review's score may be (re)computed. Only new
// reviews are ever scored.
func needsScore(review domain.Review, rescore bool) bool {
	if review.Status != domain.StatusNew {
		return false
	}

	return rescore || !review.IsScored()
}

func (p *Pipeline) buildReport(ctx context.Context, sl *domain.Shortlist, reviews []domain.Review) (shortlist.Report, error) {
	report := shortlist.Report{
		Shortlist: *sl,
		Places:    make(map[string]domain.Place),
		Reviews:   make(map[string]domain.Review, len(sl.Entries)),
	}

	byID := make(map[string]domain.Review, len(reviews))
	for _, r := range reviews {
		byID[r.ID] = r
	}

	for _, e := range sl.Entries {
		if r, ok := byID[e.ReviewID]; ok {
			report.Reviews[e.ReviewID] = r
		}

		if _, ok := report.Places[e.PlaceID]; ok {
			continue
		}

		place, err := p.repo.GetPlace(ctx, e.PlaceID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				continue
			}

			return report, persistence("get place "+e.PlaceID, err)
		}

		report.Places[e.PlaceID] = *place
	}

	return report, nil
}

func persistence(op string, err error) error {
	if errors.Is(err, apperrors.ErrPersistenceFailure) {
		return err
	}

	return fmt.Errorf("%w: %s: %w", apperrors.ErrPersistenceFailure, op, err)
}
