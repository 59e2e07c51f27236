package shortlist

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lueurxax/humor-review-scout/internal/core/domain"
	apperrors "github.com/lueurxax/humor-review-scout/internal/core/errors"
	"github.com/lueurxax/humor-review-scout/internal/platform/observability"
)

const (
	logFieldReviewID = "review_id"
	logFieldCycle    = "cycle_id"
	logFieldEntries  = "entries"
)

// Marker moves a representative to selected for a cycle.
type Marker interface {
	MarkSelected(ctx context.Context, reviewID, cycleID string) (*domain.Review, error)
}

// Builder turns dedup groups into a dated Shortlist.
type Builder struct {
	marker Marker
	opts   Options
	logger *zerolog.Logger
	now    func() time.Time
}

// NewBuilder creates a shortlist builder.
func NewBuilder(marker Marker, opts Options, logger *zerolog.Logger) *Builder {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Builder{
		marker: marker,
		opts:   opts,
		logger: logger,
		now:    time.Now,
	}
}

// Build selects representatives and, unless dryRun, marks each selected
// representative (and no other group member) as selected for cycleID.
//
// A representative that can no longer move to selected, for example because an
// operator discarded it meanwhile, is skipped and the next candidate takes its
// slot. Store failures abort the build.
func (b *Builder) Build(ctx context.Context, groups []domain.DedupGroup, cycleID string, dryRun bool) (*domain.Shortlist, error) {
	accept := func(g domain.DedupGroup) (bool, error) {
		if dryRun {
			return true, nil
		}

		if _, err := b.marker.MarkSelected(ctx, g.Representative.ID, cycleID); err != nil {
			if errors.Is(err, apperrors.ErrInvalidTransition) ||
				errors.Is(err, apperrors.ErrStatusConflict) ||
				errors.Is(err, apperrors.ErrNotFound) {
				b.logger.Warn().Err(err).
					Str(logFieldReviewID, g.Representative.ID).
					Str(logFieldCycle, cycleID).
					Msg("skipping representative that cannot be selected")

				return false, nil
			}

			return false, err
		}

		return true, nil
	}

	entries, err := selectWith(groups, b.opts, accept)
	if err != nil {
		return nil, err
	}

	now := b.now().UTC()

	sl := &domain.Shortlist{
		ID:          uuid.NewString(),
		CycleID:     cycleID,
		BatchDate:   time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
		GeneratedAt: now,
		DryRun:      dryRun,
		Entries:     entries,
	}

	observability.ShortlistSize.Set(float64(len(entries)))

	b.logger.Info().
		Str(logFieldCycle, cycleID).
		Int(logFieldEntries, len(entries)).
		Bool("dry_run", dryRun).
		Msg("shortlist built")

	return sl, nil
}
