// Package lifecycle enforces the review state machine.
//
// The Manager is the only component that writes review status. Every legal move
// is listed in a from × to table; anything else fails with ErrInvalidTransition
// and leaves the stored state untouched.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/lueurxax/humor-review-scout/internal/core/domain"
	apperrors "github.com/lueurxax/humor-review-scout/internal/core/errors"
	"github.com/lueurxax/humor-review-scout/internal/platform/observability"
)

const (
	logFieldReviewID = "review_id"
	logFieldFrom     = "from"
	logFieldTo       = "to"
	logFieldCycle    = "cycle_id"
)

var transitions = [4][4]bool{
	domain.StatusNew: {
		domain.StatusSelected:  true,
		domain.StatusDiscarded: true,
	},
	domain.StatusSelected: {
		domain.StatusUsed:      true,
		domain.StatusDiscarded: true,
	},
}

// Allowed reports whether moving from one state to another is legal.
// Same-state requests are not transitions and report false.
func Allowed(from, to domain.Status) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}

	return transitions[from][to]
}

// Store is the persistence the Manager needs.
type Store interface {
	GetReview(ctx context.Context, id string) (*domain.Review, error)
	// UpdateStatus applies the change only if the stored status still equals
	// change.From. It returns false when no row matched.
	UpdateStatus(ctx context.Context, change domain.StatusChange) (bool, error)
}

// Manager applies status transitions.
type Manager struct {
	store  Store
	logger *zerolog.Logger
	now    func() time.Time
}

// NewManager creates a lifecycle manager.
func NewManager(store Store, logger *zerolog.Logger) *Manager {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Manager{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// SetStatus moves a review to the requested state and returns the updated review.
func (m *Manager) SetStatus(ctx context.Context, reviewID string, to domain.Status) (*domain.Review, error) {
	return m.transition(ctx, reviewID, to, "")
}

// MarkSelected moves a review from new to selected and records the cycle that chose it.
func (m *Manager) MarkSelected(ctx context.Context, reviewID, cycleID string) (*domain.Review, error) {
	return m.transition(ctx, reviewID, domain.StatusSelected, cycleID)
}

func (m *Manager) transition(ctx context.Context, reviewID string, to domain.Status, cycleID string) (*domain.Review, error) {
	if !to.Valid() {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrUnknownStatus, to)
	}

	review, err := m.load(ctx, reviewID)
	if err != nil {
		return nil, err
	}

	from := review.Status
	if from == to {
		return review, nil
	}

	if !Allowed(from, to) {
		return nil, fmt.Errorf("%w: %s -> %s for review %s", apperrors.ErrInvalidTransition, from, to, reviewID)
	}

	change := domain.StatusChange{
		ReviewID: reviewID,
		From:     from,
		To:       to,
		CycleID:  cycleID,
		At:       m.now().UTC(),
	}

	applied, err := m.store.UpdateStatus(ctx, change)
	if err != nil {
		return nil, fmt.Errorf("%w: update status of %s: %w", apperrors.ErrPersistenceFailure, reviewID, err)
	}

	if !applied {
		return nil, fmt.Errorf("%w: review %s is no longer %s", apperrors.ErrStatusConflict, reviewID, from)
	}

	review.Status = to
	review.UpdatedAt = change.At

	if to == domain.StatusSelected {
		review.SelectedCycle = cycleID
	}

	observability.StatusTransitions.WithLabelValues(from.String(), to.String()).Inc()

	m.logger.Info().
		Str(logFieldReviewID, reviewID).
		Stringer(logFieldFrom, from).
		Stringer(logFieldTo, to).
		Str(logFieldCycle, cycleID).
		Msg("review status changed")

	return review, nil
}

func (m *Manager) load(ctx context.Context, reviewID string) (*domain.Review, error) {
	review, err := m.store.GetReview(ctx, reviewID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrReviewNotFound, reviewID)
		}

		return nil, fmt.Errorf("%w: get review %s: %w", apperrors.ErrPersistenceFailure, reviewID, err)
	}

	if review == nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrReviewNotFound, reviewID)
	}

	return review, nil
}
