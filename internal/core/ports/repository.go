// Package ports provides domain-centric interfaces for external dependencies.
// These interfaces follow the ports and adapters (hexagonal) architecture pattern,
// allowing business logic to remain independent of infrastructure concerns.
package ports

import (
	"context"

	"github.com/lueurxax/humor-review-scout/internal/core/domain"
)

// CandidateQuery selects the review population of one curation cycle.
type CandidateQuery struct {
	// CycleID includes reviews selected by this cycle so reruns see the same population.
	CycleID string
	// AllowRepeat includes every selected review regardless of cycle.
	AllowRepeat bool
	// RatingBelow excludes reviews rated at or above it. Zero disables the filter.
	RatingBelow int
}

// PlaceRepository handles place records. Places are never deleted.
type PlaceRepository interface {
	// UpsertPlace inserts a place or refreshes its descriptive fields.
	// It reports whether the place was new.
	UpsertPlace(ctx context.Context, place *domain.Place) (bool, error)
	GetPlace(ctx context.Context, id string) (*domain.Place, error)
	ListActivePlaces(ctx context.Context, limit int) ([]domain.Place, error)
	SetPlaceActive(ctx context.Context, id string, active bool) error
}

// ReviewRepository handles review records.
type ReviewRepository interface {
	// InsertReview stores a new review. Existing ids are left untouched and reported as false.
	InsertReview(ctx context.Context, review *domain.Review) (bool, error)
	GetReview(ctx context.Context, id string) (*domain.Review, error)
	ListCandidates(ctx context.Context, query CandidateQuery) ([]domain.Review, error)
	ListReviewsByStatus(ctx context.Context, status domain.Status, limit int) ([]domain.Review, error)
	ListReviewsByPlace(ctx context.Context, placeID string) ([]domain.Review, error)
	// SaveScore persists scoring output. It only applies while the review is new.
	SaveScore(ctx context.Context, review *domain.Review) error
	// SaveGrouping records group membership and ineligible reviews for one cycle.
	SaveGrouping(ctx context.Context, groups map[string]string, ineligible []string) error
	// UpdateStatus applies the change only while the stored status equals change.From.
	UpdateStatus(ctx context.Context, change domain.StatusChange) (bool, error)
}

// ShortlistRepository persists shortlists.
type ShortlistRepository interface {
	SaveShortlist(ctx context.Context, shortlist *domain.Shortlist) error
	GetShortlistByCycle(ctx context.Context, cycleID string) (*domain.Shortlist, error)
}

// IngestStatsRepository records collection statistics.
type IngestStatsRepository interface {
	RecordIngestStats(ctx context.Context, stats domain.IngestStats) error
}

// CycleLocker serializes curation cycles across processes.
type CycleLocker interface {
	// TryLockCycle returns a release function, or ErrCycleLocked if another cycle holds the lock.
	TryLockCycle(ctx context.Context) (func(), error)
}

// ReviewStore is the full persistence surface of the curation pipeline.
type ReviewStore interface {
	PlaceRepository
	ReviewRepository
	ShortlistRepository
	IngestStatsRepository
	CycleLocker
}
