package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/lueurxax/humor-review-scout/internal/core/domain"
	apperrors "github.com/lueurxax/humor-review-scout/internal/core/errors"
	"github.com/lueurxax/humor-review-scout/internal/core/ports"
)

// ReviewStore is a thread-safe in-memory implementation of ports.ReviewStore.
type ReviewStore struct {
	mu         sync.RWMutex
	places     map[string]domain.Place
	reviews    map[string]domain.Review
	shortlists map[string]domain.Shortlist
	stats      []domain.IngestStats
	locked     bool

	// ListCandidatesFn allows overriding ListCandidates behavior.
	ListCandidatesFn func(ctx context.Context, query ports.CandidateQuery) ([]domain.Review, error)

	// SaveScoreFn allows overriding SaveScore behavior.
	SaveScoreFn func(ctx context.Context, review *domain.Review) error

	// UpdateStatusFn allows overriding UpdateStatus behavior.
	UpdateStatusFn func(ctx context.Context, change domain.StatusChange) (bool, error)

	// SaveShortlistFn allows overriding SaveShortlist behavior.
	SaveShortlistFn func(ctx context.Context, shortlist *domain.Shortlist) error

	// InsertReviewFn allows overriding InsertReview behavior.
	InsertReviewFn func(ctx context.Context, review *domain.Review) (bool, error)

	// ListReviewsByStatusFn allows overriding ListReviewsByStatus behavior.
	ListReviewsByStatusFn func(ctx context.Context, status domain.Status, limit int) ([]domain.Review, error)
}

var _ ports.ReviewStore = (*ReviewStore)(nil)

// NewReviewStore creates a new mock review store.
func NewReviewStore() *ReviewStore {
	return &ReviewStore{
		places:     make(map[string]domain.Place),
		reviews:    make(map[string]domain.Review),
		shortlists: make(map[string]domain.Shortlist),
	}
}

// PutPlace stores a place directly.
func (s *ReviewStore) PutPlace(place domain.Place) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.places[place.ID] = place
}

// PutReview stores a review directly, bypassing insert semantics.
func (s *ReviewStore) PutReview(review domain.Review) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reviews[review.ID] = cloneReview(review)
}

// Review returns a stored review for assertions.
func (s *ReviewStore) Review(id string) (domain.Review, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reviews[id]

	return cloneReview(r), ok
}

// Stats returns recorded ingest statistics.
func (s *ReviewStore) Stats() []domain.IngestStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]domain.IngestStats(nil), s.stats...)
}

// Shortlists returns the number of saved shortlists.
func (s *ReviewStore) Shortlists() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.shortlists)
}

// UpsertPlace implements ports.PlaceRepository.
func (s *ReviewStore) UpsertPlace(_ context.Context, place *domain.Place) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.places[place.ID]
	if ok {
		place.Active = existing.Active
		place.CreatedAt = existing.CreatedAt
	}

	s.places[place.ID] = *place

	return !ok, nil
}

// GetPlace implements ports.PlaceRepository.
func (s *ReviewStore) GetPlace(_ context.Context, id string) (*domain.Place, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.places[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrPlaceNotFound, id)
	}

	return &p, nil
}

// ListActivePlaces implements ports.PlaceRepository.
func (s *ReviewStore) ListActivePlaces(_ context.Context, limit int) ([]domain.Place, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Place, 0, len(s.places))

	for _, p := range s.places {
		if p.Active {
			out = append(out, p)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}

// SetPlaceActive implements ports.PlaceRepository.
func (s *ReviewStore) SetPlaceActive(_ context.Context, id string, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.places[id]
	if !ok {
		return fmt.Errorf("%w: %s", apperrors.ErrPlaceNotFound, id)
	}

	p.Active = active
	s.places[id] = p

	return nil
}

// InsertReview implements ports.ReviewRepository.
func (s *ReviewStore) InsertReview(ctx context.Context, review *domain.Review) (bool, error) {
	if s.InsertReviewFn != nil {
		return s.InsertReviewFn(ctx, review)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reviews[review.ID]; ok {
		return false, nil
	}

	s.reviews[review.ID] = cloneReview(*review)

	return true, nil
}

// GetReview implements ports.ReviewRepository.
func (s *ReviewStore) GetReview(_ context.Context, id string) (*domain.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reviews[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrReviewNotFound, id)
	}

	r = cloneReview(r)

	return &r, nil
}

// ListCandidates implements ports.ReviewRepository.
func (s *ReviewStore) ListCandidates(ctx context.Context, query ports.CandidateQuery) ([]domain.Review, error) {
	if s.ListCandidatesFn != nil {
		return s.ListCandidatesFn(ctx, query)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Review, 0)

	for _, r := range s.reviews {
		if !isCandidate(r, query) {
			continue
		}

		if p, ok := s.places[r.PlaceID]; ok && !p.Active {
			continue
		}

		out = append(out, cloneReview(r))
	}

	sortByID(out)

	return out, nil
}

func isCandidate(r domain.Review, query ports.CandidateQuery) bool {
	if query.RatingBelow > 0 && r.Rating >= query.RatingBelow {
		return false
	}

	switch r.Status {
	case domain.StatusNew:
		return true
	case domain.StatusSelected:
		return query.AllowRepeat || r.SelectedCycle == query.CycleID
	default:
		return false
	}
}

// ListReviewsByStatus implements ports.ReviewRepository.
func (s *ReviewStore) ListReviewsByStatus(ctx context.Context, status domain.Status, limit int) ([]domain.Review, error) {
	if s.ListReviewsByStatusFn != nil {
		return s.ListReviewsByStatusFn(ctx, status, limit)
	}

	return s.filter(func(r domain.Review) bool { return r.Status == status }, limit), nil
}

// ListReviewsByPlace implements ports.ReviewRepository.
func (s *ReviewStore) ListReviewsByPlace(_ context.Context, placeID string) ([]domain.Review, error) {
	return s.filter(func(r domain.Review) bool { return r.PlaceID == placeID }, 0), nil
}

func (s *ReviewStore) filter(keep func(domain.Review) bool, limit int) []domain.Review {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Review, 0)

	for _, r := range s.reviews {
		if keep(r) {
			out = append(out, cloneReview(r))
		}
	}

	sortByID(out)

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	return out
}

// SaveScore implements ports.ReviewRepository.
func (s *ReviewStore) SaveScore(ctx context.Context, review *domain.Review) error {
	if s.SaveScoreFn != nil {
		return s.SaveScoreFn(ctx, review)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.reviews[review.ID]
	if !ok {
		return fmt.Errorf("%w: %s", apperrors.ErrReviewNotFound, review.ID)
	}

	if stored.Status != domain.StatusNew {
		return nil
	}

	stored.HumorScore = review.HumorScore
	stored.ScoreSource = review.ScoreSource
	stored.LLMScore = review.LLMScore
	stored.Safety = review.Safety
	stored.SafetyNotes = review.SafetyNotes
	stored.Notes = review.Notes
	stored.Tags = append([]string(nil), review.Tags...)
	stored.Language = review.Language
	stored.ScoredAt = review.ScoredAt

	s.reviews[review.ID] = stored

	return nil
}

// SaveGrouping implements ports.ReviewRepository.
func (s *ReviewStore) SaveGrouping(_ context.Context, groups map[string]string, ineligible []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, groupID := range groups {
		if r, ok := s.reviews[id]; ok {
			r.DedupGroupID = groupID
			r.Ineligible = false
			s.reviews[id] = r
		}
	}

	for _, id := range ineligible {
		if r, ok := s.reviews[id]; ok {
			r.DedupGroupID = ""
			r.Ineligible = true
			s.reviews[id] = r
		}
	}

	return nil
}

// UpdateStatus implements ports.ReviewRepository.
func (s *ReviewStore) UpdateStatus(ctx context.Context, change domain.StatusChange) (bool, error) {
	if s.UpdateStatusFn != nil {
		return s.UpdateStatusFn(ctx, change)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reviews[change.ReviewID]
	if !ok || r.Status != change.From {
		return false, nil
	}

	r.Status = change.To
	r.UpdatedAt = change.At

	if change.To == domain.StatusSelected {
		r.SelectedCycle = change.CycleID
	}

	s.reviews[change.ReviewID] = r

	return true, nil
}

// SaveShortlist implements ports.ShortlistRepository.
func (s *ReviewStore) SaveShortlist(ctx context.Context, shortlist *domain.Shortlist) error {
	if s.SaveShortlistFn != nil {
		return s.SaveShortlistFn(ctx, shortlist)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *shortlist
	stored.Entries = append([]domain.ShortlistEntry(nil), shortlist.Entries...)
	s.shortlists[shortlist.CycleID] = stored

	return nil
}

// GetShortlistByCycle implements ports.ShortlistRepository.
func (s *ReviewStore) GetShortlistByCycle(_ context.Context, cycleID string) (*domain.Shortlist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sl, ok := s.shortlists[cycleID]
	if !ok {
		return nil, fmt.Errorf("shortlist %s: %w", cycleID, apperrors.ErrNotFound)
	}

	return &sl, nil
}

// RecordIngestStats implements ports.IngestStatsRepository.
func (s *ReviewStore) RecordIngestStats(_ context.Context, stats domain.IngestStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats = append(s.stats, stats)

	return nil
}

// TryLockCycle implements ports.CycleLocker.
func (s *ReviewStore) TryLockCycle(_ context.Context) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.locked {
		return nil, apperrors.ErrCycleLocked
	}

	s.locked = true

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		s.locked = false
	}, nil
}

func cloneReview(r domain.Review) domain.Review {
	r.Tags = append([]string(nil), r.Tags...)

	if r.LLMScore != nil {
		v := *r.LLMScore
		r.LLMScore = &v
	}

	if r.ScoredAt != nil {
		v := *r.ScoredAt
		r.ScoredAt = &v
	}

	return r
}

func sortByID(reviews []domain.Review) {
	sort.Slice(reviews, func(i, j int) bool { return reviews[i].ID < reviews[j].ID })
}
