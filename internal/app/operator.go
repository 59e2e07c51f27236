package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/lueurxax/humor-review-scout/internal/core/domain"
	apperrors "github.com/lueurxax/humor-review-scout/internal/core/errors"
)

// ReviewQuery selects reviews for operator listings. PlaceID takes precedence
// over Status as the store query; when both are set the place's reviews are
// narrowed to the status.
type ReviewQuery struct {
	Status  string
	PlaceID string
	Limit   int
}

// ListReviews returns reviews by lifecycle state or by place.
func (a *App) ListReviews(ctx context.Context, q ReviewQuery) ([]domain.Review, error) {
	placeID := strings.TrimSpace(q.PlaceID)

	if placeID == "" && q.Status == "" {
		return nil, fmt.Errorf("%w: a status or a place id is required", apperrors.ErrInvalidInput)
	}

	var (
		status    domain.Status
		hasStatus bool
	)

	if q.Status != "" {
		parsed, err := domain.ParseStatus(q.Status)
		if err != nil {
			return nil, err
		}

		status, hasStatus = parsed, true
	}

	if placeID == "" {
		reviews, err := a.store.ListReviewsByStatus(ctx, status, q.Limit)
		if err != nil {
			return nil, fmt.Errorf("%w: list %s reviews: %w", apperrors.ErrPersistenceFailure, status, err)
		}

		return reviews, nil
	}

	reviews, err := a.store.ListReviewsByPlace(ctx, placeID)
	if err != nil {
		return nil, fmt.Errorf("%w: list reviews of %s: %w", apperrors.ErrPersistenceFailure, placeID, err)
	}

	out := reviews[:0]

	for _, r := range reviews {
		if hasStatus && r.Status != status {
			continue
		}

		out = append(out, r)

		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}

	return out, nil
}

// SetPlaceActive hides a place from collection and curation or restores it.
func (a *App) SetPlaceActive(ctx context.Context, placeID string, active bool) error {
	placeID = strings.TrimSpace(placeID)
	if placeID == "" {
		return fmt.Errorf("%w: place id is required", apperrors.ErrInvalidInput)
	}

	if err := a.store.SetPlaceActive(ctx, placeID, active); err != nil {
		return fmt.Errorf("set place %s active=%t: %w", placeID, active, err)
	}

	a.logger.Info().Str(logFieldPlace, placeID).Bool("active", active).Msg("place visibility updated")

	return nil
}

type reviewLine struct {
	ID            string    `json:"id"`
	PlaceID       string    `json:"place_id"`
	Rating        int       `json:"rating"`
	Status        string    `json:"status"`
	HumorScore    float64   `json:"humor_score"`
	Safety        string    `json:"safety"`
	SelectedCycle string    `json:"selected_cycle,omitempty"`
	PostedAt      time.Time `json:"posted_at"`
	Body          string    `json:"body"`
}

// WriteReviews prints one JSON object per review.
func WriteReviews(w io.Writer, reviews []domain.Review) error {
	enc := json.NewEncoder(w)

	for _, r := range reviews {
		line := reviewLine{
			ID:            r.ID,
			PlaceID:       r.PlaceID,
			Rating:        r.Rating,
			Status:        r.Status.String(),
			HumorScore:    r.HumorScore,
			Safety:        r.Safety.String(),
			SelectedCycle: r.SelectedCycle,
			PostedAt:      r.PostedAt,
			Body:          r.Body,
		}

		if err := enc.Encode(line); err != nil {
			return fmt.Errorf("write review %s: %w", r.ID, err)
		}
	}

	return nil
}
