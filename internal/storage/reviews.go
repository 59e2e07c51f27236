package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/lueurxax/humor-review-scout/internal/core/domain"
	apperrors "github.com/lueurxax/humor-review-scout/internal/core/errors"
	"github.com/lueurxax/humor-review-scout/internal/core/ports"
)

const reviewColumns = `r.id, r.place_id, r.body, r.owner_reply, r.rating, r.posted_at, r.language,
	r.reviewer_name, r.reviewer_url, r.review_url, r.humor_score, r.score_source, r.llm_score,
	r.safety, r.safety_notes, r.notes, r.tags, r.status, r.dedup_group_id, r.ineligible,
	r.selected_cycle, r.scored_at, r.created_at, r.updated_at`

// InsertReview stores a review as new. Existing ids are left untouched and
// reported with false.
func (db *DB) InsertReview(ctx context.Context, review *domain.Review) (bool, error) {
	tag, err := db.Pool.Exec(ctx, `
		INSERT INTO reviews (id, place_id, body, owner_reply, rating, posted_at, language,
		                     reviewer_name, reviewer_url, review_url, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO NOTHING
	`,
		review.ID,
		review.PlaceID,
		SanitizeUTF8(review.Body),
		toText(review.OwnerReply),
		toInt4(review.Rating),
		review.PostedAt,
		toText(review.Language),
		toText(review.ReviewerName),
		toText(review.ReviewerURL),
		toText(review.ReviewURL),
		domain.StatusNew.String(),
	)
	if err != nil {
		return false, fmt.Errorf("insert review %s: %w", review.ID, err)
	}

	return tag.RowsAffected() == 1, nil
}

// GetReview returns a review by id.
func (db *DB) GetReview(ctx context.Context, id string) (*domain.Review, error) {
	row := db.Pool.QueryRow(ctx, `SELECT `+reviewColumns+` FROM reviews r WHERE r.id = $1`, id)

	review, err := scanReview(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrReviewNotFound, id)
		}

		return nil, fmt.Errorf("get review %s: %w", id, err)
	}

	return review, nil
}

// ListCandidates returns the population a cycle works on: new reviews plus
// reviews already selected for this cycle (or any cycle when AllowRepeat),
// limited to active places and ratings below the threshold.
func (db *DB) ListCandidates(ctx context.Context, query ports.CandidateQuery) ([]domain.Review, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT `+reviewColumns+`
		FROM reviews r
		JOIN places p ON p.id = r.place_id
		WHERE p.active
		  AND ($1 <= 0 OR r.rating < $1)
		  AND (r.status = $2 OR (r.status = $3 AND ($4 OR r.selected_cycle = $5)))
		ORDER BY r.id
	`,
		query.RatingBelow,
		domain.StatusNew.String(),
		domain.StatusSelected.String(),
		query.AllowRepeat,
		query.CycleID,
	)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}

	return collectReviews(rows, "candidate")
}

// ListReviewsByStatus returns reviews in a lifecycle state, most recent first.
func (db *DB) ListReviewsByStatus(ctx context.Context, status domain.Status, limit int) ([]domain.Review, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT `+reviewColumns+`
		FROM reviews r
		WHERE r.status = $1
		ORDER BY r.updated_at DESC, r.id
		LIMIT NULLIF($2, 0)
	`, status.String(), max(limit, 0))
	if err != nil {
		return nil, fmt.Errorf("query reviews by status: %w", err)
	}

	return collectReviews(rows, "review")
}

// ListReviewsByPlace returns every review of a place ordered by id.
func (db *DB) ListReviewsByPlace(ctx context.Context, placeID string) ([]domain.Review, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT `+reviewColumns+`
		FROM reviews r
		WHERE r.place_id = $1
		ORDER BY r.id
	`, placeID)
	if err != nil {
		return nil, fmt.Errorf("query reviews by place: %w", err)
	}

	return collectReviews(rows, "review")
}

// SaveScore persists scoring output. Only reviews still in new are updated,
// so a score never changes after selection.
func (db *DB) SaveScore(ctx context.Context, review *domain.Review) error {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE reviews SET
			humor_score = $2,
			score_source = $3,
			llm_score = $4,
			safety = $5,
			safety_notes = $6,
			notes = $7,
			tags = $8,
			language = COALESCE($9, language),
			scored_at = $10,
			updated_at = NOW()
		WHERE id = $1 AND status = $11
	`,
		review.ID,
		review.HumorScore,
		toText(review.ScoreSource),
		toFloat8Ptr(review.LLMScore),
		review.Safety.String(),
		toText(review.SafetyNotes),
		toText(review.Notes),
		nonNilTags(review.Tags),
		toText(review.Language),
		toTimestamptzPtr(review.ScoredAt),
		domain.StatusNew.String(),
	)
	if err != nil {
		return fmt.Errorf("save score of %s: %w", review.ID, err)
	}

	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	if err := db.Pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM reviews WHERE id = $1)`, review.ID).Scan(&exists); err != nil {
		return fmt.Errorf("check review %s: %w", review.ID, err)
	}

	if !exists {
		return fmt.Errorf("%w: %s", apperrors.ErrReviewNotFound, review.ID)
	}

	return nil
}

// SaveGrouping records dedup group ids and ineligible reviews in one
// transaction.
func (db *DB) SaveGrouping(ctx context.Context, groups map[string]string, ineligible []string) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		_ = tx.Rollback(ctx) //nolint:errcheck // rollback after commit returns error, this is best-effort cleanup
	}()

	batch := &pgx.Batch{}

	for reviewID, groupID := range groups {
		batch.Queue(`UPDATE reviews SET dedup_group_id = $2, ineligible = FALSE WHERE id = $1`, reviewID, toUUID(groupID))
	}

	for _, reviewID := range ineligible {
		batch.Queue(`UPDATE reviews SET dedup_group_id = NULL, ineligible = TRUE WHERE id = $1`, reviewID)
	}

	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("update grouping: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// UpdateStatus applies a compare-and-set transition. It returns false when
// the review is missing or no longer in change.From.
func (db *DB) UpdateStatus(ctx context.Context, change domain.StatusChange) (bool, error) {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE reviews SET
			status = $3,
			selected_cycle = CASE WHEN $3 = $5 THEN $4 ELSE selected_cycle END,
			updated_at = $6
		WHERE id = $1 AND status = $2
	`,
		change.ReviewID,
		change.From.String(),
		change.To.String(),
		toText(change.CycleID),
		domain.StatusSelected.String(),
		change.At,
	)
	if err != nil {
		return false, fmt.Errorf("update status of %s: %w", change.ReviewID, err)
	}

	return tag.RowsAffected() == 1, nil
}

func collectReviews(rows pgx.Rows, kind string) ([]domain.Review, error) {
	defer rows.Close()

	var reviews []domain.Review

	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf(errScanReview, err)
		}

		reviews = append(reviews, *r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf(errIterate, kind, err)
	}

	return reviews, nil
}

func scanReview(row pgx.Row) (*domain.Review, error) {
	var (
		r                                    domain.Review
		ownerReply, language                 pgtype.Text
		reviewerName, reviewerURL, reviewURL pgtype.Text
		scoreSource, safetyNotes, notes      pgtype.Text
		selectedCycle                        pgtype.Text
		llmScore                             pgtype.Float8
		rating                               int16
		safety, status                       string
		groupID                              pgtype.UUID
		scoredAt                             pgtype.Timestamptz
	)

	if err := row.Scan(&r.ID, &r.PlaceID, &r.Body, &ownerReply, &rating, &r.PostedAt, &language,
		&reviewerName, &reviewerURL, &reviewURL, &r.HumorScore, &scoreSource, &llmScore,
		&safety, &safetyNotes, &notes, &r.Tags, &status, &groupID, &r.Ineligible,
		&selectedCycle, &scoredAt, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err //nolint:wrapcheck // callers wrap with context
	}

	parsed, err := domain.ParseStatus(status)
	if err != nil {
		return nil, fmt.Errorf("review %s: %w", r.ID, err)
	}

	r.Status = parsed
	r.Rating = int(rating)
	r.OwnerReply = fromText(ownerReply)
	r.Language = fromText(language)
	r.ReviewerName = fromText(reviewerName)
	r.ReviewerURL = fromText(reviewerURL)
	r.ReviewURL = fromText(reviewURL)
	r.ScoreSource = fromText(scoreSource)
	r.LLMScore = fromFloat8Ptr(llmScore)
	r.Safety = domain.ParseSafety(safety)
	r.SafetyNotes = fromText(safetyNotes)
	r.Notes = fromText(notes)
	r.DedupGroupID = fromUUID(groupID)
	r.SelectedCycle = fromText(selectedCycle)
	r.ScoredAt = fromTimestamptzPtr(scoredAt)

	return &r, nil
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}

	return tags
}
