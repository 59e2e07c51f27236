package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/lueurxax/humor-review-scout/internal/core/domain"
	apperrors "github.com/lueurxax/humor-review-scout/internal/core/errors"
)

// SaveShortlist stores a shortlist and its entries in one transaction.
func (db *DB) SaveShortlist(ctx context.Context, shortlist *domain.Shortlist) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		_ = tx.Rollback(ctx) //nolint:errcheck // rollback after commit returns error, this is best-effort cleanup
	}()

	if _, err := tx.Exec(ctx, `
		INSERT INTO shortlists (id, cycle_id, batch_date, generated_at, dry_run)
		VALUES ($1, $2, $3, $4, $5)
	`, toUUID(shortlist.ID), shortlist.CycleID, shortlist.BatchDate, shortlist.GeneratedAt, shortlist.DryRun); err != nil {
		return fmt.Errorf("insert shortlist %s: %w", shortlist.ID, err)
	}

	batch := &pgx.Batch{}

	for _, e := range shortlist.Entries {
		batch.Queue(`
			INSERT INTO shortlist_entries (shortlist_id, rank, review_id, place_id, group_id, group_size, humor_score, tag)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, toUUID(shortlist.ID), safeIntToInt32(e.Rank), e.ReviewID, e.PlaceID, toUUID(e.GroupID),
			safeIntToInt32(max(e.GroupSize, 1)), e.HumorScore, e.Tag)
	}

	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert shortlist entries: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// GetShortlistByCycle returns the most recent shortlist generated for a cycle.
func (db *DB) GetShortlistByCycle(ctx context.Context, cycleID string) (*domain.Shortlist, error) {
	var (
		s  domain.Shortlist
		id pgtype.UUID
	)

	err := db.Pool.QueryRow(ctx, `
		SELECT id, cycle_id, batch_date, generated_at, dry_run
		FROM shortlists
		WHERE cycle_id = $1
		ORDER BY generated_at DESC
		LIMIT 1
	`, cycleID).Scan(&id, &s.CycleID, &s.BatchDate, &s.GeneratedAt, &s.DryRun)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("shortlist for cycle %s: %w", cycleID, apperrors.ErrNotFound)
		}

		return nil, fmt.Errorf("get shortlist for cycle %s: %w", cycleID, err)
	}

	s.ID = fromUUID(id)

	rows, err := db.Pool.Query(ctx, `
		SELECT rank, review_id, place_id, group_id, group_size, humor_score, tag
		FROM shortlist_entries
		WHERE shortlist_id = $1
		ORDER BY rank
	`, id)
	if err != nil {
		return nil, fmt.Errorf("query shortlist entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			e               domain.ShortlistEntry
			rank, groupSize int32
			groupID         pgtype.UUID
		)

		if err := rows.Scan(&rank, &e.ReviewID, &e.PlaceID, &groupID, &groupSize, &e.HumorScore, &e.Tag); err != nil {
			return nil, fmt.Errorf("scan shortlist entry: %w", err)
		}

		e.Rank = int(rank)
		e.GroupSize = int(groupSize)
		e.GroupID = fromUUID(groupID)
		s.Entries = append(s.Entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf(errIterate, "shortlist entry", err)
	}

	return &s, nil
}
