package db

import (
	"context"
	"fmt"

	"github.com/lueurxax/humor-review-scout/internal/core/domain"
)

// RecordIngestStats appends the outcome of one collection pass.
func (db *DB) RecordIngestStats(ctx context.Context, stats domain.IngestStats) error {
	if _, err := db.Pool.Exec(ctx, `
		INSERT INTO ingest_stats (place_id, run_at, fetched, inserted, existing, filtered, malformed)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		stats.PlaceID,
		toTimestamptz(stats.RunAt),
		toInt4(stats.Fetched),
		toInt4(stats.Inserted),
		toInt4(stats.Existing),
		toInt4(stats.Filtered),
		toInt4(stats.Malformed),
	); err != nil {
		return fmt.Errorf("record ingest stats for %s: %w", stats.PlaceID, err)
	}

	return nil
}
