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

const placeColumns = `id, data_id, name, category, address, latitude, longitude,
	total_reviews, url, provider, active, created_at`

// UpsertPlace inserts a place or refreshes its descriptive fields. The active
// flag of an existing place is preserved. It reports whether the place is new.
func (db *DB) UpsertPlace(ctx context.Context, place *domain.Place) (bool, error) {
	var inserted bool

	err := db.Pool.QueryRow(ctx, `
		INSERT INTO places (id, data_id, name, category, address, latitude, longitude,
		                    total_reviews, url, provider, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, TRUE)
		ON CONFLICT (id) DO UPDATE SET
			data_id = COALESCE(EXCLUDED.data_id, places.data_id),
			name = EXCLUDED.name,
			category = COALESCE(EXCLUDED.category, places.category),
			address = COALESCE(EXCLUDED.address, places.address),
			latitude = COALESCE(EXCLUDED.latitude, places.latitude),
			longitude = COALESCE(EXCLUDED.longitude, places.longitude),
			total_reviews = GREATEST(EXCLUDED.total_reviews, places.total_reviews),
			url = COALESCE(EXCLUDED.url, places.url),
			provider = COALESCE(EXCLUDED.provider, places.provider),
			updated_at = NOW()
		RETURNING (xmax = 0) AS inserted, active, created_at
	`,
		place.ID,
		toText(place.DataID),
		SanitizeUTF8(place.Name),
		toText(place.Category),
		toText(place.Address),
		toCoordinate(place.Latitude),
		toCoordinate(place.Longitude),
		toInt4(place.TotalReviews),
		toText(place.URL),
		toText(place.Provider),
	).Scan(&inserted, &place.Active, &place.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("upsert place %s: %w", place.ID, err)
	}

	return inserted, nil
}

// GetPlace returns a place by id.
func (db *DB) GetPlace(ctx context.Context, id string) (*domain.Place, error) {
	row := db.Pool.QueryRow(ctx, `SELECT `+placeColumns+` FROM places WHERE id = $1`, id)

	place, err := scanPlace(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrPlaceNotFound, id)
		}

		return nil, fmt.Errorf("get place %s: %w", id, err)
	}

	return place, nil
}

// ListActivePlaces returns active places ordered by id. A non-positive limit
// returns all of them.
func (db *DB) ListActivePlaces(ctx context.Context, limit int) ([]domain.Place, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT `+placeColumns+`
		FROM places
		WHERE active
		ORDER BY id
		LIMIT NULLIF($1, 0)
	`, max(limit, 0))
	if err != nil {
		return nil, fmt.Errorf("query active places: %w", err)
	}
	defer rows.Close()

	var places []domain.Place

	for rows.Next() {
		p, err := scanPlace(rows)
		if err != nil {
			return nil, err
		}

		places = append(places, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf(errIterate, "place", err)
	}

	return places, nil
}

// SetPlaceActive hides or restores a place. Places are never deleted.
func (db *DB) SetPlaceActive(ctx context.Context, id string, active bool) error {
	tag, err := db.Pool.Exec(ctx, `UPDATE places SET active = $2, updated_at = NOW() WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("set place %s active: %w", id, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", apperrors.ErrPlaceNotFound, id)
	}

	return nil
}

func scanPlace(row pgx.Row) (*domain.Place, error) {
	var (
		p                         domain.Place
		dataID, category, address pgtype.Text
		url, provider             pgtype.Text
		latitude, longitude       pgtype.Float8
		totalReviews              int32
	)

	if err := row.Scan(&p.ID, &dataID, &p.Name, &category, &address, &latitude, &longitude,
		&totalReviews, &url, &provider, &p.Active, &p.CreatedAt); err != nil {
		return nil, err //nolint:wrapcheck // callers wrap with context
	}

	p.DataID = fromText(dataID)
	p.Category = fromText(category)
	p.Address = fromText(address)
	p.Latitude = latitude.Float64
	p.Longitude = longitude.Float64
	p.TotalReviews = int(totalReviews)
	p.URL = fromText(url)
	p.Provider = fromText(provider)

	return &p, nil
}

func toCoordinate(v float64) pgtype.Float8 {
	return pgtype.Float8{Float64: v, Valid: v != 0}
}
