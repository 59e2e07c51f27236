package serpapi

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/lueurxax/humor-review-scout/internal/core/domain"
)

const mapsPlaceURL = "https://www.google.com/maps/place/?q=place_id:"

type mapsResponse struct {
	Error        string        `json:"error"`
	LocalResults []localResult `json:"local_results"`
}

type localResult struct {
	PlaceID   string `json:"place_id"`
	DataID    string `json:"data_id"`
	Title     string `json:"title"`
	Name      string `json:"name"`
	Address   string `json:"address"`
	Type      string `json:"type"`
	Reviews   int    `json:"reviews"`
	Link      string `json:"link"`
	PlaceLink string `json:"place_link"`
	GPS       struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"gps_coordinates"`
}

// DiscoverPlaces runs a Google Maps search and returns the places it finds.
// Results without any identifier are skipped.
func (c *Client) DiscoverPlaces(ctx context.Context, query string) ([]domain.Place, error) {
	params := url.Values{}
	params.Set("type", "search")
	params.Set("q", query)

	var resp mapsResponse
	if err := c.get(ctx, engineMaps, params, &resp); err != nil {
		return nil, fmt.Errorf("discover %q: %w", query, err)
	}

	if err := checkError(resp.Error); err != nil {
		return nil, fmt.Errorf("discover %q: %w", query, err)
	}

	places := make([]domain.Place, 0, len(resp.LocalResults))

	for _, r := range resp.LocalResults {
		place, ok := r.toPlace()
		if !ok {
			continue
		}

		places = append(places, place)
	}

	c.logger.Debug().Str("query", query).Int("count", len(places)).Msg("places discovered")

	return places, nil
}

func (r localResult) toPlace() (domain.Place, bool) {
	placeID := strings.TrimSpace(r.PlaceID)
	dataID := strings.TrimSpace(r.DataID)

	if placeID == "" && dataID == "" {
		return domain.Place{}, false
	}

	id := placeID
	if id == "" {
		id = dataID
	}

	name := firstNonEmpty(r.Title, r.Name, "Unknown")

	return domain.Place{
		ID:           id,
		DataID:       dataID,
		Name:         name,
		Category:     strings.TrimSpace(r.Type),
		Address:      strings.TrimSpace(r.Address),
		Latitude:     r.GPS.Latitude,
		Longitude:    r.GPS.Longitude,
		TotalReviews: r.Reviews,
		URL:          placeURL(r.Link, r.PlaceLink, placeID),
		Provider:     Provider,
		Active:       true,
	}, true
}

func placeURL(link, placeLink, placeID string) string {
	if u := firstNonEmpty(link, placeLink); u != "" {
		return u
	}

	if placeID != "" {
		return mapsPlaceURL + placeID
	}

	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}

	return ""
}
