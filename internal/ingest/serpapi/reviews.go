package serpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// RawReview is a review as returned by the provider, before validation.
type RawReview struct {
	ID           string
	Body         string
	OwnerReply   string
	Rating       int
	PostedAt     time.Time
	RawDate      string
	ReviewerName string
	ReviewerURL  string
	ReviewURL    string
}

type reviewsResponse struct {
	Error      string      `json:"error"`
	Reviews    []rawReview `json:"reviews"`
	Pagination struct {
		NextPageToken string `json:"next_page_token"`
	} `json:"serpapi_pagination"`
	PlaceInfo struct {
		Link string `json:"link"`
	} `json:"place_info"`
	SearchMetadata struct {
		GoogleMapsURL string `json:"google_maps_url"`
	} `json:"search_metadata"`
}

type rawReview struct {
	ReviewID      string          `json:"review_id"`
	Link          string          `json:"link"`
	Rating        float64         `json:"rating"`
	Date          string          `json:"date"`
	ISODate       string          `json:"iso_date"`
	PublishedDate string          `json:"published_date"`
	Snippet       string          `json:"snippet"`
	Text          string          `json:"text"`
	Description   string          `json:"description"`
	User          json.RawMessage `json:"user"`
	Response      json.RawMessage `json:"response"`
	OwnerResponse json.RawMessage `json:"owner_response"`
}

type userInfo struct {
	Name        string `json:"name"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Link        string `json:"link"`
	ProfileURL  string `json:"profile_url"`
}

type ownerResponse struct {
	Snippet string `json:"snippet"`
	Text    string `json:"text"`
}

// FetchReviews returns up to limit reviews of a place, lowest rating first.
// It follows next_page_token until the limit, the last page or MaxPages.
func (c *Client) FetchReviews(ctx context.Context, dataID string, limit int) ([]RawReview, error) {
	if limit <= 0 {
		return nil, nil
	}

	var (
		reviews []RawReview
		token   string
	)

	for page := 0; page < c.cfg.MaxPages && len(reviews) < limit; page++ {
		params := url.Values{}
		params.Set("data_id", dataID)
		params.Set("sort_by", sortRatingLow)

		if token != "" {
			params.Set("next_page_token", token)
		}

		var resp reviewsResponse
		if err := c.get(ctx, engineReviews, params, &resp); err != nil {
			return reviews, fmt.Errorf("fetch reviews of %s: %w", dataID, err)
		}

		if err := checkError(resp.Error); err != nil {
			return reviews, fmt.Errorf("fetch reviews of %s: %w", dataID, err)
		}

		fallbackURL := firstNonEmpty(resp.PlaceInfo.Link, resp.SearchMetadata.GoogleMapsURL)

		for _, r := range resp.Reviews {
			if len(reviews) >= limit {
				break
			}

			reviews = append(reviews, c.convert(dataID, r, fallbackURL))
		}

		token = resp.Pagination.NextPageToken
		if token == "" || len(resp.Reviews) == 0 {
			break
		}
	}

	c.logger.Debug().Str("data_id", dataID).Int("count", len(reviews)).Msg("reviews fetched")

	return reviews, nil
}

func (c *Client) convert(dataID string, r rawReview, fallbackURL string) RawReview {
	name, profile := parseUser(r.User)
	link := firstNonEmpty(r.Link, fallbackURL)
	rawDate := firstNonEmpty(r.ISODate, r.Date, r.PublishedDate)

	posted := c.now().UTC()
	if rawDate != "" {
		posted = parseDate(rawDate, c.now())
	}

	id := strings.TrimSpace(r.ReviewID)
	if id == "" {
		id = fmt.Sprintf("%s:%s:%s", dataID, firstNonEmpty(link, rawDate), firstNonEmpty(name, "anon"))
	}

	return RawReview{
		ID:           id,
		Body:         firstNonEmpty(r.Snippet, r.Text, r.Description),
		OwnerReply:   firstNonEmpty(parseReply(r.OwnerResponse), parseReply(r.Response)),
		Rating:       int(r.Rating),
		PostedAt:     posted,
		RawDate:      rawDate,
		ReviewerName: name,
		ReviewerURL:  profile,
		ReviewURL:    link,
	}
}

// parseUser accepts either a user object or a bare name.
func parseUser(raw json.RawMessage) (name, link string) {
	if len(raw) == 0 {
		return "", ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s), ""
	}

	var u userInfo
	if err := json.Unmarshal(raw, &u); err != nil {
		return "", ""
	}

	return firstNonEmpty(u.Name, u.Username, u.DisplayName), firstNonEmpty(u.Link, u.ProfileURL)
}

// parseReply accepts either a response object or a bare string.
func parseReply(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}

	var r ownerResponse
	if err := json.Unmarshal(raw, &r); err != nil {
		return ""
	}

	return firstNonEmpty(r.Snippet, r.Text)
}
