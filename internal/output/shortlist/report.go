package shortlist

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/lueurxax/humor-review-scout/internal/core/domain"
)

const (
	unknownPlaceName = "Unknown place"
	anonymousName    = "Anonymous"
	mapsPlaceURL     = "https://www.google.com/maps/place/?q=place_id:"
)

// Report is the single source every rendering is produced from.
type Report struct {
	Shortlist domain.Shortlist
	Places    map[string]domain.Place
	Reviews   map[string]domain.Review
}

// Item is one shortlisted review with its entry metadata.
type Item struct {
	Entry  domain.ShortlistEntry
	Review domain.Review
}

// Section groups the items of one place.
type Section struct {
	Place    domain.Place
	Items    []Item
	TopScore float64
}

// Title returns "name · address" or just the name.
func (s Section) Title() string {
	if s.Place.Address == "" {
		return s.Place.Name
	}

	return s.Place.Name + " · " + s.Place.Address
}

// URL links to the place on the map provider.
func (s Section) URL() string {
	if s.Place.URL != "" {
		return s.Place.URL
	}

	if s.Place.ID == "" {
		return ""
	}

	return mapsPlaceURL + url.QueryEscape(s.Place.ID)
}

// Items returns the shortlisted reviews in rank order.
func (r Report) Items() []Item {
	items := make([]Item, 0, len(r.Shortlist.Entries))

	for _, e := range r.Shortlist.Entries {
		review, ok := r.Reviews[e.ReviewID]
		if !ok {
			review = domain.Review{ID: e.ReviewID, PlaceID: e.PlaceID, HumorScore: e.HumorScore}
		}

		items = append(items, Item{Entry: e, Review: review})
	}

	return items
}

// Sections groups items by place. Sections are ordered by their top score,
// then place name; items keep rank order.
func (r Report) Sections() []Section {
	index := make(map[string]int)
	sections := make([]Section, 0)

	for _, item := range r.Items() {
		placeID := item.Entry.PlaceID

		i, ok := index[placeID]
		if !ok {
			place, found := r.Places[placeID]
			if !found {
				place = domain.Place{ID: placeID, Name: unknownPlaceName}
			}

			i = len(sections)
			index[placeID] = i
			sections = append(sections, Section{Place: place, TopScore: item.Entry.HumorScore})
		}

		sections[i].Items = append(sections[i].Items, item)
		sections[i].TopScore = max(sections[i].TopScore, item.Entry.HumorScore)
	}

	sort.SliceStable(sections, func(i, j int) bool {
		if sections[i].TopScore != sections[j].TopScore {
			return sections[i].TopScore > sections[j].TopScore
		}

		return strings.ToLower(sections[i].Place.Name) < strings.ToLower(sections[j].Place.Name)
	})

	return sections
}

// MeanScore returns the average humor score of the entries.
func (r Report) MeanScore() float64 {
	if len(r.Shortlist.Entries) == 0 {
		return 0
	}

	var sum float64
	for _, e := range r.Shortlist.Entries {
		sum += e.HumorScore
	}

	return sum / float64(len(r.Shortlist.Entries))
}

// TopScore returns the highest humor score of the entries.
func (r Report) TopScore() float64 {
	var top float64
	for _, e := range r.Shortlist.Entries {
		top = max(top, e.HumorScore)
	}

	return top
}

// BatchDate formats the shortlist date as used in file names.
func (r Report) BatchDate() string {
	return r.Shortlist.BatchDate.Format("2006-01-02")
}

func formatScore(score float64) string {
	return fmt.Sprintf("%.1f", score)
}

func reviewerName(r domain.Review) string {
	if strings.TrimSpace(r.ReviewerName) == "" {
		return anonymousName
	}

	return r.ReviewerName
}

func tagList(r domain.Review) string {
	if len(r.Tags) == 0 {
		return domain.DefaultTag
	}

	return strings.Join(r.Tags, ", ")
}
