package domain

import (
	"fmt"
	"time"
)

// DedupGroup is a cluster of near-duplicate reviews from one place.
type DedupGroup struct {
	ID             string
	PlaceID        string
	MemberIDs      []string
	Representative Review
}

// Size returns the number of reviews in the group.
func (g DedupGroup) Size() int {
	return len(g.MemberIDs)
}

// ShortlistEntry points at one selected review.
type ShortlistEntry struct {
	Rank       int
	ReviewID   string
	PlaceID    string
	GroupID    string
	GroupSize  int
	HumorScore float64
	Tag        string
}

// Shortlist is the dated selection produced by one curation cycle.
// It is written once and superseded by the next shortlist.
type Shortlist struct {
	ID          string
	CycleID     string
	BatchDate   time.Time
	GeneratedAt time.Time
	DryRun      bool
	Entries     []ShortlistEntry
}

// ReviewIDs returns the selected review ids in rank order.
func (s Shortlist) ReviewIDs() []string {
	ids := make([]string, len(s.Entries))
	for i, e := range s.Entries {
		ids[i] = e.ReviewID
	}

	return ids
}

// CycleIDFor returns the ISO week identifier (e.g. "2026-W42") used as the curation cycle id.
func CycleIDFor(t time.Time) string {
	year, week := t.ISOWeek()

	return fmt.Sprintf("%04d-W%02d", year, week)
}
