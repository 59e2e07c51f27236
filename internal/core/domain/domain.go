package domain

import "time"

// Place is a business discovered by the discovery collaborator.
// Places are never deleted; Active=false hides them from new cycles.
type Place struct {
	ID           string
	DataID       string
	Name         string
	Category     string
	Address      string
	Latitude     float64
	Longitude    float64
	TotalReviews int
	URL          string
	Provider     string
	Active       bool
	CreatedAt    time.Time
}

// LookupID returns the identifier used to fetch reviews from the provider.
func (p Place) LookupID() string {
	if p.DataID != "" {
		return p.DataID
	}

	return p.ID
}

// Review is a collected review together with its curation state.
type Review struct {
	ID            string
	PlaceID       string
	Body          string
	OwnerReply    string
	Rating        int
	PostedAt      time.Time
	Language      string
	ReviewerName  string
	ReviewerURL   string
	ReviewURL     string
	HumorScore    float64
	ScoreSource   string
	LLMScore      *float64
	Safety        SafetyFlag
	SafetyNotes   string
	Notes         string
	Tags          []string
	Status        Status
	DedupGroupID  string
	Ineligible    bool
	SelectedCycle string
	ScoredAt      *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsScored reports whether a humor score has been computed for the review.
func (r Review) IsScored() bool {
	return r.ScoredAt != nil
}

// PrimaryTag returns the first tag or DefaultTag when untagged.
func (r Review) PrimaryTag() string {
	for _, tag := range r.Tags {
		if tag != "" {
			return tag
		}
	}

	return DefaultTag
}

// Score sources.
const (
	ScoreSourceHeuristic = "heuristic"
	ScoreSourceLLM       = "llm"
)

// DefaultTag is used for reviews without tags.
const DefaultTag = "misc"

// Rating bounds accepted from the collection collaborator.
const (
	MinRating = 1
	MaxRating = 5
)

// HumorJudgment is the verdict of the optional external humor judge.
// Score uses the same scale as the heuristic scorer.
type HumorJudgment struct {
	Score       float64
	Safety      SafetyFlag
	SafetyNotes string
	Notes       string
	Tags        []string
	Model       string
}

// IngestStats summarizes one collection pass for a place.
type IngestStats struct {
	PlaceID   string
	RunAt     time.Time
	Fetched   int
	Inserted  int
	Existing  int
	Filtered  int
	Malformed int
}
