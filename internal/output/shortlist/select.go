// Package shortlist selects the weekly set of reviews and renders it.
//
// Selection works on dedup group representatives only. Risky and low scoring
// representatives never make the list, places are capped for diversity, and a
// shorter list than requested is a valid result.
package shortlist

import (
	"sort"

	"github.com/lueurxax/humor-review-scout/internal/core/domain"
	"github.com/lueurxax/humor-review-scout/internal/process/dedup"
)

// Options tunes the selection policy. Zero or negative Limit and PerPlaceCap
// disable the respective bound.
type Options struct {
	Limit       int
	PerPlaceCap int
	MinScore    float64
	// TagCaps bounds entries per primary tag. Tags without a cap are unbounded.
	TagCaps map[string]int
}

// acceptFunc decides whether a ranked representative is taken. Returning
// false skips it and lets the next candidate fill the slot.
type acceptFunc func(group domain.DedupGroup) (bool, error)

// Select ranks representatives and applies the selection policy.
func Select(groups []domain.DedupGroup, opts Options) []domain.ShortlistEntry {
	//nolint:errcheck // accept never fails
	entries, _ := selectWith(groups, opts, func(domain.DedupGroup) (bool, error) { return true, nil })

	return entries
}

// Eligible reports whether a representative may be shortlisted at all.
func Eligible(rep domain.Review, minScore float64) bool {
	return rep.Safety != domain.SafetyRisky && rep.HumorScore >= minScore
}

func selectWith(groups []domain.DedupGroup, opts Options, accept acceptFunc) ([]domain.ShortlistEntry, error) {
	ranked := make([]domain.DedupGroup, 0, len(groups))

	for _, g := range groups {
		if Eligible(g.Representative, opts.MinScore) {
			ranked = append(ranked, g)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return dedup.Better(ranked[i].Representative, ranked[j].Representative)
	})

	perPlace := make(map[string]int)
	perTag := make(map[string]int)
	entries := make([]domain.ShortlistEntry, 0, len(ranked))

	for _, g := range ranked {
		if opts.Limit > 0 && len(entries) >= opts.Limit {
			break
		}

		rep := g.Representative
		tag := rep.PrimaryTag()

		if opts.PerPlaceCap > 0 && perPlace[rep.PlaceID] >= opts.PerPlaceCap {
			continue
		}

		if limit, ok := opts.TagCaps[tag]; ok && perTag[tag] >= limit {
			continue
		}

		ok, err := accept(g)
		if err != nil {
			return entries, err
		}

		if !ok {
			continue
		}

		perPlace[rep.PlaceID]++
		perTag[tag]++

		entries = append(entries, domain.ShortlistEntry{
			Rank:       len(entries) + 1,
			ReviewID:   rep.ID,
			PlaceID:    rep.PlaceID,
			GroupID:    g.ID,
			GroupSize:  g.Size(),
			HumorScore: rep.HumorScore,
			Tag:        tag,
		})
	}

	return entries, nil
}
