// Package dedup collapses near-duplicate reviews of the same place into groups.
//
// Reviews are compared only within their place. Inside a place every pair of
// fingerprints is compared by normalized edit distance, and pairs at or above
// the threshold are merged transitively. Weekly batches are hundreds of reviews
// per run, so the quadratic comparison per place is acceptable; a length-ratio
// bound skips pairs that cannot reach the threshold.
package dedup

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/lueurxax/humor-review-scout/internal/core/domain"
	"github.com/lueurxax/humor-review-scout/internal/platform/textnorm"
)

const (
	// DefaultThreshold matches reviews that differ only in a few characters.
	DefaultThreshold = 0.85
	// DefaultMinLength is the shortest fingerprint, in runes, that can be grouped.
	DefaultMinLength = 10
)

var groupNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("humor-review-scout/dedup-group"))

// Options tunes grouping.
type Options struct {
	Threshold float64
	MinLength int
}

// DefaultOptions returns the default grouping parameters.
func DefaultOptions() Options {
	return Options{Threshold: DefaultThreshold, MinLength: DefaultMinLength}
}

// Result holds the groups of one deduplication pass.
type Result struct {
	// Groups are ordered by representative score descending, then posting time
	// descending, then representative id.
	Groups []domain.DedupGroup
	// Ineligible lists ids (sorted) whose fingerprint is empty or too short.
	Ineligible []string
}

// GroupOf returns a review id to group id index.
func (r Result) GroupOf() map[string]string {
	out := make(map[string]string)

	for _, g := range r.Groups {
		for _, id := range g.MemberIDs {
			out[id] = g.ID
		}
	}

	return out
}

type candidate struct {
	review      domain.Review
	fingerprint string
	length      int
}

// Deduplicate groups reviews. The output does not depend on input order.
// Reviews with a repeated id are considered once.
func Deduplicate(reviews []domain.Review, opts Options) Result {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}

	byPlace := make(map[string][]candidate)
	seen := make(map[string]struct{}, len(reviews))
	result := Result{}

	for _, r := range reviews {
		if _, ok := seen[r.ID]; ok {
			continue
		}

		seen[r.ID] = struct{}{}

		fp := textnorm.Fingerprint(r.Body)
		length := utf8.RuneCountInString(fp)

		if length == 0 || length < opts.MinLength {
			result.Ineligible = append(result.Ineligible, r.ID)
			continue
		}

		byPlace[r.PlaceID] = append(byPlace[r.PlaceID], candidate{review: r, fingerprint: fp, length: length})
	}

	for placeID, members := range byPlace {
		result.Groups = append(result.Groups, clusterPlace(placeID, members, opts.Threshold)...)
	}

	sort.Strings(result.Ineligible)
	sort.Slice(result.Groups, func(i, j int) bool {
		return Better(result.Groups[i].Representative, result.Groups[j].Representative)
	})

	return result
}

func clusterPlace(placeID string, members []candidate, threshold float64) []domain.DedupGroup {
	sort.Slice(members, func(i, j int) bool { return members[i].review.ID < members[j].review.ID })

	uf := newUnionFind(len(members))

	for i := 0; i < len(members); i++ {
		for j := i + 1; j < len(members); j++ {
			if uf.find(i) == uf.find(j) {
				continue
			}

			if maxSimilarity(members[i].length, members[j].length) < threshold {
				continue
			}

			if members[i].fingerprint == members[j].fingerprint ||
				Similarity(members[i].fingerprint, members[j].fingerprint) >= threshold {
				uf.union(i, j)
			}
		}
	}

	clusters := make(map[int][]domain.Review)
	roots := make([]int, 0)

	for i, m := range members {
		root := uf.find(i)
		if _, ok := clusters[root]; !ok {
			roots = append(roots, root)
		}

		clusters[root] = append(clusters[root], m.review)
	}

	groups := make([]domain.DedupGroup, 0, len(roots))
	for _, root := range roots {
		groups = append(groups, newGroup(placeID, clusters[root]))
	}

	return groups
}

func newGroup(placeID string, reviews []domain.Review) domain.DedupGroup {
	ids := make([]string, len(reviews))
	rep := reviews[0]

	for i, r := range reviews {
		ids[i] = r.ID

		if Better(r, rep) {
			rep = r
		}
	}

	sort.Strings(ids)

	return domain.DedupGroup{
		ID:             GroupID(ids),
		PlaceID:        placeID,
		MemberIDs:      ids,
		Representative: rep,
	}
}

// Better reports whether a ranks ahead of b: higher humor score, then more
// recent posting time, then lower id.
func Better(a, b domain.Review) bool {
	if a.HumorScore != b.HumorScore {
		return a.HumorScore > b.HumorScore
	}

	if !a.PostedAt.Equal(b.PostedAt) {
		return a.PostedAt.After(b.PostedAt)
	}

	return a.ID < b.ID
}

// GroupID derives a stable identifier from sorted member ids.
func GroupID(sortedIDs []string) string {
	return uuid.NewSHA1(groupNamespace, []byte(strings.Join(sortedIDs, "\n"))).String()
}
