package shortlist

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/humor-review-scout/internal/core/domain"
	apperrors "github.com/lueurxax/humor-review-scout/internal/core/errors"
	"github.com/lueurxax/humor-review-scout/internal/core/ports/mocks"
	"github.com/lueurxax/humor-review-scout/internal/process/dedup"
	"github.com/lueurxax/humor-review-scout/internal/process/lifecycle"
)

var testPosted = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

func group(id, place string, score float64, opts ...func(*domain.Review)) domain.DedupGroup {
	rep := domain.Review{
		ID:         id,
		PlaceID:    place,
		Body:       "body of " + id,
		Rating:     1,
		PostedAt:   testPosted,
		HumorScore: score,
		Safety:     domain.SafetySafe,
	}

	for _, o := range opts {
		o(&rep)
	}

	return domain.DedupGroup{
		ID:             dedup.GroupID([]string{id}),
		PlaceID:        place,
		MemberIDs:      []string{id},
		Representative: rep,
	}
}

func withSafety(f domain.SafetyFlag) func(*domain.Review) {
	return func(r *domain.Review) { r.Safety = f }
}

func withTags(tags ...string) func(*domain.Review) {
	return func(r *domain.Review) { r.Tags = tags }
}

func withPosted(t time.Time) func(*domain.Review) {
	return func(r *domain.Review) { r.PostedAt = t }
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name   string
		groups []domain.DedupGroup
		opts   Options
		want   []string
	}{
		{
			name: "ranks by score",
			groups: []domain.DedupGroup{
				group("a", "p1", 40), group("b", "p2", 90), group("c", "p3", 60),
			},
			opts: Options{Limit: 10},
			want: []string{"b", "c", "a"},
		},
		{
			name: "drops risky even when top scoring",
			groups: []domain.DedupGroup{
				group("a", "p1", 99, withSafety(domain.SafetyRisky)),
				group("b", "p2", 50, withSafety(domain.SafetyUncertain)),
			},
			opts: Options{Limit: 10},
			want: []string{"b"},
		},
		{
			name: "drops below min score",
			groups: []domain.DedupGroup{
				group("a", "p1", 54.9), group("b", "p2", 55),
			},
			opts: Options{Limit: 10, MinScore: 55},
			want: []string{"b"},
		},
		{
			name: "per place cap",
			groups: []domain.DedupGroup{
				group("a", "p1", 90), group("b", "p1", 80), group("c", "p1", 70), group("d", "p2", 10),
			},
			opts: Options{Limit: 10, PerPlaceCap: 2},
			want: []string{"a", "b", "d"},
		},
		{
			name: "limit",
			groups: []domain.DedupGroup{
				group("a", "p1", 90), group("b", "p2", 80), group("c", "p3", 70),
			},
			opts: Options{Limit: 2},
			want: []string{"a", "b"},
		},
		{
			name:   "short list is valid",
			groups: []domain.DedupGroup{group("a", "p1", 90)},
			opts:   Options{Limit: 40, PerPlaceCap: 3},
			want:   []string{"a"},
		},
		{
			name: "tag caps with misc fallback",
			groups: []domain.DedupGroup{
				group("a", "p1", 90, withTags("rant")),
				group("b", "p2", 80, withTags("rant", "laughter")),
				group("c", "p3", 70),
				group("d", "p4", 60),
				group("e", "p5", 50, withTags("sarcasm")),
			},
			opts: Options{Limit: 10, TagCaps: map[string]int{"rant": 1, domain.DefaultTag: 1}},
			want: []string{"a", "c", "e"},
		},
		{
			name: "ties break on recency then id",
			groups: []domain.DedupGroup{
				group("b", "p1", 50),
				group("a", "p2", 50),
				group("c", "p3", 50, withPosted(testPosted.Add(time.Hour))),
			},
			opts: Options{Limit: 10},
			want: []string{"c", "a", "b"},
		},
		{
			name: "empty input",
			opts: Options{Limit: 10},
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries := Select(tt.groups, tt.opts)

			got := make([]string, len(entries))
			for i, e := range entries {
				got[i] = e.ReviewID
				assert.Equal(t, i+1, e.Rank)
			}

			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSelect_NeverRiskyAndCapped(t *testing.T) {
	var groups []domain.DedupGroup

	places := []string{"p1", "p2", "p3"}
	for i := 0; i < 30; i++ {
		safety := domain.SafetySafe
		if i%4 == 0 {
			safety = domain.SafetyRisky
		}

		id := string(rune('a'+i%26)) + string(rune('0'+i/26))
		groups = append(groups, group(id, places[i%3], float64(100-i), withSafety(safety)))
	}

	entries := Select(groups, Options{Limit: 20, PerPlaceCap: 2})
	require.Len(t, entries, 6)

	byID := make(map[string]domain.Review)
	for _, g := range groups {
		byID[g.Representative.ID] = g.Representative
	}

	perPlace := make(map[string]int)

	for _, e := range entries {
		assert.NotEqual(t, domain.SafetyRisky, byID[e.ReviewID].Safety)

		perPlace[e.PlaceID]++
	}

	for place, n := range perPlace {
		assert.LessOrEqual(t, n, 2, place)
	}
}

func TestSelect_EntryFields(t *testing.T) {
	g := group("a", "p1", 72.5, withTags("laughter"))
	g.MemberIDs = []string{"a", "z"}

	entries := Select([]domain.DedupGroup{g}, Options{Limit: 1})
	require.Len(t, entries, 1)

	assert.Equal(t, domain.ShortlistEntry{
		Rank:       1,
		ReviewID:   "a",
		PlaceID:    "p1",
		GroupID:    g.ID,
		GroupSize:  2,
		HumorScore: 72.5,
		Tag:        "laughter",
	}, entries[0])
}

func seedStore(groups []domain.DedupGroup) *mocks.ReviewStore {
	store := mocks.NewReviewStore()

	for _, g := range groups {
		for _, id := range g.MemberIDs {
			r := g.Representative
			r.ID = id
			store.PutReview(r)
		}
	}

	return store
}

func TestBuilder_MarksOnlyRepresentatives(t *testing.T) {
	g := group("a", "p1", 80)
	g.MemberIDs = []string{"a", "b"}
	groups := []domain.DedupGroup{g, group("c", "p2", 70)}

	store := seedStore(groups)
	builder := NewBuilder(lifecycle.NewManager(store, nil), Options{Limit: 10, PerPlaceCap: 3}, nil)

	sl, err := builder.Build(context.Background(), groups, "2026-W42", false)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "c"}, sl.ReviewIDs())
	assert.Equal(t, "2026-W42", sl.CycleID)
	assert.NotEmpty(t, sl.ID)
	assert.False(t, sl.DryRun)

	for id, want := range map[string]domain.Status{"a": domain.StatusSelected, "b": domain.StatusNew, "c": domain.StatusSelected} {
		r, ok := store.Review(id)
		require.True(t, ok)
		assert.Equal(t, want, r.Status, id)
	}

	r, _ := store.Review("a")
	assert.Equal(t, "2026-W42", r.SelectedCycle)
}

func TestBuilder_DryRunLeavesStateUntouched(t *testing.T) {
	groups := []domain.DedupGroup{group("a", "p1", 80)}
	store := seedStore(groups)

	builder := NewBuilder(lifecycle.NewManager(store, nil), Options{Limit: 10}, nil)

	sl, err := builder.Build(context.Background(), groups, "2026-W42", true)
	require.NoError(t, err)

	assert.Equal(t, []string{"a"}, sl.ReviewIDs())
	assert.True(t, sl.DryRun)

	r, _ := store.Review("a")
	assert.Equal(t, domain.StatusNew, r.Status)
}

func TestBuilder_BackfillsDiscardedRepresentative(t *testing.T) {
	groups := []domain.DedupGroup{group("a", "p1", 90), group("b", "p2", 80), group("c", "p3", 70)}
	store := seedStore(groups)

	discarded, _ := store.Review("a")
	discarded.Status = domain.StatusDiscarded
	store.PutReview(discarded)

	builder := NewBuilder(lifecycle.NewManager(store, nil), Options{Limit: 2}, nil)

	sl, err := builder.Build(context.Background(), groups, "2026-W42", false)
	require.NoError(t, err)

	assert.Equal(t, []string{"b", "c"}, sl.ReviewIDs())
	assert.Equal(t, 1, sl.Entries[0].Rank)
}

func TestBuilder_StoreFailureAborts(t *testing.T) {
	groups := []domain.DedupGroup{group("a", "p1", 90)}
	store := seedStore(groups)
	store.UpdateStatusFn = func(context.Context, domain.StatusChange) (bool, error) {
		return false, mocks.ErrInjected
	}

	builder := NewBuilder(lifecycle.NewManager(store, nil), Options{Limit: 2}, nil)

	_, err := builder.Build(context.Background(), groups, "2026-W42", false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrPersistenceFailure))
}

func TestBuilder_Deterministic(t *testing.T) {
	groups := []domain.DedupGroup{
		group("a", "p1", 50), group("b", "p1", 50), group("c", "p2", 60), group("d", "p3", 40),
	}

	first, err := NewBuilder(nil, Options{Limit: 3, PerPlaceCap: 1}, nil).Build(context.Background(), groups, "w", true)
	require.NoError(t, err)

	reversed := []domain.DedupGroup{groups[3], groups[2], groups[1], groups[0]}

	second, err := NewBuilder(nil, Options{Limit: 3, PerPlaceCap: 1}, nil).Build(context.Background(), reversed, "w", true)
	require.NoError(t, err)

	assert.Equal(t, first.Entries, second.Entries)
	assert.Equal(t, []string{"c", "a", "d"}, first.ReviewIDs())
}
