package dedup

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/humor-review-scout/internal/core/domain"
)

var baseTime = time.Date(2026, 10, 12, 12, 0, 0, 0, time.UTC)

func review(id, place, body string, score float64, posted time.Time) domain.Review {
	return domain.Review{ID: id, PlaceID: place, Body: body, HumorScore: score, PostedAt: posted, Rating: 1}
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "worst place ever", "worst place ever", 1},
		{"both empty", "", "", 1},
		{"one empty", "abc", "", 0},
		{"one substitution", "kitten", "sitten", 1 - 1.0/6},
		{"classic", "kitten", "sitting", 1 - 3.0/7},
		{"unicode runes", "niño", "nino", 0.75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Similarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Similarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}

			if rev := Similarity(tt.b, tt.a); math.Abs(rev-got) > 1e-9 {
				t.Errorf("Similarity is not symmetric: %v vs %v", got, rev)
			}
		})
	}
}

func TestMaxSimilarityBoundsSimilarity(t *testing.T) {
	pairs := [][2]string{
		{"worst place ever", "worst place ever lol"},
		{"abc", "abcdefgh"},
		{"same", "same"},
	}

	for _, p := range pairs {
		bound := maxSimilarity(len([]rune(p[0])), len([]rune(p[1])))
		assert.GreaterOrEqual(t, bound, Similarity(p[0], p[1]))
	}
}

func TestDeduplicate_ScenarioSamePlace(t *testing.T) {
	older := review("a", "p1", "Worst place ever!!! lol 1 star", 40, baseTime)
	newer := review("b", "p1", "worst place ever lol 1star", 40, baseTime.Add(time.Hour))

	got := Deduplicate([]domain.Review{older, newer}, DefaultOptions())

	require.Len(t, got.Groups, 1)
	assert.Equal(t, []string{"a", "b"}, got.Groups[0].MemberIDs)
	assert.Equal(t, "b", got.Groups[0].Representative.ID, "tie broken by latest timestamp")
	assert.Equal(t, "p1", got.Groups[0].PlaceID)
	assert.Empty(t, got.Ineligible)

	older.HumorScore = 41

	got = Deduplicate([]domain.Review{older, newer}, DefaultOptions())
	require.Len(t, got.Groups, 1)
	assert.Equal(t, "a", got.Groups[0].Representative.ID, "higher score wins")
}

func TestDeduplicate_LowestIDBreaksFullTie(t *testing.T) {
	got := Deduplicate([]domain.Review{
		review("z", "p1", "the soup tasted like regret", 10, baseTime),
		review("m", "p1", "the soup tasted like regret!", 10, baseTime),
	}, DefaultOptions())

	require.Len(t, got.Groups, 1)
	assert.Equal(t, "m", got.Groups[0].Representative.ID)
}

func TestDeduplicate_DifferentPlacesNeverMerge(t *testing.T) {
	body := "Copy paste template complaint about everything"

	got := Deduplicate([]domain.Review{
		review("a", "p1", body, 10, baseTime),
		review("b", "p2", body, 20, baseTime),
	}, DefaultOptions())

	require.Len(t, got.Groups, 2)
	assert.Equal(t, "b", got.Groups[0].Representative.ID)
	assert.Equal(t, "a", got.Groups[1].Representative.ID)

	for _, g := range got.Groups {
		assert.Equal(t, 1, g.Size())
	}
}

func TestDeduplicate_IdenticalNormalizedTextSamePlace(t *testing.T) {
	got := Deduplicate([]domain.Review{
		review("1", "p1", "NEVER AGAIN. The waiter ate my fries.", 10, baseTime),
		review("2", "p1", "never again the waiter ate my fries", 30, baseTime),
		review("3", "p1", "Néver again!!! The waiter ate my fries...", 20, baseTime),
	}, DefaultOptions())

	require.Len(t, got.Groups, 1)
	assert.Equal(t, []string{"1", "2", "3"}, got.Groups[0].MemberIDs)
	assert.Equal(t, "2", got.Groups[0].Representative.ID)
}

func TestDeduplicate_DistinctTextsStaySeparate(t *testing.T) {
	got := Deduplicate([]domain.Review{
		review("1", "p1", "The pizza was a frisbee with cheese", 10, baseTime),
		review("2", "p1", "Parking lot had more charm than the staff", 30, baseTime),
	}, DefaultOptions())

	assert.Len(t, got.Groups, 2)
}

func TestDeduplicate_TransitiveMerge(t *testing.T) {
	got := Deduplicate([]domain.Review{
		review("1", "p1", "abcdefghij", 1, baseTime),
		review("2", "p1", "abcdefghiX", 1, baseTime),
		review("3", "p1", "abcdefgYiX", 1, baseTime),
	}, Options{Threshold: 0.89, MinLength: 5})

	require.Len(t, got.Groups, 1, "1~2 and 2~3 merge even though 1 and 3 differ by two edits")
	assert.Equal(t, 3, got.Groups[0].Size())
}

func TestDeduplicate_Ineligible(t *testing.T) {
	got := Deduplicate([]domain.Review{
		review("empty", "p1", "", 10, baseTime),
		review("punct", "p1", "!!! ??? ...", 10, baseTime),
		review("short", "p1", "bad!", 10, baseTime),
		review("ok", "p1", "the worst haircut of my life", 10, baseTime),
	}, DefaultOptions())

	assert.Equal(t, []string{"empty", "punct", "short"}, got.Ineligible)
	require.Len(t, got.Groups, 1)
	assert.Equal(t, "ok", got.Groups[0].Representative.ID)
}

func TestDeduplicate_Deterministic(t *testing.T) {
	reviews := []domain.Review{
		review("1", "p1", "Worst place ever!!! lol 1 star", 40, baseTime),
		review("2", "p1", "worst place ever lol 1star", 35, baseTime),
		review("3", "p2", "The fish looked at me with disappointment", 50, baseTime),
		review("4", "p2", "Parking lot had more charm than the staff", 50, baseTime.Add(time.Minute)),
		review("5", "p3", "ok", 99, baseTime),
	}

	first := Deduplicate(reviews, DefaultOptions())

	reversed := make([]domain.Review, len(reviews))
	for i, r := range reviews {
		reversed[len(reviews)-1-i] = r
	}

	assert.Equal(t, first, Deduplicate(reviews, DefaultOptions()))
	assert.Equal(t, first, Deduplicate(reversed, DefaultOptions()))

	require.Len(t, first.Groups, 3)
	assert.Equal(t, "4", first.Groups[0].Representative.ID)
	assert.Equal(t, "3", first.Groups[1].Representative.ID)
	assert.Equal(t, "1", first.Groups[2].Representative.ID)
	assert.Equal(t, []string{"5"}, first.Ineligible)
}

func TestDeduplicate_RepeatedIDConsideredOnce(t *testing.T) {
	got := Deduplicate([]domain.Review{
		review("1", "p1", "The fish looked at me with disappointment", 10, baseTime),
		review("1", "p1", "A completely different text that would not merge", 90, baseTime),
	}, DefaultOptions())

	require.Len(t, got.Groups, 1)
	assert.Equal(t, []string{"1"}, got.Groups[0].MemberIDs)
	assert.InDelta(t, 10, got.Groups[0].Representative.HumorScore, 0.001)
}

func TestGroupID(t *testing.T) {
	a := GroupID([]string{"a", "b"})

	assert.Equal(t, a, GroupID([]string{"a", "b"}))
	assert.NotEqual(t, a, GroupID([]string{"a"}))
	assert.NotEqual(t, a, GroupID([]string{"ab"}))
}

func TestResult_GroupOf(t *testing.T) {
	got := Deduplicate([]domain.Review{
		review("a", "p1", "Worst place ever!!! lol 1 star", 10, baseTime),
		review("b", "p1", "worst place ever lol 1star", 10, baseTime),
	}, DefaultOptions())

	index := got.GroupOf()
	require.Len(t, index, 2)
	assert.Equal(t, index["a"], index["b"])
}
