package shortlist

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/humor-review-scout/internal/core/domain"
)

func testReport() Report {
	generated := time.Date(2026, 10, 12, 9, 30, 0, 0, time.UTC)

	return Report{
		Shortlist: domain.Shortlist{
			ID:          "sl-1",
			CycleID:     "2026-W42",
			BatchDate:   time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC),
			GeneratedAt: generated,
			Entries: []domain.ShortlistEntry{
				{Rank: 1, ReviewID: "r1", PlaceID: "p1", GroupID: "g1", GroupSize: 2, HumorScore: 81.5, Tag: "rant"},
				{Rank: 2, ReviewID: "r2", PlaceID: "p2", GroupID: "g2", GroupSize: 1, HumorScore: 60, Tag: "misc"},
				{Rank: 3, ReviewID: "r3", PlaceID: "p1", GroupID: "g3", GroupSize: 1, HumorScore: 42, Tag: "sarcasm"},
			},
		},
		Places: map[string]domain.Place{
			"p1": {ID: "p1", Name: "Taco Hut", Category: "Restaurant", Address: "Main St 1"},
			"p2": {ID: "p2", Name: "Bar <Azul>", URL: "https://maps.test/p2"},
		},
		Reviews: map[string]domain.Review{
			"r1": {
				ID: "r1", PlaceID: "p1", Body: "Worst tacos ever!!!\nNever again.", Rating: 1,
				PostedAt: generated.AddDate(0, 0, -3), HumorScore: 81.5, Tags: []string{"rant"},
				Notes: "superlatives +12.0", OwnerReply: "We are sorry.", ReviewURL: "https://maps.test/r1",
			},
			"r2": {ID: "r2", PlaceID: "p2", Body: "<script>alert(1)</script> meh", Rating: 2, HumorScore: 60},
			"r3": {ID: "r3", PlaceID: "p1", Body: "Loved the cockroaches", Rating: 1, HumorScore: 42, Tags: []string{"sarcasm"}},
		},
	}
}

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()

	r, err := NewRenderer()
	require.NoError(t, err)

	return r
}

func TestReport_Sections(t *testing.T) {
	sections := testReport().Sections()
	require.Len(t, sections, 2)

	assert.Equal(t, "p1", sections[0].Place.ID)
	assert.Equal(t, "Taco Hut · Main St 1", sections[0].Title())
	assert.Equal(t, mapsPlaceURL+"p1", sections[0].URL())
	assert.Len(t, sections[0].Items, 2)
	assert.Equal(t, "r1", sections[0].Items[0].Review.ID)
	assert.Equal(t, "r3", sections[0].Items[1].Review.ID)

	assert.Equal(t, "https://maps.test/p2", sections[1].URL())
}

func TestReport_UnknownPlaceAndReview(t *testing.T) {
	report := Report{Shortlist: domain.Shortlist{Entries: []domain.ShortlistEntry{
		{Rank: 1, ReviewID: "x", PlaceID: "gone", HumorScore: 10},
	}}}

	sections := report.Sections()
	require.Len(t, sections, 1)
	assert.Equal(t, unknownPlaceName, sections[0].Place.Name)
	assert.Equal(t, "x", sections[0].Items[0].Review.ID)
}

func TestReport_Stats(t *testing.T) {
	report := testReport()

	assert.InDelta(t, 61.166, report.MeanScore(), 0.01)
	assert.InDelta(t, 81.5, report.TopScore(), 0.001)
	assert.Equal(t, "2026-10-12", report.BatchDate())
	assert.Zero(t, Report{}.MeanScore())
}

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, newTestRenderer(t).RenderJSON(&buf, testReport()))

	var doc jsonDocument
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	assert.Equal(t, "2026-W42", doc.CycleID)
	assert.Equal(t, "2026-10-12", doc.BatchDate)
	require.Len(t, doc.Entries, 3)

	ids := []string{doc.Entries[0].ReviewID, doc.Entries[1].ReviewID, doc.Entries[2].ReviewID}
	assert.Equal(t, []string{"r1", "r2", "r3"}, ids)
	assert.Equal(t, "Taco Hut", doc.Entries[0].PlaceName)
	assert.Equal(t, "safe", doc.Entries[0].Safety)
	assert.Equal(t, 2, doc.Entries[0].GroupSize)
}

func TestRenderMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, newTestRenderer(t).RenderMarkdown(&buf, testReport()))

	out := buf.String()

	assert.Contains(t, out, "# Weekly Shortlist (2026-10-12)")
	assert.Contains(t, out, "## Taco Hut · Main St 1 (Restaurant)")
	assert.Contains(t, out, "### 1. 81.5 - rant")
	assert.Contains(t, out, "> Worst tacos ever!!!\n> Never again.")
	assert.Contains(t, out, "**Owner reply:**")
	assert.Contains(t, out, "**Similar reviews:** 2")
	assert.Contains(t, out, "**Link:** https://maps.test/r1")
	assert.Contains(t, out, "**Reviewer:** Anonymous")

	// Items of the same place stay together, ordered by rank.
	assert.Less(t, strings.Index(out, "### 1."), strings.Index(out, "### 3."))
	assert.Less(t, strings.Index(out, "### 3."), strings.Index(out, "### 2."))
}

func TestRenderMarkdown_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, newTestRenderer(t).RenderMarkdown(&buf, Report{}))

	assert.Contains(t, buf.String(), "No reviews selected.")
}

func TestRenderHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, newTestRenderer(t).RenderHTML(&buf, testReport()))

	out := buf.String()

	assert.Contains(t, out, "<title>Weekly Shortlist 2026-10-12</title>")
	assert.Contains(t, out, "Bar &lt;Azul&gt;")
	assert.NotContains(t, out, "<script>alert(1)</script>")
	assert.Contains(t, out, `href="https://maps.test/r1"`)
	assert.Equal(t, 3, strings.Count(out, `<article class="review"`))
}

func TestRenderings_AgreeOnEntries(t *testing.T) {
	r := newTestRenderer(t)
	report := testReport()

	var jsonBuf, mdBuf, htmlBuf bytes.Buffer
	require.NoError(t, r.RenderJSON(&jsonBuf, report))
	require.NoError(t, r.RenderMarkdown(&mdBuf, report))
	require.NoError(t, r.RenderHTML(&htmlBuf, report))

	var doc jsonDocument
	require.NoError(t, json.Unmarshal(jsonBuf.Bytes(), &doc))

	for _, e := range doc.Entries {
		assert.Contains(t, mdBuf.String(), "### "+strconv.Itoa(e.Rank)+". ")
		assert.Contains(t, htmlBuf.String(), `id="review-`+strconv.Itoa(e.Rank)+`"`)
	}
}

func TestExport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")

	paths, err := newTestRenderer(t).Export(dir, testReport())
	require.NoError(t, err)

	want := []string{
		filepath.Join(dir, "weekly_shortlist_2026-10-12.json"),
		filepath.Join(dir, "weekly_shortlist_2026-10-12.md"),
		filepath.Join(dir, "weekly_shortlist_2026-10-12.html"),
	}
	assert.Equal(t, want, paths)

	for _, p := range paths {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}
}

func TestExport_DryRunKeepsPersistedFiles(t *testing.T) {
	dir := t.TempDir()
	renderer := newTestRenderer(t)

	persisted, err := renderer.Export(dir, testReport())
	require.NoError(t, err)

	before, err := os.ReadFile(persisted[0])
	require.NoError(t, err)

	dry := testReport()
	dry.Shortlist.DryRun = true
	dry.Shortlist.ID = "sl-dry"

	paths, err := renderer.Export(dir, dry)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(dir, "weekly_shortlist_2026-10-12_dry-run.json"),
		filepath.Join(dir, "weekly_shortlist_2026-10-12_dry-run.md"),
		filepath.Join(dir, "weekly_shortlist_2026-10-12_dry-run.html"),
	}, paths)

	after, err := os.ReadFile(persisted[0])
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestQuote(t *testing.T) {
	assert.Equal(t, "> a\n>\n> b", quote("a\n\nb"))
	assert.Equal(t, "> (no text)", quote("  "))
}
