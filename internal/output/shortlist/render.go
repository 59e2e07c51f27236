package shortlist

import (
	"embed"
	"encoding/json"
	"fmt"
	htmltemplate "html/template"
	"io"
	"os"
	"path/filepath"
	"strings"
	texttemplate "text/template"
	"time"
)

//go:embed templates/*
var templateFS embed.FS

const (
	filePrefix  = "weekly_shortlist_"
	dryRunTag   = "_dry-run"
	dirPerm     = 0o755
	filePerm    = 0o644
	jsonIndent  = "  "
	dateLayout  = "2006-01-02"
	stampLayout = time.RFC3339
)

// Template function helpers shared by the markdown and HTML renderings.
var templateFuncs = map[string]any{
	"score":    formatScore,
	"reviewer": reviewerName,
	"tags":     tagList,
	"date":     func(t time.Time) string { return t.Format(dateLayout) },
	"stamp":    func(t time.Time) string { return t.Format(stampLayout) },
	"quote":    quote,
}

// Renderer produces the machine-readable and human-readable shortlist files.
type Renderer struct {
	markdownTmpl *texttemplate.Template
	htmlTmpl     *htmltemplate.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	markdownTmpl, err := texttemplate.New("shortlist.md.tmpl").
		Funcs(templateFuncs).
		ParseFS(templateFS, "templates/shortlist.md.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse markdown template: %w", err)
	}

	htmlTmpl, err := htmltemplate.New("shortlist.html").
		Funcs(templateFuncs).
		ParseFS(templateFS, "templates/shortlist.html")
	if err != nil {
		return nil, fmt.Errorf("parse html template: %w", err)
	}

	return &Renderer{
		markdownTmpl: markdownTmpl,
		htmlTmpl:     htmlTmpl,
	}, nil
}

type jsonDocument struct {
	ID          string      `json:"id"`
	CycleID     string      `json:"cycle_id"`
	BatchDate   string      `json:"batch_date"`
	GeneratedAt time.Time   `json:"generated_at"`
	DryRun      bool        `json:"dry_run"`
	Entries     []jsonEntry `json:"entries"`
}

type jsonEntry struct {
	Rank         int       `json:"rank"`
	ReviewID     string    `json:"review_id"`
	PlaceID      string    `json:"place_id"`
	PlaceName    string    `json:"place_name,omitempty"`
	Category     string    `json:"category,omitempty"`
	GroupID      string    `json:"group_id"`
	GroupSize    int       `json:"group_size"`
	HumorScore   float64   `json:"humor_score"`
	ScoreSource  string    `json:"score_source,omitempty"`
	Safety       string    `json:"safety"`
	SafetyNotes  string    `json:"safety_notes,omitempty"`
	Tag          string    `json:"tag"`
	Tags         []string  `json:"tags,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	Rating       int       `json:"rating"`
	PostedAt     time.Time `json:"posted_at"`
	Language     string    `json:"language,omitempty"`
	ReviewerName string    `json:"reviewer_name,omitempty"`
	Body         string    `json:"body"`
	OwnerReply   string    `json:"owner_reply,omitempty"`
	ReviewURL    string    `json:"review_url,omitempty"`
}

// RenderJSON writes the structured form of the report.
func (r *Renderer) RenderJSON(w io.Writer, report Report) error {
	doc := jsonDocument{
		ID:          report.Shortlist.ID,
		CycleID:     report.Shortlist.CycleID,
		BatchDate:   report.BatchDate(),
		GeneratedAt: report.Shortlist.GeneratedAt,
		DryRun:      report.Shortlist.DryRun,
		Entries:     make([]jsonEntry, 0, len(report.Shortlist.Entries)),
	}

	for _, item := range report.Items() {
		place := report.Places[item.Entry.PlaceID]
		rv := item.Review

		doc.Entries = append(doc.Entries, jsonEntry{
			Rank:         item.Entry.Rank,
			ReviewID:     item.Entry.ReviewID,
			PlaceID:      item.Entry.PlaceID,
			PlaceName:    place.Name,
			Category:     place.Category,
			GroupID:      item.Entry.GroupID,
			GroupSize:    item.Entry.GroupSize,
			HumorScore:   item.Entry.HumorScore,
			ScoreSource:  rv.ScoreSource,
			Safety:       rv.Safety.String(),
			SafetyNotes:  rv.SafetyNotes,
			Tag:          item.Entry.Tag,
			Tags:         rv.Tags,
			Notes:        rv.Notes,
			Rating:       rv.Rating,
			PostedAt:     rv.PostedAt,
			Language:     rv.Language,
			ReviewerName: rv.ReviewerName,
			Body:         rv.Body,
			OwnerReply:   rv.OwnerReply,
			ReviewURL:    rv.ReviewURL,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", jsonIndent)

	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode shortlist json: %w", err)
	}

	return nil
}

// RenderMarkdown writes the human-readable form of the report.
func (r *Renderer) RenderMarkdown(w io.Writer, report Report) error {
	if err := r.markdownTmpl.Execute(w, report); err != nil {
		return fmt.Errorf("execute markdown template: %w", err)
	}

	return nil
}

// RenderHTML writes the report as a standalone page grouped by place.
func (r *Renderer) RenderHTML(w io.Writer, report Report) error {
	if err := r.htmlTmpl.Execute(w, report); err != nil {
		return fmt.Errorf("execute html template: %w", err)
	}

	return nil
}

// Export writes weekly_shortlist_<date>.{json,md,html} into dir and returns
// the written paths. Dry-run shortlists get a _dry-run suffix so they never
// replace the files of a persisted shortlist.
func (r *Renderer) Export(dir string, report Report) ([]string, error) {
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	base := filepath.Join(dir, filePrefix+report.BatchDate())
	if report.Shortlist.DryRun {
		base += dryRunTag
	}

	outputs := []struct {
		ext    string
		render func(io.Writer, Report) error
	}{
		{".json", r.RenderJSON},
		{".md", r.RenderMarkdown},
		{".html", r.RenderHTML},
	}

	paths := make([]string, 0, len(outputs))

	for _, out := range outputs {
		path := base + out.ext
		if err := writeFile(path, report, out.render); err != nil {
			return paths, err
		}

		paths = append(paths, path)
	}

	return paths, nil
}

func writeFile(path string, report Report, render func(io.Writer, Report) error) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, filePerm)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	return render(f, report)
}

// quote prefixes every line with a markdown blockquote marker.
func quote(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "> (no text)"
	}

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight("> "+line, " ")
	}

	return strings.Join(lines, "\n")
}
