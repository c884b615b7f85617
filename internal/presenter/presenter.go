// Package presenter turns ranked units into what users see: a primary answer,
// related matches, quick facts and the download intent.
package presenter

import (
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"resumerag/internal/domain"
	"resumerag/internal/record"
	"resumerag/internal/service"
)

// NoResults is shown when a query yields nothing.
const NoResults = "No relevant information found."

// Intent is the presentation-level routing decision for a query.
type Intent int

const (
	// IntentSearch routes the query through retrieval.
	IntentSearch Intent = iota
	// IntentDownload asks for the resume document itself.
	IntentDownload
)

var (
	wordRe        = regexp.MustCompile(`\p{L}+`)
	downloadWords = map[string]struct{}{"resume": {}, "résumé": {}, "cv": {}}
)

// DetectIntent returns IntentDownload when q mentions the resume or CV.
func DetectIntent(q string) Intent {
	for _, w := range wordRe.FindAllString(strings.ToLower(q), -1) {
		if _, ok := downloadWords[w]; ok {
			return IntentDownload
		}
	}
	return IntentSearch
}

// QuickFacts are the headline figures shown next to answers.
type QuickFacts struct {
	Name       string  `json:"name"`
	Experience float64 `json:"experience_years"`
	Projects   int     `json:"projects"`
	Location   string  `json:"location"`
}

// Facts extracts quick facts from rec. Projects falls back to the number of
// listed projects when the record carries no explicit metric.
func Facts(rec *record.Record) QuickFacts {
	if rec == nil {
		return QuickFacts{}
	}
	projects := rec.Metrics.ProjectsCompleted
	if projects == 0 {
		projects = len(rec.Projects)
	}
	return QuickFacts{
		Name:       rec.Basics.Name,
		Experience: rec.Metrics.TotalExperience,
		Projects:   projects,
		Location:   rec.Basics.Contact.Location,
	}
}

// Lines renders the facts one per line.
func (f QuickFacts) Lines() []string {
	return []string{
		"Name: " + f.Name,
		fmt.Sprintf("Experience: %g years", f.Experience),
		fmt.Sprintf("Projects: %d", f.Projects),
		"Location: " + f.Location,
	}
}

// Similarity maps an L2 distance onto (0, 1] for display.
func Similarity(distance float64) float64 {
	if distance < 0 {
		distance = 0
	}
	return 1 / (1 + distance)
}

// UnitView is the JSON shape of a unit. Handles are never exposed.
type UnitView struct {
	Kind       string         `json:"kind"`
	Text       string         `json:"text"`
	Metadata   map[string]any `json:"metadata"`
	Distance   float64        `json:"distance"`
	Similarity float64        `json:"similarity"`
}

// Answer is the primary result plus supporting matches.
type Answer struct {
	Query   string     `json:"query"`
	Primary *UnitView  `json:"primary,omitempty"`
	Related []UnitView `json:"related"`
}

// NewAnswer splits ranked results into primary and related views.
func NewAnswer(query string, results []service.Result) Answer {
	a := Answer{Query: query, Related: []UnitView{}}
	for i, r := range results {
		v := View(r)
		if i == 0 {
			a.Primary = &v
			continue
		}
		a.Related = append(a.Related, v)
	}
	return a
}

// View converts a result to its JSON view.
func View(r service.Result) UnitView {
	kind := ""
	if r.Unit.Metadata != nil {
		kind = string(r.Unit.Metadata.Kind())
	}
	return UnitView{
		Kind:       kind,
		Text:       r.Unit.Text,
		Metadata:   domain.FlattenMap(r.Unit.Metadata),
		Distance:   r.Distance,
		Similarity: Similarity(r.Distance),
	}
}

// Styles used by Render.
type Styles struct {
	Plain   bool
	Heading lipgloss.Style
	Primary lipgloss.Style
	Muted   lipgloss.Style
}

// PlainStyles renders without any decoration.
func PlainStyles() Styles { return Styles{Plain: true} }

func (st Styles) render(style lipgloss.Style, s string) string {
	if st.Plain {
		return s
	}
	return style.Render(s)
}

// TerminalStyles renders headings in bold and the answer in a rounded box.
func TerminalStyles() Styles {
	return Styles{
		Heading: lipgloss.NewStyle().Bold(true),
		Primary: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// Render writes the answer: the most relevant unit, then related matches,
// each followed by its metadata when showMeta is set.
func Render(w io.Writer, a Answer, st Styles, showMeta bool) error {
	var b strings.Builder
	if a.Primary == nil {
		b.WriteString(NoResults + "\n")
		_, err := io.WriteString(w, b.String())
		return err
	}
	b.WriteString(st.render(st.Heading, "Most Relevant Answer") + "\n")
	b.WriteString(st.render(st.Primary, a.Primary.Text) + "\n")
	if showMeta {
		b.WriteString(st.render(st.Muted, FormatMetadata(a.Primary.Metadata, a.Primary.Kind)) + "\n")
	}
	for i, v := range a.Related {
		b.WriteString("\n" + st.render(st.Heading, fmt.Sprintf("Related Match %d", i+1)) + "\n")
		b.WriteString(v.Text + "\n")
		if showMeta {
			b.WriteString(st.render(st.Muted, FormatMetadata(v.Metadata, v.Kind)) + "\n")
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// FormatMetadata renders flattened metadata as "key: value" pairs in the
// order the unit category defines.
func FormatMetadata(m map[string]any, kind string) string {
	order := keyOrder[kind]
	seen := make(map[string]bool, len(order))
	parts := make([]string, 0, len(m))
	for _, k := range order {
		if v, ok := m[k]; ok {
			parts = append(parts, k+": "+formatValue(v))
			seen[k] = true
		}
	}
	extra := make([]string, 0)
	for k := range m {
		if !seen[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		parts = append(parts, k+": "+formatValue(m[k]))
	}
	return strings.Join(parts, " | ")
}

var keyOrder = map[string][]string{
	string(domain.KindOverview):   {"type", "name"},
	string(domain.KindExperience): {"type", "company", "role", "technologies"},
	string(domain.KindSkills):     {"type", "category", "experience", "projects"},
	string(domain.KindProject):    {"type", "name", "technologies", "duration"},
}

func formatValue(v any) string {
	switch t := v.(type) {
	case []string:
		return strings.Join(t, ", ")
	case float64:
		return fmt.Sprintf("%g", t)
	default:
		return fmt.Sprint(t)
	}
}
