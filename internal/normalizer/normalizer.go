// Package normalizer turns a structured resume into an ordered list of
// independently retrievable units.
package normalizer

import (
	"fmt"
	"sort"
	"strings"

	"resumerag/internal/domain"
	"resumerag/internal/record"
)

// Normalize walks rec and emits units in a fixed order: the overview, one
// unit per employment highlight, one per skill category, one per project.
// Handles are set to each unit's position. Normalize never fails; missing
// optional fields render as empty values.
func Normalize(rec *record.Record) []domain.Unit {
	if rec == nil {
		return nil
	}
	units := make([]domain.Unit, 0, Count(rec))
	units = append(units, overview(rec.Basics))
	for _, company := range rec.Employment {
		for _, position := range company.Positions {
			for _, h := range position.Highlights {
				units = append(units, experience(company.Company, position.Title, h))
			}
		}
	}
	for _, category := range rec.TechnicalSkills.Categories {
		units = append(units, skills(category))
	}
	for _, p := range rec.Projects {
		units = append(units, project(p))
	}
	for i := range units {
		units[i].Handle = i
	}
	return units
}

// Count returns the number of units Normalize produces for rec.
func Count(rec *record.Record) int {
	if rec == nil {
		return 0
	}
	return 1 + rec.HighlightCount() + len(rec.TechnicalSkills.Categories) + len(rec.Projects)
}

// Texts returns the text of every unit, index-aligned with units.
func Texts(units []domain.Unit) []string {
	out := make([]string, len(units))
	for i := range units {
		out[i] = units[i].Text
	}
	return out
}

func overview(b record.Basics) domain.Unit {
	return domain.Unit{
		Text:     fmt.Sprintf("Name: %s\nSummary: %s", b.Name, b.Summary),
		Metadata: domain.OverviewMeta{Name: b.Name},
	}
}

func experience(company, title string, h record.Highlight) domain.Unit {
	achievement := strings.TrimRight(strings.TrimSpace(h.Achievement), ".")
	text := fmt.Sprintf("%s at %s: Achievement: %s. Technologies: %s",
		title, company, achievement, strings.Join(h.Technologies, ", "))
	return domain.Unit{
		Text: text,
		Metadata: domain.ExperienceMeta{
			Company:      company,
			Role:         title,
			Technologies: h.Technologies,
			Metrics:      metrics(h.Metrics),
		},
	}
}

// metrics orders highlight metrics by name so unit metadata is stable.
func metrics(m map[string]float64) []domain.Metric {
	if len(m) == 0 {
		return nil
	}
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]domain.Metric, len(names))
	for i, name := range names {
		out[i] = domain.Metric{Name: name, Value: m[name]}
	}
	return out
}

func skills(c record.SkillCategory) domain.Unit {
	return domain.Unit{
		Text: fmt.Sprintf("%s (%s): %s", c.Name, c.Experience, strings.Join(c.Items, ", ")),
		Metadata: domain.SkillsMeta{
			Category:   c.Name,
			Experience: c.Experience,
			Projects:   c.Projects,
		},
	}
}

func project(p record.Project) domain.Unit {
	var b strings.Builder
	fmt.Fprintf(&b, "Project: %s\nRole: %s\nTechnologies: %s", p.Name, p.Role, strings.Join(p.Technologies, ", "))
	if len(p.Achievements) > 0 {
		b.WriteString("\nAchievements:")
		for _, a := range p.Achievements {
			if a.Impact == "" {
				fmt.Fprintf(&b, "\n- %s", a.Description)
				continue
			}
			fmt.Fprintf(&b, "\n- %s (%s)", a.Description, a.Impact)
		}
	}
	return domain.Unit{
		Text: b.String(),
		Metadata: domain.ProjectMeta{
			Name:         p.Name,
			Technologies: p.Technologies,
			Duration:     p.Duration,
		},
	}
}
