// Package record defines the structured resume input and loads it from disk.
package record

// Record is the full structured resume.
type Record struct {
	Basics          Basics          `json:"basics" yaml:"basics"`
	Employment      []Company       `json:"employment" yaml:"employment"`
	TechnicalSkills TechnicalSkills `json:"technical_skills" yaml:"technical_skills"`
	Projects        []Project       `json:"projects,omitempty" yaml:"projects,omitempty"`
	Metrics         Metrics         `json:"metrics,omitempty" yaml:"metrics,omitempty"`
}

// Basics holds identity and summary information.
type Basics struct {
	Name    string  `json:"name" yaml:"name"`
	Label   string  `json:"label,omitempty" yaml:"label,omitempty"`
	Summary string  `json:"summary" yaml:"summary"`
	Contact Contact `json:"contact,omitempty" yaml:"contact,omitempty"`
}

// Contact holds contact details.
type Contact struct {
	Email    string `json:"email,omitempty" yaml:"email,omitempty"`
	Phone    string `json:"phone,omitempty" yaml:"phone,omitempty"`
	Location string `json:"location,omitempty" yaml:"location,omitempty"`
	LinkedIn string `json:"linkedin,omitempty" yaml:"linkedin,omitempty"`
	GitHub   string `json:"github,omitempty" yaml:"github,omitempty"`
}

// Company is one employer with the positions held there.
type Company struct {
	Company   string     `json:"company" yaml:"company"`
	Location  string     `json:"location,omitempty" yaml:"location,omitempty"`
	Positions []Position `json:"positions" yaml:"positions"`
}

// Position is a role held at a company.
type Position struct {
	Title      string      `json:"title" yaml:"title"`
	Start      string      `json:"start,omitempty" yaml:"start,omitempty"`
	End        string      `json:"end,omitempty" yaml:"end,omitempty"`
	Highlights []Highlight `json:"highlights" yaml:"highlights"`
}

// Highlight is a single achievement within a position.
type Highlight struct {
	Achievement  string             `json:"achievement" yaml:"achievement"`
	Technologies []string           `json:"technologies,omitempty" yaml:"technologies,omitempty"`
	Metrics      map[string]float64 `json:"metrics,omitempty" yaml:"metrics,omitempty"`
}

// TechnicalSkills groups skills into categories.
type TechnicalSkills struct {
	Categories []SkillCategory `json:"categories" yaml:"categories"`
}

// SkillCategory is a named group of skills.
type SkillCategory struct {
	Name       string   `json:"name" yaml:"name"`
	Experience string   `json:"experience" yaml:"experience"`
	Items      []string `json:"items" yaml:"items"`
	Projects   int      `json:"projects,omitempty" yaml:"projects,omitempty"`
}

// Project is a standalone project with achievements.
type Project struct {
	Name         string        `json:"name" yaml:"name"`
	Role         string        `json:"role" yaml:"role"`
	Duration     string        `json:"duration,omitempty" yaml:"duration,omitempty"`
	Technologies []string      `json:"technologies,omitempty" yaml:"technologies,omitempty"`
	Achievements []Achievement `json:"achievements,omitempty" yaml:"achievements,omitempty"`
}

// Achievement is a project outcome and its impact.
type Achievement struct {
	Description string `json:"description" yaml:"description"`
	Impact      string `json:"impact,omitempty" yaml:"impact,omitempty"`
}

// Metrics are the headline numbers shown as quick facts.
type Metrics struct {
	TotalExperience   float64 `json:"total_experience,omitempty" yaml:"total_experience,omitempty"`
	ProjectsCompleted int     `json:"projects_completed,omitempty" yaml:"projects_completed,omitempty"`
}

// HighlightCount returns the number of highlights across all positions.
func (r *Record) HighlightCount() int {
	n := 0
	for _, c := range r.Employment {
		for _, p := range c.Positions {
			n += len(p.Highlights)
		}
	}
	return n
}
