package domain

// Kind identifies the category of a Unit.
type Kind string

const (
	KindOverview   Kind = "overview"
	KindExperience Kind = "experience"
	KindSkills     Kind = "skills"
	KindProject    Kind = "project"
)

// Field is one flattened metadata entry. Value is a string, []string, int or float64.
type Field struct {
	Key   string
	Value any
}

// Metadata is the typed metadata attached to a Unit. Each unit category has
// its own implementation; Fields flattens it into an ordered key/value list.
type Metadata interface {
	Kind() Kind
	Fields() []Field
}

// Metric is a numeric achievement figure attached to a highlight.
type Metric struct {
	Name  string
	Value float64
}

// OverviewMeta describes the name + summary unit.
type OverviewMeta struct {
	Name string
}

func (OverviewMeta) Kind() Kind { return KindOverview }

func (m OverviewMeta) Fields() []Field {
	return []Field{
		{Key: "type", Value: string(KindOverview)},
		{Key: "name", Value: m.Name},
	}
}

// ExperienceMeta describes one employment highlight.
type ExperienceMeta struct {
	Company      string
	Role         string
	Technologies []string
	Metrics      []Metric
}

func (ExperienceMeta) Kind() Kind { return KindExperience }

func (m ExperienceMeta) Fields() []Field {
	fields := []Field{
		{Key: "type", Value: string(KindExperience)},
		{Key: "company", Value: m.Company},
		{Key: "role", Value: m.Role},
		{Key: "technologies", Value: cloneStrings(m.Technologies)},
	}
	for _, metric := range m.Metrics {
		fields = append(fields, Field{Key: MetricKey(metric.Name), Value: metric.Value})
	}
	return fields
}

var experienceKeys = map[string]struct{}{"type": {}, "company": {}, "role": {}, "technologies": {}}

// MetricKey returns the flattened key of a highlight metric. Names that
// collide with an experience field are prefixed with "metric.".
func MetricKey(name string) string {
	if _, reserved := experienceKeys[name]; reserved {
		return "metric." + name
	}
	return name
}

// SkillsMeta describes one skill category.
type SkillsMeta struct {
	Category   string
	Experience string
	Projects   int
}

func (SkillsMeta) Kind() Kind { return KindSkills }

func (m SkillsMeta) Fields() []Field {
	return []Field{
		{Key: "type", Value: string(KindSkills)},
		{Key: "category", Value: m.Category},
		{Key: "experience", Value: m.Experience},
		{Key: "projects", Value: m.Projects},
	}
}

// ProjectMeta describes one project.
type ProjectMeta struct {
	Name         string
	Technologies []string
	Duration     string
}

func (ProjectMeta) Kind() Kind { return KindProject }

func (m ProjectMeta) Fields() []Field {
	return []Field{
		{Key: "type", Value: string(KindProject)},
		{Key: "name", Value: m.Name},
		{Key: "technologies", Value: cloneStrings(m.Technologies)},
		{Key: "duration", Value: m.Duration},
	}
}

// Flatten returns the metadata as an ordered key/value list. A nil Metadata
// flattens to an empty list.
func Flatten(m Metadata) []Field {
	if m == nil {
		return nil
	}
	return m.Fields()
}

// FlattenMap returns the metadata as a map, for JSON encoding.
func FlattenMap(m Metadata) map[string]any {
	fields := Flatten(m)
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		out[f.Key] = f.Value
	}
	return out
}

// Lookup returns the value stored under key. Absent keys mean "not applicable".
func Lookup(m Metadata, key string) (any, bool) {
	for _, f := range Flatten(m) {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
