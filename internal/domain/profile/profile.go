package profile

import (
	"fmt"
	"strconv"
	"strings"
)

// NoSkillsMessage is the skills context for a profile without skills or technologies.
const NoSkillsMessage = "No skills or technologies are recorded for this person."

// Skill is a named competency with an optional level and years of experience.
type Skill struct {
	Name  string  `json:"name"`
	Level string  `json:"level,omitempty"`
	Years float64 `json:"years,omitempty"`
}

// Technology is a tool or platform the person works with.
type Technology struct {
	Name  string  `json:"name"`
	Level string  `json:"level,omitempty"`
	Years float64 `json:"years,omitempty"`
}

// Education is a single degree or course entry.
type Education struct {
	Institution string `json:"institution,omitempty"`
	Degree      string `json:"degree,omitempty"`
	Field       string `json:"field,omitempty"`
}

// Profile is the person payload read from the upstream people service.
type Profile struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Email        string       `json:"email,omitempty"`
	Skills       []Skill      `json:"skills,omitempty"`
	Technologies []Technology `json:"technologies,omitempty"`
	Education    []Education  `json:"education,omitempty"`
	Notes        string       `json:"notes,omitempty"`
}

// Validate checks required fields.
func (p *Profile) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("profile id is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("profile name is required")
	}
	return nil
}

// SkillNames returns skill names in stored order, skipping blanks.
func (p *Profile) SkillNames() []string {
	out := make([]string, 0, len(p.Skills))
	for _, s := range p.Skills {
		if n := strings.TrimSpace(s.Name); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// TechnologyNames returns technology names in stored order, skipping blanks.
func (p *Profile) TechnologyNames() []string {
	out := make([]string, 0, len(p.Technologies))
	for _, t := range p.Technologies {
		if n := strings.TrimSpace(t.Name); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// CanonicalText renders the profile as the text that gets embedded.
// Segments: name, email, "name level years" per skill and technology,
// "institution degree field" per education entry, notes.
// Output is lower-cased and single-space joined; empty segments are dropped.
func CanonicalText(p Profile) string {
	parts := make([]string, 0, 3+len(p.Skills)+len(p.Technologies)+len(p.Education))
	parts = appendSegment(parts, p.Name)
	parts = appendSegment(parts, p.Email)
	for _, s := range p.Skills {
		parts = appendSegment(parts, s.Name, s.Level, formatYears(s.Years))
	}
	for _, t := range p.Technologies {
		parts = appendSegment(parts, t.Name, t.Level, formatYears(t.Years))
	}
	for _, e := range p.Education {
		parts = appendSegment(parts, e.Institution, e.Degree, e.Field)
	}
	parts = appendSegment(parts, p.Notes)
	return strings.ToLower(strings.Join(parts, " "))
}

// SkillsContext summarizes the profile's own skill and technology names.
func SkillsContext(p Profile) string {
	skills := p.SkillNames()
	techs := p.TechnologyNames()
	if len(skills) == 0 && len(techs) == 0 {
		return NoSkillsMessage
	}

	var b strings.Builder
	if len(skills) > 0 {
		b.WriteString("Skills: ")
		b.WriteString(strings.Join(skills, ", "))
		b.WriteString(".")
	}
	if len(techs) > 0 {
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString("Technologies: ")
		b.WriteString(strings.Join(techs, ", "))
		b.WriteString(".")
	}
	return b.String()
}

func appendSegment(parts []string, fields ...string) []string {
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		words = append(words, strings.Fields(f)...)
	}
	if len(words) == 0 {
		return parts
	}
	return append(parts, strings.Join(words, " "))
}

func formatYears(y float64) string {
	if y <= 0 {
		return ""
	}
	return strconv.FormatFloat(y, 'f', -1, 64)
}
