// Package validator checks uploaded maturity templates before they are
// persisted. Validation is pure: it never touches storage.
package validator

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"MaturityBoard/internal/models/domain"

	"github.com/google/uuid"
)

const (
	DefaultVersion = "0.1.0"
	MaxNameLength  = 100
	MaxLevels      = 5
)

var versionPattern = regexp.MustCompile(`^\d+\.\d+\.\d+$`)

// CandidateTemplate is a template document as submitted by a user or a seed file.
type CandidateTemplate struct {
	Name        string           `json:"name" yaml:"name"`
	Description string           `json:"description,omitempty" yaml:"description,omitempty"`
	Version     string           `json:"version,omitempty" yaml:"version,omitempty"`
	Facets      []CandidateFacet `json:"facets" yaml:"facets"`
}

type CandidateFacet struct {
	Name        string           `json:"name" yaml:"name"`
	Description string           `json:"description,omitempty" yaml:"description,omitempty"`
	Levels      []CandidateLevel `json:"levels" yaml:"levels"`
}

// CandidateLevel keeps Number as float64 so that 2.5 is reported as a
// non-integer instead of failing the whole decode.
type CandidateLevel struct {
	Number      float64 `json:"number" yaml:"number"`
	Name        string  `json:"name" yaml:"name"`
	Description string  `json:"description" yaml:"description"`
}

// ValidatedTemplate is a canonical template: defaults applied, levels sorted.
type ValidatedTemplate struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Version     string           `json:"version"`
	Facets      []ValidatedFacet `json:"facets"`
}

type ValidatedFacet struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Levels      []ValidatedLevel `json:"levels"`
}

type ValidatedLevel struct {
	Number      int    `json:"number"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ValidateTemplate accepts a candidate or returns the first violation as a
// *ValidationError.
func ValidateTemplate(c CandidateTemplate) (*ValidatedTemplate, error) {
	if strings.TrimSpace(c.Name) == "" {
		return nil, newError("name", "must not be empty")
	}
	if utf8.RuneCountInString(c.Name) > MaxNameLength {
		return nil, newError("name", fmt.Sprintf("must be at most %d characters", MaxNameLength))
	}

	version := c.Version
	if version == "" {
		version = DefaultVersion
	} else if !versionPattern.MatchString(version) {
		return nil, newError("version", "must match MAJOR.MINOR.PATCH")
	}

	if len(c.Facets) == 0 {
		return nil, newError("facets", "must contain at least one facet")
	}

	out := &ValidatedTemplate{
		Name:        c.Name,
		Description: c.Description,
		Version:     version,
		Facets:      make([]ValidatedFacet, 0, len(c.Facets)),
	}

	seenFacets := make(map[string]int, len(c.Facets))
	for i, f := range c.Facets {
		vf, err := validateFacet(i, f)
		if err != nil {
			return nil, err
		}
		key := strings.ToLower(strings.TrimSpace(f.Name))
		if first, ok := seenFacets[key]; ok {
			return nil, newError(facetPath(i, "name"),
				fmt.Sprintf("duplicates the name of facets[%d]", first))
		}
		seenFacets[key] = i
		out.Facets = append(out.Facets, vf)
	}

	return out, nil
}

func validateFacet(i int, f CandidateFacet) (ValidatedFacet, error) {
	if strings.TrimSpace(f.Name) == "" {
		return ValidatedFacet{}, newError(facetPath(i, "name"), "must not be empty")
	}
	if len(f.Levels) == 0 || len(f.Levels) > MaxLevels {
		return ValidatedFacet{}, newError(facetPath(i, "levels"),
			fmt.Sprintf("must contain between 1 and %d levels", MaxLevels))
	}

	levels := make([]ValidatedLevel, 0, len(f.Levels))
	seen := make(map[int]bool, len(f.Levels))
	for j, l := range f.Levels {
		if l.Number != math.Trunc(l.Number) || math.IsNaN(l.Number) {
			return ValidatedFacet{}, newError(levelPath(i, j, "number"), "must be an integer")
		}
		if l.Number < domain.MinLevel || l.Number > domain.MaxLevel {
			return ValidatedFacet{}, newError(levelPath(i, j, "number"),
				fmt.Sprintf("must be between %d and %d", domain.MinLevel, domain.MaxLevel))
		}
		n := int(l.Number)
		if seen[n] {
			return ValidatedFacet{}, newError(levelPath(i, j, "number"),
				fmt.Sprintf("duplicate level number %d", n))
		}
		seen[n] = true

		if strings.TrimSpace(l.Name) == "" {
			return ValidatedFacet{}, newError(levelPath(i, j, "name"), "must not be empty")
		}
		if strings.TrimSpace(l.Description) == "" {
			return ValidatedFacet{}, newError(levelPath(i, j, "description"), "must not be empty")
		}
		levels = append(levels, ValidatedLevel{Number: n, Name: l.Name, Description: l.Description})
	}

	sort.Slice(levels, func(a, b int) bool { return levels[a].Number < levels[b].Number })

	return ValidatedFacet{Name: f.Name, Description: f.Description, Levels: levels}, nil
}

func facetPath(i int, field string) string {
	return fmt.Sprintf("facets[%d].%s", i, field)
}

func levelPath(i, j int, field string) string {
	return fmt.Sprintf("facets[%d].levels[%d].%s", i, j, field)
}

// Candidate turns a validated template back into input form, so it can be
// re-validated or re-submitted.
func (v *ValidatedTemplate) Candidate() CandidateTemplate {
	c := CandidateTemplate{
		Name:        v.Name,
		Description: v.Description,
		Version:     v.Version,
		Facets:      make([]CandidateFacet, 0, len(v.Facets)),
	}
	for _, f := range v.Facets {
		cf := CandidateFacet{Name: f.Name, Description: f.Description}
		for _, l := range f.Levels {
			cf.Levels = append(cf.Levels, CandidateLevel{
				Number:      float64(l.Number),
				Name:        l.Name,
				Description: l.Description,
			})
		}
		c.Facets = append(c.Facets, cf)
	}
	return c
}

// ToDomain assigns fresh ids and produces a template ready to persist.
func (v *ValidatedTemplate) ToDomain(isCustom bool) domain.MaturityTemplate {
	t := domain.MaturityTemplate{
		ID:          uuid.New(),
		Name:        v.Name,
		Description: v.Description,
		Version:     v.Version,
		IsCustom:    isCustom,
		Facets:      make([]domain.Facet, 0, len(v.Facets)),
	}
	for i, f := range v.Facets {
		df := domain.Facet{
			ID:          uuid.New(),
			TemplateID:  t.ID,
			Name:        f.Name,
			Description: f.Description,
			Position:    i,
			Levels:      make([]domain.Level, 0, len(f.Levels)),
		}
		for _, l := range f.Levels {
			df.Levels = append(df.Levels, domain.Level{
				ID:          uuid.New(),
				FacetID:     df.ID,
				Number:      l.Number,
				Name:        l.Name,
				Description: l.Description,
			})
		}
		t.Facets = append(t.Facets, df)
	}
	return t
}

// FromDomain converts a stored template to input form.
func FromDomain(t domain.MaturityTemplate) CandidateTemplate {
	c := CandidateTemplate{
		Name:        t.Name,
		Description: t.Description,
		Version:     t.Version,
		Facets:      make([]CandidateFacet, 0, len(t.Facets)),
	}
	for _, f := range t.Facets {
		cf := CandidateFacet{Name: f.Name, Description: f.Description}
		for _, l := range f.Levels {
			cf.Levels = append(cf.Levels, CandidateLevel{
				Number:      float64(l.Number),
				Name:        l.Name,
				Description: l.Description,
			})
		}
		c.Facets = append(c.Facets, cf)
	}
	return c
}
