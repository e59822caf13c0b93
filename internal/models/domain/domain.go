package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned by stores when a record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when a unique constraint is violated.
	ErrAlreadyExists = errors.New("already exists")
)

const (
	MinLevel = 1
	MaxLevel = 5
)

// Organisation is the top of the containment hierarchy.
type Organisation struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Team belongs to an organisation.
type Team struct {
	ID             uuid.UUID `json:"id"`
	OrganisationID uuid.UUID `json:"organisationId"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Service belongs to a team and is the unit that gets assessed.
type Service struct {
	ID          uuid.UUID `json:"id"`
	TeamID      uuid.UUID `json:"teamId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// MaturityTemplate is a named, versioned scoring rubric.
// Templates are never updated in place; a revision is a new record.
type MaturityTemplate struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Version     string    `json:"version"`
	IsCustom    bool      `json:"isCustom"`
	Facets      []Facet   `json:"facets"` // declaration order
	CreatedAt   time.Time `json:"createdAt"`
}

// Facet is one scored dimension within a template.
type Facet struct {
	ID          uuid.UUID `json:"id"`
	TemplateID  uuid.UUID `json:"templateId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Position    int       `json:"position"`
	Levels      []Level   `json:"levels"` // ascending by Number
}

// Level is one maturity rung within a facet.
type Level struct {
	ID          uuid.UUID `json:"id"`
	FacetID     uuid.UUID `json:"facetId"`
	Number      int       `json:"number"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
}

// FacetByID returns the facet with the given id.
func (t MaturityTemplate) FacetByID(id uuid.UUID) (Facet, bool) {
	for _, f := range t.Facets {
		if f.ID == id {
			return f, true
		}
	}
	return Facet{}, false
}

// HasFacet reports whether id names a facet of the template.
func (t MaturityTemplate) HasFacet(id uuid.UUID) bool {
	_, ok := t.FacetByID(id)
	return ok
}

// LevelByNumber returns the level with the given number.
func (f Facet) LevelByNumber(n int) (Level, bool) {
	for _, l := range f.Levels {
		if l.Number == n {
			return l, true
		}
	}
	return Level{}, false
}

// Assessment is an immutable scoring event for one (service, template) pair.
// Seq is assigned by the store in insertion order and breaks CreatedAt ties.
type Assessment struct {
	ID         uuid.UUID `json:"id"`
	Seq        int64     `json:"seq"`
	ServiceID  uuid.UUID `json:"serviceId"`
	TemplateID uuid.UUID `json:"templateId"`
	Scores     Scores    `json:"scores"`
	Notes      string    `json:"notes"`
	AssessedBy string    `json:"assessedBy"`
	CreatedAt  time.Time `json:"createdAt"`
}

// OlderThan reports whether a precedes b in assessment order.
func (a Assessment) OlderThan(b Assessment) bool {
	if a.CreatedAt.Equal(b.CreatedAt) {
		return a.Seq < b.Seq
	}
	return a.CreatedAt.Before(b.CreatedAt)
}
