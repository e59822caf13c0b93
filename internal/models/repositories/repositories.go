package repositories

import (
	"time"

	"MaturityBoard/internal/models/domain"

	"github.com/google/uuid"
)

type BaseModel struct {
	ID        uuid.UUID `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type OrganisationRow struct {
	BaseModel
	Name        string `db:"name"`
	Description string `db:"description"`
}

func (r OrganisationRow) ToDomain() domain.Organisation {
	return domain.Organisation{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type TeamRow struct {
	BaseModel
	OrganisationID uuid.UUID `db:"organisation_id"`
	Name           string    `db:"name"`
	Description    string    `db:"description"`
}

func (r TeamRow) ToDomain() domain.Team {
	return domain.Team{
		ID:             r.ID,
		OrganisationID: r.OrganisationID,
		Name:           r.Name,
		Description:    r.Description,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

type ServiceRow struct {
	BaseModel
	TeamID      uuid.UUID `db:"team_id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
}

func (r ServiceRow) ToDomain() domain.Service {
	return domain.Service{
		ID:          r.ID,
		TeamID:      r.TeamID,
		Name:        r.Name,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// Templates, facets and levels are immutable and carry no updated_at.

type TemplateRow struct {
	ID          uuid.UUID `db:"id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	Version     string    `db:"version"`
	IsCustom    bool      `db:"is_custom"`
	CreatedAt   time.Time `db:"created_at"`
}

type FacetRow struct {
	ID          uuid.UUID `db:"id"`
	TemplateID  uuid.UUID `db:"template_id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	Position    int       `db:"position"`
}

type LevelRow struct {
	ID          uuid.UUID `db:"id"`
	FacetID     uuid.UUID `db:"facet_id"`
	Number      int       `db:"number"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
}

// AssembleTemplate builds a template from its rows. Facets keep the order of
// facets and levels within a facet keep the order of levels.
func AssembleTemplate(t TemplateRow, facets []FacetRow, levels []LevelRow) domain.MaturityTemplate {
	byFacet := make(map[uuid.UUID][]domain.Level, len(facets))
	for _, l := range levels {
		byFacet[l.FacetID] = append(byFacet[l.FacetID], domain.Level{
			ID:          l.ID,
			FacetID:     l.FacetID,
			Number:      l.Number,
			Name:        l.Name,
			Description: l.Description,
		})
	}

	out := domain.MaturityTemplate{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		Version:     t.Version,
		IsCustom:    t.IsCustom,
		CreatedAt:   t.CreatedAt,
		Facets:      make([]domain.Facet, 0, len(facets)),
	}
	for _, f := range facets {
		if f.TemplateID != t.ID {
			continue
		}
		out.Facets = append(out.Facets, domain.Facet{
			ID:          f.ID,
			TemplateID:  f.TemplateID,
			Name:        f.Name,
			Description: f.Description,
			Position:    f.Position,
			Levels:      byFacet[f.ID],
		})
	}
	return out
}

type AssessmentRow struct {
	ID         uuid.UUID     `db:"id"`
	Seq        int64         `db:"seq"`
	ServiceID  uuid.UUID     `db:"service_id"`
	TemplateID uuid.UUID     `db:"template_id"`
	Scores     domain.Scores `db:"scores"`
	Notes      string        `db:"notes"`
	AssessedBy string        `db:"assessed_by"`
	CreatedAt  time.Time     `db:"created_at"`
}

func (r AssessmentRow) ToDomain() domain.Assessment {
	return domain.Assessment{
		ID:         r.ID,
		Seq:        r.Seq,
		ServiceID:  r.ServiceID,
		TemplateID: r.TemplateID,
		Scores:     r.Scores,
		Notes:      r.Notes,
		AssessedBy: r.AssessedBy,
		CreatedAt:  r.CreatedAt,
	}
}
