package repositories

import (
	"context"
	"fmt"

	"MaturityBoard/internal/models/domain"
	rowmodels "MaturityBoard/internal/models/repositories"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const templateColumns = `id, name, description, version, is_custom, created_at`

// CreateTemplate stores a template with its facets and levels in one
// transaction. Templates are never updated afterwards.
func (r *Repository) CreateTemplate(ctx context.Context, t domain.MaturityTemplate) (result *domain.MaturityTemplate, err error) {
	op := "Repository.CreateTemplate"

	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: begin: %w", op, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	query := `INSERT INTO maturity_templates (id, name, description, version, is_custom)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`
	if err = tx.QueryRowContext(ctx, query,
		t.ID, t.Name, t.Description, t.Version, t.IsCustom).Scan(&t.CreatedAt); err != nil {
		return nil, fmt.Errorf("%s: template: %w", op, mapError(err))
	}

	for _, f := range t.Facets {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO facets (id, template_id, name, description, position)
			VALUES ($1, $2, $3, $4, $5)`,
			f.ID, t.ID, f.Name, f.Description, f.Position)
		if err != nil {
			return nil, fmt.Errorf("%s: facet %q: %w", op, f.Name, mapError(err))
		}

		for _, l := range f.Levels {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO levels (id, facet_id, number, name, description)
				VALUES ($1, $2, $3, $4, $5)`,
				l.ID, f.ID, l.Number, l.Name, l.Description)
			if err != nil {
				return nil, fmt.Errorf("%s: level %d of %q: %w", op, l.Number, f.Name, mapError(err))
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("%s: commit: %w", op, err)
	}
	return &t, nil
}

// GetTemplateByID returns a template with facets in declaration order and
// levels ascending by number.
func (r *Repository) GetTemplateByID(ctx context.Context, id uuid.UUID) (*domain.MaturityTemplate, error) {
	op := "Repository.GetTemplateByID"

	var row rowmodels.TemplateRow
	query := `SELECT ` + templateColumns + ` FROM maturity_templates WHERE id = $1`
	if err := r.DB.GetContext(ctx, &row, query, id); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}

	templates, err := r.withFacets(ctx, []rowmodels.TemplateRow{row})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &templates[0], nil
}

// ListTemplates returns all templates ordered by name and creation.
func (r *Repository) ListTemplates(ctx context.Context) ([]domain.MaturityTemplate, error) {
	op := "Repository.ListTemplates"

	var rows []rowmodels.TemplateRow
	query := `SELECT ` + templateColumns + ` FROM maturity_templates ORDER BY name, created_at`
	if err := r.DB.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	templates, err := r.withFacets(ctx, rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return templates, nil
}

// ListTemplatesByName returns the non-custom templates sharing a name.
func (r *Repository) ListTemplatesByName(ctx context.Context, name string) ([]domain.MaturityTemplate, error) {
	op := "Repository.ListTemplatesByName"

	var rows []rowmodels.TemplateRow
	query := `SELECT ` + templateColumns + ` FROM maturity_templates
		WHERE name = $1 AND NOT is_custom ORDER BY created_at`
	if err := r.DB.SelectContext(ctx, &rows, query, name); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	templates, err := r.withFacets(ctx, rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return templates, nil
}

// TemplateVersionExists reports whether a non-custom template with this name
// and version is stored.
func (r *Repository) TemplateVersionExists(ctx context.Context, name, version string) (bool, error) {
	op := "Repository.TemplateVersionExists"
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM maturity_templates
		WHERE name = $1 AND version = $2 AND NOT is_custom)`
	if err := r.DB.GetContext(ctx, &exists, query, name, version); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

func (r *Repository) withFacets(ctx context.Context, rows []rowmodels.TemplateRow) ([]domain.MaturityTemplate, error) {
	if len(rows) == 0 {
		return []domain.MaturityTemplate{}, nil
	}

	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}

	query, args, err := sqlx.In(`SELECT id, template_id, name, description, position
		FROM facets WHERE template_id IN (?) ORDER BY template_id, position`, ids)
	if err != nil {
		return nil, fmt.Errorf("facets query: %w", err)
	}
	var facets []rowmodels.FacetRow
	if err := r.DB.SelectContext(ctx, &facets, r.DB.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("facets: %w", err)
	}

	var levels []rowmodels.LevelRow
	if len(facets) > 0 {
		facetIDs := make([]uuid.UUID, 0, len(facets))
		for _, f := range facets {
			facetIDs = append(facetIDs, f.ID)
		}
		query, args, err = sqlx.In(`SELECT id, facet_id, number, name, description
			FROM levels WHERE facet_id IN (?) ORDER BY facet_id, number`, facetIDs)
		if err != nil {
			return nil, fmt.Errorf("levels query: %w", err)
		}
		if err := r.DB.SelectContext(ctx, &levels, r.DB.Rebind(query), args...); err != nil {
			return nil, fmt.Errorf("levels: %w", err)
		}
	}

	out := make([]domain.MaturityTemplate, 0, len(rows))
	for _, row := range rows {
		out = append(out, rowmodels.AssembleTemplate(row, facets, levels))
	}
	return out, nil
}
