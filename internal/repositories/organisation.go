package repositories

import (
	"context"
	"fmt"

	"MaturityBoard/internal/models/domain"
	rowmodels "MaturityBoard/internal/models/repositories"

	"github.com/google/uuid"
)

const organisationColumns = `id, name, description, created_at, updated_at`

// CreateOrganisation inserts a new organisation.
func (r *Repository) CreateOrganisation(ctx context.Context, name, description string) (*domain.Organisation, error) {
	op := "Repository.CreateOrganisation"
	org := &domain.Organisation{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
	}

	query := `INSERT INTO organisations (id, name, description)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at`
	err := r.DB.QueryRowContext(ctx, query, org.ID, org.Name, org.Description).
		Scan(&org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return org, nil
}

// GetOrganisationByID returns an organisation by ID.
func (r *Repository) GetOrganisationByID(ctx context.Context, id uuid.UUID) (*domain.Organisation, error) {
	op := "Repository.GetOrganisationByID"
	var row rowmodels.OrganisationRow
	query := `SELECT ` + organisationColumns + ` FROM organisations WHERE id = $1`
	if err := r.DB.GetContext(ctx, &row, query, id); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	org := row.ToDomain()
	return &org, nil
}

// GetOrganisationByName returns an organisation by its unique name.
func (r *Repository) GetOrganisationByName(ctx context.Context, name string) (*domain.Organisation, error) {
	op := "Repository.GetOrganisationByName"
	var row rowmodels.OrganisationRow
	query := `SELECT ` + organisationColumns + ` FROM organisations WHERE name = $1`
	if err := r.DB.GetContext(ctx, &row, query, name); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	org := row.ToDomain()
	return &org, nil
}

// ListOrganisations returns all organisations ordered by name.
func (r *Repository) ListOrganisations(ctx context.Context) ([]domain.Organisation, error) {
	op := "Repository.ListOrganisations"
	var rows []rowmodels.OrganisationRow
	query := `SELECT ` + organisationColumns + ` FROM organisations ORDER BY name`
	if err := r.DB.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out := make([]domain.Organisation, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ToDomain())
	}
	return out, nil
}

// DeleteOrganisation removes an organisation with its teams, services and
// their assessments.
func (r *Repository) DeleteOrganisation(ctx context.Context, id uuid.UUID) error {
	op := "Repository.DeleteOrganisation"
	return r.deleteByID(ctx, op, `DELETE FROM organisations WHERE id = $1`, id)
}

func (r *Repository) deleteByID(ctx context.Context, op, query string, id uuid.UUID) error {
	res, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, domain.ErrNotFound)
	}
	return nil
}
