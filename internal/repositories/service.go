package repositories

import (
	"context"
	"fmt"

	"MaturityBoard/internal/models/domain"
	rowmodels "MaturityBoard/internal/models/repositories"

	"github.com/google/uuid"
)

const serviceColumns = `s.id, s.team_id, s.name, s.description, s.created_at, s.updated_at`

// CreateService inserts a new service into a team.
func (r *Repository) CreateService(ctx context.Context, teamID uuid.UUID, name, description string) (*domain.Service, error) {
	op := "Repository.CreateService"
	svc := &domain.Service{
		ID:          uuid.New(),
		TeamID:      teamID,
		Name:        name,
		Description: description,
	}

	query := `INSERT INTO services (id, team_id, name, description)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`
	err := r.DB.QueryRowContext(ctx, query,
		svc.ID, svc.TeamID, svc.Name, svc.Description).
		Scan(&svc.CreatedAt, &svc.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return svc, nil
}

// GetServiceByID returns a service by ID.
func (r *Repository) GetServiceByID(ctx context.Context, id uuid.UUID) (*domain.Service, error) {
	op := "Repository.GetServiceByID"
	var row rowmodels.ServiceRow
	query := `SELECT ` + serviceColumns + ` FROM services s WHERE s.id = $1`
	if err := r.DB.GetContext(ctx, &row, query, id); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	svc := row.ToDomain()
	return &svc, nil
}

// ListServicesByTeamID returns the services of a team.
func (r *Repository) ListServicesByTeamID(ctx context.Context, teamID uuid.UUID) ([]domain.Service, error) {
	op := "Repository.ListServicesByTeamID"
	query := `SELECT ` + serviceColumns + ` FROM services s
		WHERE s.team_id = $1 ORDER BY s.name`
	return r.selectServices(ctx, op, query, teamID)
}

// ListServicesByOrganisationID returns the services of every team in an organisation.
func (r *Repository) ListServicesByOrganisationID(ctx context.Context, orgID uuid.UUID) ([]domain.Service, error) {
	op := "Repository.ListServicesByOrganisationID"
	query := `SELECT ` + serviceColumns + ` FROM services s
		INNER JOIN teams t ON t.id = s.team_id
		WHERE t.organisation_id = $1
		ORDER BY t.name, s.name`
	return r.selectServices(ctx, op, query, orgID)
}

func (r *Repository) selectServices(ctx context.Context, op, query string, args ...any) ([]domain.Service, error) {
	var rows []rowmodels.ServiceRow
	if err := r.DB.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out := make([]domain.Service, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ToDomain())
	}
	return out, nil
}

// DeleteService removes a service and its assessments.
func (r *Repository) DeleteService(ctx context.Context, id uuid.UUID) error {
	op := "Repository.DeleteService"
	return r.deleteByID(ctx, op, `DELETE FROM services WHERE id = $1`, id)
}
