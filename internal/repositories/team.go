package repositories

import (
	"context"
	"fmt"

	"MaturityBoard/internal/models/domain"
	rowmodels "MaturityBoard/internal/models/repositories"

	"github.com/google/uuid"
)

const teamColumns = `id, organisation_id, name, description, created_at, updated_at`

// CreateTeam inserts a new team into an organisation.
func (r *Repository) CreateTeam(ctx context.Context, orgID uuid.UUID, name, description string) (*domain.Team, error) {
	op := "Repository.CreateTeam"
	team := &domain.Team{
		ID:             uuid.New(),
		OrganisationID: orgID,
		Name:           name,
		Description:    description,
	}

	query := `INSERT INTO teams (id, organisation_id, name, description)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`
	err := r.DB.QueryRowContext(ctx, query,
		team.ID, team.OrganisationID, team.Name, team.Description).
		Scan(&team.CreatedAt, &team.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return team, nil
}

// GetTeamByID returns a team by ID.
func (r *Repository) GetTeamByID(ctx context.Context, teamID uuid.UUID) (*domain.Team, error) {
	op := "Repository.GetTeamByID"
	var row rowmodels.TeamRow
	query := `SELECT ` + teamColumns + ` FROM teams WHERE id = $1`
	if err := r.DB.GetContext(ctx, &row, query, teamID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	team := row.ToDomain()
	return &team, nil
}

// FindTeamsByName returns teams with the given name across organisations.
func (r *Repository) FindTeamsByName(ctx context.Context, name string) ([]domain.Team, error) {
	op := "Repository.FindTeamsByName"
	query := `SELECT ` + teamColumns + ` FROM teams WHERE lower(name) = lower($1) ORDER BY name`
	return r.selectTeams(ctx, op, query, name)
}

// ListTeamsByOrganisationID returns the teams of an organisation.
func (r *Repository) ListTeamsByOrganisationID(ctx context.Context, orgID uuid.UUID) ([]domain.Team, error) {
	op := "Repository.ListTeamsByOrganisationID"
	query := `SELECT ` + teamColumns + ` FROM teams WHERE organisation_id = $1 ORDER BY name`
	return r.selectTeams(ctx, op, query, orgID)
}

func (r *Repository) selectTeams(ctx context.Context, op, query string, args ...any) ([]domain.Team, error) {
	var rows []rowmodels.TeamRow
	if err := r.DB.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	teams := make([]domain.Team, 0, len(rows))
	for _, row := range rows {
		teams = append(teams, row.ToDomain())
	}
	return teams, nil
}

// DeleteTeam removes a team with its services and their assessments.
func (r *Repository) DeleteTeam(ctx context.Context, teamID uuid.UUID) error {
	op := "Repository.DeleteTeam"
	return r.deleteByID(ctx, op, `DELETE FROM teams WHERE id = $1`, teamID)
}
