package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"MaturityBoard/internal/config"
	"MaturityBoard/internal/models/domain"
	"MaturityBoard/internal/validator"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapError(t *testing.T) {
	assert.ErrorIs(t, mapError(sql.ErrNoRows), domain.ErrNotFound)
	assert.ErrorIs(t, mapError(sql.ErrNoRows), sql.ErrNoRows)
	assert.ErrorIs(t, mapError(&pq.Error{Code: "23505", Constraint: "organisations_name_key"}), domain.ErrAlreadyExists)
	assert.ErrorIs(t, mapError(&pq.Error{Code: "23503"}), domain.ErrNotFound)

	other := errors.New("boom")
	assert.Equal(t, other, mapError(other))
	assert.NoError(t, mapError(nil))
}

// setupRepo connects to the database named by MATURITY_TEST_DB_HOST and
// migrates a throwaway schema.
func setupRepo(t *testing.T) *Repository {
	t.Helper()
	host := os.Getenv("MATURITY_TEST_DB_HOST")
	if host == "" {
		t.Skip("MATURITY_TEST_DB_HOST not set")
	}

	cfg := config.DBConfig{
		Host:     host,
		Port:     envOr("MATURITY_TEST_DB_PORT", "5432"),
		Name:     envOr("MATURITY_TEST_DB_NAME", "postgres"),
		User:     envOr("MATURITY_TEST_DB_USER", "postgres"),
		Password: envOr("MATURITY_TEST_DB_PASSWORD", "postgres"),
		Schema:   fmt.Sprintf("maturity_test_%d", time.Now().UnixNano()),
	}

	ctx := context.Background()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	repo, err := Open(ctx, log, cfg)
	require.NoError(t, err)
	require.NoError(t, repo.Migrate(ctx))

	t.Cleanup(func() {
		_, _ = repo.DB.Exec(fmt.Sprintf("DROP SCHEMA %s CASCADE", cfg.Schema))
		_ = repo.DB.Close()
	})
	return repo
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func sampleTemplate(t *testing.T) domain.MaturityTemplate {
	t.Helper()
	v, err := validator.ValidateTemplate(validator.CandidateTemplate{
		Name:    "DORA",
		Version: "1.0.0",
		Facets: []validator.CandidateFacet{
			{Name: "Deployment Frequency", Levels: []validator.CandidateLevel{
				{Number: 5, Name: "Elite", Description: "on demand"},
				{Number: 1, Name: "Low", Description: "monthly or less"},
			}},
			{Name: "Lead Time", Levels: []validator.CandidateLevel{
				{Number: 3, Name: "Medium", Description: "one week"},
			}},
		},
	})
	require.NoError(t, err)
	return v.ToDomain(false)
}

func TestRepositoryHierarchy(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	org, err := repo.CreateOrganisation(ctx, "Acme", "")
	require.NoError(t, err)
	_, err = repo.CreateOrganisation(ctx, "Acme", "again")
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	team, err := repo.CreateTeam(ctx, org.ID, "Payments", "")
	require.NoError(t, err)
	_, err = repo.CreateTeam(ctx, uuid.New(), "Ghost", "")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	svc, err := repo.CreateService(ctx, team.ID, "billing", "invoices")
	require.NoError(t, err)

	byOrg, err := repo.ListServicesByOrganisationID(ctx, org.ID)
	require.NoError(t, err)
	require.Len(t, byOrg, 1)
	assert.Equal(t, svc.ID, byOrg[0].ID)

	found, err := repo.FindTeamsByName(ctx, "payments")
	require.NoError(t, err)
	assert.Len(t, found, 1)

	require.NoError(t, repo.DeleteOrganisation(ctx, org.ID))
	_, err = repo.GetServiceByID(ctx, svc.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, repo.DeleteOrganisation(ctx, org.ID), domain.ErrNotFound)
}

func TestRepositoryTemplatesAndAssessments(t *testing.T) {
	repo := setupRepo(t)
	ctx := context.Background()

	tmpl := sampleTemplate(t)
	stored, err := repo.CreateTemplate(ctx, tmpl)
	require.NoError(t, err)
	assert.False(t, stored.CreatedAt.IsZero())

	dup := sampleTemplate(t)
	_, err = repo.CreateTemplate(ctx, dup)
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	exists, err := repo.TemplateVersionExists(ctx, "DORA", "1.0.0")
	require.NoError(t, err)
	assert.True(t, exists)

	loaded, err := repo.GetTemplateByID(ctx, tmpl.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Facets, 2)
	assert.Equal(t, "Deployment Frequency", loaded.Facets[0].Name)
	assert.Equal(t, 1, loaded.Facets[0].Levels[0].Number)
	assert.Equal(t, 5, loaded.Facets[0].Levels[1].Number)

	org, err := repo.CreateOrganisation(ctx, "Acme", "")
	require.NoError(t, err)
	team, err := repo.CreateTeam(ctx, org.ID, "Payments", "")
	require.NoError(t, err)
	svc, err := repo.CreateService(ctx, team.ID, "billing", "")
	require.NoError(t, err)

	scores := domain.Scores{tmpl.Facets[0].ID: 3, tmpl.Facets[1].ID: 4}
	first, err := repo.CreateAssessment(ctx, domain.Assessment{ServiceID: svc.ID, TemplateID: tmpl.ID, Scores: scores})
	require.NoError(t, err)
	second, err := repo.CreateAssessment(ctx, domain.Assessment{ServiceID: svc.ID, TemplateID: tmpl.ID, Scores: scores, Notes: "re-run"})
	require.NoError(t, err)
	assert.Greater(t, second.Seq, first.Seq)

	got, err := repo.GetAssessmentByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, scores, got.Scores)

	history, err := repo.ListAssessmentsByServiceID(ctx, svc.ID, &tmpl.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, second.ID, history[0].ID)

	many, err := repo.ListAssessmentsByServiceIDs(ctx, []uuid.UUID{svc.ID, uuid.New()}, nil)
	require.NoError(t, err)
	assert.Len(t, many, 2)

	_, err = repo.DB.ExecContext(ctx, `UPDATE assessments SET notes = 'edited' WHERE id = $1`, first.ID)
	assert.Error(t, err)
}
