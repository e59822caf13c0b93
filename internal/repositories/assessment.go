package repositories

import (
	"context"
	"fmt"

	"MaturityBoard/internal/models/domain"
	rowmodels "MaturityBoard/internal/models/repositories"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const assessmentColumns = `id, seq, service_id, template_id, scores, notes, assessed_by, created_at`

// CreateAssessment appends an assessment. The database assigns seq and
// created_at; the stored record is returned.
func (r *Repository) CreateAssessment(ctx context.Context, a domain.Assessment) (*domain.Assessment, error) {
	op := "Repository.CreateAssessment"
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Scores == nil {
		a.Scores = domain.Scores{}
	}

	query := `INSERT INTO assessments (id, service_id, template_id, scores, notes, assessed_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING seq, created_at`
	err := r.DB.QueryRowContext(ctx, query,
		a.ID, a.ServiceID, a.TemplateID, a.Scores, a.Notes, a.AssessedBy).
		Scan(&a.Seq, &a.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return &a, nil
}

// GetAssessmentByID returns an assessment by ID.
func (r *Repository) GetAssessmentByID(ctx context.Context, id uuid.UUID) (*domain.Assessment, error) {
	op := "Repository.GetAssessmentByID"
	var row rowmodels.AssessmentRow
	query := `SELECT ` + assessmentColumns + ` FROM assessments WHERE id = $1`
	if err := r.DB.GetContext(ctx, &row, query, id); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	a := row.ToDomain()
	return &a, nil
}

// ListAssessmentsByServiceID returns a service's assessments newest first,
// optionally for one template only.
func (r *Repository) ListAssessmentsByServiceID(ctx context.Context, serviceID uuid.UUID, templateID *uuid.UUID) ([]domain.Assessment, error) {
	op := "Repository.ListAssessmentsByServiceID"

	query := `SELECT ` + assessmentColumns + ` FROM assessments WHERE service_id = $1`
	args := []any{serviceID}
	if templateID != nil {
		query += ` AND template_id = $2`
		args = append(args, *templateID)
	}
	query += ` ORDER BY created_at DESC, seq DESC`

	out, err := r.selectAssessments(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// ListAssessmentsByServiceIDs returns the assessments of several services.
func (r *Repository) ListAssessmentsByServiceIDs(ctx context.Context, serviceIDs []uuid.UUID, templateID *uuid.UUID) ([]domain.Assessment, error) {
	op := "Repository.ListAssessmentsByServiceIDs"
	if len(serviceIDs) == 0 {
		return []domain.Assessment{}, nil
	}

	base := `SELECT ` + assessmentColumns + ` FROM assessments WHERE service_id IN (?)`
	args := []any{serviceIDs}
	if templateID != nil {
		base += ` AND template_id = ?`
		args = append(args, *templateID)
	}
	base += ` ORDER BY service_id, created_at DESC, seq DESC`

	query, inArgs, err := sqlx.In(base, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out, err := r.selectAssessments(ctx, r.DB.Rebind(query), inArgs...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func (r *Repository) selectAssessments(ctx context.Context, query string, args ...any) ([]domain.Assessment, error) {
	var rows []rowmodels.AssessmentRow
	if err := r.DB.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	out := make([]domain.Assessment, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ToDomain())
	}
	return out, nil
}
