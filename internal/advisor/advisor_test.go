package advisor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"MaturityBoard/internal/config"
	"MaturityBoard/internal/models/domain"
	"MaturityBoard/internal/scoring"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompleter struct {
	system, user string
	reply        string
	err          error
	calls        int
}

func (f *fakeCompleter) Complete(_ context.Context, system, user string) (string, error) {
	f.calls++
	f.system, f.user = system, user
	return f.reply, f.err
}

func fixture() (domain.MaturityTemplate, scoring.AssessmentReport) {
	facet := func(name string, numbers ...int) domain.Facet {
		f := domain.Facet{ID: uuid.New(), Name: name}
		for _, n := range numbers {
			f.Levels = append(f.Levels, domain.Level{Number: n, Name: name + " L", Description: "reach stage"})
		}
		return f
	}
	tmpl := domain.MaturityTemplate{
		ID:      uuid.New(),
		Name:    "DORA",
		Version: "1.0.0",
		Facets: []domain.Facet{
			facet("Deploys", 1, 2, 3, 4, 5),
			facet("Lead Time", 1, 3, 5),
			facet("Failures", 1, 2, 3, 4, 5),
			facet("Restore", 1, 2, 3, 4, 5),
			facet("Docs", 1, 5),
		},
	}
	scores := []float64{5, 2, 4, 2, 1}
	report := scoring.AssessmentReport{
		AssessmentID:    uuid.New(),
		TemplateID:      tmpl.ID,
		TemplateName:    tmpl.Name,
		TemplateVersion: tmpl.Version,
		OverallScore:    2.8,
		Delta:           scoring.Delta{Value: 0.4, HasPrior: true},
		Notes:           "new on-call rota",
	}
	for i, f := range tmpl.Facets {
		report.FacetScores = append(report.FacetScores, scoring.FacetScore{FacetID: f.ID, Name: f.Name, Score: scores[i]})
	}
	return tmpl, report
}

func TestFocusAreas(t *testing.T) {
	tmpl, report := fixture()

	got := FocusAreas(report.FacetScores, tmpl, 3)
	require.Len(t, got, 3)
	assert.Equal(t, "Docs", got[0].Facet)
	assert.Equal(t, 5, got[0].NextLevel)
	assert.Equal(t, "Lead Time", got[1].Facet)
	assert.Equal(t, 3, got[1].NextLevel, "level 2 is not defined for this facet")
	assert.Equal(t, "Restore", got[2].Facet)
	assert.Equal(t, 3, got[2].NextLevel)
}

func TestFocusAreasSkipsTopLevel(t *testing.T) {
	tmpl, report := fixture()
	for i := range report.FacetScores {
		report.FacetScores[i].Score = 5
	}
	assert.Empty(t, FocusAreas(report.FacetScores, tmpl, 3))
}

func TestRecommend(t *testing.T) {
	tmpl, report := fixture()
	fc := &fakeCompleter{reply: "  ## Docs\nWrite a runbook.\n"}
	a := NewWithCompleter(slog.New(slog.NewTextHandler(io.Discard, nil)), fc, "test-model")

	rec, err := a.Recommend(context.Background(), report, tmpl)
	require.NoError(t, err)
	assert.Equal(t, "## Docs\nWrite a runbook.", rec.Advice)
	assert.Equal(t, "test-model", rec.Model)
	assert.Len(t, rec.Focus, 3)

	assert.Contains(t, fc.user, "Template: DORA 1.0.0")
	assert.Contains(t, fc.user, "+0.40")
	assert.Contains(t, fc.user, "- Docs: currently 1; next level 5")
	assert.Contains(t, fc.user, "new on-call rota")
	assert.NotContains(t, fc.user, "Deploys")
}

func TestRecommendAllTopLevelSkipsModel(t *testing.T) {
	tmpl, report := fixture()
	for i := range report.FacetScores {
		report.FacetScores[i].Score = 5
	}
	fc := &fakeCompleter{}
	a := NewWithCompleter(slog.New(slog.NewTextHandler(io.Discard, nil)), fc, "m")

	rec, err := a.Recommend(context.Background(), report, tmpl)
	require.NoError(t, err)
	assert.Zero(t, fc.calls)
	assert.NotEmpty(t, rec.Advice)
}

func TestRecommendPropagatesError(t *testing.T) {
	tmpl, report := fixture()
	fc := &fakeCompleter{err: errors.New("rate limited")}
	a := NewWithCompleter(slog.New(slog.NewTextHandler(io.Discard, nil)), fc, "m")

	_, err := a.Recommend(context.Background(), report, tmpl)
	assert.ErrorContains(t, err, "rate limited")
}

func TestNewDisabled(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	assert.Nil(t, New(log, config.AdvisorConfig{Enabled: false, APIKey: "k"}))
	assert.Nil(t, New(log, config.AdvisorConfig{Enabled: true}))
	assert.NotNil(t, New(log, config.AdvisorConfig{Enabled: true, APIKey: "k", Model: "m"}))
}
