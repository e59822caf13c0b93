package repositories

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssembleTemplate(t *testing.T) {
	tmpl := TemplateRow{ID: uuid.New(), Name: "Security", Version: "1.0.0"}
	f1 := FacetRow{ID: uuid.New(), TemplateID: tmpl.ID, Name: "SAST", Position: 0}
	f2 := FacetRow{ID: uuid.New(), TemplateID: tmpl.ID, Name: "Secrets", Position: 1}
	foreign := FacetRow{ID: uuid.New(), TemplateID: uuid.New(), Name: "Other"}

	levels := []LevelRow{
		{ID: uuid.New(), FacetID: f1.ID, Number: 1, Name: "None", Description: "no scanning"},
		{ID: uuid.New(), FacetID: f2.ID, Number: 2, Name: "Vault", Description: "central store"},
		{ID: uuid.New(), FacetID: f1.ID, Number: 4, Name: "Gated", Description: "blocks merges"},
	}

	got := AssembleTemplate(tmpl, []FacetRow{f1, foreign, f2}, levels)

	require.Len(t, got.Facets, 2)
	assert.Equal(t, "SAST", got.Facets[0].Name)
	assert.Equal(t, "Secrets", got.Facets[1].Name)
	require.Len(t, got.Facets[0].Levels, 2)
	assert.Equal(t, 1, got.Facets[0].Levels[0].Number)
	assert.Equal(t, 4, got.Facets[0].Levels[1].Number)
	assert.Len(t, got.Facets[1].Levels, 1)
}
