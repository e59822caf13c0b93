package templates

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"testing/fstest"

	"MaturityBoard/internal/models/domain"
	"MaturityBoard/internal/validator"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	templates map[uuid.UUID]domain.MaturityTemplate
	creates   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{templates: make(map[uuid.UUID]domain.MaturityTemplate)}
}

func (f *fakeStore) CreateTemplate(_ context.Context, t domain.MaturityTemplate) (*domain.MaturityTemplate, error) {
	f.creates++
	f.templates[t.ID] = t
	return &t, nil
}

func (f *fakeStore) GetTemplateByID(_ context.Context, id uuid.UUID) (*domain.MaturityTemplate, error) {
	t, ok := f.templates[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &t, nil
}

func (f *fakeStore) ListTemplates(_ context.Context) ([]domain.MaturityTemplate, error) {
	out := make([]domain.MaturityTemplate, 0, len(f.templates))
	for _, t := range f.templates {
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeStore) ListTemplatesByName(_ context.Context, name string) ([]domain.MaturityTemplate, error) {
	var out []domain.MaturityTemplate
	for _, t := range f.templates {
		if t.Name == name && !t.IsCustom {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeStore) TemplateVersionExists(_ context.Context, name, version string) (bool, error) {
	for _, t := range f.templates {
		if t.Name == name && t.Version == version && !t.IsCustom {
			return true, nil
		}
	}
	return false, nil
}

func newTestService() (*Service, *fakeStore) {
	store := newFakeStore()
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)), store), store
}

func candidate(name, version string) validator.CandidateTemplate {
	return validator.CandidateTemplate{
		Name:    name,
		Version: version,
		Facets: []validator.CandidateFacet{{
			Name: "Testing",
			Levels: []validator.CandidateLevel{
				{Number: 1, Name: "None", Description: "no tests"},
				{Number: 5, Name: "Full", Description: "every change is tested"},
			},
		}},
	}
}

func TestImport(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	tmpl, err := svc.Import(ctx, candidate("Quality", "1.0.0"), false)
	require.NoError(t, err)
	assert.Equal(t, "Quality", tmpl.Name)
	assert.False(t, tmpl.IsCustom)
	require.Len(t, tmpl.Facets, 1)

	_, err = svc.Import(ctx, candidate("Quality", "1.0.0"), false)
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	_, err = svc.Import(ctx, candidate("Quality", "1.0.0"), true)
	require.NoError(t, err, "custom templates may reuse a name and version")
	assert.Equal(t, 2, store.creates)
}

func TestImportRejectsInvalid(t *testing.T) {
	svc, store := newTestService()

	_, err := svc.Import(context.Background(), candidate("", "1.0.0"), false)
	ve, ok := validator.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "name", ve.Field)
	assert.Zero(t, store.creates)
}

func TestReviseCreatesNewRecord(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	src, err := svc.Import(ctx, candidate("Quality", "1.0.0"), false)
	require.NoError(t, err)

	next := candidate("Quality", "1.1.0")
	next.Facets = append(next.Facets, validator.CandidateFacet{
		Name:   "Review",
		Levels: []validator.CandidateLevel{{Number: 3, Name: "Peer", Description: "one reviewer"}},
	})

	rev, err := svc.Revise(ctx, src.ID, next)
	require.NoError(t, err)
	assert.NotEqual(t, src.ID, rev.ID)
	assert.Equal(t, "1.1.0", rev.Version)
	assert.Len(t, rev.Facets, 2)

	stored := store.templates[src.ID]
	assert.Equal(t, "1.0.0", stored.Version)
	assert.Len(t, stored.Facets, 1)
}

func TestReviseRejections(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	src, err := svc.Import(ctx, candidate("Quality", "1.2.0"), false)
	require.NoError(t, err)

	tests := []struct {
		name  string
		cand  validator.CandidateTemplate
		field string
	}{
		{"same version", candidate("Quality", "1.2.0"), "version"},
		{"older version", candidate("Quality", "1.1.9"), "version"},
		{"default version is older", candidate("Quality", ""), "version"},
		{"renamed", candidate("Quality v2", "2.0.0"), "name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Revise(ctx, src.ID, tt.cand)
			ve, ok := validator.AsValidationError(err)
			require.True(t, ok, "got %v", err)
			assert.Equal(t, tt.field, ve.Field)
		})
	}

	_, err = svc.Revise(ctx, uuid.New(), candidate("Quality", "9.0.0"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReviseKeepsCustomFlag(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	src, err := svc.Import(ctx, candidate("Team specific", "0.1.0"), true)
	require.NoError(t, err)

	rev, err := svc.Revise(ctx, src.ID, candidate("Team specific", "0.2.0"))
	require.NoError(t, err)
	assert.True(t, rev.IsCustom)
}

func TestList(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	for _, v := range []string{"1.2.0", "1.10.0", "1.9.0"} {
		_, err := svc.Import(ctx, candidate("Quality", v), false)
		require.NoError(t, err)
	}
	_, err := svc.Import(ctx, candidate("Alpha", "1.0.0"), false)
	require.NoError(t, err)

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "Alpha", all[0].Name)
	assert.Equal(t, "1.10.0", all[1].Version)
	assert.Equal(t, "1.9.0", all[2].Version)
	assert.Equal(t, "1.2.0", all[3].Version)

	quality, err := svc.List(ctx, "Quality")
	require.NoError(t, err)
	assert.Len(t, quality, 3)
}

func TestSeedIsIdempotent(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	first, err := svc.Seed(ctx)
	require.NoError(t, err)
	assert.Len(t, first.Created, 4)
	assert.Empty(t, first.Skipped)

	second, err := svc.Seed(ctx)
	require.NoError(t, err)
	assert.Empty(t, second.Created)
	assert.Len(t, second.Skipped, 4)
	assert.Equal(t, 4, store.creates)
}

func TestEmbeddedSeedsAreValid(t *testing.T) {
	seeds, err := LoadSeeds(seedFS)
	require.NoError(t, err)

	names := make([]string, 0, len(seeds))
	for _, s := range seeds {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"Cloud Native", "DORA", "Observability", "Security"}, names)
}

func TestLoadSeedsReportsFile(t *testing.T) {
	files := fstest.MapFS{
		"seed/broken.yaml": {Data: []byte("name: Broken\nfacets: []\n")},
	}
	_, err := LoadSeeds(files)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken.yaml")

	ve, ok := validator.AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, "facets", ve.Field)
}

func TestCompareVersions(t *testing.T) {
	assert.Equal(t, 1, CompareVersions("1.10.0", "1.9.0"))
	assert.Equal(t, 0, CompareVersions("2.0.0", "2.0.0"))
	assert.Equal(t, -1, CompareVersions("0.1.0", "1.0.0"))
}
