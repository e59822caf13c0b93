// Package templates imports, revises and seeds maturity templates.
package templates

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"

	"MaturityBoard/internal/models/domain"
	"MaturityBoard/internal/utils/logger/sl"
	"MaturityBoard/internal/validator"

	"github.com/google/uuid"
	"golang.org/x/mod/semver"
)

//go:embed seed/*.yaml
var seedFS embed.FS

// Store is the persistence the template service needs.
type Store interface {
	CreateTemplate(ctx context.Context, t domain.MaturityTemplate) (*domain.MaturityTemplate, error)
	GetTemplateByID(ctx context.Context, id uuid.UUID) (*domain.MaturityTemplate, error)
	ListTemplates(ctx context.Context) ([]domain.MaturityTemplate, error)
	ListTemplatesByName(ctx context.Context, name string) ([]domain.MaturityTemplate, error)
	TemplateVersionExists(ctx context.Context, name, version string) (bool, error)
}

// Service owns template lifecycle. Stored templates are never mutated;
// revisions produce new records.
type Service struct {
	log   *slog.Logger
	store Store
	seeds fs.FS
}

func New(logger *slog.Logger, store Store) *Service {
	return &Service{
		log:   logger.With(slog.String("component", "templates")),
		store: store,
		seeds: seedFS,
	}
}

// Import validates a candidate and stores it. A non-custom template must not
// reuse an existing (name, version) pair.
func (s *Service) Import(ctx context.Context, c validator.CandidateTemplate, isCustom bool) (*domain.MaturityTemplate, error) {
	op := "templates.Import"

	v, err := validator.ValidateTemplate(c)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s.persist(ctx, op, v, isCustom)
}

// Revise creates a new version of an existing template. The candidate keeps
// the source name and must carry a strictly greater version.
func (s *Service) Revise(ctx context.Context, templateID uuid.UUID, c validator.CandidateTemplate) (*domain.MaturityTemplate, error) {
	op := "templates.Revise"

	source, err := s.store.GetTemplateByID(ctx, templateID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	v, err := validator.ValidateTemplate(c)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if v.Name != source.Name {
		return nil, fmt.Errorf("%s: %w", op, &validator.ValidationError{
			Field:   "name",
			Message: fmt.Sprintf("a revision must keep the name %q", source.Name),
		})
	}
	if CompareVersions(v.Version, source.Version) <= 0 {
		return nil, fmt.Errorf("%s: %w", op, &validator.ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("must be greater than %s", source.Version),
		})
	}

	revised, err := s.persist(ctx, op, v, source.IsCustom)
	if err != nil {
		return nil, err
	}
	s.log.Info("template revised",
		slog.String("op", op),
		slog.String("name", revised.Name),
		slog.String("from", source.Version),
		slog.String("to", revised.Version))
	return revised, nil
}

func (s *Service) persist(ctx context.Context, op string, v *validator.ValidatedTemplate, isCustom bool) (*domain.MaturityTemplate, error) {
	if !isCustom {
		exists, err := s.store.TemplateVersionExists(ctx, v.Name, v.Version)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if exists {
			return nil, fmt.Errorf("%s: %s %s: %w", op, v.Name, v.Version, domain.ErrAlreadyExists)
		}
	}

	t, err := s.store.CreateTemplate(ctx, v.ToDomain(isCustom))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return t, nil
}

// Get returns a stored template.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.MaturityTemplate, error) {
	op := "templates.Get"
	t, err := s.store.GetTemplateByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return t, nil
}

// List returns all templates, or the versions of one template name, newest
// version first.
func (s *Service) List(ctx context.Context, name string) ([]domain.MaturityTemplate, error) {
	op := "templates.List"

	var (
		list []domain.MaturityTemplate
		err  error
	)
	if name == "" {
		list, err = s.store.ListTemplates(ctx)
	} else {
		list, err = s.store.ListTemplatesByName(ctx, name)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Name != list[j].Name {
			return list[i].Name < list[j].Name
		}
		return CompareVersions(list[i].Version, list[j].Version) > 0
	})
	return list, nil
}

// SeedResult reports what a seeding pass did.
type SeedResult struct {
	Created []string `json:"created"`
	Skipped []string `json:"skipped"`
}

// Seed imports the built-in templates that are not stored yet. Running it
// again inserts nothing.
func (s *Service) Seed(ctx context.Context) (*SeedResult, error) {
	op := "templates.Seed"
	log := s.log.With(slog.String("op", op))

	candidates, err := LoadSeeds(s.seeds)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	res := &SeedResult{}
	for _, c := range candidates {
		label := c.Name + " " + c.Version
		exists, err := s.store.TemplateVersionExists(ctx, c.Name, c.Version)
		if err != nil {
			return res, fmt.Errorf("%s: %w", op, err)
		}
		if exists {
			res.Skipped = append(res.Skipped, label)
			continue
		}

		t, err := s.Import(ctx, c, false)
		if err != nil {
			log.Error("error seeding template", slog.String("template", label), sl.Err(err))
			return res, fmt.Errorf("%s: %s: %w", op, label, err)
		}
		res.Created = append(res.Created, label)
		log.Info("template seeded",
			slog.String("template", label),
			slog.String("id", t.ID.String()))
	}
	return res, nil
}

// LoadSeeds decodes and validates every seed/*.yaml file in files, ordered by
// file name. The returned candidates carry their resolved version.
func LoadSeeds(files fs.FS) ([]validator.CandidateTemplate, error) {
	op := "templates.LoadSeeds"

	names, err := fs.Glob(files, "seed/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	sort.Strings(names)

	out := make([]validator.CandidateTemplate, 0, len(names))
	for _, name := range names {
		data, err := fs.ReadFile(files, name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		c, err := validator.DecodeYAML(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", op, path.Base(name), err)
		}
		v, err := validator.ValidateTemplate(c)
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", op, path.Base(name), err)
		}
		out = append(out, v.Candidate())
	}
	return out, nil
}

// CompareVersions orders MAJOR.MINOR.PATCH strings like semver.Compare.
func CompareVersions(a, b string) int {
	return semver.Compare("v"+a, "v"+b)
}
