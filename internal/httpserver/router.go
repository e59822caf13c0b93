package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"MaturityBoard/internal/advisor"
	"MaturityBoard/internal/models/domain"
	"MaturityBoard/internal/scoring"
	"MaturityBoard/internal/utils/logger/sl"
	"MaturityBoard/internal/validator"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// Directory is the organisation, team and service hierarchy.
type Directory interface {
	CreateOrganisation(ctx context.Context, name, description string) (*domain.Organisation, error)
	GetOrganisationByID(ctx context.Context, id uuid.UUID) (*domain.Organisation, error)
	ListOrganisations(ctx context.Context) ([]domain.Organisation, error)
	DeleteOrganisation(ctx context.Context, id uuid.UUID) error

	CreateTeam(ctx context.Context, orgID uuid.UUID, name, description string) (*domain.Team, error)
	GetTeamByID(ctx context.Context, id uuid.UUID) (*domain.Team, error)
	ListTeamsByOrganisationID(ctx context.Context, orgID uuid.UUID) ([]domain.Team, error)
	DeleteTeam(ctx context.Context, id uuid.UUID) error

	CreateService(ctx context.Context, teamID uuid.UUID, name, description string) (*domain.Service, error)
	GetServiceByID(ctx context.Context, id uuid.UUID) (*domain.Service, error)
	ListServicesByTeamID(ctx context.Context, teamID uuid.UUID) ([]domain.Service, error)
	DeleteService(ctx context.Context, id uuid.UUID) error

	ListAssessmentsByServiceID(ctx context.Context, serviceID uuid.UUID, templateID *uuid.UUID) ([]domain.Assessment, error)
	Ping(ctx context.Context) error
}

type Templates interface {
	Import(ctx context.Context, c validator.CandidateTemplate, isCustom bool) (*domain.MaturityTemplate, error)
	Revise(ctx context.Context, templateID uuid.UUID, c validator.CandidateTemplate) (*domain.MaturityTemplate, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.MaturityTemplate, error)
	List(ctx context.Context, name string) ([]domain.MaturityTemplate, error)
}

type Scoring interface {
	SubmitAssessment(ctx context.Context, in scoring.AssessmentInput) (*domain.Assessment, error)
	AssessmentReport(ctx context.Context, assessmentID uuid.UUID) (*scoring.AssessmentReport, error)
	ServiceTrend(ctx context.Context, serviceID, templateID uuid.UUID) ([]scoring.TrendPoint, error)
	TeamDashboard(ctx context.Context, teamID uuid.UUID, templateID *uuid.UUID) (*scoring.Dashboard, error)
	OrganisationDashboard(ctx context.Context, orgID uuid.UUID, templateID *uuid.UUID) (*scoring.Dashboard, error)
	TeamHeatmap(ctx context.Context, teamID, templateID uuid.UUID) (*scoring.HeatmapResult, error)
	OrganisationHeatmap(ctx context.Context, orgID, templateID uuid.UUID) (*scoring.HeatmapResult, error)
}

type Advisor interface {
	Recommend(ctx context.Context, report scoring.AssessmentReport, tmpl domain.MaturityTemplate) (*advisor.Recommendation, error)
}

// Deps wires the router. Advisor may be nil.
type Deps struct {
	Directory   Directory
	Templates   Templates
	Scoring     Scoring
	Advisor     Advisor
	APITokens   []string
	AdminTokens []string
}

type Handler struct {
	dir       Directory
	templates Templates
	scoring   Scoring
	advisor   Advisor
	auth      tokenAuth
	log       *slog.Logger
}

func NewRouter(logger *slog.Logger, deps Deps) http.Handler {
	h := &Handler{
		dir:       deps.Directory,
		templates: deps.Templates,
		scoring:   deps.Scoring,
		advisor:   deps.Advisor,
		auth:      newTokenAuth(deps.APITokens, deps.AdminTokens),
		log:       logger.With(slog.String("component", "http")),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.logRequests)

	r.Get("/healthz", h.handleHealth)

	r.Route("/api", func(api chi.Router) {
		api.Use(h.auth.require(false))

		api.Post("/organisations", h.handleCreateOrganisation)
		api.Get("/organisations", h.handleListOrganisations)
		api.Get("/organisations/{id}", h.handleGetOrganisation)
		api.Delete("/organisations/{id}", h.handleDeleteOrganisation)
		api.Post("/organisations/{id}/teams", h.handleCreateTeam)
		api.Get("/organisations/{id}/teams", h.handleListTeams)
		api.Get("/organisations/{id}/maturity", h.handleOrganisationMaturity)
		api.Get("/organisations/{id}/heatmap", h.handleOrganisationHeatmap)

		api.Get("/teams/{id}", h.handleGetTeam)
		api.Delete("/teams/{id}", h.handleDeleteTeam)
		api.Post("/teams/{id}/services", h.handleCreateService)
		api.Get("/teams/{id}/services", h.handleListServices)
		api.Get("/teams/{id}/maturity", h.handleTeamMaturity)
		api.Get("/teams/{id}/heatmap", h.handleTeamHeatmap)

		api.Get("/services/{id}", h.handleGetService)
		api.Delete("/services/{id}", h.handleDeleteService)
		api.Get("/services/{id}/assessments", h.handleListAssessments)
		api.Get("/services/{id}/trend", h.handleServiceTrend)

		api.Get("/templates", h.handleListTemplates)
		api.Get("/templates/{id}", h.handleGetTemplate)
		api.With(h.auth.require(true)).Post("/templates", h.handleImportTemplate)
		api.With(h.auth.require(true)).Post("/templates/{id}/revisions", h.handleReviseTemplate)

		api.Post("/assessments", h.handleSubmitAssessment)
		api.Get("/assessments/{id}", h.handleGetAssessment)
		api.Get("/assessments/{id}/recommendations", h.handleRecommendations)
	})

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.dir.Ping(r.Context()); err != nil {
		h.log.Warn("health check failed", sl.Err(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.log.Debug("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.Duration("elapsed", time.Since(start)))
	})
}

type tokenAuth struct {
	api   map[string]struct{}
	admin map[string]struct{}
}

// newTokenAuth builds the token sets. Without admin tokens every API token
// may write templates; without API tokens the API is open.
func newTokenAuth(apiTokens, adminTokens []string) tokenAuth {
	set := func(tokens []string) map[string]struct{} {
		m := make(map[string]struct{}, len(tokens))
		for _, t := range tokens {
			if t = strings.TrimSpace(t); t != "" {
				m[t] = struct{}{}
			}
		}
		return m
	}
	a := tokenAuth{api: set(apiTokens), admin: set(adminTokens)}
	for t := range a.admin {
		a.api[t] = struct{}{}
	}
	if len(a.admin) == 0 {
		a.admin = a.api
	}
	return a
}

func (a tokenAuth) require(admin bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(a.api) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			token, ok := bearerToken(r)
			if _, known := a.api[token]; !ok || !known {
				writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized"})
				return
			}
			if _, isAdmin := a.admin[token]; admin && !isAdmin {
				writeJSON(w, http.StatusForbidden, map[string]any{"error": "forbidden"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		return "", false
	}
	token := strings.TrimSpace(authHeader[7:])
	return token, token != ""
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError maps domain and validation errors onto status codes.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		incomplete   *scoring.IncompleteAssessmentError
		unknownFacet *scoring.UnknownFacetError
		invalidScore *scoring.InvalidScoreError
	)

	if ve, ok := validator.AsValidationError(err); ok {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": ve.Message, "field": ve.Field})
		return
	}

	switch {
	case errors.As(err, &incomplete):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":         "assessment is incomplete",
			"missingFacets": incomplete.Missing,
		})
	case errors.As(err, &unknownFacet):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": unknownFacet.Error(), "field": "scores"})
	case errors.As(err, &invalidScore):
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": invalidScore.Error(), "field": "scores"})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "not found"})
	case errors.Is(err, domain.ErrAlreadyExists):
		writeJSON(w, http.StatusConflict, map[string]any{"error": "already exists"})
	default:
		h.log.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			sl.Err(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error"})
	}
}

func badRequest(w http.ResponseWriter, field, msg string) {
	body := map[string]any{"error": msg}
	if field != "" {
		body["field"] = field
	}
	writeJSON(w, http.StatusBadRequest, body)
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		badRequest(w, "id", "must be a uuid")
		return uuid.Nil, false
	}
	return id, true
}

// templateQuery reads ?templateId=. A missing value is an error only when
// required.
func templateQuery(w http.ResponseWriter, r *http.Request, required bool) (*uuid.UUID, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get("templateId"))
	if raw == "" {
		if required {
			badRequest(w, "templateId", "is required")
			return nil, false
		}
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		badRequest(w, "templateId", "must be a uuid")
		return nil, false
	}
	return &id, true
}
