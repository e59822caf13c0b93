package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"MaturityBoard/internal/models/domain"
	"MaturityBoard/internal/scoring"
	"MaturityBoard/internal/validator"

	"github.com/google/uuid"
)

func (h *Handler) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	list, err := h.templates.List(r.Context(), strings.TrimSpace(r.URL.Query().Get("name")))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	t, err := h.templates.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// handleImportTemplate accepts a template document; ?custom=true stores it as
// a custom template.
func (h *Handler) handleImportTemplate(w http.ResponseWriter, r *http.Request) {
	isCustom := false
	if raw := r.URL.Query().Get("custom"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			badRequest(w, "custom", "must be a boolean")
			return
		}
		isCustom = v
	}

	c, err := validator.DecodeJSON(r.Body)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	t, err := h.templates.Import(r.Context(), c, isCustom)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *Handler) handleReviseTemplate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	c, err := validator.DecodeJSON(r.Body)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	t, err := h.templates.Revise(r.Context(), id, c)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

type submitAssessmentRequest struct {
	ServiceID  uuid.UUID     `json:"serviceId"`
	TemplateID uuid.UUID     `json:"templateId"`
	Scores     domain.Scores `json:"scores"`
	Notes      string        `json:"notes"`
	AssessedBy string        `json:"assessedBy"`
}

func (h *Handler) handleSubmitAssessment(w http.ResponseWriter, r *http.Request) {
	var req submitAssessmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "", "invalid payload")
		return
	}
	switch {
	case req.ServiceID == uuid.Nil:
		badRequest(w, "serviceId", "is required")
		return
	case req.TemplateID == uuid.Nil:
		badRequest(w, "templateId", "is required")
		return
	}

	a, err := h.scoring.SubmitAssessment(r.Context(), scoring.AssessmentInput{
		ServiceID:  req.ServiceID,
		TemplateID: req.TemplateID,
		Scores:     req.Scores,
		Notes:      strings.TrimSpace(req.Notes),
		AssessedBy: strings.TrimSpace(req.AssessedBy),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	report, err := h.scoring.AssessmentReport(r.Context(), a.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, report)
}

func (h *Handler) handleGetAssessment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	report, err := h.scoring.AssessmentReport(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	if h.advisor == nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "recommendations are disabled"})
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	report, err := h.scoring.AssessmentReport(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	tmpl, err := h.templates.Get(r.Context(), report.TemplateID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	rec, err := h.advisor.Recommend(r.Context(), *report, *tmpl)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) handleListAssessments(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	templateID, ok := templateQuery(w, r, false)
	if !ok {
		return
	}
	if _, err := h.dir.GetServiceByID(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	list, err := h.dir.ListAssessmentsByServiceID(r.Context(), id, templateID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, scoring.NewestFirst(list))
}

func (h *Handler) handleServiceTrend(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	templateID, ok := templateQuery(w, r, true)
	if !ok {
		return
	}
	points, err := h.scoring.ServiceTrend(r.Context(), id, *templateID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, points)
}

func (h *Handler) handleTeamMaturity(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	templateID, ok := templateQuery(w, r, false)
	if !ok {
		return
	}
	d, err := h.scoring.TeamDashboard(r.Context(), id, templateID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) handleOrganisationMaturity(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	templateID, ok := templateQuery(w, r, false)
	if !ok {
		return
	}
	d, err := h.scoring.OrganisationDashboard(r.Context(), id, templateID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) handleTeamHeatmap(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	templateID, ok := templateQuery(w, r, true)
	if !ok {
		return
	}
	hm, err := h.scoring.TeamHeatmap(r.Context(), id, *templateID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, hm)
}

func (h *Handler) handleOrganisationHeatmap(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	templateID, ok := templateQuery(w, r, true)
	if !ok {
		return
	}
	hm, err := h.scoring.OrganisationHeatmap(r.Context(), id, *templateID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, hm)
}
