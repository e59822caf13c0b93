package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

const maxNameLength = 100

type createNamedRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// decodeNamed reads a {name, description} body; it writes the 400 itself.
func decodeNamed(w http.ResponseWriter, r *http.Request) (createNamedRequest, bool) {
	var req createNamedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "", "invalid payload")
		return req, false
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	switch {
	case req.Name == "":
		badRequest(w, "name", "must not be empty")
		return req, false
	case utf8.RuneCountInString(req.Name) > maxNameLength:
		badRequest(w, "name", "is too long")
		return req, false
	}
	return req, true
}

func (h *Handler) handleCreateOrganisation(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeNamed(w, r)
	if !ok {
		return
	}
	org, err := h.dir.CreateOrganisation(r.Context(), req.Name, req.Description)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, org)
}

func (h *Handler) handleListOrganisations(w http.ResponseWriter, r *http.Request) {
	orgs, err := h.dir.ListOrganisations(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orgs)
}

func (h *Handler) handleGetOrganisation(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	org, err := h.dir.GetOrganisationByID(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, org)
}

func (h *Handler) handleDeleteOrganisation(w http.ResponseWriter, r *http.Request) {
	h.deleteByID(w, r, h.dir.DeleteOrganisation)
}

func (h *Handler) handleCreateTeam(w http.ResponseWriter, r *http.Request) {
	orgID, ok := pathID(w, r)
	if !ok {
		return
	}
	req, ok := decodeNamed(w, r)
	if !ok {
		return
	}
	team, err := h.dir.CreateTeam(r.Context(), orgID, req.Name, req.Description)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, team)
}

func (h *Handler) handleListTeams(w http.ResponseWriter, r *http.Request) {
	orgID, ok := pathID(w, r)
	if !ok {
		return
	}
	if _, err := h.dir.GetOrganisationByID(r.Context(), orgID); err != nil {
		h.writeError(w, r, err)
		return
	}
	teams, err := h.dir.ListTeamsByOrganisationID(r.Context(), orgID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, teams)
}

func (h *Handler) handleGetTeam(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	team, err := h.dir.GetTeamByID(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, team)
}

func (h *Handler) handleDeleteTeam(w http.ResponseWriter, r *http.Request) {
	h.deleteByID(w, r, h.dir.DeleteTeam)
}

func (h *Handler) handleCreateService(w http.ResponseWriter, r *http.Request) {
	teamID, ok := pathID(w, r)
	if !ok {
		return
	}
	req, ok := decodeNamed(w, r)
	if !ok {
		return
	}
	svc, err := h.dir.CreateService(r.Context(), teamID, req.Name, req.Description)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, svc)
}

func (h *Handler) handleListServices(w http.ResponseWriter, r *http.Request) {
	teamID, ok := pathID(w, r)
	if !ok {
		return
	}
	if _, err := h.dir.GetTeamByID(r.Context(), teamID); err != nil {
		h.writeError(w, r, err)
		return
	}
	services, err := h.dir.ListServicesByTeamID(r.Context(), teamID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, services)
}

func (h *Handler) handleGetService(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	svc, err := h.dir.GetServiceByID(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, svc)
}

func (h *Handler) handleDeleteService(w http.ResponseWriter, r *http.Request) {
	h.deleteByID(w, r, h.dir.DeleteService)
}

func (h *Handler) deleteByID(w http.ResponseWriter, r *http.Request, del func(ctx context.Context, id uuid.UUID) error) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := del(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
