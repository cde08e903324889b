package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/basestats/stats-engine/internal/models"
)

// SaveRoster replaces a team's member list.
func (h *Handler) SaveRoster(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)
	var roster models.TeamRoster
	if err := json.NewDecoder(r.Body).Decode(&roster); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}
	roster.TeamID = chi.URLParam(r, "id")

	if err := h.rollup.SaveRoster(r.Context(), &roster); err != nil {
		h.serviceError(w, err, "Failed to save roster")
		return
	}
	h.jsonResponse(w, http.StatusOK, roster)
}

// RollupTeam rebuilds one team's snapshot for a category from its members.
func (h *Handler) RollupTeam(w http.ResponseWriter, r *http.Request) {
	key, err := categoryParam(r)
	if err != nil {
		h.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.rollup.RollupTeam(r.Context(), chi.URLParam(r, "id"), key)
	if err != nil {
		h.serviceError(w, err, "Failed to roll up team")
		return
	}
	h.jsonResponse(w, http.StatusOK, result)
}
