package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/basestats/stats-engine/internal/logic"
	"github.com/basestats/stats-engine/internal/models"
)

// RankPeriod runs a ranking pass for the category. An empty body ranks the
// stored user snapshots.
func (h *Handler) RankPeriod(w http.ResponseWriter, r *http.Request) {
	key, err := categoryParam(r)
	if err != nil {
		h.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	var req models.RankPeriodRequest
	if r.ContentLength != 0 {
		r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.errorResponse(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
			return
		}
		if err := logic.Validate(&req); err != nil {
			h.errorResponse(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	resp, err := h.ranking.RankPeriod(r.Context(), key, req.Candidates)
	if err != nil {
		h.serviceError(w, err, "Failed to rank category")
		return
	}
	h.jsonResponse(w, http.StatusOK, resp)
}

// GetLeaderboard returns the last published board for a metric.
func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	key, err := categoryParam(r)
	if err != nil {
		h.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	board, err := h.ranking.GetLeaderboard(r.Context(), key, chi.URLParam(r, "metric"))
	if err != nil {
		h.serviceError(w, err, "Failed to load leaderboard")
		return
	}

	if group := r.URL.Query().Get("age_group"); group != "" {
		h.jsonResponse(w, http.StatusOK, map[string]interface{}{
			"category": board.Category,
			"metric":   board.Metric,
			"ageGroup": group,
			"top":      board.AgeGroupTop[group],
		})
		return
	}
	h.jsonResponse(w, http.StatusOK, board)
}

// GetNeighbors returns the entries around a subject ranked outside the top N.
func (h *Handler) GetNeighbors(w http.ResponseWriter, r *http.Request) {
	key, err := categoryParam(r)
	if err != nil {
		h.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	nc, err := h.ranking.GetNeighbors(r.Context(), chi.URLParam(r, "subject"), key, chi.URLParam(r, "metric"))
	if err != nil {
		h.serviceError(w, err, "Failed to load neighbors")
		return
	}
	h.jsonResponse(w, http.StatusOK, nc)
}

// SaveProfile stores the birth date used for age-group ranking.
func (h *Handler) SaveProfile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)
	var profile models.UserProfile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}
	profile.UserID = chi.URLParam(r, "id")

	if err := h.ranking.SaveProfile(r.Context(), &profile); err != nil {
		h.serviceError(w, err, "Failed to save profile")
		return
	}
	h.jsonResponse(w, http.StatusOK, profile)
}
