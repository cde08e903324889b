package handlers

import (
	"net/http"
)

// GetSnapshot returns the stored snapshot of one subject in one category.
// An unseen subject gets an all-zero snapshot.
func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	subject, err := subjectParam(r)
	if err != nil {
		h.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	key, err := categoryParam(r)
	if err != nil {
		h.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	snap, err := h.aggregation.GetSnapshot(r.Context(), subject, key)
	if err != nil {
		h.serviceError(w, err, "Failed to load snapshot")
		return
	}
	h.jsonResponse(w, http.StatusOK, snap)
}

// GetAdvancedStats recomputes and returns the advanced stats of a snapshot.
func (h *Handler) GetAdvancedStats(w http.ResponseWriter, r *http.Request) {
	subject, err := subjectParam(r)
	if err != nil {
		h.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	key, err := categoryParam(r)
	if err != nil {
		h.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	adv, err := h.advancedStats.ComputeAdvancedStats(r.Context(), subject, key)
	if err != nil {
		h.serviceError(w, err, "Failed to compute advanced stats")
		return
	}
	h.jsonResponse(w, http.StatusOK, adv)
}

func (h *Handler) GetStreaks(w http.ResponseWriter, r *http.Request) {
	subject, err := subjectParam(r)
	if err != nil {
		h.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	state, err := h.aggregation.GetStreaks(r.Context(), subject)
	if err != nil {
		h.serviceError(w, err, "Failed to load streaks")
		return
	}
	h.jsonResponse(w, http.StatusOK, state)
}
