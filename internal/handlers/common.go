package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"

	"github.com/basestats/stats-engine/internal/models"
)

// Health check endpoint
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

// Ready check endpoint
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	checks := make(map[string]bool, len(h.deps))
	allHealthy := true
	for name, dep := range h.deps {
		ok := dep.Ping(ctx) == nil
		checks[name] = ok
		allHealthy = allHealthy && ok
	}

	status := http.StatusOK
	if !allHealthy {
		status = http.StatusServiceUnavailable
	}
	depth := 0
	if h.pool != nil {
		depth = h.pool.QueueDepth()
	}
	h.jsonResponse(w, status, map[string]interface{}{
		"ready":      allHealthy,
		"checks":     checks,
		"queueDepth": depth,
	})
}

// RateLimitMiddleware sheds requests beyond perSecond with the given burst.
func RateLimitMiddleware(perSecond, burst int) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(rate.Limit(perSecond), burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				w.Header().Set("Retry-After", "1")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]string{"error": "Rate limit exceeded"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// categoryParam parses the {category} URL parameter.
func categoryParam(r *http.Request) (models.CategoryKey, error) {
	return models.ParseCategoryKey(chi.URLParam(r, "category"))
}

// subjectParam parses the {kind} and {id} URL parameters.
func subjectParam(r *http.Request) (models.Subject, error) {
	kind, err := models.ParseSubjectKind(chi.URLParam(r, "kind"))
	if err != nil {
		return models.Subject{}, err
	}
	id := chi.URLParam(r, "id")
	if id == "" {
		return models.Subject{}, errors.New("missing subject id")
	}
	return models.Subject{Kind: kind, ID: id}, nil
}

// serviceError maps engine errors to HTTP statuses.
func (h *Handler) serviceError(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		h.errorResponse(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrNotFound):
		h.errorResponse(w, http.StatusNotFound, "Not found")
	case errors.Is(err, models.ErrConflict):
		w.Header().Set("Retry-After", "1")
		h.errorResponse(w, http.StatusConflict, "Concurrent update, retry")
	default:
		h.logger.Errorw(msg, "error", err)
		h.errorResponse(w, http.StatusInternalServerError, msg)
	}
}

func (h *Handler) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) errorResponse(w http.ResponseWriter, status int, message string) {
	h.jsonResponse(w, status, map[string]string{"error": message})
}
