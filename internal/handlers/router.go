package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig holds the HTTP edge settings.
type RouterConfig struct {
	AllowedOrigins     []string
	RateLimitPerSecond int
	RateLimitBurst     int
	RequestTimeout     time.Duration
}

// NewRouter mounts every endpoint on a chi router.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "Retry-After"},
		MaxAge:         300,
	}))

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.RateLimitPerSecond > 0 {
			r.Use(RateLimitMiddleware(cfg.RateLimitPerSecond, max(cfg.RateLimitBurst, 1)))
		}

		r.Post("/games", h.IngestGames)

		r.Route("/subjects/{kind}/{id}", func(r chi.Router) {
			r.Get("/snapshots/{category}", h.GetSnapshot)
			r.Get("/snapshots/{category}/advanced", h.GetAdvancedStats)
			r.Get("/streaks", h.GetStreaks)
		})

		r.Route("/rankings/{category}", func(r chi.Router) {
			r.Post("/", h.RankPeriod)
			r.Get("/{metric}", h.GetLeaderboard)
			r.Get("/{metric}/neighbors/{subject}", h.GetNeighbors)
		})

		r.Put("/users/{id}/profile", h.SaveProfile)

		r.Route("/teams/{id}", func(r chi.Router) {
			r.Put("/roster", h.SaveRoster)
			r.Post("/rollup/{category}", h.RollupTeam)
		})
	})

	return r
}
