package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires every route of the service.
func NewRouter(h *Handler, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(MetricsMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-API-Key"},
		MaxAge:         300,
	}))

	r.Get("/", h.Root)
	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/games", h.ListGames)
		r.Get("/stats", h.GetGlobalStats)
		r.Get("/leaderboard/teams", h.GetTeamLeaderboard)
		r.Get("/players/{id}/stats", h.GetPlayerStats)
		r.Get("/teams/{id}/stats", h.GetTeamStats)

		r.Group(func(r chi.Router) {
			r.Use(h.APIKeyMiddleware)

			r.With(h.RateLimitMiddleware).Post("/submit-game", h.SubmitGame)
			r.Delete("/games/{id}", h.DeleteGame)

			r.Route("/admin", func(r chi.Router) {
				r.Get("/players", h.ListPlayers)
				r.Get("/players/{id}", h.GetIdentity)
				r.Post("/link", h.LinkPlayers)
				r.Post("/unlink", h.UnlinkPlayer)
			})
		})
	})

	return r
}
