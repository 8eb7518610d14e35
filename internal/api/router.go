package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter configures the chi router with the gateway's routes.
func NewRouter(queryHandler *QueryHandler, corsOrigin string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{corsOrigin},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: corsOrigin != "*",
	}))

	// Plain JSON routes get a request timeout so connections can't hang.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(15 * time.Second))

		r.Get("/api/sources", queryHandler.HandleSources)
		r.Get("/health", queryHandler.HandleHealth)
	})

	// Streaming routes must NOT be wrapped in a timeout; they hold the
	// connection open for as long as the model keeps producing tokens.
	r.Group(func(r chi.Router) {
		r.Post("/api/query", queryHandler.HandleQuery)
		r.Post("/v1/chat/completions", queryHandler.HandleProxy)
	})

	return r
}
