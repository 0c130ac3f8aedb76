package server

import (
	"context"
	"net/http"

	"github.com/cloo-solutions/notesqa/internal/api"
	"github.com/cloo-solutions/notesqa/internal/api/handlers"
	"github.com/cloo-solutions/notesqa/internal/api/middleware"
	"github.com/go-chi/chi/v5"
)

type RouterConfig struct {
	DocumentHandler *handlers.DocumentHandler
	AskHandler      *handlers.AskHandler
	// HealthCheck reports dependency health; nil means always healthy.
	HealthCheck func(ctx context.Context) error
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 5 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if cfg.HealthCheck != nil {
			if err := cfg.HealthCheck(r.Context()); err != nil {
				api.Error(w, http.StatusServiceUnavailable, "unhealthy: "+err.Error())
				return
			}
		}
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/documents", func(r chi.Router) {
		r.Put("/", cfg.DocumentHandler.Put)
		r.Get("/", cfg.DocumentHandler.List)
		r.Get("/{id}", cfg.DocumentHandler.Get)
		r.Delete("/{id}", cfg.DocumentHandler.Delete)
		r.Post("/{id}/index", cfg.DocumentHandler.Index)
		r.Get("/{id}/chunks", cfg.DocumentHandler.Chunks)
	})

	r.Post("/ask", cfg.AskHandler.Ask)

	return r
}
