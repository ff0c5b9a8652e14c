package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/casefold-ai/lexgate/internal/api"
	"github.com/casefold-ai/lexgate/internal/api/handlers"
	"github.com/casefold-ai/lexgate/internal/api/middleware"
)

// StatusChecker reports whether the backend research service is
// reachable.
type StatusChecker interface {
	Status(ctx context.Context) error
}

type RouterConfig struct {
	SessionCodec   middleware.SessionCodec
	TokenRefresher middleware.TokenRefresher
	StatusChecker  StatusChecker

	AuthHandler    *handlers.AuthHandler
	AgentHandler   *handlers.AgentHandler
	ChatHandler    *handlers.ChatHandler
	SearchHandler  *handlers.SearchHandler
	SessionHandler *handlers.SessionHandler
	DatasetHandler *handlers.DatasetHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 64 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		if err := cfg.StatusChecker.Status(r.Context()); err != nil {
			api.Error(w, http.StatusBadGateway, "research service unavailable")
			return
		}
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/login", cfg.AuthHandler.Login)
	r.Post("/signup", cfg.AuthHandler.Signup)
	r.Post("/logout", cfg.AuthHandler.Logout)

	r.Group(func(r chi.Router) {
		r.Use(middleware.SessionAuth(cfg.SessionCodec, cfg.TokenRefresher))

		r.Route("/agents", func(r chi.Router) {
			r.Get("/", cfg.AgentHandler.List)
			r.Post("/", cfg.AgentHandler.Create)
			r.Get("/{id}", cfg.AgentHandler.Get)
			r.Delete("/{id}", cfg.AgentHandler.Delete)
		})

		r.Route("/chat", func(r chi.Router) {
			r.Post("/start", cfg.ChatHandler.Start)
			r.Get("/stream", cfg.ChatHandler.Stream)
		})

		r.Post("/search", cfg.SearchHandler.Search)
		r.Post("/browse", cfg.SearchHandler.Browse)
		r.Get("/summary", cfg.SearchHandler.Summary)
		r.Get("/resource-count", cfg.SearchHandler.ResourceCount)

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/{sessionID}", cfg.SessionHandler.Get)
			r.Get("/{sessionID}/history", cfg.SessionHandler.History)
			r.Get("/{sessionID}/export", cfg.SessionHandler.Export)
			r.Post("/feedback", cfg.SessionHandler.Feedback)
		})

		r.Route("/datasets", func(r chi.Router) {
			r.Post("/", cfg.DatasetHandler.Create)
			r.Get("/{datasetID}", cfg.DatasetHandler.Get)
			r.Post("/{datasetID}/examples/{exampleID}/label", cfg.DatasetHandler.Label)
		})
	})

	return r
}
