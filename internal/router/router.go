// Package router sets up the HTTP routes and middleware chains of the
// operator API. Everything under /api requires the operator's Basic auth;
// the health check stays open for load balancers.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"contentforge/internal/handlers"
	"contentforge/internal/middleware"
)

// Auth holds the operator credentials. An empty PasswordHash leaves the
// API open, which only development configs allow.
type Auth struct {
	Username     string
	PasswordHash string
}

// New creates the chi router. limiter throttles the endpoints that start
// background work; it may be nil.
func New(op *handlers.Operator, health http.HandlerFunc, auth Auth, limiter *middleware.RateLimiter) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	r.Get("/health", health)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.SecureHeaders)
		r.Use(middleware.BasicAuth(auth.Username, auth.PasswordHash))

		r.Route("/items", func(r chi.Router) {
			r.Get("/", op.ListItems)
			r.Post("/", op.AddItems)
			r.Get("/{id}", op.GetItem)
			r.Get("/{id}/content", op.ItemContent)
			r.Get("/{id}/preview", op.ItemPreview)
			r.Post("/{id}/stop", op.StopItem)
			r.Post("/{id}/publish", op.PublishItem)
		})
		r.Post("/publish", op.PublishBatch)

		r.Get("/pages", op.ListPages)
		r.Post("/pages/rewrite", op.Rewrite)

		// Background work is rate limited per client.
		r.Group(func(r chi.Router) {
			if limiter != nil {
				r.Use(limiter.Middleware)
			}
			r.Post("/generate", op.Generate)
			r.Post("/crawl", op.Crawl)
			r.Post("/analyse", op.Analyse)
		})

		r.Get("/tasks", op.ListTasks)
		r.Get("/tasks/{id}", op.GetTask)

		r.Get("/providers", op.ListProviders)
		r.Put("/providers/active", op.SetProvider)

		r.Get("/wordpress/verify", op.VerifySite)
		r.Post("/cache/purge", op.PurgeCache)
		r.Get("/publish-log", op.PublishLog)
	})

	return r
}
