package rest

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter mounts the API under prefix; /health stays at the root.
func NewRouter(h *Handlers, prefix string, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(chimiddleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(chimiddleware.Recoverer)
	if len(allowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   allowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", RequestIDHeader},
			ExposedHeaders:   []string{RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/health", h.Health)

	r.Route(prefix, func(r chi.Router) {
		r.Use(chimiddleware.Timeout(60 * time.Second))

		r.Get("/test", h.Test)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(h.authenticate)

			r.Get("/me", h.Me)
			r.Put("/me", h.UpdateMe)

			r.Group(func(r chi.Router) {
				r.Use(h.requireSuperuser)
				r.Get("/", h.ListUsers)
				r.Get("/{id}", h.GetUser)
				r.Delete("/{id}", h.DeleteUser)
			})
		})
	})

	return r
}
