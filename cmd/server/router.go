package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/keelson/folio-api/internal/api"
	apiMiddleware "github.com/keelson/folio-api/internal/api/middleware"
	"github.com/keelson/folio-api/internal/hooks"
	"github.com/keelson/folio-api/internal/query"
	"github.com/keelson/folio-api/internal/schema"
	"github.com/keelson/folio-api/internal/serializer"
	"github.com/keelson/folio-api/internal/service/auth"
)

// routerDeps carries everything route registration needs.
type routerDeps struct {
	registry    *schema.Registry
	repos       api.RepositoryProvider
	validator   *query.Validator
	serializer  *serializer.Serializer
	hooks       *hooks.Registry
	authorizer  auth.Authorizer
	jwtService  auth.JWTService
	authHandler *api.AuthHandler
}

// newRouter configures the router: standard chi middleware, trace IDs,
// auth endpoints, and a JSON:API route group per registered resource
// type.
func newRouter(deps routerDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.Trace)

	authMiddleware := apiMiddleware.NewAuthMiddleware(deps.jwtService)

	r.Route("/api", func(r chi.Router) {
		// Authentication endpoints (public, plain JSON)
		r.Post("/auth/register", deps.authHandler.Register)
		r.Post("/auth/login", deps.authHandler.Login)

		// JSON:API resource endpoints
		r.Group(func(r chi.Router) {
			r.Use(apiMiddleware.Negotiate)
			r.Use(authMiddleware.Authenticate)

			for _, resourceType := range deps.registry.Types() {
				sch, _ := deps.registry.Lookup(resourceType)
				handler := api.NewResourceHandler(
					sch,
					deps.repos,
					deps.validator,
					deps.serializer,
					deps.hooks,
					deps.authorizer,
				)
				handler.Mount(r)
			}
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return r
}
