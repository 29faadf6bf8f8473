package api

import (
	"net/http"
	"time"

	"codecollab/internal/api/handler"
	"codecollab/internal/app/service"
	"codecollab/internal/common/security"
	"codecollab/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
)

func NewRouter(
	authService *service.AuthService,
	projectService *service.ProjectService,
	inviteService *service.InviteService,
	executionService *service.ExecutionService,
) http.Handler {
	r := chi.NewRouter()

	// Base Middlewares
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	// Verifies the "Authorization: Bearer T" token and puts claims in context;
	// enforcement happens in middleware.Authenticator on protected groups.
	r.Use(jwtauth.Verifier(security.TokenAuth))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api/v1", func(v1 chi.Router) {
		authHandler := handler.NewAuthHandler(authService)
		v1.Group(func(publicAuth chi.Router) {
			authHandler.RegisterRoutes(publicAuth)
		})

		projectHandler := handler.NewProjectHandler(projectService)
		v1.Route("/projects", projectHandler.RegisterRoutes)

		inviteHandler := handler.NewInviteHandler(inviteService)
		v1.Route("/invites", inviteHandler.RegisterRoutes)

		executionHandler := handler.NewExecutionHandler(executionService)
		v1.Route("/execute", executionHandler.RegisterRoutes)
	})

	return r
}
