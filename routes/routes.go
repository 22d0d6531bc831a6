// Package routes configures the HTTP router, middleware stack, and
// endpoint wiring.
package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/modelplane/router/app"
	"github.com/modelplane/router/handlers"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	routeHandler := handlers.NewRouteHandler(deps.Router, deps.Logger)
	adminHandler := handlers.NewAdminHandler(deps.Router, deps.Metrics, deps.Logger)
	decisionLogHandler := handlers.NewDecisionLogHandler(deps.DecisionLogs, deps.Logger)
	healthHandler := handlers.NewHealthHandler(deps.DB.DB, deps.ProviderRegistry, deps.HealthService, deps.Logger)

	// Health check endpoints
	r.Get("/healthz", healthHandler.HandleHealth)
	r.Get("/readyz", healthHandler.HandleReadiness)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Routing decisions
		r.Group(func(r chi.Router) {
			r.Use(deps.AuthMiddleware.RequireAuth)
			r.Use(deps.RateLimitMiddleware.Limit)
			r.Post("/route", routeHandler.HandleRoute)
		})

		// Cache maintenance and stats (require admin role)
		r.Group(func(r chi.Router) {
			r.Use(deps.AuthMiddleware.RequireAuth)
			r.Use(deps.AuthMiddleware.RequireRole("admin"))
			r.Delete("/cache/users/{userID}", adminHandler.HandleInvalidateUser)
			r.Delete("/cache/providers/{provider}", adminHandler.HandleInvalidateProvider)
			r.Get("/stats", adminHandler.HandleStats)
			r.Get("/decisions", decisionLogHandler.HandleListDecisions)
			r.Get("/decisions/metrics", decisionLogHandler.HandleDecisionMetrics)
			r.Get("/decisions/{correlationID}", decisionLogHandler.HandleGetByCorrelation)
		})
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"endpoint not found"}`))
	})

	return r
}
