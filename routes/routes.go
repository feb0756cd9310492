package routes

import (
	"net/http"

	"github.com/farmily/fhs/app"
	"github.com/farmily/fhs/handlers"
	"github.com/farmily/fhs/utils"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures all application routes and middleware.
//
// Every request passes through authentication and then authorization before
// routing, so access is decided by the policy table alone. Handlers never
// check roles themselves.
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	// HEAD is served by the GET handler wherever no HEAD route exists
	r.Use(middleware.GetHead)
	if timeout := deps.Config.Server.RequestTimeout; timeout > 0 {
		r.Use(middleware.Timeout(timeout))
	}
	r.Use(deps.Metrics.HTTPMetrics)

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: deps.Config.CORS.AllowCredentials,
		MaxAge:           deps.Config.CORS.MaxAge,
	}))

	// Security
	r.Use(deps.AuthMiddleware.Authenticate)
	r.Use(deps.Authorizer.Authorize)

	// Health and metrics
	r.Get("/healthz", deps.HealthHandler.HandleHealth)
	r.Get("/readyz", deps.HealthHandler.HandleReadiness)
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}
	r.HandleFunc("/error", handlers.HandleError)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", deps.AuthHandler.HandleRegister)
			r.Post("/login", deps.AuthHandler.HandleLogin)
			r.Post("/logout", deps.AuthHandler.HandleLogout)
		})

		r.Route("/user", func(r chi.Router) {
			r.Get("/profile", deps.UserHandler.HandleProfile)
			r.Delete("/delete", deps.UserHandler.HandleDelete)
			r.Put("/change-password", deps.UserHandler.HandleChangePassword)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Get("/dashboard", handlers.HandleAdminDashboard)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w, "endpoint not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteMethodNotAllowed(w)
	})

	return r
}
