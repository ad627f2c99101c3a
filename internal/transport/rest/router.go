package rest

import (
	"database/sql"
	"net/http"

	"github.com/campusid/parking-portal/internal/session"
	"github.com/campusid/parking-portal/internal/transport/middleware"
	"github.com/campusid/parking-portal/internal/transport/swagger"
	"github.com/go-chi/chi"
)

// RouterOptions carries the optional surfaces around the API. Empty paths
// and a nil Metrics switch the matching routes off.
type RouterOptions struct {
	AllowedOrigins string
	OpenAPIPath    string
	BackgroundPath string
	Bucket         string
	Metrics        *middleware.Metrics
	MetricsPath    string
	MetricsHandler http.Handler
}

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, sessionHandler *session.Handler, opts RouterOptions) {
	healthHandler := NewHealthHandler(db, opts.Bucket)

	router.Use(middleware.CORS(opts.AllowedOrigins))
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware)
	if opts.Metrics != nil {
		router.Use(opts.Metrics.Middleware)
	}

	if opts.OpenAPIPath != "" {
		router.Get(swagger.SpecRoute, func(w http.ResponseWriter, r *http.Request) {
			http.ServeFile(w, r, opts.OpenAPIPath)
		})
		router.Handle("/swagger/*", swagger.Handler())
	}
	if opts.BackgroundPath != "" {
		router.Get("/assets/background", func(w http.ResponseWriter, r *http.Request) {
			http.ServeFile(w, r, opts.BackgroundPath)
		})
	}
	if opts.MetricsHandler != nil && opts.MetricsPath != "" {
		router.Handle(opts.MetricsPath, opts.MetricsHandler)
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// A fresh session ignores whatever token the client still holds.
		r.With(middleware.LoggingMiddleware).Post("/session", sessionHandler.NewSession)

		r.Group(func(sr chi.Router) {
			sr.Use(middleware.LoggingMiddleware)
			sr.Use(sessionHandler.SessionMiddleware)

			sr.Get("/session", sessionHandler.GetSession)
			sr.Post("/session/role", sessionHandler.SelectRole)
			sr.Post("/session/admin-panel", sessionHandler.OpenAdminPanel)
			sr.Delete("/session/admin-panel", sessionHandler.CloseAdminPanel)
			sr.Post("/session/admin-login", sessionHandler.AdminLogin)
			sr.Post("/session/login", sessionHandler.Login)
			sr.Post("/session/register-instead", sessionHandler.StartRegistration)
			sr.Post("/session/back", sessionHandler.Back)
			sr.Post("/session/register", sessionHandler.Register)
			sr.Post("/session/logout", sessionHandler.Logout)

			// member features
			sr.Get("/me", sessionHandler.Profile)
			sr.Get("/me/activity", sessionHandler.Activity)
			sr.Get("/me/identity-qr", sessionHandler.IdentityQR)
			sr.Post("/me/vehicles", sessionHandler.RegisterVehicle)
			sr.Get("/me/vehicles", sessionHandler.MyVehicles)

			// admin features
			sr.Get("/admin/dashboard", sessionHandler.Dashboard)
			sr.Get("/admin/vehicles", sessionHandler.AllVehicles)
		})
	})
}
