package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/isdelr/scheduleu-web/internal/api/handlers"
	"github.com/isdelr/scheduleu-web/internal/auth"
	"github.com/isdelr/scheduleu-web/internal/services"
)

// NewRouter creates and configures a new Chi router.
func NewRouter(
	sessions *auth.SessionManager,
	authService services.AuthServiceProvider,
	profileService services.ProfileServiceProvider,
	eventService services.EventServiceProvider,
	allowedOrigins []string,
	registerRedirectDelay time.Duration,
) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(sessions.LoadSession)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, sessions, registerRedirectDelay)
	profileHandler := handlers.NewProfileHandler(profileService)
	userHandler := handlers.NewUserHandler(authService)
	eventHandler := handlers.NewEventHandler(eventService)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Handle("/static/*", http.StripPrefix("/static/", handlers.StaticFiles()))

	// Pages
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	})
	r.Get("/register", authHandler.RegisterPage)
	r.Post("/register", authHandler.Register)
	r.Get("/login", authHandler.LoginPage)
	r.Post("/login", authHandler.Login)
	r.Post("/logout", authHandler.Logout)
	r.Get("/forgot-password", authHandler.ForgotPasswordPage)
	r.Post("/forgot-password", authHandler.ForgotPassword)
	r.Get("/profile", profileHandler.ProfilePage)
	r.Post("/profile", profileHandler.SaveProfile)
	r.With(auth.RequirePageSession).Get("/dashboard", profileHandler.Dashboard)

	// JSON API
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   allowedOrigins,
			AllowedMethods:   []string{"GET", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
		r.Use(auth.RequireSession)

		r.Get("/me", userHandler.GetMe)
		r.Get("/events", eventHandler.GetRecent)
	})

	return r
}
