package handlers

import (
	"errors"
	"net/http"

	"github.com/isdelr/scheduleu-web/internal/auth"
	"github.com/isdelr/scheduleu-web/internal/services"
	"github.com/rs/zerolog/log"
)

const (
	msgProfileSaved  = "✅ Profile updated successfully!"
	msgLoginRequired = "❌ You must be logged in!"
)

// ProfileHandler serves the profile setup form and the dashboard.
type ProfileHandler struct {
	service services.ProfileServiceProvider
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(service services.ProfileServiceProvider) *ProfileHandler {
	return &ProfileHandler{service: service}
}

// ProfilePage renders the empty profile form.
func (h *ProfileHandler) ProfilePage(w http.ResponseWriter, r *http.Request) {
	renderPage(w, http.StatusOK, "profile", pageView{Title: "Profile Setup"})
}

// SaveProfile upserts the signed-in user's profile.
func (h *ProfileHandler) SaveProfile(w http.ResponseWriter, r *http.Request) {
	view := pageView{
		Title:    "Profile Setup",
		Major:    r.FormValue("major"),
		GradYear: r.FormValue("grad_year"),
	}

	_, err := h.service.SaveProfile(r.Context(), auth.AccessToken(r.Context()), view.Major, view.GradYear)
	switch {
	case errors.Is(err, services.ErrNotAuthenticated):
		view.Message = msgLoginRequired
		renderPage(w, http.StatusUnauthorized, "profile", view)
	case err != nil:
		view.Message = "❌ Error: " + services.ServiceMessage(err)
		renderPage(w, upstreamStatus(err), "profile", view)
	default:
		view.Message = msgProfileSaved
		renderPage(w, http.StatusOK, "profile", view)
	}
}

// Dashboard shows the signed-in user and their profile.
func (h *ProfileHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user, profile, err := h.service.GetProfile(r.Context(), auth.AccessToken(r.Context()))
	view := pageView{Title: "Dashboard", User: user}

	switch {
	case errors.Is(err, services.ErrNotAuthenticated):
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	case errors.Is(err, services.ErrProfileNotFound):
	case err != nil:
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to load dashboard profile")
		view.Message = "Error: " + services.ServiceMessage(err)
	default:
		view.Profile = &profile
	}
	renderPage(w, http.StatusOK, "dashboard", view)
}
