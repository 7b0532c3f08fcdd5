package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/isdelr/scheduleu-web/internal/auth"
	"github.com/isdelr/scheduleu-web/internal/models"
	"github.com/isdelr/scheduleu-web/internal/services"
	"github.com/rs/zerolog/log"
)

// SessionWriter stores and clears the browser session.
type SessionWriter interface {
	SetCookie(w http.ResponseWriter, session models.Session) error
	ClearCookie(w http.ResponseWriter)
}

const (
	msgRegisterSuccess    = "✅ Success! Redirecting..."
	msgPasswordMismatch   = "❌ Error: Passwords do not match."
	msgConfirmEmail       = "Check your email for a confirmation link before signing in."
	msgInvalidCredentials = "Error: Invalid login credentials."
	msgMissingCredentials = "Error: Email and password are required."
	msgEmailRequired      = "Error: Email is required."
	msgResetSent          = "If an account exists for that email, a password reset link is on its way."
)

// AuthHandler serves the registration, login, logout and password reset pages.
type AuthHandler struct {
	service       services.AuthServiceProvider
	sessions      SessionWriter
	redirectDelay time.Duration
}

// NewAuthHandler creates a new AuthHandler. redirectDelay is how long the
// registration success page waits before moving on to the profile page.
func NewAuthHandler(service services.AuthServiceProvider, sessions SessionWriter, redirectDelay time.Duration) *AuthHandler {
	return &AuthHandler{service: service, sessions: sessions, redirectDelay: redirectDelay}
}

func (h *AuthHandler) domainMessage() string {
	return fmt.Sprintf("❌ Error: Only %s emails allowed.", h.service.EmailSuffix())
}

// RegisterPage renders the empty registration form.
func (h *AuthHandler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	renderPage(w, http.StatusOK, "register", pageView{Title: "Register", EmailSuffix: h.service.EmailSuffix()})
}

// Register handles new user registration.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	input := services.RegisterInput{
		Email:           r.FormValue("email"),
		Password:        r.FormValue("password"),
		ConfirmPassword: r.FormValue("confirm_password"),
	}
	view := pageView{Title: "Register", Email: input.Email, EmailSuffix: h.service.EmailSuffix()}

	session, err := h.service.Register(r.Context(), input)
	switch {
	case errors.Is(err, services.ErrEmailDomain):
		view.Message = h.domainMessage()
		renderPage(w, http.StatusUnprocessableEntity, "register", view)
		return
	case errors.Is(err, services.ErrPasswordMismatch):
		view.Message = msgPasswordMismatch
		renderPage(w, http.StatusUnprocessableEntity, "register", view)
		return
	case err != nil:
		view.Message = "❌ " + services.ServiceMessage(err)
		renderPage(w, upstreamStatus(err), "register", view)
		return
	}

	if session.Active() {
		if err := h.sessions.SetCookie(w, session); err != nil {
			log.Error().Err(err).Str("user_id", session.User.ID).Msg("Failed to set session cookie")
		}
	} else {
		view.Note = msgConfirmEmail
	}

	view.Message = msgRegisterSuccess
	view.RefreshURL = "/profile"
	view.RefreshAfter = strconv.FormatFloat(h.redirectDelay.Seconds(), 'f', -1, 64)
	renderPage(w, http.StatusOK, "register", view)
}

// LoginPage renders the empty login form.
func (h *AuthHandler) LoginPage(w http.ResponseWriter, r *http.Request) {
	renderPage(w, http.StatusOK, "login", pageView{Title: "Sign in"})
}

// Login handles user authentication and sets the session cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	view := pageView{Title: "Sign in", Email: email}

	session, err := h.service.Login(r.Context(), email, password)
	if errors.Is(err, services.ErrMissingCredentials) {
		view.Message = msgMissingCredentials
		renderPage(w, http.StatusUnprocessableEntity, "login", view)
		return
	}
	if err != nil {
		// The upstream reason was logged by the service; users only see the generic text.
		view.Message = msgInvalidCredentials
		renderPage(w, http.StatusUnauthorized, "login", view)
		return
	}

	if err := h.sessions.SetCookie(w, session); err != nil {
		log.Error().Err(err).Str("user_id", session.User.ID).Msg("Failed to set session cookie")
		view.Message = msgInvalidCredentials
		renderPage(w, http.StatusInternalServerError, "login", view)
		return
	}
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// Logout revokes the session and returns to the login page.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var userID string
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		userID = claims.UserID
	}
	_ = h.service.Logout(r.Context(), auth.AccessToken(r.Context()), userID)
	h.sessions.ClearCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// ForgotPasswordPage renders the password reset request form.
func (h *AuthHandler) ForgotPasswordPage(w http.ResponseWriter, r *http.Request) {
	renderPage(w, http.StatusOK, "forgot_password", pageView{Title: "Reset password"})
}

// ForgotPassword asks the auth service to send a reset link.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	view := pageView{Title: "Reset password", Email: email}

	err := h.service.RequestPasswordReset(r.Context(), email)
	switch {
	case errors.Is(err, services.ErrMissingCredentials):
		view.Message = msgEmailRequired
		renderPage(w, http.StatusUnprocessableEntity, "forgot_password", view)
	case err != nil:
		view.Message = "Error: " + services.ServiceMessage(err)
		renderPage(w, upstreamStatus(err), "forgot_password", view)
	default:
		view.Message = msgResetSent
		renderPage(w, http.StatusOK, "forgot_password", view)
	}
}
