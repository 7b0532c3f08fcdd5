package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/isdelr/scheduleu-web/internal/models"
	"github.com/rs/zerolog/log"
)

// RegisterInput is a submitted registration form.
// ConfirmPassword is only checked when non-empty.
type RegisterInput struct {
	Email           string
	Password        string
	ConfirmPassword string
}

// AuthServiceProvider defines the interface for user authentication services.
type AuthServiceProvider interface {
	Register(ctx context.Context, input RegisterInput) (models.Session, error)
	Login(ctx context.Context, email, password string) (models.Session, error)
	CurrentUser(ctx context.Context, accessToken string) (models.User, error)
	Logout(ctx context.Context, accessToken, userID string) error
	RequestPasswordReset(ctx context.Context, email string) error
	EmailSuffix() string
}

// AuthService provides registration, login and session lookups against the
// hosted auth service. Every operation makes at most one upstream call.
type AuthService struct {
	backend       AuthBackend
	eventService  EventServiceProvider
	emailSuffix   string
	resetRedirect string
}

// NewAuthService creates a new AuthService.
func NewAuthService(backend AuthBackend, eventService EventServiceProvider, emailSuffix, resetRedirect string) *AuthService {
	return &AuthService{
		backend:       backend,
		eventService:  eventService,
		emailSuffix:   emailSuffix,
		resetRedirect: resetRedirect,
	}
}

// EmailSuffix returns the institutional suffix registrations must end with.
func (s *AuthService) EmailSuffix() string {
	return s.emailSuffix
}

// AllowedEmail reports whether email, exactly as submitted, ends with the
// institutional suffix. No case folding or trimming is applied.
func (s *AuthService) AllowedEmail(email string) bool {
	return strings.HasSuffix(email, s.emailSuffix)
}

// Register validates the form and signs the user up.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (models.Session, error) {
	email := input.Email
	if !s.AllowedEmail(email) {
		return models.Session{}, ErrEmailDomain
	}
	if input.ConfirmPassword != "" && input.ConfirmPassword != input.Password {
		return models.Session{}, ErrPasswordMismatch
	}

	session, err := s.backend.SignUp(ctx, email, input.Password)
	if err != nil {
		log.Warn().Err(err).Str("email", email).Msg("Sign-up rejected by auth service")
		s.recordEvent("auth.signup.fail", "warn", fmt.Sprintf("Sign-up failed for %s: %s", email, ServiceMessage(err)), nil)
		return models.Session{}, err
	}

	log.Info().Str("email", email).Str("user_id", session.User.ID).Bool("session", session.Active()).Msg("User registered")
	s.recordEvent("auth.signup.success", "info", fmt.Sprintf("Account created for %s.", email), &session.User.ID)
	return session, nil
}

// Login signs the user in. Failures are logged in detail but always returned
// as ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (models.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return models.Session{}, ErrMissingCredentials
	}

	session, err := s.backend.SignInWithPassword(ctx, email, password)
	if err != nil {
		log.Warn().Err(err).Str("email", email).Msg("Failed authentication attempt")
		s.recordEvent("auth.login.fail", "warn", fmt.Sprintf("Failed login for %s.", email), nil)
		return models.Session{}, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}
	if !session.Active() {
		log.Warn().Str("email", email).Msg("Auth service returned no access token")
		return models.Session{}, ErrInvalidCredentials
	}

	s.recordEvent("auth.login.success", "info", fmt.Sprintf("%s signed in.", email), &session.User.ID)
	return session, nil
}

// CurrentUser asks the auth service who owns accessToken.
func (s *AuthService) CurrentUser(ctx context.Context, accessToken string) (models.User, error) {
	if accessToken == "" {
		return models.User{}, ErrNotAuthenticated
	}
	user, err := s.backend.GetUser(ctx, accessToken)
	if err != nil {
		log.Warn().Err(err).Msg("Could not resolve current user")
		return models.User{}, fmt.Errorf("%w: %w", ErrNotAuthenticated, err)
	}
	return user, nil
}

// Logout revokes the upstream session. The local cookie is cleared by the caller
// regardless of the result.
func (s *AuthService) Logout(ctx context.Context, accessToken, userID string) error {
	if accessToken == "" {
		return nil
	}
	if err := s.backend.SignOut(ctx, accessToken); err != nil {
		log.Warn().Err(err).Msg("Failed to revoke upstream session")
		return err
	}
	var uid *string
	if userID != "" {
		uid = &userID
	}
	s.recordEvent("auth.logout", "info", "Signed out.", uid)
	return nil
}

// RequestPasswordReset asks the auth service to mail a recovery link.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrMissingCredentials
	}
	if err := s.backend.ResetPasswordForEmail(ctx, email, s.resetRedirect); err != nil {
		log.Warn().Err(err).Str("email", email).Msg("Password recovery request failed")
		return err
	}
	s.recordEvent("auth.recover", "info", fmt.Sprintf("Password reset requested for %s.", email), nil)
	return nil
}

func (s *AuthService) recordEvent(eventType, level, message string, userID *string) {
	if s.eventService == nil {
		return
	}
	if err := s.eventService.CreateEvent(eventType, level, message, userID); err != nil {
		log.Error().Err(err).Str("event_type", eventType).Msg("Failed to record event")
	}
}
