package services

import (
	"errors"

	"github.com/isdelr/scheduleu-web/internal/supabase"
)

var (
	// ErrEmailDomain is returned when a registration email lacks the institutional suffix.
	ErrEmailDomain = errors.New("email domain not allowed")
	// ErrPasswordMismatch is returned when the confirmation password differs.
	ErrPasswordMismatch = errors.New("passwords do not match")
	// ErrMissingCredentials is returned when email or password is empty.
	ErrMissingCredentials = errors.New("email and password are required")
	// ErrInvalidCredentials wraps every failed sign-in.
	ErrInvalidCredentials = errors.New("invalid login credentials")
	// ErrNotAuthenticated is returned when no current user can be established.
	ErrNotAuthenticated = errors.New("authentication required")
	// ErrProfileNotFound is returned when the user has not saved a profile yet.
	ErrProfileNotFound = errors.New("profile not found")
)

// ServiceMessage returns the message the hosted service attached to err,
// falling back to err's own text.
func ServiceMessage(err error) string {
	var apiErr *supabase.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}
