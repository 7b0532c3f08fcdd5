package services

import (
	"context"

	"github.com/isdelr/scheduleu-web/internal/models"
)

// AuthBackend is the hosted auth service.
type AuthBackend interface {
	SignUp(ctx context.Context, email, password string) (models.Session, error)
	SignInWithPassword(ctx context.Context, email, password string) (models.Session, error)
	GetUser(ctx context.Context, accessToken string) (models.User, error)
	SignOut(ctx context.Context, accessToken string) error
	ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error
}

// ProfileStore is the hosted profiles table.
type ProfileStore interface {
	UpsertProfile(ctx context.Context, accessToken string, profile models.Profile) error
	GetProfile(ctx context.Context, accessToken, userID string) (models.Profile, error)
}
