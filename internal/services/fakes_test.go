package services

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/isdelr/scheduleu-web/internal/database"
	"github.com/isdelr/scheduleu-web/internal/models"
	"github.com/stretchr/testify/require"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

// allEvents returns every stored event, newest first.
func allEvents(t *testing.T, svc *EventService) []models.Event {
	t.Helper()
	rows, err := svc.db.Query("SELECT id, type, level, message, user_id, created_at FROM events ORDER BY created_at DESC, rowid DESC")
	require.NoError(t, err)
	defer rows.Close()
	events, err := scanEvents(rows)
	require.NoError(t, err)
	return events
}

// fakeBackend records calls and replays presets.
type fakeBackend struct {
	SignUpSession models.Session
	SignUpErr     error
	SignInSession models.Session
	SignInErr     error
	User          models.User
	GetUserErr    error
	SignOutErr    error
	RecoverErr    error

	SignUpCalls  int
	SignInCalls  int
	GetUserCalls int
	RecoverCalls int
	LastEmail    string
	LastRedirect string
}

func (f *fakeBackend) SignUp(ctx context.Context, email, password string) (models.Session, error) {
	f.SignUpCalls++
	f.LastEmail = email
	return f.SignUpSession, f.SignUpErr
}

func (f *fakeBackend) SignInWithPassword(ctx context.Context, email, password string) (models.Session, error) {
	f.SignInCalls++
	f.LastEmail = email
	return f.SignInSession, f.SignInErr
}

func (f *fakeBackend) GetUser(ctx context.Context, accessToken string) (models.User, error) {
	f.GetUserCalls++
	return f.User, f.GetUserErr
}

func (f *fakeBackend) SignOut(ctx context.Context, accessToken string) error {
	return f.SignOutErr
}

func (f *fakeBackend) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	f.RecoverCalls++
	f.LastEmail = email
	f.LastRedirect = redirectTo
	return f.RecoverErr
}

type fakeStore struct {
	Upserted    []models.Profile
	UpsertToken string
	UpsertErr   error
	Profile     models.Profile
	GetErr      error
}

func (f *fakeStore) UpsertProfile(ctx context.Context, accessToken string, profile models.Profile) error {
	f.UpsertToken = accessToken
	if f.UpsertErr != nil {
		return f.UpsertErr
	}
	f.Upserted = append(f.Upserted, profile)
	return nil
}

func (f *fakeStore) GetProfile(ctx context.Context, accessToken, userID string) (models.Profile, error) {
	return f.Profile, f.GetErr
}
