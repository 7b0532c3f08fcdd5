package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/isdelr/scheduleu-web/internal/models"
	"github.com/isdelr/scheduleu-web/internal/supabase"
	"github.com/rs/zerolog/log"
)

// ProfileServiceProvider defines the interface for profile services.
type ProfileServiceProvider interface {
	SaveProfile(ctx context.Context, accessToken, major, gradYear string) (models.Profile, error)
	GetProfile(ctx context.Context, accessToken string) (models.User, models.Profile, error)
}

// ProfileService writes the signed-in user's profile to the hosted table.
type ProfileService struct {
	users        AuthServiceProvider
	store        ProfileStore
	eventService EventServiceProvider
}

// NewProfileService creates a new ProfileService.
func NewProfileService(users AuthServiceProvider, store ProfileStore, eventService EventServiceProvider) *ProfileService {
	return &ProfileService{users: users, store: store, eventService: eventService}
}

// SaveProfile upserts the profile of the user owning accessToken. The id and
// email always come from the auth service, never from the form.
func (s *ProfileService) SaveProfile(ctx context.Context, accessToken, major, gradYear string) (models.Profile, error) {
	user, err := s.users.CurrentUser(ctx, accessToken)
	if err != nil {
		return models.Profile{}, err
	}

	profile := models.Profile{
		ID:       user.ID,
		Major:    major,
		GradYear: parseGradYear(gradYear),
		Email:    user.Email,
	}
	if err := s.store.UpsertProfile(ctx, accessToken, profile); err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to upsert profile")
		s.recordEvent("profile.save.fail", "error", "Profile save failed: "+ServiceMessage(err), &user.ID)
		return models.Profile{}, err
	}

	s.recordEvent("profile.save.success", "info", "Profile updated.", &user.ID)
	return profile, nil
}

// GetProfile returns the current user and their saved profile.
func (s *ProfileService) GetProfile(ctx context.Context, accessToken string) (models.User, models.Profile, error) {
	user, err := s.users.CurrentUser(ctx, accessToken)
	if err != nil {
		return models.User{}, models.Profile{}, err
	}
	profile, err := s.store.GetProfile(ctx, accessToken, user.ID)
	if errors.Is(err, supabase.ErrNoRows) {
		return user, models.Profile{}, ErrProfileNotFound
	}
	if err != nil {
		return user, models.Profile{}, fmt.Errorf("failed to load profile: %w", err)
	}
	return user, profile, nil
}

func (s *ProfileService) recordEvent(eventType, level, message string, userID *string) {
	if s.eventService == nil {
		return
	}
	if err := s.eventService.CreateEvent(eventType, level, message, userID); err != nil {
		log.Error().Err(err).Str("event_type", eventType).Msg("Failed to record event")
	}
}

const maxGradYear = 1<<53 - 1

// parseGradYear reads a leading integer the way browser form code does:
// surrounding whitespace and a sign are allowed, parsing stops at the first
// non-digit, and input without digits yields nil. Magnitudes past the
// largest exactly representable float integer clamp to it.
func parseGradYear(raw string) *int {
	s := strings.TrimLeftFunc(raw, unicode.IsSpace)
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}

	digits := 0
	var year int64
	for digits < len(s) && s[digits] >= '0' && s[digits] <= '9' {
		d := int64(s[digits] - '0')
		if year > (maxGradYear-d)/10 {
			year = maxGradYear
		} else {
			year = year*10 + d
		}
		digits++
	}
	if digits == 0 {
		return nil
	}
	if neg {
		year = -year
	}
	v := int(year)
	return &v
}
