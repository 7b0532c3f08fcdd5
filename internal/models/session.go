package models

import "time"

// Session is an authenticated session issued by the hosted auth service.
// AccessToken is empty when sign-up is waiting on email confirmation.
type Session struct {
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	ExpiresAt    time.Time `json:"expiresAt"`
	User         User      `json:"user"`
}

// Active reports whether the session carries a usable access token.
func (s Session) Active() bool {
	return s.AccessToken != ""
}
