package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/isdelr/scheduleu-web/internal/models"
	"github.com/rs/zerolog/log"
)

// CookieName is the cookie holding the signed session token.
const CookieName = "session"

const defaultSessionTTL = 24 * time.Hour

// Claims defines the JWT claims structure. The hosted service's tokens ride
// inside so later requests can act on the user's behalf.
type Claims struct {
	UserID       string `json:"userId"`
	Email        string `json:"email"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
	jwt.RegisteredClaims
}

type contextKey string

// UserClaimsKey is the context key for user claims.
const UserClaimsKey = contextKey("userClaims")

// SessionManager issues and validates session cookies.
type SessionManager struct {
	key    []byte
	secure bool
	now    func() time.Time
}

// NewSessionManager creates a SessionManager signing with key. secure marks
// cookies Secure and should be on in production.
func NewSessionManager(key []byte, secure bool) *SessionManager {
	return &SessionManager{key: key, secure: secure, now: time.Now}
}

// GenerateJWT creates a signed token for a hosted-service session.
func (m *SessionManager) GenerateJWT(session models.Session) (string, time.Time, error) {
	if !session.Active() {
		return "", time.Time{}, errors.New("session has no access token")
	}
	expirationTime := session.ExpiresAt
	if expirationTime.IsZero() || !expirationTime.After(m.now()) {
		expirationTime = m.now().Add(defaultSessionTTL)
	}
	claims := &Claims{
		UserID:       session.User.ID,
		Email:        session.User.Email,
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   session.User.ID,
			IssuedAt:  jwt.NewNumericDate(m.now()),
			ExpiresAt: jwt.NewNumericDate(expirationTime),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.key)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expirationTime, nil
}

// ValidateJWT parses and validates a JWT string.
func (m *SessionManager) ValidateJWT(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return m.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// SetCookie stores the session in the response.
func (m *SessionManager) SetCookie(w http.ResponseWriter, session models.Session) error {
	token, expires, err := m.GenerateJWT(session)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Expires:  expires,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
	})
	return nil
}

// ClearCookie expires the session cookie.
func (m *SessionManager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
	})
}

// tokenFromRequest reads the bearer header, falling back to the cookie.
func tokenFromRequest(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(authHeader, "Bearer "); ok && token != "" {
		return token
	}
	if cookie, err := r.Cookie(CookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// LoadSession attaches valid session claims to the request context. Requests
// without a valid session pass through untouched.
func (m *SessionManager) LoadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := tokenFromRequest(r)
		if tokenStr == "" {
			next.ServeHTTP(w, r)
			return
		}
		claims, err := m.ValidateJWT(tokenStr)
		if err != nil {
			log.Debug().Err(err).Msg("Ignoring invalid session token")
			next.ServeHTTP(w, r)
			return
		}
		ctx := context.WithValue(r.Context(), UserClaimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireSession rejects requests without session claims with 401.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := ClaimsFromContext(r.Context()); !ok {
			http.Error(w, "Missing or invalid session", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequirePageSession redirects requests without session claims to the login page.
func RequirePageSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := ClaimsFromContext(r.Context()); !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClaimsFromContext returns the session claims stored by LoadSession.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(UserClaimsKey).(*Claims)
	return claims, ok && claims != nil
}

// AccessToken returns the hosted-service token for the request, or "".
func AccessToken(ctx context.Context) string {
	if claims, ok := ClaimsFromContext(ctx); ok {
		return claims.AccessToken
	}
	return ""
}
