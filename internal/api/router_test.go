package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/http/cookiejar"
	"net/url"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/isdelr/scheduleu-web/internal/auth"
	"github.com/isdelr/scheduleu-web/internal/database"
	"github.com/isdelr/scheduleu-web/internal/services"
	"github.com/isdelr/scheduleu-web/internal/supabase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// upstream is a minimal stand-in for the hosted auth and data endpoints.
type upstream struct {
	mu       sync.Mutex
	calls    map[string]int
	upserts  []map[string]any
	password string
}

func (u *upstream) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls[r.URL.Path]++

	w.Header().Set("Content-Type", "application/json")
	user := map[string]any{"id": "11111111-2222-3333-4444-555555555555", "email": "student@school.edu"}
	session := map[string]any{"access_token": "upstream-at", "refresh_token": "rt", "expires_in": 3600, "user": user}

	switch r.URL.Path {
	case "/auth/v1/signup":
		json.NewEncoder(w).Encode(session)
	case "/auth/v1/token":
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != u.password {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]any{"error": "invalid_grant", "error_description": "Invalid login credentials"})
			return
		}
		json.NewEncoder(w).Encode(session)
	case "/auth/v1/user":
		if r.Header.Get("Authorization") != "Bearer upstream-at" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]any{"msg": "invalid JWT"})
			return
		}
		json.NewEncoder(w).Encode(user)
	case "/auth/v1/logout":
		w.WriteHeader(http.StatusNoContent)
	case "/rest/v1/profiles":
		if r.Method == http.MethodPost {
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			u.upserts = append(u.upserts, body)
			w.WriteHeader(http.StatusCreated)
			return
		}
		var rows []map[string]any
		for _, p := range u.upserts {
			rows = append(rows, p)
		}
		if rows == nil {
			rows = []map[string]any{}
		}
		json.NewEncoder(w).Encode(rows)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (u *upstream) count(path string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.calls[path]
}

func newTestApp(t *testing.T) (*httptest.Server, *upstream, *http.Client) {
	t.Helper()
	up := &upstream{calls: map[string]int{}, password: "x"}
	upSrv := httptest.NewServer(up)
	t.Cleanup(upSrv.Close)

	db, err := database.New(filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))

	client := supabase.NewClient(upSrv.URL, "anon", upSrv.Client())
	events := services.NewEventService(db)
	authSvc := services.NewAuthService(client, events, ".edu", "")
	profileSvc := services.NewProfileService(authSvc, client, events)
	sessions := auth.NewSessionManager([]byte("test-secret"), false)

	app := httptest.NewServer(NewRouter(sessions, authSvc, profileSvc, events, []string{"http://localhost:3000"}, 2*time.Second))
	t.Cleanup(app.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	browser := &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return app, up, browser
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestRegistrationRejectsNonEduWithoutUpstreamCall(t *testing.T) {
	app, up, browser := newTestApp(t)

	resp, err := browser.PostForm(app.URL+"/register", url.Values{"email": {"student@gmail.com"}, "password": {"x"}})
	require.NoError(t, err)
	body := readBody(t, resp)

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body, "❌ Error: Only .edu emails allowed.")
	assert.Zero(t, up.count("/auth/v1/signup"))
}

func TestRegistrationSuffixIsExact(t *testing.T) {
	app, up, browser := newTestApp(t)

	for _, email := range []string{"student@school.EDU", "student@school.edu ", "student@school.edu.com"} {
		resp, err := browser.PostForm(app.URL+"/register", url.Values{"email": {email}, "password": {"x"}})
		require.NoError(t, err)
		body := readBody(t, resp)

		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, email)
		assert.Contains(t, body, "❌ Error: Only .edu emails allowed.", email)
	}
	assert.Zero(t, up.count("/auth/v1/signup"))
}

func TestRegisterThenSaveProfile(t *testing.T) {
	app, up, browser := newTestApp(t)

	resp, err := browser.PostForm(app.URL+"/register", url.Values{"email": {"student@school.edu"}, "password": {"x"}})
	require.NoError(t, err)
	body := readBody(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "✅ Success! Redirecting...")
	assert.Contains(t, body, `content="2;url=/profile"`)
	assert.Equal(t, 1, up.count("/auth/v1/signup"))

	resp, err = browser.PostForm(app.URL+"/profile", url.Values{"major": {"CS"}, "grad_year": {"2027"}})
	require.NoError(t, err)
	body = readBody(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "✅ Profile updated successfully!")

	require.Len(t, up.upserts, 1)
	assert.Equal(t, map[string]any{
		"id":        "11111111-2222-3333-4444-555555555555",
		"major":     "CS",
		"grad_year": float64(2027),
		"email":     "student@school.edu",
	}, up.upserts[0])
}

func TestProfileSaveWithoutSession(t *testing.T) {
	app, up, browser := newTestApp(t)

	resp, err := browser.PostForm(app.URL+"/profile", url.Values{"major": {"CS"}, "grad_year": {"2027"}})
	require.NoError(t, err)
	body := readBody(t, resp)

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body, "❌ You must be logged in!")
	assert.Zero(t, up.count("/rest/v1/profiles"))
	assert.Zero(t, up.count("/auth/v1/user"))
}

func TestLoginFlow(t *testing.T) {
	app, _, browser := newTestApp(t)

	resp, err := browser.PostForm(app.URL+"/login", url.Values{"email": {"student@school.edu"}, "password": {"wrong"}})
	require.NoError(t, err)
	body := readBody(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, body, "Error: Invalid login credentials.")
	assert.NotContains(t, body, "invalid_grant")

	resp, err = browser.Get(app.URL + "/dashboard")
	require.NoError(t, err)
	readBody(t, resp)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp, err = browser.PostForm(app.URL+"/login", url.Values{"email": {"student@school.edu"}, "password": {"x"}})
	require.NoError(t, err)
	readBody(t, resp)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/dashboard", resp.Header.Get("Location"))

	resp, err = browser.Get(app.URL + "/dashboard")
	require.NoError(t, err)
	body = readBody(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "student@school.edu")

	resp, err = browser.Get(app.URL + "/api/v1/events")
	require.NoError(t, err)
	body = readBody(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "auth.login.success")

	resp, err = browser.Post(app.URL+"/logout", "application/x-www-form-urlencoded", nil)
	require.NoError(t, err)
	readBody(t, resp)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp, err = browser.Get(app.URL + "/api/v1/me")
	require.NoError(t, err)
	readBody(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestStaticAndHealth(t *testing.T) {
	app, _, browser := newTestApp(t)

	resp, err := browser.Get(app.URL + "/healthz")
	require.NoError(t, err)
	assert.Equal(t, "ok", readBody(t, resp))

	resp, err = browser.Get(app.URL + "/static/app.css")
	require.NoError(t, err)
	body := readBody(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, ".card")

	resp, err = browser.Get(app.URL + "/")
	require.NoError(t, err)
	readBody(t, resp)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}
