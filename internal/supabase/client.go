// Package supabase talks to the hosted auth (GoTrue) and data (PostgREST)
// endpoints of a Supabase project.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/isdelr/scheduleu-web/internal/models"
)

const profilesTable = "profiles"

// ErrNoRows is returned when a table query matches nothing.
var ErrNoRows = errors.New("no rows returned")

// APIError is a non-2xx response from the hosted service.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// Client calls the hosted service with the project's public API key.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	now        func() time.Time
}

// NewClient creates a new Client. A nil httpClient uses http.DefaultClient.
func NewClient(baseURL, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
		now:        time.Now,
	}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	EmailConfirmedAt *time.Time `json:"email_confirmed_at"`
	CreatedAt        time.Time  `json:"created_at"`
}

func (u userResponse) toModel() models.User {
	return models.User{
		ID:               u.ID,
		Email:            u.Email,
		EmailConfirmedAt: u.EmailConfirmedAt,
		CreatedAt:        u.CreatedAt,
	}
}

// sessionResponse covers both the token grant and sign-up replies. Sign-up
// returns the bare user (embedded fields) when confirmation is pending.
type sessionResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresIn    int64         `json:"expires_in"`
	ExpiresAt    int64         `json:"expires_at"`
	User         *userResponse `json:"user"`
	userResponse
}

func (r sessionResponse) toModel(now time.Time) models.Session {
	s := models.Session{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
	}
	switch {
	case r.ExpiresAt > 0:
		s.ExpiresAt = time.Unix(r.ExpiresAt, 0)
	case r.ExpiresIn > 0:
		s.ExpiresAt = now.Add(time.Duration(r.ExpiresIn) * time.Second)
	}
	if r.User != nil {
		s.User = r.User.toModel()
	} else {
		s.User = r.userResponse.toModel()
	}
	return s
}

// SignUp registers a new user with email and password.
func (c *Client) SignUp(ctx context.Context, email, password string) (models.Session, error) {
	var resp sessionResponse
	if err := c.do(ctx, http.MethodPost, "/auth/v1/signup", "", nil, credentials{Email: email, Password: password}, &resp); err != nil {
		return models.Session{}, err
	}
	return resp.toModel(c.now()), nil
}

// SignInWithPassword exchanges credentials for a session.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (models.Session, error) {
	var resp sessionResponse
	query := url.Values{"grant_type": {"password"}}
	if err := c.do(ctx, http.MethodPost, "/auth/v1/token?"+query.Encode(), "", nil, credentials{Email: email, Password: password}, &resp); err != nil {
		return models.Session{}, err
	}
	return resp.toModel(c.now()), nil
}

// GetUser returns the user the access token belongs to.
func (c *Client) GetUser(ctx context.Context, accessToken string) (models.User, error) {
	var resp userResponse
	if err := c.do(ctx, http.MethodGet, "/auth/v1/user", accessToken, nil, nil, &resp); err != nil {
		return models.User{}, err
	}
	if resp.ID == "" {
		return models.User{}, &APIError{Status: http.StatusUnauthorized, Message: "no user for access token"}
	}
	return resp.toModel(), nil
}

// SignOut revokes the session behind the access token.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	return c.do(ctx, http.MethodPost, "/auth/v1/logout", accessToken, nil, nil, nil)
}

// ResetPasswordForEmail asks the service to mail a recovery link.
func (c *Client) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	path := "/auth/v1/recover"
	if redirectTo != "" {
		path += "?" + url.Values{"redirect_to": {redirectTo}}.Encode()
	}
	body := struct {
		Email string `json:"email"`
	}{Email: email}
	return c.do(ctx, http.MethodPost, path, "", nil, body, nil)
}

// UpsertProfile inserts the profile or replaces the row with the same id.
func (c *Client) UpsertProfile(ctx context.Context, accessToken string, profile models.Profile) error {
	query := url.Values{"on_conflict": {"id"}}
	headers := http.Header{"Prefer": {"resolution=merge-duplicates,return=minimal"}}
	return c.do(ctx, http.MethodPost, "/rest/v1/"+profilesTable+"?"+query.Encode(), accessToken, headers, profile, nil)
}

// GetProfile fetches the profile row for userID.
func (c *Client) GetProfile(ctx context.Context, accessToken, userID string) (models.Profile, error) {
	query := url.Values{
		"id":     {"eq." + userID},
		"select": {"id,major,grad_year,email"},
	}
	var rows []models.Profile
	if err := c.do(ctx, http.MethodGet, "/rest/v1/"+profilesTable+"?"+query.Encode(), accessToken, nil, nil, &rows); err != nil {
		return models.Profile{}, err
	}
	if len(rows) == 0 {
		return models.Profile{}, ErrNoRows
	}
	return rows[0], nil
}

func (c *Client) do(ctx context.Context, method, path, accessToken string, headers http.Header, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	for k, v := range headers {
		req.Header[k] = v
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	} else {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, data)
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// errorBody is the union of GoTrue and PostgREST error shapes.
type errorBody struct {
	Msg              string          `json:"msg"`
	Message          string          `json:"message"`
	ErrorDescription string          `json:"error_description"`
	Error            string          `json:"error"`
	ErrorCode        string          `json:"error_code"`
	Code             json.RawMessage `json:"code"`
}

func decodeError(status int, data []byte) *APIError {
	apiErr := &APIError{Status: status}

	var body errorBody
	if json.Unmarshal(data, &body) == nil {
		for _, msg := range []string{body.Msg, body.Message, body.ErrorDescription, body.Error} {
			if msg != "" {
				apiErr.Message = msg
				break
			}
		}
		apiErr.Code = body.ErrorCode
		if apiErr.Code == "" && len(body.Code) > 0 {
			// PostgREST sends a string code, GoTrue a numeric status.
			var code string
			if json.Unmarshal(body.Code, &code) == nil {
				apiErr.Code = code
			}
		}
		if apiErr.Code == "" && body.Error != "" && body.Error != apiErr.Message {
			apiErr.Code = body.Error
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(data))
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}
