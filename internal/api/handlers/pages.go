package handlers

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"io/fs"
	"net/http"
	"strings"

	"github.com/isdelr/scheduleu-web/internal/models"
	"github.com/isdelr/scheduleu-web/internal/supabase"
	"github.com/rs/zerolog/log"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

func mustParsePage(name string) *template.Template {
	return template.Must(template.ParseFS(templatesFS, "templates/layout.html", "templates/"+name))
}

var pages = map[string]*template.Template{
	"register":        mustParsePage("register.html"),
	"login":           mustParsePage("login.html"),
	"profile":         mustParsePage("profile.html"),
	"dashboard":       mustParsePage("dashboard.html"),
	"forgot_password": mustParsePage("forgot_password.html"),
}

// StaticFiles serves the embedded stylesheet.
func StaticFiles() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}

// pageView is the data every page template renders from.
type pageView struct {
	Title        string
	Message      string
	IsError      bool
	Note         string
	RefreshURL   string
	RefreshAfter string

	Email       string
	EmailSuffix string
	Major       string
	GradYear    string

	User    models.User
	Profile *models.Profile
}

// renderPage writes the named page. Output is buffered so a template failure
// never leaves a half-written page behind.
func renderPage(w http.ResponseWriter, status int, name string, view pageView) {
	tmpl, ok := pages[name]
	if !ok {
		log.Error().Str("page", name).Msg("Unknown page template")
		http.Error(w, "Page not found", http.StatusInternalServerError)
		return
	}
	view.IsError = isErrorMessage(view.Message)

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", view); err != nil {
		log.Error().Err(err).Str("page", name).Msg("Failed to render page")
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func isErrorMessage(msg string) bool {
	return strings.HasPrefix(msg, "❌") || strings.HasPrefix(msg, "Error")
}

// upstreamStatus maps a hosted-service failure to the status of the re-rendered form.
func upstreamStatus(err error) int {
	var apiErr *supabase.APIError
	if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
		return apiErr.Status
	}
	return http.StatusBadGateway
}
