package server

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Page names defined in templates/pages.html.
const (
	pageConfirmed    = "confirmed"
	pageCheckEmail   = "check_email"
	pageAuthError    = "auth_error"
	pageOAuthSuccess = "oauth_success"
)

type pageData struct {
	Title   string
	Email   string
	Message string
	IsError bool
}

// render executes page into a buffer first so a template failure still produces a clean 500.
func render(w http.ResponseWriter, status int, page string, data pageData) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, page, data); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
