package server

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gorilla/sessions"

	"github.com/desertthunder/flutenotes/internal/models"
	"github.com/desertthunder/flutenotes/internal/shared"
)

// Landing routes served by [AuthHandler].
const (
	CallbackPath   = "/auth/callback"
	CheckEmailPath = "/auth/check-email"
	ResendPath     = "/auth/resend"
	AuthErrorPath  = "/auth/auth-code-error"

	sessionName     = "flutenotes"
	signupEmailKey  = "signup-email"
	confirmKindSign = "signup"
)

// Check-email page messages.
const (
	MsgSignUpAgain   = "Please go back and sign up again"
	MsgResendFailed  = "Error resending email. Please try signing up again."
	MsgResendSuccess = "Confirmation email resent! Check your inbox."
)

// Confirmer redeems and reissues email confirmation codes.
type Confirmer interface {
	Confirm(ctx context.Context, code string) (*models.User, error)
	ResendConfirmation(ctx context.Context, kind, address, redirectTo string) error
}

// AuthHandler serves the email confirmation landing pages.
type AuthHandler struct {
	confirmer Confirmer
	store     sessions.Store
	baseURL   string
	logger    *log.Logger
}

// NewCookieStore creates the cookie store used to remember the signup address between page loads.
func NewCookieStore(secret string, secure bool) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/auth",
		MaxAge:   86400,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// NewAuthHandler creates the landing page handler. baseURL prefixes the confirmation links it reissues.
func NewAuthHandler(confirmer Confirmer, store sessions.Store, baseURL string, logger *log.Logger) *AuthHandler {
	return &AuthHandler{
		confirmer: confirmer,
		store:     store,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		logger:    shared.WithLogger(logger, "handler", "auth"),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *AuthHandler) Routes() []string {
	return []string{
		"GET " + CallbackPath,
		"GET " + CheckEmailPath,
		"POST " + ResendPath,
		"GET " + AuthErrorPath,
	}
}

func (h *AuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case CallbackPath:
		h.callback(w, r)
	case CheckEmailPath:
		h.checkEmail(w, r)
	case ResendPath:
		h.resend(w, r)
	case AuthErrorPath:
		render(w, http.StatusOK, pageAuthError, pageData{Title: "Authentication Error"})
	default:
		http.NotFound(w, r)
	}
}

// callback redeems ?code= and sends the browser to ?next= when it is a local path.
func (h *AuthHandler) callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	code := q.Get("code")
	if code == "" {
		http.Redirect(w, r, AuthErrorPath, http.StatusSeeOther)
		return
	}

	user, err := h.confirmer.Confirm(r.Context(), code)
	if err != nil {
		h.logger.Warn("confirmation failed", "error", err)
		http.Redirect(w, r, AuthErrorPath, http.StatusSeeOther)
		return
	}

	h.forget(w, r)
	if next := q.Get("next"); isLocalPath(next) {
		http.Redirect(w, r, next, http.StatusSeeOther)
		return
	}
	render(w, http.StatusOK, pageConfirmed, pageData{Title: "Email Confirmed", Email: user.Email})
}

// checkEmail shows the post-signup page and remembers ?email= for a later resend.
func (h *AuthHandler) checkEmail(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.URL.Query().Get("email"))
	if email != "" {
		h.remember(w, r, email)
	} else {
		email = h.remembered(r)
	}
	render(w, http.StatusOK, pageCheckEmail, pageData{Title: "Check Your Email", Email: email})
}

// resend reissues the confirmation for the posted, queried or remembered address.
func (h *AuthHandler) resend(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.PostFormValue("email"))
	if email == "" {
		email = strings.TrimSpace(r.URL.Query().Get("email"))
	}
	if email == "" {
		email = h.remembered(r)
	}

	data := pageData{Title: "Check Your Email", Email: email}
	if email == "" {
		data.Message = MsgSignUpAgain
		data.IsError = true
		render(w, http.StatusOK, pageCheckEmail, data)
		return
	}

	if err := h.confirmer.ResendConfirmation(r.Context(), confirmKindSign, email, h.baseURL+CallbackPath); err != nil {
		h.logger.Warn("resend failed", "error", err)
		data.Message = MsgResendFailed
		data.IsError = true
		render(w, http.StatusOK, pageCheckEmail, data)
		return
	}

	h.remember(w, r, email)
	data.Message = MsgResendSuccess
	render(w, http.StatusOK, pageCheckEmail, data)
}

func (h *AuthHandler) remember(w http.ResponseWriter, r *http.Request, email string) {
	session, _ := h.store.Get(r, sessionName)
	session.Values[signupEmailKey] = email
	if err := session.Save(r, w); err != nil {
		h.logger.Warn("failed to save session", "error", err)
	}
}

func (h *AuthHandler) remembered(r *http.Request) string {
	session, err := h.store.Get(r, sessionName)
	if err != nil {
		return ""
	}
	email, _ := session.Values[signupEmailKey].(string)
	return email
}

func (h *AuthHandler) forget(w http.ResponseWriter, r *http.Request) {
	session, err := h.store.Get(r, sessionName)
	if err != nil || session.IsNew {
		return
	}
	delete(session.Values, signupEmailKey)
	_ = session.Save(r, w)
}

// isLocalPath accepts "/path" style targets and rejects anything that could leave the site.
func isLocalPath(target string) bool {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, `/\`) {
		return false
	}
	u, err := url.Parse(target)
	return err == nil && u.Scheme == "" && u.Host == ""
}
