package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/desertthunder/flutenotes/internal/models"
)

// OAuthCallbackPath is where the identity provider redirects after consent.
const OAuthCallbackPath = "/auth/oauth/callback"

// EmailExchanger trades an authorization code for the user's verified email address.
type EmailExchanger interface {
	Exchange(ctx context.Context, code string) (string, error)
}

// SignInFunc starts a session for a provider-verified address.
type SignInFunc func(ctx context.Context, email string) (*models.Session, error)

// OAuthResult contains the result of an OAuth authorization flow.
type OAuthResult struct {
	Session *models.Session
	err     error
}

func (o *OAuthResult) Error() error {
	return o.err
}

// OAuthHandler handles the authorization code callback for `flutenotes auth login --oauth`.
//
// It accepts exactly one callback: the state must match, the code is exchanged for an email address,
// and signIn turns that address into a session. The outcome is delivered once on [OAuthHandler.Result].
type OAuthHandler struct {
	provider    EmailExchanger
	signIn      SignInFunc
	state       string
	resultChan  chan OAuthResult
	once        sync.Once
	callbackHit bool
	mu          sync.Mutex
}

// NewOAuthHandler creates a handler expecting state. The state token should be random for CSRF protection.
func NewOAuthHandler(provider EmailExchanger, signIn SignInFunc, state string) *OAuthHandler {
	return &OAuthHandler{
		provider:   provider,
		signIn:     signIn,
		state:      state,
		resultChan: make(chan OAuthResult, 1),
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *OAuthHandler) Routes() []string {
	return []string{"GET " + OAuthCallbackPath}
}

func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.callbackHit {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.callbackHit = true
	h.mu.Unlock()

	q := r.URL.Query()
	if q.Get("state") != h.state {
		h.Send(OAuthResult{err: fmt.Errorf("invalid state parameter")})
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	code := q.Get("code")
	if code == "" {
		err := fmt.Errorf("authorization failed: %s - %s", q.Get("error"), q.Get("error_description"))
		h.Send(OAuthResult{err: err})
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	email, err := h.provider.Exchange(r.Context(), code)
	if err != nil {
		h.Send(OAuthResult{err: err})
		render(w, http.StatusBadGateway, pageAuthError, pageData{Title: "Authentication Error"})
		return
	}

	session, err := h.signIn(r.Context(), email)
	if err != nil {
		h.Send(OAuthResult{err: fmt.Errorf("sign in failed: %w", err)})
		render(w, http.StatusInternalServerError, pageAuthError, pageData{Title: "Authentication Error"})
		return
	}

	h.Send(OAuthResult{Session: session})
	render(w, http.StatusOK, pageOAuthSuccess, pageData{Title: "Signed In", Email: session.Email})
}

// Send delivers the result once and closes the channel.
func (h *OAuthHandler) Send(result OAuthResult) {
	h.once.Do(func() {
		h.resultChan <- result
		close(h.resultChan)
	})
}

// Result returns the channel receiving exactly one result.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.resultChan
}
