package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/oauth2"

	"github.com/desertthunder/flutenotes/internal/shared"
)

// OAuthProvider signs users in through an external OAuth2 identity provider using the authorization code flow.
type OAuthProvider struct {
	config      *oauth2.Config
	userInfoURL string
}

// NewOAuthProvider builds a provider from the [auth.oauth] config section.
func NewOAuthProvider(cfg shared.OAuthConfig) (*OAuthProvider, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("%w: oauth provider is not configured", shared.ErrMissingConfig)
	}

	return &OAuthProvider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthURL,
				TokenURL: cfg.TokenURL,
			},
			RedirectURL: cfg.RedirectURI,
			Scopes:      cfg.Scopes,
		},
		userInfoURL: cfg.UserInfoURL,
	}, nil
}

// Config exposes the underlying [oauth2.Config].
func (p *OAuthProvider) Config() *oauth2.Config { return p.config }

// AuthCodeURL returns the provider URL the user visits to grant access.
func (p *OAuthProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

type userInfo struct {
	Email         string `json:"email"`
	EmailVerified *bool  `json:"email_verified"`
}

// Exchange trades an authorization code for a token and returns the verified email address of the user.
func (p *OAuthProvider) Exchange(ctx context.Context, code string) (string, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("%w: token exchange failed: %v", shared.ErrAuthFailed, err)
	}
	return p.Email(ctx, token)
}

// Email fetches the user info document for token.
//
// Providers that report email_verified=false are rejected.
func (p *OAuthProvider) Email(ctx context.Context, token *oauth2.Token) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build userinfo request: %w", err)
	}

	resp, err := p.config.Client(ctx, token).Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: userinfo request failed: %v", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: userinfo returned %s", shared.ErrAuthFailed, resp.Status)
	}

	var info userInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", fmt.Errorf("%w: failed to decode userinfo: %v", shared.ErrAuthFailed, err)
	}

	if !strings.Contains(info.Email, "@") {
		return "", fmt.Errorf("%w: provider did not return an email address", shared.ErrAuthFailed)
	}
	if info.EmailVerified != nil && !*info.EmailVerified {
		return "", fmt.Errorf("%w: provider has not verified %s", shared.ErrEmailNotConfirmed, info.Email)
	}
	return info.Email, nil
}
