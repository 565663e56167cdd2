package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/desertthunder/flutenotes/internal/shared"
)

func newProviderServer(t *testing.T, verified bool) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "provider-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer provider-token" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"email":          "player@example.com",
			"email_verified": verified,
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func providerConfig(base string) shared.OAuthConfig {
	return shared.OAuthConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		AuthURL:      base + "/authorize",
		TokenURL:     base + "/token",
		UserInfoURL:  base + "/userinfo",
		RedirectURI:  "http://localhost:3000/auth/oauth/callback",
		Scopes:       []string{"openid", "email"},
	}
}

func TestOAuthProvider(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		if _, err := NewOAuthProvider(shared.OAuthConfig{}); !errors.Is(err, shared.ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})

	t.Run("AuthCodeURL", func(t *testing.T) {
		p, err := NewOAuthProvider(providerConfig("https://id.example.com"))
		if err != nil {
			t.Fatalf("NewOAuthProvider() error = %v", err)
		}

		u, err := url.Parse(p.AuthCodeURL("state-123"))
		if err != nil {
			t.Fatalf("bad url: %v", err)
		}
		q := u.Query()
		if q.Get("state") != "state-123" || q.Get("client_id") != "client" {
			t.Errorf("unexpected query %v", q)
		}
		if q.Get("redirect_uri") != "http://localhost:3000/auth/oauth/callback" {
			t.Errorf("unexpected redirect_uri %q", q.Get("redirect_uri"))
		}
	})

	t.Run("Exchange returns the verified email", func(t *testing.T) {
		srv := newProviderServer(t, true)
		p, _ := NewOAuthProvider(providerConfig(srv.URL))

		email, err := p.Exchange(context.Background(), "auth-code")
		if err != nil {
			t.Fatalf("Exchange() error = %v", err)
		}
		if email != "player@example.com" {
			t.Errorf("unexpected email %q", email)
		}
	})

	t.Run("Exchange rejects unverified email", func(t *testing.T) {
		srv := newProviderServer(t, false)
		p, _ := NewOAuthProvider(providerConfig(srv.URL))

		if _, err := p.Exchange(context.Background(), "auth-code"); !errors.Is(err, shared.ErrEmailNotConfirmed) {
			t.Errorf("expected ErrEmailNotConfirmed, got %v", err)
		}
	})
}
