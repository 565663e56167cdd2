package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/flutenotes/internal/models"
	"github.com/desertthunder/flutenotes/internal/shared"
)

type resendCall struct {
	kind, address, redirectTo string
}

type fakeConfirmer struct {
	mu        sync.Mutex
	codes     map[string]string
	resendErr error
	resends   []resendCall
}

func (f *fakeConfirmer) Confirm(ctx context.Context, code string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	email, ok := f.codes[code]
	if !ok {
		return nil, shared.ErrInvalidInput
	}
	delete(f.codes, code)
	return &models.User{ID: "user-1", Email: email}, nil
}

func (f *fakeConfirmer) ResendConfirmation(ctx context.Context, kind, address, redirectTo string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resends = append(f.resends, resendCall{kind, address, redirectTo})
	return f.resendErr
}

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestRouter(confirmer Confirmer) *BasicRouter {
	logger := shared.NewLogger(io.Discard)
	router := NewBasicRouter()
	router.Use(Recover(logger), Logging(logger))
	router.Handler(NewAuthHandler(confirmer, NewCookieStore(testSecret, false), "http://localhost:3000/", logger))
	return router
}

func do(t *testing.T, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestBasicRouter(t *testing.T) {
	t.Run("middleware order", func(t *testing.T) {
		var order []string
		mark := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		router := NewBasicRouter()
		router.Use(mark("first"), mark("second"))
		router.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler")
		}))

		do(t, router, httptest.NewRequest(http.MethodGet, "/ping", nil))
		if strings.Join(order, ",") != "first,second,handler" {
			t.Errorf("unexpected order %v", order)
		}
	})

	t.Run("method mismatch", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handle(http.MethodPost, "/only-post", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		rec := do(t, router, httptest.NewRequest(http.MethodGet, "/only-post", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})

	t.Run("recover", func(t *testing.T) {
		router := NewBasicRouter()
		router.Use(Recover(shared.NewLogger(io.Discard)))
		router.Handle(http.MethodGet, "/boom", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		}))

		rec := do(t, router, httptest.NewRequest(http.MethodGet, "/boom", nil))
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
	})
}

func TestAuthCallback(t *testing.T) {
	tests := []struct {
		name         string
		target       string
		wantStatus   int
		wantLocation string
		wantBody     string
	}{
		{
			name:       "valid code shows confirmation",
			target:     "/auth/callback?code=good",
			wantStatus: http.StatusOK,
			wantBody:   "alice@example.com",
		},
		{
			name:         "valid code follows local next",
			target:       "/auth/callback?code=good&next=%2Fauth%2Flogin",
			wantStatus:   http.StatusSeeOther,
			wantLocation: "/auth/login",
		},
		{
			name:       "external next is ignored",
			target:     "/auth/callback?code=good&next=https%3A%2F%2Fevil.example",
			wantStatus: http.StatusOK,
			wantBody:   "Email Confirmed",
		},
		{
			name:         "unknown code",
			target:       "/auth/callback?code=bad",
			wantStatus:   http.StatusSeeOther,
			wantLocation: AuthErrorPath,
		},
		{
			name:         "missing code",
			target:       "/auth/callback",
			wantStatus:   http.StatusSeeOther,
			wantLocation: AuthErrorPath,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			confirmer := &fakeConfirmer{codes: map[string]string{"good": "alice@example.com"}}
			rec := do(t, newTestRouter(confirmer), httptest.NewRequest(http.MethodGet, tt.target, nil))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantLocation != "" && rec.Header().Get("Location") != tt.wantLocation {
				t.Errorf("Location = %q, want %q", rec.Header().Get("Location"), tt.wantLocation)
			}
			if tt.wantBody != "" && !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body missing %q", tt.wantBody)
			}
		})
	}
}

func TestAuthErrorPage(t *testing.T) {
	rec := do(t, newTestRouter(&fakeConfirmer{}), httptest.NewRequest(http.MethodGet, AuthErrorPath, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"There was a problem confirming your email", `href="/auth/signup"`, `href="/auth/login"`} {
		if !strings.Contains(body, want) {
			t.Errorf("auth error page missing %q", want)
		}
	}
}

func TestResend(t *testing.T) {
	postForm := func(target string, form url.Values) *http.Request {
		req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req
	}

	t.Run("no address", func(t *testing.T) {
		confirmer := &fakeConfirmer{}
		rec := do(t, newTestRouter(confirmer), postForm(ResendPath, url.Values{}))

		if !strings.Contains(rec.Body.String(), MsgSignUpAgain) {
			t.Errorf("expected sign up again message, got:\n%s", rec.Body.String())
		}
		if len(confirmer.resends) != 0 {
			t.Error("gateway should not be called without an address")
		}
	})

	t.Run("posted address", func(t *testing.T) {
		confirmer := &fakeConfirmer{}
		rec := do(t, newTestRouter(confirmer), postForm(ResendPath, url.Values{"email": {"bob@example.com"}}))

		if !strings.Contains(rec.Body.String(), MsgResendSuccess) {
			t.Errorf("expected success message, got:\n%s", rec.Body.String())
		}
		if len(confirmer.resends) != 1 {
			t.Fatalf("expected one resend, got %d", len(confirmer.resends))
		}
		call := confirmer.resends[0]
		if call.kind != "signup" || call.address != "bob@example.com" || call.redirectTo != "http://localhost:3000/auth/callback" {
			t.Errorf("unexpected resend %+v", call)
		}
	})

	t.Run("gateway failure", func(t *testing.T) {
		confirmer := &fakeConfirmer{resendErr: shared.ErrRateLimited}
		rec := do(t, newTestRouter(confirmer), postForm(ResendPath+"?email=bob%40example.com", url.Values{}))

		if !strings.Contains(rec.Body.String(), MsgResendFailed) {
			t.Errorf("expected failure message, got:\n%s", rec.Body.String())
		}
	})

	t.Run("remembered address", func(t *testing.T) {
		confirmer := &fakeConfirmer{}
		router := newTestRouter(confirmer)

		first := do(t, router, httptest.NewRequest(http.MethodGet, CheckEmailPath+"?email=carol%40example.com", nil))
		cookies := first.Result().Cookies()
		if len(cookies) == 0 {
			t.Fatal("check-email should set a session cookie")
		}

		req := postForm(ResendPath, url.Values{})
		for _, c := range cookies {
			req.AddCookie(c)
		}
		rec := do(t, router, req)

		if !strings.Contains(rec.Body.String(), MsgResendSuccess) {
			t.Errorf("expected success message, got:\n%s", rec.Body.String())
		}
		if len(confirmer.resends) != 1 || confirmer.resends[0].address != "carol@example.com" {
			t.Errorf("unexpected resends %+v", confirmer.resends)
		}
	})

	t.Run("wrong method", func(t *testing.T) {
		rec := do(t, newTestRouter(&fakeConfirmer{}), httptest.NewRequest(http.MethodGet, ResendPath, nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})
}

type fakeExchanger struct {
	email string
	err   error
}

func (f fakeExchanger) Exchange(ctx context.Context, code string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.email, nil
}

func TestOAuthHandler(t *testing.T) {
	signIn := func(ctx context.Context, email string) (*models.Session, error) {
		return &models.Session{UserID: "user-1", Email: email}, nil
	}

	t.Run("success", func(t *testing.T) {
		h := NewOAuthHandler(fakeExchanger{email: "dana@example.com"}, signIn, "state-1")
		router := NewBasicRouter()
		router.Handler(h)

		rec := do(t, router, httptest.NewRequest(http.MethodGet, OAuthCallbackPath+"?state=state-1&code=abc", nil))
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "dana@example.com") {
			t.Errorf("unexpected response %d:\n%s", rec.Code, rec.Body.String())
		}

		res := <-h.Result()
		if res.Error() != nil || res.Session == nil || res.Session.Email != "dana@example.com" {
			t.Errorf("unexpected result %+v", res)
		}

		again := do(t, router, httptest.NewRequest(http.MethodGet, OAuthCallbackPath+"?state=state-1&code=abc", nil))
		if again.Code != http.StatusBadRequest {
			t.Errorf("second callback should be rejected, got %d", again.Code)
		}
	})

	t.Run("bad state", func(t *testing.T) {
		h := NewOAuthHandler(fakeExchanger{email: "x@example.com"}, signIn, "expected")
		rec := do(t, h, httptest.NewRequest(http.MethodGet, OAuthCallbackPath+"?state=other&code=abc", nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if res := <-h.Result(); res.Error() == nil {
			t.Error("expected state error")
		}
	})

	t.Run("provider error param", func(t *testing.T) {
		h := NewOAuthHandler(fakeExchanger{}, signIn, "s")
		rec := do(t, h, httptest.NewRequest(http.MethodGet, OAuthCallbackPath+"?state=s&error=access_denied", nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		res := <-h.Result()
		if res.Error() == nil || !strings.Contains(res.Error().Error(), "access_denied") {
			t.Errorf("unexpected error %v", res.Error())
		}
	})

	t.Run("exchange failure", func(t *testing.T) {
		h := NewOAuthHandler(fakeExchanger{err: shared.ErrEmailNotConfirmed}, signIn, "s")
		rec := do(t, h, httptest.NewRequest(http.MethodGet, OAuthCallbackPath+"?state=s&code=abc", nil))
		if rec.Code != http.StatusBadGateway {
			t.Errorf("expected 502, got %d", rec.Code)
		}
		if res := <-h.Result(); !errors.Is(res.Error(), shared.ErrEmailNotConfirmed) {
			t.Errorf("unexpected error %v", res.Error())
		}
	})
}

func TestIsLocalPath(t *testing.T) {
	tests := map[string]bool{
		"/auth/login":          true,
		"/songs?x=1":           true,
		"":                     false,
		"auth/login":           false,
		"//evil.example":       false,
		`/\evil.example`:       false,
		"https://evil.example": false,
	}
	for target, want := range tests {
		if got := isLocalPath(target); got != want {
			t.Errorf("isLocalPath(%q) = %v, want %v", target, got, want)
		}
	}
}
