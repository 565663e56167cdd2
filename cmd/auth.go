package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/flutenotes/internal/auth"
	"github.com/desertthunder/flutenotes/internal/controller"
	"github.com/desertthunder/flutenotes/internal/models"
	"github.com/desertthunder/flutenotes/internal/server"
	"github.com/desertthunder/flutenotes/internal/shared"
)

const oauthTimeout = 2 * time.Minute

func (r *Runner) baseURL() string {
	return strings.TrimSuffix(r.config.Server.BaseURL, "/")
}

// AuthSignUp creates an unconfirmed account and mails its confirmation link.
func (r *Runner) AuthSignUp(ctx context.Context, cmd *cli.Command) error {
	email := cmd.String("email")
	password := cmd.String("password")
	if password == "" {
		return fmt.Errorf("%w: --password (or FLUTENOTES_PASSWORD) is required", shared.ErrMissingArgument)
	}

	if err := r.services(ctx); err != nil {
		return err
	}

	user, err := r.gateway.SignUp(ctx, email, password)
	if err != nil {
		return fmt.Errorf("sign up failed: %w", err)
	}

	checkEmail := r.baseURL() + server.CheckEmailPath + "?" + url.Values{"email": {user.Email}}.Encode()

	r.writePlain("✓ Account created for %s\n", user.Email)
	r.writePlainln("Check your email")
	r.writePlain("We sent a confirmation link to %s. Open it to activate your account.\n", user.Email)
	r.writePlain("Didn't get it? Run 'flutenotes auth resend --email %s' or visit %s\n", user.Email, checkEmail)
	return nil
}

// AuthLogin signs in with a password or, with --oauth, through the configured identity provider.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if err := r.services(ctx); err != nil {
		return err
	}

	if cmd.Bool("oauth") {
		session, err := r.oauthLogin(ctx)
		if err != nil {
			return err
		}
		return r.writePlain("✓ Signed in as %s\n", session.Email)
	}

	email := cmd.String("email")
	password := cmd.String("password")
	if email == "" || password == "" {
		return fmt.Errorf("%w: --email and --password are required (or use --oauth)", shared.ErrMissingArgument)
	}

	session, err := r.gateway.SignIn(ctx, email, password)
	switch {
	case errors.Is(err, shared.ErrEmailNotConfirmed):
		return fmt.Errorf("%w: open the link in your confirmation email or run 'flutenotes auth resend --email %s'", err, email)
	case err != nil:
		return fmt.Errorf("sign in failed: %w", err)
	}

	r.logger.Debug("credentials saved", "path", r.gateway.CredentialsPath())
	return r.writePlain("✓ Signed in as %s\n", session.Email)
}

// oauthLogin runs the authorization code flow against a short-lived callback listener.
func (r *Runner) oauthLogin(ctx context.Context) (*models.Session, error) {
	provider, err := auth.NewOAuthProvider(r.config.Auth.OAuth)
	if err != nil {
		return nil, err
	}

	state := shared.GenerateID()
	oauthHandler := server.NewOAuthHandler(provider, r.gateway.SignInWithOAuth, state)
	router := server.NewBasicRouter()
	router.Use(server.Recover(r.logger), server.Logging(r.logger))
	router.Handler(oauthHandler)

	serveCtx, stop := context.WithCancel(ctx)
	defer stop()

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Serve(serveCtx, server.New(r.config.Server.Addr(), router), r.logger)
	}()

	authURL := provider.AuthCodeURL(state)
	r.writePlain("→ Opening browser to sign in...\n")
	if err := r.openBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(oauthTimeout)
	defer timeout.Stop()

	var result server.OAuthResult
	select {
	case result = <-oauthHandler.Result():
	case err := <-serverErrors:
		if err == nil {
			err = fmt.Errorf("callback server stopped")
		}
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		stop()
		<-serverErrors
		return nil, fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	case <-ctx.Done():
		<-serverErrors
		return nil, ctx.Err()
	}

	stop()
	if err := <-serverErrors; err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}

	if err := result.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
	}
	return result.Session, nil
}

// AuthLogout revokes the session and removes the saved credentials.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if err := r.services(ctx); err != nil {
		return err
	}

	if err := r.gateway.SignOut(ctx); err != nil {
		return fmt.Errorf("sign out failed: %w", err)
	}
	return r.writePlain("✓ Signed out\n")
}

type statusOutput struct {
	SignedIn  bool       `json:"signed_in"`
	Email     string     `json:"email,omitempty"`
	UserID    string     `json:"user_id,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// AuthStatus reports the signed-in account, refreshing an expired access token when possible.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.services(ctx); err != nil {
		return err
	}

	session, err := r.gateway.CurrentSession(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrNotAuthenticated, err)
	}

	out := statusOutput{}
	if session != nil {
		out = statusOutput{SignedIn: true, Email: session.Email, UserID: session.UserID, ExpiresAt: &session.ExpiresAt}
	}

	if cmd.Bool("json") {
		return r.writeJSON(out, cmd.Bool("pretty"))
	}

	if !out.SignedIn {
		r.writePlain("✗ Not signed in\n")
		return r.writePlain("Run 'flutenotes auth login' to sign in (%s)\n", r.baseURL()+controller.LoginRoute)
	}

	r.writePlain("✓ Signed in as %s\n", session.Email)
	r.writePlain("Session expires: %s\n", session.ExpiresAt.Local().Format(time.RFC1123))
	return nil
}

// AuthResend mails a fresh confirmation link for an unconfirmed signup.
func (r *Runner) AuthResend(ctx context.Context, cmd *cli.Command) error {
	email := cmd.String("email")

	if err := r.services(ctx); err != nil {
		return err
	}

	if err := r.gateway.ResendConfirmation(ctx, auth.KindSignup, email, r.baseURL()+server.CallbackPath); err != nil {
		r.logger.Error("resend failed", "error", err)
		return fmt.Errorf("%s %w", server.MsgResendFailed, err)
	}
	return r.writePlain("✓ %s\n", server.MsgResendSuccess)
}

// AuthConfirm redeems the code from a confirmation link.
func (r *Runner) AuthConfirm(ctx context.Context, cmd *cli.Command) error {
	code := cmd.StringArg("code")
	if code == "" {
		return fmt.Errorf("%w: confirmation code is required", shared.ErrMissingArgument)
	}

	if err := r.services(ctx); err != nil {
		return err
	}

	user, err := r.gateway.Confirm(ctx, code)
	if err != nil {
		return fmt.Errorf("confirmation failed: %w", err)
	}

	r.writePlain("✓ Email confirmed for %s\n", user.Email)
	return r.writePlain("You can now sign in with 'flutenotes auth login --email %s'\n", user.Email)
}
