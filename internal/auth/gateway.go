package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/patrickmn/go-cache"
	"golang.org/x/crypto/bcrypt"

	"github.com/desertthunder/flutenotes/internal/models"
	"github.com/desertthunder/flutenotes/internal/repositories"
	"github.com/desertthunder/flutenotes/internal/shared"
)

const (
	// KindSignup is the only confirmation kind the gateway re-sends.
	KindSignup = "signup"

	minPasswordLength = 6
	confirmationTTL   = 24 * time.Hour
	callbackPath      = "/auth/callback"
)

// Options tunes a [LocalGateway].
type Options struct {
	SessionTTL      time.Duration
	RefreshTTL      time.Duration
	ResendCooldown  time.Duration
	CredentialsPath string
	BaseURL         string
	BcryptCost      int
	Now             func() time.Time
}

// OptionsFromConfig maps the [auth] and [server] config sections onto [Options].
func OptionsFromConfig(cfg *shared.Config) (Options, error) {
	path, err := shared.ExpandPath(cfg.Auth.CredentialsPath)
	if err != nil {
		return Options{}, err
	}

	return Options{
		SessionTTL:      cfg.Auth.SessionTTL.Duration,
		RefreshTTL:      cfg.Auth.RefreshTTL.Duration,
		ResendCooldown:  cfg.Auth.ResendCooldown.Duration,
		CredentialsPath: path,
		BaseURL:         cfg.Server.BaseURL,
		BcryptCost:      cfg.Auth.BcryptCost,
	}, nil
}

type subscription struct {
	id       int
	listener models.SessionListener
}

// LocalGateway implements [models.SessionGateway] over SQLite accounts and a local credentials file.
//
// Listeners run synchronously in registration order on the goroutine that caused the transition,
// never while the gateway lock is held.
type LocalGateway struct {
	users         *repositories.UserRepository
	sessions      *repositories.SessionRepository
	confirmations *repositories.ConfirmationRepository
	creds         *CredentialStore
	mailer        Mailer
	cooldown      *cache.Cache
	opts          Options
	logger        *log.Logger

	// refresh serializes credential lookups so concurrent callers cannot race one rotation.
	refresh sync.Mutex

	mu        sync.Mutex
	subs      []subscription
	nextSub   int
	announced string
}

// NewLocalGateway creates a gateway over db. Zero durations fall back to one hour sessions,
// thirty day refresh tokens and a one minute resend cooldown.
func NewLocalGateway(db *sql.DB, mailer Mailer, opts Options, logger *log.Logger) *LocalGateway {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = time.Hour
	}
	if opts.RefreshTTL <= 0 {
		opts.RefreshTTL = 30 * 24 * time.Hour
	}
	if opts.ResendCooldown <= 0 {
		opts.ResendCooldown = time.Minute
	}
	if opts.BcryptCost < bcrypt.MinCost || opts.BcryptCost > bcrypt.MaxCost {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &LocalGateway{
		users:         repositories.NewUserRepository(db),
		sessions:      repositories.NewSessionRepository(db),
		confirmations: repositories.NewConfirmationRepository(db),
		creds:         NewCredentialStore(opts.CredentialsPath),
		mailer:        mailer,
		cooldown:      cache.New(opts.ResendCooldown, 0),
		opts:          opts,
		logger:        shared.WithLogger(logger, "component", "auth"),
	}
}

func (g *LocalGateway) now() time.Time {
	return g.opts.Now().UTC().Truncate(time.Microsecond)
}

// SignUp registers an unconfirmed account and mails a confirmation link.
func (g *LocalGateway) SignUp(ctx context.Context, email, password string) (*models.User, error) {
	email = models.NormalizeEmail(email)
	if !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: email address must contain @", shared.ErrInvalidInput)
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", shared.ErrInvalidInput, minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), g.opts.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to hash password: %v", shared.ErrAuthFailed, err)
	}

	user := models.NewUser(email, string(hash), models.ProviderEmail)
	user.CreatedAt, user.UpdatedAt = g.now(), g.now()
	if err := g.users.Create(ctx, user); err != nil {
		return nil, err
	}

	if err := g.sendConfirmation(ctx, user, ""); err != nil {
		return user, err
	}

	g.logger.Info("account created", "user_id", user.ID, "email", user.Email)
	return user, nil
}

// SignIn verifies a password and starts a session.
//
// Unknown addresses and wrong passwords both fail with [shared.ErrInvalidCredentials].
func (g *LocalGateway) SignIn(ctx context.Context, email, password string) (*models.Session, error) {
	user, err := g.users.GetByEmail(ctx, email)
	if errors.Is(err, shared.ErrUserNotFound) {
		return nil, shared.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if user.PasswordHash == "" {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !user.Confirmed() {
		return nil, shared.ErrEmailNotConfirmed
	}

	return g.startSession(ctx, user)
}

// SignInWithOAuth starts a session for an address an identity provider has verified,
// creating a confirmed account on first use.
func (g *LocalGateway) SignInWithOAuth(ctx context.Context, email string) (*models.Session, error) {
	now := g.now()

	user, err := g.users.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, shared.ErrUserNotFound):
		user = models.NewUser(email, "", models.ProviderOAuth)
		user.ConfirmedAt = &now
		user.CreatedAt, user.UpdatedAt = now, now
		if err := g.users.Create(ctx, user); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	case !user.Confirmed():
		if err := g.users.Confirm(ctx, user.ID, now); err != nil {
			return nil, err
		}
		user.ConfirmedAt = &now
	}

	return g.startSession(ctx, user)
}

func (g *LocalGateway) startSession(ctx context.Context, user *models.User) (*models.Session, error) {
	now := g.now()

	if n, err := g.sessions.DeleteExpired(ctx, now); err != nil {
		g.logger.Warn("failed to prune sessions", "error", err)
	} else if n > 0 {
		g.logger.Debug("pruned expired sessions", "count", n)
	}

	rec := g.newRecord(user.ID, now)
	if err := g.sessions.Create(ctx, rec); err != nil {
		return nil, err
	}

	if err := g.creds.Save(g.credentialsFor(rec, user.Email)); err != nil {
		return nil, err
	}

	session := projection(rec, user.Email)
	g.logger.Info("signed in", "user_id", user.ID)
	g.announce(models.EventSignedIn, rec.AccessToken, session)
	return session, nil
}

// CurrentSession resolves the saved credentials.
//
// An expired access token is rotated while its refresh token is still valid, announcing
// [models.EventTokenRefreshed]. When both have lapsed, or the session was revoked, the result is nil.
func (g *LocalGateway) CurrentSession(ctx context.Context) (*models.Session, error) {
	session, token, err := g.resolve(ctx)
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	if g.announced == "" {
		g.announced = token
	}
	g.mu.Unlock()
	return session, nil
}

func (g *LocalGateway) resolve(ctx context.Context) (*models.Session, string, error) {
	g.refresh.Lock()
	session, token, refreshed, err := g.lookup(ctx)
	g.refresh.Unlock()
	if err != nil {
		return nil, "", err
	}

	if refreshed {
		g.logger.Debug("session refreshed", "user_id", session.UserID)
		g.announce(models.EventTokenRefreshed, token, session)
	}
	return session, token, nil
}

// lookup reads the credentials file and rotates an expired access token. Callers hold g.refresh.
func (g *LocalGateway) lookup(ctx context.Context) (*models.Session, string, bool, error) {
	creds, err := g.creds.Load()
	if err != nil {
		return nil, "", false, err
	}
	if creds == nil {
		return nil, "", false, nil
	}

	rec, err := g.sessions.GetByAccessToken(ctx, creds.AccessToken)
	if errors.Is(err, shared.ErrSessionExpired) {
		g.discardCredentials()
		return nil, "", false, nil
	}
	if err != nil {
		return nil, "", false, err
	}

	now := g.now()
	if now.Before(rec.ExpiresAt) {
		return projection(rec, creds.Email), rec.AccessToken, false, nil
	}

	if !now.Before(rec.RefreshExpiresAt) {
		if err := g.sessions.Delete(ctx, rec.AccessToken); err != nil {
			g.logger.Warn("failed to delete lapsed session", "error", err)
		}
		g.discardCredentials()
		return nil, "", false, nil
	}

	next := g.newRecord(rec.UserID, now)
	if err := g.sessions.Rotate(ctx, rec.AccessToken, next); err != nil {
		if errors.Is(err, shared.ErrSessionExpired) {
			// Another process may have rotated first and saved its tokens.
			if latest, lerr := g.creds.Load(); lerr == nil && latest != nil && latest.AccessToken != creds.AccessToken {
				return g.lookup(ctx)
			}
			g.discardCredentials()
			return nil, "", false, nil
		}
		return nil, "", false, err
	}
	if err := g.creds.Save(g.credentialsFor(next, creds.Email)); err != nil {
		return nil, "", false, err
	}

	return projection(next, creds.Email), next.AccessToken, true, nil
}

// Subscribe registers listener for session transitions until the returned function is called.
func (g *LocalGateway) Subscribe(listener models.SessionListener) func() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.nextSub++
	id := g.nextSub
	g.subs = append(g.subs, subscription{id: id, listener: listener})

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			defer g.mu.Unlock()
			for i, s := range g.subs {
				if s.id == id {
					g.subs = append(g.subs[:i:i], g.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Watch polls the saved session every interval until ctx is done, announcing sign-outs, sign-ins
// and token changes made by other processes.
func (g *LocalGateway) Watch(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 5 * time.Second
	}

	if _, token, err := g.resolve(ctx); err == nil {
		g.mu.Lock()
		if g.announced == "" {
			g.announced = token
		}
		g.mu.Unlock()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			g.poll(ctx)
		}
	}
}

func (g *LocalGateway) poll(ctx context.Context) {
	session, token, err := g.resolve(ctx)
	if err != nil {
		g.logger.Warn("session poll failed", "error", err)
		return
	}

	g.mu.Lock()
	last := g.announced
	g.mu.Unlock()

	switch {
	case token == last:
	case session == nil:
		g.announce(models.EventSignedOut, "", nil)
	case last == "":
		g.announce(models.EventSignedIn, token, session)
	default:
		g.announce(models.EventTokenRefreshed, token, session)
	}
}

// SignOut revokes the current session and removes the saved credentials. Signing out twice is not an error.
func (g *LocalGateway) SignOut(ctx context.Context) error {
	creds, err := g.creds.Load()
	if err != nil {
		g.logger.Warn("failed to read credentials during sign out", "error", err)
	}

	var revokeErr error
	if creds != nil {
		revokeErr = g.sessions.Delete(ctx, creds.AccessToken)
	}

	if err := g.creds.Clear(); err != nil {
		return err
	}

	g.logger.Info("signed out")
	g.announce(models.EventSignedOut, "", nil)
	return revokeErr
}

// ResendConfirmation mails a fresh confirmation link for an unconfirmed signup.
//
// Unknown and already confirmed addresses succeed without sending anything. Repeated requests for the
// same address within the cooldown fail with [shared.ErrRateLimited].
func (g *LocalGateway) ResendConfirmation(ctx context.Context, kind, address, redirectTo string) error {
	if kind != KindSignup {
		return fmt.Errorf("%w: unsupported confirmation kind %q", shared.ErrInvalidInput, kind)
	}

	address = models.NormalizeEmail(address)
	if !strings.Contains(address, "@") {
		return fmt.Errorf("%w: email address must contain @", shared.ErrInvalidInput)
	}

	g.cooldown.DeleteExpired()
	if _, found := g.cooldown.Get(address); found {
		return fmt.Errorf("%w: wait before requesting another email", shared.ErrRateLimited)
	}

	user, err := g.users.GetByEmail(ctx, address)
	switch {
	case errors.Is(err, shared.ErrUserNotFound):
		g.logger.Debug("resend requested for unknown address")
		g.cooldown.SetDefault(address, struct{}{})
		return nil
	case err != nil:
		return err
	case user.Confirmed():
		g.cooldown.SetDefault(address, struct{}{})
		return nil
	}

	if err := g.sendConfirmation(ctx, user, redirectTo); err != nil {
		return err
	}
	g.cooldown.SetDefault(address, struct{}{})
	return nil
}

// Confirm redeems a confirmation code and returns the now confirmed account.
func (g *LocalGateway) Confirm(ctx context.Context, code string) (*models.User, error) {
	now := g.now()

	userID, err := g.confirmations.Consume(ctx, strings.TrimSpace(code), now)
	if err != nil {
		return nil, err
	}
	if err := g.users.Confirm(ctx, userID, now); err != nil {
		return nil, err
	}

	g.logger.Info("email confirmed", "user_id", userID)
	return g.users.Get(ctx, userID)
}

// ConfirmationLink builds the landing URL for code. redirectTo, when set, is carried as "next".
func (g *LocalGateway) ConfirmationLink(code, redirectTo string) string {
	q := url.Values{"code": {code}}
	if redirectTo != "" {
		q.Set("next", redirectTo)
	}
	return strings.TrimSuffix(g.opts.BaseURL, "/") + callbackPath + "?" + q.Encode()
}

// CredentialsPath returns where the session tokens are saved.
func (g *LocalGateway) CredentialsPath() string {
	return g.creds.Path()
}

func (g *LocalGateway) sendConfirmation(ctx context.Context, user *models.User, redirectTo string) error {
	now := g.now()
	c := repositories.Confirmation{
		Token:     shared.GenerateID(),
		UserID:    user.ID,
		ExpiresAt: now.Add(confirmationTTL),
		CreatedAt: now,
	}
	if err := g.confirmations.Create(ctx, c); err != nil {
		return err
	}

	msg := Message{
		To:      user.Email,
		Subject: "Confirm your flutenotes account",
		Body:    "Follow this link to confirm your email address:\n\n" + g.ConfirmationLink(c.Token, redirectTo),
	}
	if err := g.mailer.Send(ctx, msg); err != nil {
		g.logger.Error("failed to send confirmation", "user_id", user.ID, "error", err)
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	return nil
}

func (g *LocalGateway) newRecord(userID string, now time.Time) repositories.SessionRecord {
	return repositories.SessionRecord{
		AccessToken:      shared.GenerateID(),
		RefreshToken:     shared.GenerateID(),
		UserID:           userID,
		ExpiresAt:        now.Add(g.opts.SessionTTL),
		RefreshExpiresAt: now.Add(g.opts.RefreshTTL),
		CreatedAt:        now,
	}
}

func (g *LocalGateway) credentialsFor(rec repositories.SessionRecord, email string) Credentials {
	return Credentials{
		AccessToken:  rec.AccessToken,
		RefreshToken: rec.RefreshToken,
		UserID:       rec.UserID,
		Email:        email,
		ExpiresAt:    rec.ExpiresAt,
	}
}

func (g *LocalGateway) discardCredentials() {
	if err := g.creds.Clear(); err != nil {
		g.logger.Warn("failed to clear credentials", "error", err)
	}
}

// announce records token as the last announced session and notifies listeners outside the lock.
func (g *LocalGateway) announce(event models.AuthEvent, token string, session *models.Session) {
	g.mu.Lock()
	g.announced = token
	subs := append([]subscription(nil), g.subs...)
	g.mu.Unlock()

	for _, s := range subs {
		var copied *models.Session
		if session != nil {
			c := *session
			copied = &c
		}
		s.listener(event, copied)
	}
}

func projection(rec repositories.SessionRecord, email string) *models.Session {
	return &models.Session{UserID: rec.UserID, Email: email, ExpiresAt: rec.ExpiresAt}
}
