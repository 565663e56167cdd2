package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/flutenotes/internal/shared"
)

// SessionRecord is one issued token pair.
type SessionRecord struct {
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token"`
	UserID           string    `json:"user_id"`
	ExpiresAt        time.Time `json:"expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
	CreatedAt        time.Time `json:"created_at"`
}

// SessionRepository stores token pairs issued by the session gateway.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new [SessionRepository] with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `access_token, refresh_token, user_id, expires_at, refresh_expires_at, created_at`

// Create stores rec.
func (r *SessionRepository) Create(ctx context.Context, rec SessionRecord) error {
	return insertSession(ctx, r.db, rec)
}

// GetByAccessToken returns the session holding token or [shared.ErrSessionExpired] when none does.
func (r *SessionRepository) GetByAccessToken(ctx context.Context, token string) (SessionRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE access_token = ?`, token)
	return scanSession(row)
}

// GetByRefreshToken returns the session holding refresh token or [shared.ErrSessionExpired].
func (r *SessionRepository) GetByRefreshToken(ctx context.Context, token string) (SessionRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE refresh_token = ?`, token)
	return scanSession(row)
}

// Rotate atomically replaces the session identified by oldAccess with next.
//
// It fails with [shared.ErrSessionExpired] when oldAccess was already rotated or deleted.
func (r *SessionRepository) Rotate(ctx context.Context, oldAccess string, next SessionRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("begin rotation", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE access_token = ?`, oldAccess)
	if err != nil {
		return storeErr("delete rotated session", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return shared.ErrSessionExpired
	}

	if err := insertSession(ctx, tx, next); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return storeErr("commit rotation", err)
	}
	return nil
}

// Delete removes the session holding the access token. Missing sessions are ignored.
func (r *SessionRepository) Delete(ctx context.Context, accessToken string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE access_token = ?`, accessToken); err != nil {
		return storeErr("delete session", err)
	}
	return nil
}

// DeleteExpired removes sessions whose refresh token lapsed before now and reports how many went.
func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE refresh_expires_at <= ?`, formatTime(now))
	if err != nil {
		return 0, storeErr("delete expired sessions", err)
	}
	return result.RowsAffected()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertSession(ctx context.Context, db execer, rec SessionRecord) error {
	query := `INSERT INTO sessions (` + sessionColumns + `) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := db.ExecContext(ctx, query,
		rec.AccessToken,
		rec.RefreshToken,
		rec.UserID,
		formatTime(rec.ExpiresAt),
		formatTime(rec.RefreshExpiresAt),
		formatTime(rec.CreatedAt),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: session token reused", shared.ErrConflict)
	}
	if err != nil {
		return storeErr("insert session", err)
	}
	return nil
}

func scanSession(row *sql.Row) (SessionRecord, error) {
	var (
		rec                         SessionRecord
		expires, refresh, createdAt string
	)

	err := row.Scan(&rec.AccessToken, &rec.RefreshToken, &rec.UserID, &expires, &refresh, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, shared.ErrSessionExpired
	}
	if err != nil {
		return rec, storeErr("query session", err)
	}

	if rec.ExpiresAt, err = parseTime(expires); err != nil {
		return rec, storeErr("parse expires_at", err)
	}
	if rec.RefreshExpiresAt, err = parseTime(refresh); err != nil {
		return rec, storeErr("parse refresh_expires_at", err)
	}
	if rec.CreatedAt, err = parseTime(createdAt); err != nil {
		return rec, storeErr("parse created_at", err)
	}
	return rec, nil
}
