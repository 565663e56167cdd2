package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/flutenotes/internal/shared"
)

// Confirmation is a single-use code proving control of an email address.
type Confirmation struct {
	Token     string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
	UsedAt    *time.Time
}

// ConfirmationRepository stores email confirmation codes.
type ConfirmationRepository struct {
	db *sql.DB
}

// NewConfirmationRepository creates a new [ConfirmationRepository] with the given database connection
func NewConfirmationRepository(db *sql.DB) *ConfirmationRepository {
	return &ConfirmationRepository{db: db}
}

// Create stores c.
func (r *ConfirmationRepository) Create(ctx context.Context, c Confirmation) error {
	query := `INSERT INTO confirmations (token, user_id, expires_at, created_at) VALUES (?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, c.Token, c.UserID, formatTime(c.ExpiresAt), formatTime(c.CreatedAt))
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: confirmation token reused", shared.ErrConflict)
	}
	if err != nil {
		return storeErr("insert confirmation", err)
	}
	return nil
}

// Consume marks token used at now and returns the user it confirms.
//
// Unknown, used and expired codes all fail with [shared.ErrInvalidInput].
func (r *ConfirmationRepository) Consume(ctx context.Context, token string, now time.Time) (string, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", storeErr("begin confirmation", err)
	}
	defer tx.Rollback()

	var (
		userID  string
		expires string
		used    sql.NullString
	)
	err = tx.QueryRowContext(ctx, `SELECT user_id, expires_at, used_at FROM confirmations WHERE token = ?`, token).
		Scan(&userID, &expires, &used)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: unknown confirmation code", shared.ErrInvalidInput)
	}
	if err != nil {
		return "", storeErr("query confirmation", err)
	}

	if used.Valid {
		return "", fmt.Errorf("%w: confirmation code already used", shared.ErrInvalidInput)
	}

	expiresAt, err := parseTime(expires)
	if err != nil {
		return "", storeErr("parse expires_at", err)
	}
	if !now.Before(expiresAt) {
		return "", fmt.Errorf("%w: confirmation code expired", shared.ErrInvalidInput)
	}

	if _, err := tx.ExecContext(ctx, `UPDATE confirmations SET used_at = ? WHERE token = ?`, formatTime(now), token); err != nil {
		return "", storeErr("mark confirmation used", err)
	}

	if err := tx.Commit(); err != nil {
		return "", storeErr("commit confirmation", err)
	}
	return userID, nil
}

// LatestFor returns the most recently issued code for userID.
func (r *ConfirmationRepository) LatestFor(ctx context.Context, userID string) (Confirmation, error) {
	var (
		c                  Confirmation
		expires, createdAt string
		used               sql.NullString
	)

	query := `
		SELECT token, user_id, expires_at, created_at, used_at
		FROM confirmations
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT 1
	`
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&c.Token, &c.UserID, &expires, &createdAt, &used)
	if errors.Is(err, sql.ErrNoRows) {
		return c, fmt.Errorf("%w: no confirmation for %s", shared.ErrUserNotFound, userID)
	}
	if err != nil {
		return c, storeErr("query confirmation", err)
	}

	if c.ExpiresAt, err = parseTime(expires); err != nil {
		return c, storeErr("parse expires_at", err)
	}
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return c, storeErr("parse created_at", err)
	}
	if c.UsedAt, err = parseNullTime(used); err != nil {
		return c, storeErr("parse used_at", err)
	}
	return c, nil
}
