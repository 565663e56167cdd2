package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/flutenotes/internal/models"
	"github.com/desertthunder/flutenotes/internal/shared"
)

// UserRepository persists local accounts.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new [UserRepository] with the given database connection
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, sequence, email, password_hash, provider, confirmed_at, created_at, updated_at`

// Create inserts a new user with a generated ID and sequence.
//
// A second account for the same address fails with [shared.ErrEmailTaken].
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	user.Email = models.NormalizeEmail(user.Email)
	if err := user.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	sequence, err := NextSequence(ctx, r.db, "users")
	if err != nil {
		return storeErr("generate sequence", err)
	}

	id := shared.GenerateID()

	var confirmed sql.NullString
	if user.ConfirmedAt != nil {
		confirmed = sql.NullString{String: formatTime(*user.ConfirmedAt), Valid: true}
	}

	query := `INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		id,
		sequence,
		user.Email,
		user.PasswordHash,
		user.Provider,
		confirmed,
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", shared.ErrEmailTaken, user.Email)
	}
	if err != nil {
		return storeErr("insert user", err)
	}

	user.ID = id
	user.Sequence = sequence
	return nil
}

// Get retrieves a user by ID.
func (r *UserRepository) Get(ctx context.Context, id string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return r.scanOne(row, id)
}

// GetByEmail retrieves a user by address, ignoring case and surrounding whitespace.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	email = models.NormalizeEmail(email)
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return r.scanOne(row, email)
}

// Confirm marks the user's address as verified at the given time. Confirming twice keeps the first time.
func (r *UserRepository) Confirm(ctx context.Context, id string, at time.Time) error {
	query := `
		UPDATE users
		SET confirmed_at = COALESCE(confirmed_at, ?), updated_at = ?
		WHERE id = ?
	`
	result, err := r.db.ExecContext(ctx, query, formatTime(at), formatTime(at), id)
	if err != nil {
		return storeErr("confirm user", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return storeErr("get affected rows", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrUserNotFound, id)
	}
	return nil
}

func (r *UserRepository) scanOne(row *sql.Row, key string) (*models.User, error) {
	var (
		user      models.User
		confirmed sql.NullString
		createdAt string
		updatedAt string
	)

	err := row.Scan(&user.ID, &user.Sequence, &user.Email, &user.PasswordHash, &user.Provider, &confirmed, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrUserNotFound, key)
	}
	if err != nil {
		return nil, storeErr("query user", err)
	}

	if user.ConfirmedAt, err = parseNullTime(confirmed); err != nil {
		return nil, storeErr("parse confirmed_at", err)
	}
	if user.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, storeErr("parse created_at", err)
	}
	if user.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, storeErr("parse updated_at", err)
	}
	return &user, nil
}
