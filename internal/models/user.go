package models

import (
	"fmt"
	"strings"
	"time"
)

const (
	ProviderEmail = "email"
	ProviderOAuth = "oauth"
)

// User is a local account. PasswordHash is empty for accounts created through an OAuth provider.
type User struct {
	ID           string
	Sequence     int
	Email        string
	PasswordHash string
	Provider     string
	ConfirmedAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewUser creates an unconfirmed user for email. The repository assigns ID and Sequence.
func NewUser(email, passwordHash, provider string) *User {
	now := time.Now().UTC()
	return &User{
		Email:        NormalizeEmail(email),
		PasswordHash: passwordHash,
		Provider:     provider,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Confirmed reports whether the email address has been verified.
func (u *User) Confirmed() bool {
	return u.ConfirmedAt != nil
}

// Validate checks that the user has an address that looks deliverable.
func (u *User) Validate() error {
	if !strings.Contains(u.Email, "@") {
		return fmt.Errorf("invalid email %q", u.Email)
	}
	if u.Provider == "" {
		return fmt.Errorf("provider is required")
	}
	return nil
}

// NormalizeEmail trims and lower-cases an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
