// Package repositories implements SQLite persistence for all domain entities.
//
// Key Implementations:
//   - [SongRepository] : the collection store; every query is scoped by owner
//   - [UserRepository] : local accounts with case-insensitive email lookups
//   - [SessionRepository] : access/refresh token pairs issued by the session gateway
//   - [ConfirmationRepository] : single-use email confirmation codes
//
// Timestamps are stored as fixed-width UTC text (see [shared.TimestampLayout]) so that ORDER BY on the
// column sorts chronologically. Driver failures are wrapped around [shared.ErrStore]; lookups that find
// nothing return the matching not-found sentinel.
package repositories
