// Package auth implements the session gateway for flutenotes.
//
// [LocalGateway] keeps accounts, sessions and confirmation codes in SQLite and stores the signed-in
// token pair in a credentials file so separate CLI invocations share one session. It announces
// SIGNED_IN, TOKEN_REFRESHED and SIGNED_OUT to subscribers; [LocalGateway.Watch] turns changes made by
// other processes (a `flutenotes auth logout` while the TUI is open) into the same announcements.
//
// Email confirmation links are delivered by a [Mailer]: [LogMailer] logs them, [ShoutrrrMailer] sends them
// over SMTP. [OAuthProvider] adds an authorization code sign-in against any provider with a userinfo endpoint.
package auth
