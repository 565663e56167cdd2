// Package server hosts the browser-facing side of account confirmation and OAuth sign-in.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support. [BasicRouter] registers
// "METHOD /path" patterns on an [http.ServeMux]; [Middleware] is applied so the first added runs outermost.
// [Logging] and [Recover] are the stock middleware.
//
// # Landing Pages
//
// [AuthHandler] serves:
//
//	GET  /auth/callback         redeem ?code=, then follow ?next= (local paths only) or show a confirmation page
//	GET  /auth/check-email      post-signup page; ?email= is remembered in a cookie session
//	POST /auth/resend           reissue the confirmation for the posted, queried or remembered address
//	GET  /auth/auth-code-error  invalid, expired or used confirmation link
//
// Pages are rendered from embedded html/template files.
//
// # OAuth Callback Handler
//
// [OAuthHandler] completes `flutenotes auth login --oauth`: a temporary server on the configured address
// receives the provider redirect, validates state, exchanges the code for a verified email and signs the
// user in. It only processes one callback.
package server
