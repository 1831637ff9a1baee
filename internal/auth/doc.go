// Package auth wraps the backend auth service in named operations and holds
// the HTTP-side session plumbing.
//
// # Operations
//
// Operations exposes sign-up, sign-in, sign-out, password reset and update,
// session lookup and auth-change subscriptions. Every failure is logged and
// returned wrapped; the backend code stays reachable through backend.CodeOf:
//
//	ops := auth.NewOperations(client.Auth, cfg.HTTP.SiteURL, log)
//	resp, err := ops.SignIn(ctx, email, password)
//	if backend.IsCode(err, backend.CodeInvalidCredentials) { ... }
//
// # Browser Sessions
//
// SessionManager keeps a per-browser state id and the backend tokens in an
// scs session backed by its own SQLite file (SESSION_DB_PATH). CSRFMiddleware
// guards cookie-authenticated writes; requests carrying a valid bearer
// token skip it. SecurityHeadersMiddleware and SignInLimiter complete the
// HTTP hardening.
package auth
