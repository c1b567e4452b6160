// Package goSession provides cookie-based session authentication: password
// login, stateless JWT access tokens, revocable refresh tokens backed by a
// session store, logout, and a per-request gate that classifies paths and
// redirects unauthenticated users.
//
// An [Engine] is assembled once with [Builder] and is safe for concurrent
// use afterwards.
//
// # Architecture boundaries
//
// goSession is the public surface. It exposes [Engine], [Builder], [Config],
// [RequestContext] and the value types returned by Engine methods. Flow
// orchestration, rate limiting, activity dispatch and logging live under
// internal/ and are never exported. Storage is pluggable through
// [CredentialStore] and [SessionStore]; the session package ships a Redis
// implementation and storage/sqlstore ships SQL ones.
//
// # Tokens
//
// Access tokens carry {id, email} and live 15 minutes by default. Refresh
// tokens carry {id, tokenId} and live 7 days. Each type has its own secret;
// Build fails with [ErrConfig] when either is missing or both are equal. A
// refresh token is honored only while a record for its tokenId exists in the
// session store, so logout revokes every refresh token of the user at once.
//
// # Gate
//
// [Engine.Gate] performs no I/O. Auth pages (/login, /signup) are checked
// first, then protected paths, then public ones; a prefix matches when the
// path equals it or continues it with "/". An engine that was never built
// redirects everything to /login.
package goSession
