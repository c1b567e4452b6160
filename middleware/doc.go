// Package middleware adapts goSession.Engine to net/http.
//
// # Middleware
//
//   - [Gate] runs the per-request gate and turns a redirect decision into an
//     HTTP redirect (307 by default).
//   - [RequireIdentity] verifies the access cookie, or a Bearer header, and
//     answers 401 instead of redirecting. Use it for JSON endpoints.
//   - [ClientIP] records the caller's address for throttling and activity.
//
// Each one injects the verified identity into the request context; read it
// back with [IdentityFromContext].
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It never parses
// tokens or touches a store itself.
package middleware
