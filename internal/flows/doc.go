// Package flows contains pure-function orchestrators for every Engine operation.
//
// Each flow function (RunVerifyCredentials, RunIssue, RunLogin, RunRefresh,
// RunLogout, RunSignup, RunGate) accepts a typed dependency struct and returns
// a result value carrying a Failure kind. The root package maps failure kinds
// to its public sentinel errors, metrics and activity events.
//
// # Architecture boundaries
//
// Flow functions coordinate calls to the credential store, session store, JWT
// manager and rate limiter. They do NOT own any of these resources; ownership
// stays with the Engine. Flows never log and never emit events.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import goSession (to avoid import cycles).
//   - Perform I/O directly. All I/O is mediated through dependency funcs.
package flows
