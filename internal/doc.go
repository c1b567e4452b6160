// Package internal contains helpers private to goSession: identifier
// generation and constant-time token comparison.
//
// # Sub-packages
//
//   - audit: async activity-event dispatch (Dispatcher + Sink implementations)
//   - flows: pure-function orchestrators for every Engine operation
//   - logging: slog-backed structured logger
//   - rate: Redis-backed login and refresh throttles
package internal
