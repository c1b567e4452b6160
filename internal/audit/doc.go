// Package audit implements async delivery of activity events (login, logout,
// signup, refresh).
//
// # Components
//
//   - [Sink]: event consumer (channel, JSON writer, no-op; the SQL activity
//     log lives in storage/sqlstore).
//   - [Dispatcher]: buffered async relay with drop-if-full / block-if-full semantics.
//   - [Event]: activity record with timestamp, type, user, IP and metadata.
//
// # Architecture boundaries
//
// This package owns event buffering and sink delivery. It does NOT decide which
// events to emit; the Engine does. A failing sink never fails the operation
// that produced the event: failures are counted and reported to the
// dispatcher's error hook.
package audit
