// Package session persists refresh-token records in Redis and defines the
// compact binary encoding used for them.
//
// # Key layout
//
//	<prefix>:<tokenID>   encoded Record, expires with the refresh token
//	<prefix>u:<userID>   set of tokenIDs owned by the user
//
// A record exists in the store iff the corresponding refresh token may still
// be honored. Records are created once and deleted, never updated.
//
// # What this package must NOT do
//
//   - Import goSession or jwt (no upward imports).
//   - Verify token signatures or make authorization decisions.
package session
