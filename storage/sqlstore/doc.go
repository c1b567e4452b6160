// Package sqlstore provides SQL implementations of goSession.CredentialStore,
// goSession.SessionStore and the activity sink, over SQLite
// (modernc.org/sqlite) or PostgreSQL (pgx stdlib).
//
// Queries are written with "?" placeholders and rebound to "$n" for the
// pgx dialect. The schema is applied with embedded goose migrations.
package sqlstore
