// Package migrations embeds the goose SQL migrations for storage/sqlstore.
package migrations

import "embed"

//go:embed *.sql
var Migrations embed.FS
