// Package migrations embeds the SQL migration files so goose can apply them
// from the binary, both in integration tests and when the server starts with
// MIGRATE_ON_START=true.
package migrations

import "embed"

// FS holds all *.sql migration files embedded at compile time.
//
//go:embed *.sql
var FS embed.FS
