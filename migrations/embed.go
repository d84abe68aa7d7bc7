// Package migrations holds the goose SQL migrations for the PostgreSQL store.
package migrations

import "embed"

// FS contains every migration file in this directory.
//
//go:embed *.sql
var FS embed.FS
