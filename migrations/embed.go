package migrations

import "embed"

// FS holds the goose SQL migrations applied by database.InitDB.
//
//go:embed *.sql
var FS embed.FS
