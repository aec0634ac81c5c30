// Package migrations embeds the goose SQL migrations so they work regardless
// of the working directory.
package migrations

import "embed"

// FS contains every .sql file in this directory (e.g. 00001_init.sql).
//
//go:embed *.sql
var FS embed.FS
