// Package migrations embeds the goose SQL migrations of the battle server schema.
package migrations

import "embed"

// FS holds all *.sql migrations.
//
//go:embed *.sql
var FS embed.FS
