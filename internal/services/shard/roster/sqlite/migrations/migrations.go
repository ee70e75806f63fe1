// Package migrations embeds the roster schema.
package migrations

import "embed"

// FS holds the roster migration scripts.
//
//go:embed *.sql
var FS embed.FS
