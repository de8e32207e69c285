// Package migrations holds the numbered SQL scripts applied by the store.
package migrations

import "embed"

// FS holds every NNN_name.up.sql and NNN_name.down.sql script.
//
//go:embed *.sql
var FS embed.FS
