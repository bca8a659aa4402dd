// Package migrations embeds the portal's SQL schema so the binary can
// migrate a database without shipping loose files.
package migrations

import "embed"

//go:embed *.sql
var Files embed.FS
