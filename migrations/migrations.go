// Package migrations embeds the schema migrations for each supported driver
// so the binary carries its own schema.
package migrations

import "embed"

//go:embed sqlite/*.sql
var SqliteMigrations embed.FS

//go:embed postgres/*.sql
var PostgresMigrations embed.FS
