// Package assets embeds static files shipped inside the server binary.
package assets

import "embed"

// Migrations holds the SQLite schema, applied in lexical order.
//
//go:embed sql/*.sql
var Migrations embed.FS

// MigrationsDir is the root of Migrations.
const MigrationsDir = "sql"
