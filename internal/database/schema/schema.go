// Package schema embeds the goose migrations that own the database schema.
package schema

import "embed"

// Migrations holds every migration file, applied in filename order
//
//go:embed *.sql
var Migrations embed.FS
