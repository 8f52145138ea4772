// Package migrations embeds the numbered SQL migrations applied by cmd/migrate.
package migrations

import "embed"

// Postgres holds postgres/NNNN_name.sql files.
//
//go:embed postgres/*.sql
var Postgres embed.FS
