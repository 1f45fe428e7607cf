// Package migrations embeds the SQL schema for each supported database.
package migrations

import "embed"

// SQLite holds golang-migrate style up/down files for the SQLite store.
//
//go:embed sqlite/*.sql
var SQLite embed.FS

// Postgres holds versioned files ("001_name.sql") applied by database.RunMigrations.
//
//go:embed postgres/*.sql
var Postgres embed.FS
