// Package migrations embeds the SQL schema migrations applied by courtagectl migrate
// and the integration tests.
package migrations

import "embed"

// FS holds the NNNNNN_name.{up,down}.sql files
//
//go:embed *.sql
var FS embed.FS
