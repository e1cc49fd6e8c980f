// Package migrations holds the goose migrations for the agents database.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
