// Package migrations embeds the versioned SQL schema of the ledger so the
// migrate binary and integration tests do not depend on the working directory.
package migrations

import "embed"

// FS holds the golang-migrate up/down pairs
//
//go:embed *.sql
var FS embed.FS
