// Package migrations holds the SQL schema of the ledger store
package migrations

import "embed"

// FS contains the numbered up and down migrations
//
//go:embed *.sql
var FS embed.FS
