// Package db holds the SQL schema migrations compiled into the binary.
package db

import "embed"

// Migrations contains the versioned golang-migrate files under migrations/.
//
//go:embed migrations/*.sql
var Migrations embed.FS
