// Package migrations bundles the SQLite schema for ladder storage.
//
// Why this package exists:
//   - The store applies its own schema on open, so the DDL must ship inside
//     the binary rather than alongside it.
//   - Files apply in lexical order; each carries a "-- +migrate Up" section.
package migrations

import "embed"

// FS contains embedded SQLite migrations for ladder storage.
//
//go:embed *.sql
var FS embed.FS
