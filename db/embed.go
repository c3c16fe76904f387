// Package db provides the embedded database schema.
package db

import _ "embed"

// Schema contains the DDL statements for all application tables.
// Statements are idempotent; applying on startup is safe.
//
//go:embed schema.sql
var Schema string
