package postgres

import _ "embed"

// Schema is the table slice this store depends on; applied by integration
// tests and local tooling, owned by the enrollment backend in production.
//
//go:embed schema.sql
var Schema string
