// Package database opens and manages the shared Bun connection pool: DSN
// construction per dialect, environment-dependent behavior, query hooks,
// readiness and health reporting, and schema synchronization for registered
// models.
package database
