package migration

import (
	"context"
	"time"
)

// Migration represents a database migration with its metadata and SQL content
type Migration struct {
	Version     string // Version identifier (e.g., "001", "002")
	Description string // Human-readable description of the migration
	SQL         string // SQL statements to execute
	FilePath    string // Path of the file inside the source filesystem
	Checksum    string // SHA-256 of the SQL content
}

// AppliedMigration represents a migration that has been successfully applied
type AppliedMigration struct {
	Version       string
	AppliedAt     time.Time
	ExecutionTime time.Duration
	Checksum      string
}

// Status provides information about the current migration state
type Status struct {
	CurrentVersion string
	Applied        []AppliedMigration
	Pending        []Migration
}

// Scanner discovers migrations.
type Scanner interface {
	Scan() ([]Migration, error)
}

// Executor handles the actual execution of migrations against the database
type Executor interface {
	// InitializeVersionTable creates the schema_migrations table if it doesn't exist
	InitializeVersionTable(ctx context.Context) error

	// Apply runs a migration and records it in one transaction.
	Apply(ctx context.Context, migration Migration) (time.Duration, error)

	// AppliedMigrations returns applied migrations ordered by version
	AppliedMigrations(ctx context.Context) ([]AppliedMigration, error)
}
