package sqlite

import (
	"context"
	"embed"
	"io/fs"
	"log/slog"

	"github.com/example/company-calendar/internal/persistence/sqlite/migration"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrations returns the embedded schema migrations.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// NewMigrationManager wires the embedded migrations to the pool's database.
func NewMigrationManager(pool *ConnectionPool, logger *slog.Logger) *migration.Manager {
	return migration.NewManager(
		migration.NewScanner(Migrations()),
		migration.NewSQLiteExecutor(pool.DB()),
		logger,
	)
}

// Migrate applies all pending embedded migrations and returns how many ran.
func Migrate(ctx context.Context, pool *ConnectionPool, logger *slog.Logger) (int, error) {
	return NewMigrationManager(pool, logger).Run(ctx)
}
