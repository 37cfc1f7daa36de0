// Package migration applies versioned SQL schema changes to a SQLite database.
//
// Migration files are read from an fs.FS (usually an embedded directory) and
// must be named {version}_{description}.sql, e.g. "001_initial_schema.sql".
// Versions are numeric and must form a gap-free sequence. Each migration runs
// in its own transaction together with its row in the schema_migrations
// table, so a failed migration leaves no trace.
//
// Example usage:
//
//	manager := migration.NewManager(migration.NewScanner(files), migration.NewSQLiteExecutor(db), logger)
//	if _, err := manager.Run(ctx); err != nil {
//		return err
//	}
package migration
