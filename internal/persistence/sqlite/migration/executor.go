package migration

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// SQLiteExecutor implements the Executor interface for SQLite databases
type SQLiteExecutor struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteExecutor creates a new SQLite migration executor
func NewSQLiteExecutor(db *sql.DB) *SQLiteExecutor {
	return &SQLiteExecutor{db: db, now: time.Now}
}

// InitializeVersionTable creates the schema_migrations table if it doesn't exist
func (e *SQLiteExecutor) InitializeVersionTable(ctx context.Context) error {
	const createTableSQL = `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TEXT NOT NULL,
			checksum TEXT NOT NULL DEFAULT '',
			execution_time_ms INTEGER NOT NULL DEFAULT 0
		)`

	if _, err := e.db.ExecContext(ctx, createTableSQL); err != nil {
		return NewDatabaseError("", "create schema_migrations table", err)
	}
	return nil
}

// Apply executes the migration statements and records the version in the same
// transaction.
func (e *SQLiteExecutor) Apply(ctx context.Context, migration Migration) (time.Duration, error) {
	statements := splitStatements(migration.SQL)
	if len(statements) == 0 {
		return 0, NewMigrationError(migration.Version, migration.FilePath, "parse SQL",
			fmt.Errorf("%w: no SQL statements found", ErrInvalidMigrationFile))
	}

	started := e.now()

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, NewDatabaseError(migration.Version, "begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return 0, NewDatabaseError(migration.Version, fmt.Sprintf("execute statement %d", i+1), err)
		}
	}

	elapsed := e.now().Sub(started)
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_migrations (version, applied_at, checksum, execution_time_ms) VALUES (?, ?, ?, ?)`,
		migration.Version, e.now().UTC().Format(time.RFC3339), migration.Checksum, elapsed.Milliseconds(),
	); err != nil {
		return 0, NewDatabaseError(migration.Version, "record migration", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, NewDatabaseError(migration.Version, "commit transaction", err)
	}
	return elapsed, nil
}

// AppliedMigrations returns all applied migration versions with timestamps
func (e *SQLiteExecutor) AppliedMigrations(ctx context.Context) ([]AppliedMigration, error) {
	rows, err := e.db.QueryContext(ctx, `
		SELECT version, applied_at, execution_time_ms, checksum
		FROM schema_migrations
		ORDER BY CAST(version AS INTEGER) ASC`)
	if err != nil {
		return nil, NewDatabaseError("", "get applied versions", err)
	}
	defer rows.Close()

	var applied []AppliedMigration
	for rows.Next() {
		var (
			record       AppliedMigration
			appliedAtStr string
			elapsedMs    int64
		)
		if err := rows.Scan(&record.Version, &appliedAtStr, &elapsedMs, &record.Checksum); err != nil {
			return nil, NewDatabaseError("", "scan applied migration", err)
		}
		appliedAt, err := time.Parse(time.RFC3339, appliedAtStr)
		if err != nil {
			return nil, NewDatabaseError(record.Version, "parse applied_at", err)
		}
		record.AppliedAt = appliedAt
		record.ExecutionTime = time.Duration(elapsedMs) * time.Millisecond
		applied = append(applied, record)
	}
	if err := rows.Err(); err != nil {
		return nil, NewDatabaseError("", "iterate applied migrations", err)
	}
	return applied, nil
}

// splitStatements splits SQL content on semicolons and drops comment-only
// fragments. Statements must not contain semicolons inside literals or
// trigger bodies.
func splitStatements(sql string) []string {
	var statements []string
	for _, stmt := range strings.Split(sql, ";") {
		var lines []string
		for _, line := range strings.Split(stmt, "\n") {
			line = strings.TrimSpace(line)
			if line != "" && !strings.HasPrefix(line, "--") {
				lines = append(lines, line)
			}
		}
		if len(lines) > 0 {
			statements = append(statements, strings.Join(lines, "\n"))
		}
	}
	return statements
}
