package migration

import (
	"context"
	"fmt"
	"log/slog"
)

// Manager orchestrates the migration process.
type Manager struct {
	scanner  Scanner
	executor Executor
	logger   *slog.Logger
}

// NewManager creates a migration manager. A nil logger discards output.
func NewManager(scanner Scanner, executor Executor, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{
		scanner:  scanner,
		executor: executor,
		logger:   logger.With("component", "migration"),
	}
}

// Run executes all pending migrations in version order and returns how many
// were applied. Execution stops at the first failure.
func (m *Manager) Run(ctx context.Context) (int, error) {
	status, err := m.Status(ctx)
	if err != nil {
		return 0, err
	}

	if len(status.Pending) == 0 {
		m.logger.InfoContext(ctx, "schema up to date", "version", status.CurrentVersion)
		return 0, nil
	}

	m.logger.InfoContext(ctx, "applying migrations",
		"current_version", status.CurrentVersion,
		"pending", len(status.Pending),
	)

	for i, migration := range status.Pending {
		elapsed, err := m.executor.Apply(ctx, migration)
		if err != nil {
			m.logger.ErrorContext(ctx, "migration failed",
				"version", migration.Version,
				"file", migration.FilePath,
				"error", err,
			)
			return i, NewMigrationError(migration.Version, migration.FilePath, "execute migration",
				fmt.Errorf("%w: %w", ErrMigrationFailed, err))
		}
		m.logger.InfoContext(ctx, "migration applied",
			"version", migration.Version,
			"description", migration.Description,
			"duration", elapsed,
		)
	}

	return len(status.Pending), nil
}

// Status compares the available migrations with the applied ones.
func (m *Manager) Status(ctx context.Context) (*Status, error) {
	if err := m.executor.InitializeVersionTable(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize version table: %w", err)
	}

	available, err := m.scanner.Scan()
	if err != nil {
		return nil, fmt.Errorf("failed to scan migrations: %w", err)
	}

	applied, err := m.executor.AppliedMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get applied migrations: %w", err)
	}

	if err := validateSequence(available, applied); err != nil {
		return nil, err
	}

	appliedSet := make(map[int]bool, len(applied))
	status := &Status{Applied: applied}
	for _, record := range applied {
		appliedSet[versionNumber(record.Version)] = true
		status.CurrentVersion = record.Version
	}
	for _, migration := range available {
		if !appliedSet[versionNumber(migration.Version)] {
			status.Pending = append(status.Pending, migration)
		}
	}

	return status, nil
}

// validateSequence ensures there are no gaps in the available versions, that
// every applied version still has a file, and that applied files are unchanged.
func validateSequence(available []Migration, applied []AppliedMigration) error {
	byVersion := make(map[int]Migration, len(available))
	for i, migration := range available {
		version := versionNumber(migration.Version)
		if i > 0 && version != versionNumber(available[i-1].Version)+1 {
			return fmt.Errorf("%w: missing migration version %03d in sequence",
				ErrVersionConflict, versionNumber(available[i-1].Version)+1)
		}
		byVersion[version] = migration
	}

	for _, record := range applied {
		migration, ok := byVersion[versionNumber(record.Version)]
		if !ok {
			return fmt.Errorf("%w: applied migration %s not found in available migrations",
				ErrVersionConflict, record.Version)
		}
		if record.Checksum != "" && record.Checksum != migration.Checksum {
			return NewMigrationError(record.Version, migration.FilePath, "verify checksum", ErrChecksumMismatch)
		}
	}

	return nil
}
