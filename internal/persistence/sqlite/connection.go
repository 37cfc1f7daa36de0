package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/example/company-calendar/internal/persistence"
	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// casefoldFunc lowers text with Go's Unicode case mapping. SQLite's built-in
// lower() only folds ASCII.
const casefoldFunc = "casefold"

func init() {
	err := moderncsqlite.RegisterDeterministicScalarFunction(casefoldFunc, 1,
		func(_ *moderncsqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
			switch v := args[0].(type) {
			case nil:
				return nil, nil
			case string:
				return strings.ToLower(v), nil
			case []byte:
				return strings.ToLower(string(v)), nil
			default:
				return v, nil
			}
		})
	if err != nil {
		panic(fmt.Sprintf("register %s: %v", casefoldFunc, err))
	}
}

// QueryObserver is notified of every statement issued through a QueryHelper.
type QueryObserver func(query string)

// ConnectionPool manages SQLite database connections with transaction support
type ConnectionPool struct {
	db       *sql.DB
	config   Config
	observer atomic.Pointer[QueryObserver]
}

// Open validates the configuration, creates the database directory when
// needed, and returns a ready connection pool.
func Open(config Config) (*ConnectionPool, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid SQLite configuration: %w", err)
	}

	if dir := filepath.Dir(config.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", config.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	if config.MaxOpenConns > 0 {
		db.SetMaxOpenConns(config.MaxOpenConns)
	}
	if config.MaxIdleConns > 0 {
		db.SetMaxIdleConns(config.MaxIdleConns)
	}
	if config.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(config.ConnMaxLifetime)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	return &ConnectionPool{db: db, config: config}, nil
}

// DB returns the underlying database connection
func (cp *ConnectionPool) DB() *sql.DB {
	return cp.db
}

// Close closes the connection pool
func (cp *ConnectionPool) Close() error {
	if cp.db != nil {
		return cp.db.Close()
	}
	return nil
}

// Ping tests the database connection
func (cp *ConnectionPool) Ping(ctx context.Context) error {
	return cp.db.PingContext(ctx)
}

// SetQueryObserver installs fn as the statement observer. Passing nil removes it.
func (cp *ConnectionPool) SetQueryObserver(fn QueryObserver) {
	if fn == nil {
		cp.observer.Store(nil)
		return
	}
	cp.observer.Store(&fn)
}

func (cp *ConnectionPool) observe(query string) {
	if fn := cp.observer.Load(); fn != nil {
		(*fn)(query)
	}
}

// TransactionFunc represents a function that executes within a transaction
type TransactionFunc func(tx *sql.Tx) error

// WithTransaction executes fn within a database transaction. The transaction
// is committed when fn returns nil and rolled back otherwise, including on panic.
func (cp *ConnectionPool) WithTransaction(ctx context.Context, fn TransactionFunc) error {
	tx, err := cp.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction failed (rollback error: %v): %w", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// QueryHelper provides helper methods for common query patterns
type QueryHelper struct {
	pool *ConnectionPool
}

// NewQueryHelper creates a new query helper
func NewQueryHelper(pool *ConnectionPool) *QueryHelper {
	return &QueryHelper{pool: pool}
}

// QueryRow executes a query that returns a single row
func (qh *QueryHelper) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	qh.pool.observe(query)
	return qh.pool.db.QueryRowContext(ctx, query, args...)
}

// Query executes a query that returns multiple rows
func (qh *QueryHelper) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	qh.pool.observe(query)
	return qh.pool.db.QueryContext(ctx, query, args...)
}

// Exec executes a query that doesn't return rows
func (qh *QueryHelper) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	qh.pool.observe(query)
	return qh.pool.db.ExecContext(ctx, query, args...)
}

// QueryRowTx executes a query that returns a single row within a transaction
func (qh *QueryHelper) QueryRowTx(ctx context.Context, tx *sql.Tx, query string, args ...any) *sql.Row {
	qh.pool.observe(query)
	return tx.QueryRowContext(ctx, query, args...)
}

// QueryTx executes a query that returns multiple rows within a transaction
func (qh *QueryHelper) QueryTx(ctx context.Context, tx *sql.Tx, query string, args ...any) (*sql.Rows, error) {
	qh.pool.observe(query)
	return tx.QueryContext(ctx, query, args...)
}

// ExecTx executes a query that doesn't return rows within a transaction
func (qh *QueryHelper) ExecTx(ctx context.Context, tx *sql.Tx, query string, args ...any) (sql.Result, error) {
	qh.pool.observe(query)
	return tx.ExecContext(ctx, query, args...)
}

// ErrorMapper maps SQLite errors to persistence layer errors
type ErrorMapper struct{}

// NewErrorMapper creates a new error mapper
func NewErrorMapper() *ErrorMapper {
	return &ErrorMapper{}
}

// errDatabaseBusy marks lock contention that is worth retrying.
var errDatabaseBusy = errors.New("database busy")

// MapError maps SQLite-specific errors to persistence layer errors. The
// original error is kept in the chain.
func (em *ErrorMapper) MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", persistence.ErrNotFound, err)
	}

	var (
		sqliteErr *moderncsqlite.Error
		code      int
	)
	if errors.As(err, &sqliteErr) {
		code = sqliteErr.Code()
		switch {
		case code == sqlite3.SQLITE_CONSTRAINT_UNIQUE, code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %w", persistence.ErrDuplicate, err)
		case code == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return fmt.Errorf("%w: %w", persistence.ErrForeignKeyViolation, err)
		case code == sqlite3.SQLITE_CONSTRAINT_CHECK, code == sqlite3.SQLITE_CONSTRAINT_NOTNULL:
			return fmt.Errorf("%w: %w", persistence.ErrConstraintViolation, err)
		case code&0xff == sqlite3.SQLITE_BUSY, code&0xff == sqlite3.SQLITE_LOCKED:
			return fmt.Errorf("%w: %w", errDatabaseBusy, err)
		}
	}

	// Without extended result codes the message is the only discriminator.
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return fmt.Errorf("%w: %w", persistence.ErrDuplicate, err)
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return fmt.Errorf("%w: %w", persistence.ErrForeignKeyViolation, err)
	case strings.Contains(msg, "CHECK constraint failed"), strings.Contains(msg, "NOT NULL constraint failed"),
		code&0xff == sqlite3.SQLITE_CONSTRAINT:
		return fmt.Errorf("%w: %w", persistence.ErrConstraintViolation, err)
	case strings.Contains(msg, "database is locked"), strings.Contains(msg, "database is busy"):
		return fmt.Errorf("%w: %w", errDatabaseBusy, err)
	}
	return err
}

// RetryConfig configures retry behavior for database operations
type RetryConfig struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultRetryConfig returns a retry configuration with sensible defaults
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    3,
		InitialDelay:  50 * time.Millisecond,
		MaxDelay:      time.Second,
		BackoffFactor: 2.0,
	}
}

// RetryHelper retries operations that failed with lock contention
type RetryHelper struct {
	config RetryConfig
	mapper *ErrorMapper
}

// NewRetryHelper creates a new retry helper
func NewRetryHelper(config RetryConfig) *RetryHelper {
	return &RetryHelper{config: config, mapper: NewErrorMapper()}
}

// WithRetry runs fn until it succeeds, fails with a non-retryable error, or
// the retry budget is spent. Returned errors are mapped.
func (rh *RetryHelper) WithRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	delay := rh.config.InitialDelay

	for attempt := 0; attempt <= rh.config.MaxRetries; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
			delay = time.Duration(float64(delay) * rh.config.BackoffFactor)
			if delay > rh.config.MaxDelay {
				delay = rh.config.MaxDelay
			}
		}

		err := fn()
		if err == nil {
			return nil
		}

		lastErr = rh.mapper.MapError(err)
		if !errors.Is(lastErr, errDatabaseBusy) {
			return lastErr
		}
	}

	return fmt.Errorf("operation failed after %d retries: %w", rh.config.MaxRetries, lastErr)
}
