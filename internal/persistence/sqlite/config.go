package sqlite

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config holds SQLite-specific database configuration
type Config struct {
	// Path is the database file path
	Path string

	// BusyTimeout sets how long to wait for database locks
	BusyTimeout time.Duration

	// JournalMode sets the SQLite journal mode (WAL, DELETE, TRUNCATE, etc.)
	JournalMode string

	// Synchronous sets the synchronous mode (FULL, NORMAL, OFF)
	Synchronous string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	// Retry controls how busy/locked errors on write transactions are retried
	Retry RetryConfig
}

// DefaultConfig returns a SQLite configuration with sensible defaults
func DefaultConfig(path string) Config {
	return Config{
		Path:            path,
		BusyTimeout:     5 * time.Second,
		JournalMode:     "WAL",
		Synchronous:     "NORMAL",
		MaxOpenConns:    8,
		MaxIdleConns:    4,
		ConnMaxLifetime: 30 * time.Minute,
		Retry:           DefaultRetryConfig(),
	}
}

var (
	validJournalModes = map[string]bool{"DELETE": true, "TRUNCATE": true, "PERSIST": true, "MEMORY": true, "WAL": true, "OFF": true}
	validSyncModes    = map[string]bool{"OFF": true, "NORMAL": true, "FULL": true, "EXTRA": true}
)

// Validate validates the SQLite configuration
func (c Config) Validate() error {
	if strings.TrimSpace(c.Path) == "" {
		return fmt.Errorf("database path cannot be empty")
	}
	if c.Path == ":memory:" {
		return fmt.Errorf("in-memory databases are not supported; use a file path")
	}
	if c.BusyTimeout < 0 {
		return fmt.Errorf("BusyTimeout cannot be negative")
	}
	if c.JournalMode != "" && !validJournalModes[strings.ToUpper(c.JournalMode)] {
		return fmt.Errorf("invalid journal mode: %s", c.JournalMode)
	}
	if c.Synchronous != "" && !validSyncModes[strings.ToUpper(c.Synchronous)] {
		return fmt.Errorf("invalid synchronous mode: %s", c.Synchronous)
	}
	if c.MaxOpenConns < 0 || c.MaxIdleConns < 0 {
		return fmt.Errorf("connection limits cannot be negative")
	}
	if c.ConnMaxLifetime < 0 {
		return fmt.Errorf("ConnMaxLifetime cannot be negative")
	}
	return nil
}

// DSN renders the driver connection string. Pragmas are passed as _pragma
// parameters so that every pooled connection gets them, not only the first.
func (c Config) DSN() string {
	params := url.Values{}
	params.Add("_pragma", "foreign_keys(1)")
	params.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", c.BusyTimeout.Milliseconds()))
	if c.JournalMode != "" {
		params.Add("_pragma", fmt.Sprintf("journal_mode(%s)", strings.ToUpper(c.JournalMode)))
	}
	if c.Synchronous != "" {
		params.Add("_pragma", fmt.Sprintf("synchronous(%s)", strings.ToUpper(c.Synchronous)))
	}
	params.Set("_txlock", "immediate")
	return c.Path + "?" + params.Encode()
}
