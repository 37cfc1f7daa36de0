package testfixtures

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/example/company-calendar/internal/persistence"
	"github.com/example/company-calendar/internal/persistence/sqlite"
)

// SQLiteHarness provides repository access backed by a temporary, migrated
// SQLite database for integration-style tests.
type SQLiteHarness struct {
	Pool   *sqlite.ConnectionPool
	Users  *sqlite.UserRepository
	Rooms  *sqlite.RoomRepository
	Events *sqlite.EventRepository

	queries atomic.Int64
	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness opens a database file under tb.TempDir and applies the
// embedded migrations. The harness is closed automatically when the test ends.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "calendar.db")
	pool, err := sqlite.Open(sqlite.DefaultConfig(path))
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}

	if _, err := sqlite.Migrate(context.Background(), pool, nil); err != nil {
		_ = pool.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	harness := &SQLiteHarness{
		Pool:   pool,
		Users:  sqlite.NewUserRepository(pool),
		Rooms:  sqlite.NewRoomRepository(pool),
		Events: sqlite.NewEventRepository(pool),
		cleanup: func() {
			_ = pool.Close()
		},
	}
	pool.SetQueryObserver(func(string) { harness.queries.Add(1) })

	tb.Cleanup(harness.Close)
	return harness
}

// CountQueries runs fn and returns how many statements it issued through the
// repositories.
func (h *SQLiteHarness) CountQueries(fn func()) int64 {
	before := h.queries.Load()
	fn()
	return h.queries.Load() - before
}

// SeedUser stores the fixture and returns it.
func (h *SQLiteHarness) SeedUser(tb testing.TB, fixture UserFixture) UserFixture {
	tb.Helper()
	user, err := fixture.Persistence()
	if err != nil {
		tb.Fatalf("hash password for %s: %v", fixture.ID, err)
	}
	if err := h.Users.CreateUser(context.Background(), user); err != nil {
		tb.Fatalf("seed user %s: %v", fixture.ID, err)
	}
	return fixture
}

// SeedRoom stores the fixture and returns it.
func (h *SQLiteHarness) SeedRoom(tb testing.TB, fixture RoomFixture) RoomFixture {
	tb.Helper()
	if err := h.Rooms.CreateRoom(context.Background(), fixture.Persistence()); err != nil {
		tb.Fatalf("seed room %s: %v", fixture.ID, err)
	}
	return fixture
}

// SeedEvent stores the fixture and returns the persisted event.
func (h *SQLiteHarness) SeedEvent(tb testing.TB, fixture EventFixture) persistence.Event {
	tb.Helper()
	event, err := h.Events.CreateEvent(context.Background(), fixture.Persistence())
	if err != nil {
		tb.Fatalf("seed event %s: %v", fixture.ID, err)
	}
	return event
}
