package sqlite

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/example/company-calendar/internal/persistence"
)

var testNow = time.Date(2024, 11, 21, 9, 0, 0, 0, time.UTC)

func newTestPool(t *testing.T) *ConnectionPool {
	t.Helper()

	pool, err := Open(DefaultConfig(filepath.Join(t.TempDir(), "calendar.db")))
	if err != nil {
		t.Fatalf("failed to open pool: %v", err)
	}
	t.Cleanup(func() {
		_ = pool.Close()
	})

	if _, err := Migrate(context.Background(), pool, nil); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return pool
}

func countQueries(pool *ConnectionPool) *atomic.Int64 {
	var n atomic.Int64
	pool.SetQueryObserver(func(string) { n.Add(1) })
	return &n
}

func mustCreateUser(t *testing.T, repo *UserRepository, id, email, companyID string) persistence.User {
	t.Helper()
	user := persistence.User{
		ID:           id,
		Email:        email,
		PasswordHash: "hash",
		CompanyID:    companyID,
		Timezone:     "UTC",
		CreatedAt:    testNow,
		UpdatedAt:    testNow,
	}
	if err := repo.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser(%s) failed: %v", id, err)
	}
	return user
}

func mustCreateRoom(t *testing.T, repo *RoomRepository, id, address string, managerID *string) persistence.Room {
	t.Helper()
	room := persistence.Room{
		ID:        id,
		Name:      "Room " + id,
		Address:   address,
		ManagerID: managerID,
		CreatedAt: testNow,
	}
	if err := repo.CreateRoom(context.Background(), room); err != nil {
		t.Fatalf("CreateRoom(%s) failed: %v", id, err)
	}
	return room
}

func countRows(t *testing.T, pool *ConnectionPool, table string) int {
	t.Helper()
	var n int
	if err := pool.DB().QueryRow("SELECT COUNT(*) FROM " + table).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

func ptr(s string) *string {
	return &s
}
