package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/example/company-calendar/internal/persistence"
)

func TestRoomRepository_TenantScope(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t)
	users := NewUserRepository(pool)
	rooms := NewRoomRepository(pool)

	mustCreateUser(t, users, "alice", "alice@a.example", "company-a")
	mustCreateUser(t, users, "bob", "bob@b.example", "company-b")
	mustCreateRoom(t, rooms, "room-a1", "1 Main St", ptr("alice"))
	mustCreateRoom(t, rooms, "room-a2", "2 Main St", ptr("alice"))
	mustCreateRoom(t, rooms, "room-b1", "9 Side St", ptr("bob"))
	mustCreateRoom(t, rooms, "room-orphan", "0 Nowhere", nil)

	listA, err := rooms.ListRooms(ctx, "company-a")
	if err != nil {
		t.Fatalf("ListRooms failed: %v", err)
	}
	if len(listA) != 2 || listA[0].ID != "room-a1" || listA[1].ID != "room-a2" {
		t.Fatalf("unexpected company-a rooms %#v", listA)
	}

	listB, err := rooms.ListRooms(ctx, "company-b")
	if err != nil {
		t.Fatalf("ListRooms failed: %v", err)
	}
	if len(listB) != 1 || listB[0].ID != "room-b1" {
		t.Fatalf("unexpected company-b rooms %#v", listB)
	}

	if _, err := rooms.GetRoom(ctx, "company-b", "room-a1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected cross-tenant room to be not found, got %v", err)
	}
	if _, err := rooms.GetRoom(ctx, "company-a", "room-orphan"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected unmanaged room to be not found, got %v", err)
	}

	room, err := rooms.GetRoom(ctx, "company-a", "room-a1")
	if err != nil {
		t.Fatalf("GetRoom failed: %v", err)
	}
	if room.Address != "1 Main St" || room.ManagerID == nil || *room.ManagerID != "alice" {
		t.Fatalf("unexpected room %#v", room)
	}
}

func TestRoomRepository_ManagerDeletionKeepsRoom(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t)
	users := NewUserRepository(pool)
	rooms := NewRoomRepository(pool)

	mustCreateUser(t, users, "alice", "alice@a.example", "company-a")
	mustCreateRoom(t, rooms, "room-a1", "1 Main St", ptr("alice"))

	if err := users.DeleteUser(ctx, "alice"); err != nil {
		t.Fatalf("DeleteUser failed: %v", err)
	}

	if n := countRows(t, pool, "conference_rooms"); n != 1 {
		t.Fatalf("expected room to survive manager deletion, got %d rooms", n)
	}
	var managerID *string
	if err := pool.DB().QueryRow(`SELECT manager_id FROM conference_rooms WHERE id = 'room-a1'`).Scan(&managerID); err != nil {
		t.Fatalf("query manager: %v", err)
	}
	if managerID != nil {
		t.Fatalf("expected manager to be cleared, got %q", *managerID)
	}
}

func TestRoomRepository_CreateAndDelete(t *testing.T) {
	ctx := context.Background()
	pool := newTestPool(t)
	rooms := NewRoomRepository(pool)

	t.Run("unknown manager", func(t *testing.T) {
		err := rooms.CreateRoom(ctx, persistence.Room{ID: "room-x", Name: "X", Address: "x", ManagerID: ptr("ghost")})
		if !errors.Is(err, persistence.ErrForeignKeyViolation) {
			t.Fatalf("expected ErrForeignKeyViolation, got %v", err)
		}
	})

	t.Run("name too long", func(t *testing.T) {
		long := make([]byte, 256)
		for i := range long {
			long[i] = 'a'
		}
		err := rooms.CreateRoom(ctx, persistence.Room{ID: "room-y", Name: string(long), Address: "y"})
		if !errors.Is(err, persistence.ErrConstraintViolation) {
			t.Fatalf("expected ErrConstraintViolation, got %v", err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		mustCreateRoom(t, rooms, "room-z", "z", nil)
		if err := rooms.DeleteRoom(ctx, "room-z"); err != nil {
			t.Fatalf("DeleteRoom failed: %v", err)
		}
		if err := rooms.DeleteRoom(ctx, "room-z"); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound on second delete, got %v", err)
		}
	})
}
