package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/company-calendar/internal/persistence"
)

func TestUserRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestPool(t))

	user := persistence.User{
		ID:           "user-1",
		Email:        "  Alice@Example.COM ",
		PasswordHash: "hash",
		CompanyID:    "company-a",
		Timezone:     "Australia/Sydney",
		CreatedAt:    testNow,
		UpdatedAt:    testNow,
	}
	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	fetched, err := repo.GetUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if fetched.Email != "alice@example.com" {
		t.Errorf("expected normalized email, got %q", fetched.Email)
	}
	if fetched.CompanyID != "company-a" || fetched.Timezone != "Australia/Sydney" {
		t.Errorf("unexpected user %#v", fetched)
	}
	if !fetched.CreatedAt.Equal(testNow) {
		t.Errorf("expected created_at %s, got %s", testNow, fetched.CreatedAt)
	}

	byEmail, err := repo.GetUserByEmail(ctx, "ALICE@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail failed: %v", err)
	}
	if byEmail.ID != "user-1" {
		t.Errorf("expected user-1, got %s", byEmail.ID)
	}
}

func TestUserRepository_Errors(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestPool(t))
	mustCreateUser(t, repo, "user-1", "alice@example.com", "company-a")

	t.Run("duplicate email across companies", func(t *testing.T) {
		err := repo.CreateUser(ctx, persistence.User{
			ID: "user-2", Email: "ALICE@example.com", PasswordHash: "hash", CompanyID: "company-b",
		})
		if !errors.Is(err, persistence.ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate, got %v", err)
		}
	})

	t.Run("missing company", func(t *testing.T) {
		err := repo.CreateUser(ctx, persistence.User{ID: "user-3", Email: "c@example.com", PasswordHash: "hash"})
		if !errors.Is(err, persistence.ErrConstraintViolation) {
			t.Fatalf("expected ErrConstraintViolation, got %v", err)
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		if _, err := repo.GetUser(ctx, "missing"); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if _, err := repo.GetUserByEmail(ctx, "missing@example.com"); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if err := repo.UpdateTimezone(ctx, "missing", "UTC", testNow); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if err := repo.DeleteUser(ctx, "missing"); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestUserRepository_UpdateTimezone(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestPool(t))
	mustCreateUser(t, repo, "user-1", "alice@example.com", "company-a")

	later := testNow.Add(time.Hour)
	if err := repo.UpdateTimezone(ctx, "user-1", "Asia/Tokyo", later); err != nil {
		t.Fatalf("UpdateTimezone failed: %v", err)
	}

	fetched, err := repo.GetUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if fetched.Timezone != "Asia/Tokyo" {
		t.Errorf("expected Asia/Tokyo, got %q", fetched.Timezone)
	}
	if !fetched.UpdatedAt.Equal(later) || !fetched.CreatedAt.Equal(testNow) {
		t.Errorf("unexpected timestamps %s / %s", fetched.CreatedAt, fetched.UpdatedAt)
	}
}
