package testfixtures

import (
	"context"
	"testing"

	"github.com/example/company-calendar/internal/application"
)

func TestServiceFactoryWiresHarness(t *testing.T) {
	h := NewSQLiteHarness(t)
	factory := NewServiceFactory(WithIDGenerator(NewIDGenerator("evt")))
	services := factory.NewServices(h)

	owner := h.SeedUser(t, NewUserFixture(WithUserCompany("acme"), WithUserTimezone("Asia/Tokyo")))

	principal, err := services.Auth.Authenticate(context.Background(), application.AuthenticateParams{Email: owner.Email, Password: owner.Password})
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if principal.UserID != owner.ID || principal.Timezone() != "Asia/Tokyo" {
		t.Fatalf("unexpected principal %#v", principal)
	}

	room, err := services.Rooms.CreateRoom(context.Background(), application.CreateRoomParams{
		Principal: principal,
		Name:      "Board Room",
		Address:   "1 Main Street",
	})
	if err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}
	if room.ID != "evt-1" {
		t.Fatalf("expected generated ID evt-1, got %q", room.ID)
	}
	if !room.CreatedAt.Equal(factory.Clock.Peek()) {
		t.Fatalf("expected timestamp %v, got %v", factory.Clock.Peek(), room.CreatedAt)
	}
}

func TestSQLiteHarnessCountsQueries(t *testing.T) {
	h := NewSQLiteHarness(t)
	owner := h.SeedUser(t, NewUserFixture())

	n := h.CountQueries(func() {
		if _, err := h.Users.GetUser(context.Background(), owner.ID); err != nil {
			t.Fatalf("GetUser failed: %v", err)
		}
	})
	if n != 1 {
		t.Fatalf("expected 1 query, got %d", n)
	}
}

func TestCompanyIDIsStable(t *testing.T) {
	if CompanyID("acme") != CompanyID("acme") {
		t.Fatalf("expected stable company id")
	}
	if CompanyID("acme") == CompanyID("globex") {
		t.Fatalf("expected distinct company ids")
	}
}
