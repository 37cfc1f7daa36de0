package application_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/example/company-calendar/internal/application"
	"github.com/example/company-calendar/internal/testfixtures"
)

func TestEventLifecycleAgainstSQLite(t *testing.T) {
	h := testfixtures.NewSQLiteHarness(t)
	services := testfixtures.NewServiceFactory().NewServices(h)
	ctx := context.Background()

	owner := h.SeedUser(t, testfixtures.NewUserFixture(testfixtures.WithUserCompany("acme"), testfixtures.WithUserTimezone("Australia/Sydney")))
	colleague := h.SeedUser(t, testfixtures.NewUserFixture(testfixtures.WithUserCompany("acme")))
	outsider := h.SeedUser(t, testfixtures.NewUserFixture(testfixtures.WithUserCompany("globex")))

	created, err := services.Events.CreateEvent(ctx, application.CreateEventParams{
		Principal:         owner.Principal(),
		EventName:         "Event 1",
		Agenda:            "Planning",
		Start:             "2024-11-21T16:16:01Z",
		End:               "2024-11-21T17:16:01Z",
		ParticipantEmails: []string{colleague.Email, outsider.Email, owner.Email},
	})
	if err != nil {
		t.Fatalf("CreateEvent failed: %v", err)
	}
	if got := created.Start.Format(time.RFC3339); got != "2024-11-22T03:16:01+11:00" {
		t.Fatalf("expected Sydney local start, got %s", got)
	}
	if len(created.Participants) != 2 {
		t.Fatalf("expected outsider to be dropped, got %v", created.Participants)
	}
	for _, email := range created.Participants {
		if email == outsider.Email {
			t.Fatalf("outsider must not be a participant: %v", created.Participants)
		}
	}

	t.Run("day filter round trip", func(t *testing.T) {
		events, err := services.Events.ListEvents(ctx, application.ListEventsParams{Principal: owner.Principal(), Day: "2024-11-22"})
		if err != nil {
			t.Fatalf("ListEvents failed: %v", err)
		}
		if len(events) != 1 || events[0].ID != created.ID {
			t.Fatalf("expected created event on its Sydney day, got %#v", events)
		}
	})

	t.Run("owner and participant listed once", func(t *testing.T) {
		events, err := services.Events.ListEvents(ctx, application.ListEventsParams{Principal: owner.Principal()})
		if err != nil {
			t.Fatalf("ListEvents failed: %v", err)
		}
		if len(events) != 1 {
			t.Fatalf("expected exactly one row, got %d", len(events))
		}
	})

	t.Run("participant sees it", func(t *testing.T) {
		event, err := services.Events.GetEvent(ctx, colleague.Principal(), created.ID)
		if err != nil {
			t.Fatalf("GetEvent failed: %v", err)
		}
		if event.Owner != owner.Email {
			t.Fatalf("expected owner %s, got %s", owner.Email, event.Owner)
		}
	})

	t.Run("other tenant sees nothing", func(t *testing.T) {
		if _, err := services.Events.GetEvent(ctx, outsider.Principal(), created.ID); !errors.Is(err, application.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		events, err := services.Events.ListEvents(ctx, application.ListEventsParams{Principal: outsider.Principal()})
		if err != nil || len(events) != 0 {
			t.Fatalf("expected empty listing, got %#v, %v", events, err)
		}
	})

	t.Run("account deletion cascades", func(t *testing.T) {
		if err := services.Users.DeleteAccount(ctx, owner.Principal()); err != nil {
			t.Fatalf("DeleteAccount failed: %v", err)
		}
		events, err := services.Events.ListEvents(ctx, application.ListEventsParams{Principal: colleague.Principal()})
		if err != nil || len(events) != 0 {
			t.Fatalf("expected owner's events removed, got %#v, %v", events, err)
		}
	})
}

func TestListEventsTextSearchAndQueryBound(t *testing.T) {
	h := testfixtures.NewSQLiteHarness(t)
	services := testfixtures.NewServiceFactory().NewServices(h)
	ctx := context.Background()

	owner := h.SeedUser(t, testfixtures.NewUserFixture(testfixtures.WithUserCompany("acme")))
	guest := h.SeedUser(t, testfixtures.NewUserFixture(testfixtures.WithUserCompany("acme")))

	listCost := func() int64 {
		return h.CountQueries(func() {
			if _, err := services.Events.ListEvents(ctx, application.ListEventsParams{Principal: owner.Principal()}); err != nil {
				t.Fatalf("ListEvents failed: %v", err)
			}
		})
	}

	h.SeedEvent(t, testfixtures.NewEventFixture(owner, testfixtures.WithEventName("Event 0"), testfixtures.WithEventParticipants(guest.Email)))
	single := listCost()

	for i := 1; i < 4; i++ {
		h.SeedEvent(t, testfixtures.NewEventFixture(owner,
			testfixtures.WithEventName(fmt.Sprintf("Event %d", i)),
			testfixtures.WithEventParticipants(guest.Email, owner.Email),
		))
	}
	if many := listCost(); many != single || many > 2 {
		t.Fatalf("expected a fixed query count of at most 2, got %d then %d", single, many)
	}

	for query, want := range map[string]int{"event": 4, "EVENT 1": 1, "event 1": 1, "missing": 0} {
		events, err := services.Events.ListEvents(ctx, application.ListEventsParams{Principal: owner.Principal(), Query: query})
		if err != nil {
			t.Fatalf("ListEvents(%q) failed: %v", query, err)
		}
		if len(events) != want {
			t.Fatalf("query %q: expected %d events, got %d", query, want, len(events))
		}
	}
}

func TestRoomManagerSeesEventsInTheirRoom(t *testing.T) {
	h := testfixtures.NewSQLiteHarness(t)
	services := testfixtures.NewServiceFactory().NewServices(h)
	ctx := context.Background()

	manager := h.SeedUser(t, testfixtures.NewUserFixture(testfixtures.WithUserCompany("acme")))
	owner := h.SeedUser(t, testfixtures.NewUserFixture(testfixtures.WithUserCompany("acme")))
	bystander := h.SeedUser(t, testfixtures.NewUserFixture(testfixtures.WithUserCompany("acme")))

	room, err := services.Rooms.CreateRoom(ctx, application.CreateRoomParams{Principal: manager.Principal(), Name: "Board", Address: "1 Main St"})
	if err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}

	event, err := services.Events.CreateEvent(ctx, application.CreateEventParams{
		Principal:  owner.Principal(),
		EventName:  "Review",
		Agenda:     "Numbers",
		Start:      "2024-11-21T09:00:00Z",
		End:        "2024-11-21T10:00:00Z",
		LocationID: room.ID,
	})
	if err != nil {
		t.Fatalf("CreateEvent failed: %v", err)
	}
	if event.Location == nil || *event.Location != "1 Main St" {
		t.Fatalf("expected location address, got %v", event.Location)
	}

	seen, err := services.Events.ListEvents(ctx, application.ListEventsParams{Principal: manager.Principal(), LocationID: room.ID})
	if err != nil || len(seen) != 1 {
		t.Fatalf("expected manager to see the event, got %#v, %v", seen, err)
	}
	hidden, err := services.Events.ListEvents(ctx, application.ListEventsParams{Principal: bystander.Principal()})
	if err != nil || len(hidden) != 0 {
		t.Fatalf("expected bystander to see nothing, got %#v, %v", hidden, err)
	}

	if err := services.Rooms.DeleteRoom(ctx, manager.Principal(), room.ID); err != nil {
		t.Fatalf("DeleteRoom failed: %v", err)
	}
	after, err := services.Events.GetEvent(ctx, owner.Principal(), event.ID)
	if err != nil {
		t.Fatalf("GetEvent failed: %v", err)
	}
	if after.Location != nil || after.LocationID != nil {
		t.Fatalf("expected location to be cleared, got %v", after.LocationID)
	}
}
