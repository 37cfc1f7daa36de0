package scheduler

import (
	"errors"
	"testing"
	"time"
)

func TestNewPrincipal(t *testing.T) {
	t.Run("loads timezone", func(t *testing.T) {
		mustLocation(t, "Australia/Sydney")
		p, err := NewPrincipal("user-1", "company-1", "Australia/Sydney")
		if err != nil {
			t.Fatalf("NewPrincipal returned error: %v", err)
		}
		if p.Timezone() != "Australia/Sydney" {
			t.Fatalf("unexpected timezone %q", p.Timezone())
		}
	})

	tests := []struct {
		name     string
		user     string
		company  string
		timezone string
	}{
		{name: "missing user", company: "company-1", timezone: "UTC"},
		{name: "missing company", user: "user-1", timezone: "UTC"},
		{name: "empty timezone", user: "user-1", company: "company-1"},
		{name: "unknown timezone", user: "user-1", company: "company-1", timezone: "Mars/Olympus_Mons"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPrincipal(tt.user, tt.company, tt.timezone)
			if !errors.Is(err, ErrInvalidPrincipal) {
				t.Fatalf("expected ErrInvalidPrincipal, got %v", err)
			}
		})
	}

	t.Run("zero principal renders utc", func(t *testing.T) {
		var p Principal
		if p.Zone() != time.UTC {
			t.Fatalf("expected UTC zone, got %s", p.Zone())
		}
	})
}

func TestComposeEventFilter(t *testing.T) {
	sydney := mustLocation(t, "Australia/Sydney")
	principal := Principal{UserID: "user-1", CompanyID: "company-1", Location: sydney}

	t.Run("tenancy and visibility always applied", func(t *testing.T) {
		filter := ComposeEventFilter(principal, EventQuery{})
		if filter.CompanyID != "company-1" || filter.ViewerID != "user-1" {
			t.Fatalf("unexpected scope %#v", filter)
		}
		if filter.EventID != "" || filter.Text != "" || filter.Day != nil || filter.LocationID != nil {
			t.Fatalf("expected optional stages to be no-ops, got %#v", filter)
		}
	})

	t.Run("blank parameters are no-ops", func(t *testing.T) {
		filter := ComposeEventFilter(principal, EventQuery{Text: "  ", LocationID: " ", EventID: " "})
		if filter.EventID != "" || filter.Text != "" || filter.LocationID != nil {
			t.Fatalf("expected blank parameters to be ignored, got %#v", filter)
		}
	})

	t.Run("text is lowered", func(t *testing.T) {
		filter := ComposeEventFilter(principal, EventQuery{Text: " Event 1 "})
		if filter.Text != "event 1" {
			t.Fatalf("unexpected text %q", filter.Text)
		}
	})

	t.Run("day uses principal zone", func(t *testing.T) {
		day := CivilDay{Year: 2024, Month: time.November, Day: 22}
		filter := ComposeEventFilter(principal, EventQuery{Day: &day})
		if filter.Day == nil {
			t.Fatal("expected day range")
		}
		wantStart := time.Date(2024, 11, 21, 13, 0, 0, 0, time.UTC)
		if !filter.Day.Start.Equal(wantStart) || !filter.Day.End.Equal(wantStart.Add(24*time.Hour)) {
			t.Fatalf("unexpected range %s - %s", filter.Day.Start, filter.Day.End)
		}
	})

	t.Run("location and id", func(t *testing.T) {
		filter := ComposeEventFilter(principal, EventQuery{EventID: "event-9", LocationID: "room-1"})
		if filter.EventID != "event-9" {
			t.Fatalf("unexpected event id %q", filter.EventID)
		}
		if filter.LocationID == nil || *filter.LocationID != "room-1" {
			t.Fatalf("unexpected location %v", filter.LocationID)
		}
	})

	t.Run("query cannot widen tenancy", func(t *testing.T) {
		other := Principal{UserID: "user-2", CompanyID: "company-2"}
		filter := ComposeEventFilter(other, EventQuery{Text: "event"})
		if filter.CompanyID != "company-2" || filter.ViewerID != "user-2" {
			t.Fatalf("unexpected scope %#v", filter)
		}
	})
}
