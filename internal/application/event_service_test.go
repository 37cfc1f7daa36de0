package application

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/example/company-calendar/internal/persistence"
	"github.com/example/company-calendar/internal/scheduler"
)

type eventRepoStub struct {
	created   persistence.NewEvent
	createErr error

	filters []persistence.EventFilter
	list    []persistence.Event
	listErr error
}

func (r *eventRepoStub) CreateEvent(ctx context.Context, event persistence.NewEvent) (persistence.Event, error) {
	if r.createErr != nil {
		return persistence.Event{}, r.createErr
	}
	r.created = event
	participants := make([]persistence.Participant, len(event.ParticipantEmails))
	for i, email := range event.ParticipantEmails {
		participants[i] = persistence.Participant{UserID: "u-" + email, Email: email}
	}
	return persistence.Event{
		ID:           event.ID,
		OwnerID:      event.OwnerID,
		OwnerEmail:   "owner@example.com",
		Name:         event.Name,
		Agenda:       event.Agenda,
		Start:        event.Start,
		End:          event.End,
		LocationID:   event.LocationID,
		Participants: participants,
		CreatedAt:    event.CreatedAt,
		UpdatedAt:    event.CreatedAt,
	}, nil
}

func (r *eventRepoStub) ListEvents(ctx context.Context, filter persistence.EventFilter) ([]persistence.Event, error) {
	r.filters = append(r.filters, filter)
	if r.listErr != nil {
		return nil, r.listErr
	}
	return r.list, nil
}

func testPrincipal(t *testing.T, tz string) scheduler.Principal {
	t.Helper()
	p, err := scheduler.NewPrincipal("owner", "company-a", tz)
	if err != nil {
		t.Fatalf("NewPrincipal failed: %v", err)
	}
	return p
}

func validEventParams(p scheduler.Principal) CreateEventParams {
	return CreateEventParams{
		Principal: p,
		EventName: "Planning",
		Agenda:    "Quarterly goals",
		Start:     "2024-11-22T09:00:00Z",
		End:       "2024-11-22T10:00:00Z",
	}
}

func fixedNow() time.Time {
	return time.Date(2024, 11, 1, 8, 0, 0, 0, time.UTC)
}

func TestEventService_CreateEventValidation(t *testing.T) {
	t.Parallel()

	principal := testPrincipal(t, "UTC")
	cases := []struct {
		name   string
		mutate func(*CreateEventParams)
		want   map[string]string
	}{
		{
			name:   "missing name and agenda",
			mutate: func(p *CreateEventParams) { p.EventName = " "; p.Agenda = "" },
			want:   map[string]string{"event_name": msgRequired, "agenda": msgRequired},
		},
		{
			name:   "name too long",
			mutate: func(p *CreateEventParams) { p.EventName = strings.Repeat("é", 256) },
			want:   map[string]string{"event_name": msgTooLong},
		},
		{
			name:   "missing start",
			mutate: func(p *CreateEventParams) { p.Start = "" },
			want:   map[string]string{"start": msgRequired},
		},
		{
			name:   "unparseable end",
			mutate: func(p *CreateEventParams) { p.End = "tomorrow" },
			want:   map[string]string{"end": msgInvalidDateTime},
		},
		{
			name:   "start after end",
			mutate: func(p *CreateEventParams) { p.Start, p.End = "2024-11-22T11:00:00Z", "2024-11-22T10:00:00Z" },
			want:   map[string]string{"time": scheduler.MessageStartAfterEnd},
		},
		{
			name:   "start equals end",
			mutate: func(p *CreateEventParams) { p.End = p.Start },
			want:   map[string]string{"time": scheduler.MessageStartAfterEnd},
		},
		{
			name:   "inverted and too long reports ordering only",
			mutate: func(p *CreateEventParams) { p.Start, p.End = "2024-11-22T20:00:00Z", "2024-11-22T10:00:00Z" },
			want:   map[string]string{"time": scheduler.MessageStartAfterEnd},
		},
		{
			name:   "longer than eight hours",
			mutate: func(p *CreateEventParams) { p.End = "2024-11-22T17:00:01Z" },
			want:   map[string]string{"time": scheduler.MessageDurationTooLong},
		},
		{
			name:   "invalid participant",
			mutate: func(p *CreateEventParams) { p.ParticipantEmails = []string{"ok@example.com", "not-an-email"} },
			want:   map[string]string{"participants": msgInvalidEmail},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			repo := &eventRepoStub{}
			svc := NewEventService(repo, func() string { return "event-1" }, fixedNow)
			params := validEventParams(principal)
			tc.mutate(&params)

			_, err := svc.CreateEvent(context.Background(), params)
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if len(vErr.FieldErrors) != len(tc.want) {
				t.Fatalf("expected fields %v, got %v", tc.want, vErr.FieldErrors)
			}
			for field, msg := range tc.want {
				if vErr.FieldErrors[field] != msg {
					t.Fatalf("field %s: expected %q, got %q", field, msg, vErr.FieldErrors[field])
				}
			}
			if repo.created.ID != "" {
				t.Fatalf("repository must not be called on validation failure")
			}
		})
	}
}

func TestEventService_CreateEventExactlyEightHours(t *testing.T) {
	t.Parallel()

	repo := &eventRepoStub{}
	svc := NewEventService(repo, func() string { return "event-1" }, fixedNow)
	params := validEventParams(testPrincipal(t, "UTC"))
	params.End = "2024-11-22T17:00:00Z"

	if _, err := svc.CreateEvent(context.Background(), params); err != nil {
		t.Fatalf("expected an 8 hour event to be accepted, got %v", err)
	}
}

func TestEventService_CreateEventPersistsAndLocalizes(t *testing.T) {
	t.Parallel()

	repo := &eventRepoStub{}
	svc := NewEventService(repo, func() string { return "event-1" }, fixedNow)

	principal := testPrincipal(t, "Australia/Sydney")
	// The naive start is read in the principal's zone (AEDT, +11:00).
	params := CreateEventParams{
		Principal:         principal,
		EventName:         "  Standup ",
		Agenda:            "Daily",
		Start:             "2024-11-22T03:16:01",
		End:               "2024-11-22T04:00:00+11:00",
		LocationID:        " room-1 ",
		ParticipantEmails: []string{" Bob@Example.com", "carol@example.com", "bob@example.com"},
	}

	event, err := svc.CreateEvent(context.Background(), params)
	if err != nil {
		t.Fatalf("CreateEvent failed: %v", err)
	}

	created := repo.created
	if created.OwnerID != "owner" || created.CompanyID != "company-a" {
		t.Fatalf("expected owner and tenant from principal, got %#v", created)
	}
	if created.Name != "Standup" {
		t.Fatalf("expected trimmed name, got %q", created.Name)
	}
	wantStart := time.Date(2024, 11, 21, 16, 16, 1, 0, time.UTC)
	if !created.Start.Equal(wantStart) || created.Start.Location() != time.UTC {
		t.Fatalf("expected UTC start %s, got %s", wantStart, created.Start)
	}
	if created.LocationID == nil || *created.LocationID != "room-1" {
		t.Fatalf("expected trimmed location id, got %v", created.LocationID)
	}
	if got := strings.Join(created.ParticipantEmails, ","); got != "bob@example.com,carol@example.com" {
		t.Fatalf("expected normalized, deduplicated emails, got %s", got)
	}
	if !created.CreatedAt.Equal(fixedNow()) {
		t.Fatalf("expected created_at from clock, got %s", created.CreatedAt)
	}

	if got := scheduler.FormatLocal(event.Start, principal.Zone()); got != "2024-11-22T03:16:01+11:00" {
		t.Fatalf("expected start rendered in Sydney time, got %s", got)
	}
	if event.Start.Location().String() != "Australia/Sydney" {
		t.Fatalf("expected event in principal zone, got %s", event.Start.Location())
	}
	if event.Owner != "owner@example.com" {
		t.Fatalf("expected owner email, got %q", event.Owner)
	}
}

func TestEventService_CreateEventMapsRepositoryErrors(t *testing.T) {
	t.Parallel()

	repo := &eventRepoStub{createErr: persistence.ErrNotFound}
	svc := NewEventService(repo, nil, nil)
	_, err := svc.CreateEvent(context.Background(), validEventParams(testPrincipal(t, "UTC")))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	boom := errors.New("boom")
	repo.createErr = boom
	_, err = svc.CreateEvent(context.Background(), validEventParams(testPrincipal(t, "UTC")))
	if !errors.Is(err, boom) || ErrorKind(err) != "unexpected" {
		t.Fatalf("expected wrapped unexpected error, got %v", err)
	}
}

func TestEventService_ListEventsComposesFilter(t *testing.T) {
	t.Parallel()

	repo := &eventRepoStub{}
	svc := NewEventService(repo, nil, nil)
	principal := testPrincipal(t, "Australia/Sydney")

	_, err := svc.ListEvents(context.Background(), ListEventsParams{
		Principal:  principal,
		Query:      "  Event 1 ",
		Day:        "2024-11-22",
		LocationID: "room-1",
	})
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(repo.filters) != 1 {
		t.Fatalf("expected one repository call, got %d", len(repo.filters))
	}

	filter := repo.filters[0]
	if filter.CompanyID != "company-a" || filter.ViewerID != "owner" {
		t.Fatalf("expected tenancy and visibility from principal, got %#v", filter)
	}
	if filter.Text != "event 1" {
		t.Fatalf("expected lowercased text, got %q", filter.Text)
	}
	wantStart := time.Date(2024, 11, 21, 13, 0, 0, 0, time.UTC)
	if filter.Day == nil || !filter.Day.Start.Equal(wantStart) || !filter.Day.End.Equal(wantStart.Add(24*time.Hour)) {
		t.Fatalf("expected Sydney day range starting %s, got %#v", wantStart, filter.Day)
	}
	if filter.LocationID == nil || *filter.LocationID != "room-1" {
		t.Fatalf("expected location filter, got %v", filter.LocationID)
	}
}

func TestEventService_ListEventsRejectsBadDay(t *testing.T) {
	t.Parallel()

	repo := &eventRepoStub{}
	svc := NewEventService(repo, nil, nil)

	_, err := svc.ListEvents(context.Background(), ListEventsParams{Principal: testPrincipal(t, "UTC"), Day: "22/11/2024"})
	var vErr *ValidationError
	if !errors.As(err, &vErr) || vErr.FieldErrors["day"] != msgInvalidDate {
		t.Fatalf("expected day validation error, got %v", err)
	}
	if len(repo.filters) != 0 {
		t.Fatalf("repository must not be queried for an invalid day")
	}
}

func TestEventService_GetEvent(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 11, 22, 9, 0, 0, 0, time.UTC)
	repo := &eventRepoStub{list: []persistence.Event{{ID: "event-1", Start: start, End: start.Add(time.Hour)}}}
	svc := NewEventService(repo, nil, nil)
	principal := testPrincipal(t, "Asia/Tokyo")

	event, err := svc.GetEvent(context.Background(), principal, "event-1")
	if err != nil {
		t.Fatalf("GetEvent failed: %v", err)
	}
	if repo.filters[0].EventID != "event-1" || repo.filters[0].CompanyID != "company-a" {
		t.Fatalf("expected scoped id lookup, got %#v", repo.filters[0])
	}
	if event.Start.Hour() != 18 {
		t.Fatalf("expected Tokyo local hour 18, got %d", event.Start.Hour())
	}

	repo.list = nil
	if _, err := svc.GetEvent(context.Background(), principal, "event-2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for invisible event, got %v", err)
	}
	if _, err := svc.GetEvent(context.Background(), principal, " "); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for blank id, got %v", err)
	}
}

func TestEventService_RequiresScopedPrincipal(t *testing.T) {
	t.Parallel()

	repo := &eventRepoStub{}
	svc := NewEventService(repo, nil, nil)

	_, err := svc.ListEvents(context.Background(), ListEventsParams{})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for empty principal, got %v", err)
	}
	if len(repo.filters) != 0 {
		t.Fatalf("repository must not be queried without a principal")
	}
}
