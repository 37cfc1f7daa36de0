package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/example/company-calendar/internal/persistence"
	"github.com/example/company-calendar/internal/scheduler"
)

const maxNameLength = 255

const (
	msgRequired        = "This field is required."
	msgTooLong         = "Ensure this field has no more than 255 characters."
	msgInvalidDateTime = "Datetime has wrong format. Use an RFC 3339 timestamp."
	msgInvalidDate     = "Date has wrong format. Use YYYY-MM-DD."
	msgInvalidEmail    = "Enter a valid email address."
)

// EventRepository captures the persistence operations needed by the service.
type EventRepository interface {
	CreateEvent(ctx context.Context, event persistence.NewEvent) (persistence.Event, error)
	ListEvents(ctx context.Context, filter persistence.EventFilter) ([]persistence.Event, error)
}

// EventService orchestrates validation, scoping, and persistence for calendar events.
type EventService struct {
	events      EventRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewEventService constructs an event service with the provided dependencies.
func NewEventService(events EventRepository, idGenerator func() string, now func() time.Time) *EventService {
	return NewEventServiceWithLogger(events, idGenerator, now, nil)
}

// NewEventServiceWithLogger constructs an event service with a specified logger.
func NewEventServiceWithLogger(events EventRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *EventService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &EventService{events: events, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *EventService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "EventService", operation, attrs...)
}

// CreateEvent validates the input, then stores the event owned by the
// principal. Participant emails outside the principal's company are dropped
// and a location outside the company is stored as no location.
func (s *EventService) CreateEvent(ctx context.Context, params CreateEventParams) (event Event, err error) {
	if s == nil {
		err = fmt.Errorf("EventService is nil")
		return
	}
	if s.events == nil {
		err = fmt.Errorf("event repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateEvent", "principal_id", params.Principal.UserID)
	defer func() {
		logOutcome(ctx, logger, err, "failed to create event", "event created",
			"event_id", event.ID, "participant_count", len(event.Participants))
	}()

	input, vErr := validateEventInput(params)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	record := persistence.NewEvent{
		ID:                s.idGenerator(),
		CompanyID:         params.Principal.CompanyID,
		OwnerID:           params.Principal.UserID,
		Name:              input.name,
		Agenda:            input.agenda,
		Start:             input.start,
		End:               input.end,
		ParticipantEmails: input.participants,
		CreatedAt:         s.now().UTC(),
	}
	if input.locationID != "" {
		record.LocationID = &input.locationID
	}

	var persisted persistence.Event
	persisted, err = s.events.CreateEvent(ctx, record)
	if err != nil {
		err = mapEventRepoError(err)
		return
	}

	event = toEvent(persisted, params.Principal.Zone())
	return
}

// GetEvent returns a single event visible to the principal. Events of other
// companies and events the principal cannot see are reported as ErrNotFound.
func (s *EventService) GetEvent(ctx context.Context, principal scheduler.Principal, eventID string) (event Event, err error) {
	if s == nil {
		err = fmt.Errorf("EventService is nil")
		return
	}

	logger := s.loggerWith(ctx, "GetEvent", "principal_id", principal.UserID, "event_id", eventID)
	defer func() {
		if err != nil {
			logOutcome(ctx, logger, err, "failed to get event", "")
		}
	}()

	eventID = strings.TrimSpace(eventID)
	if eventID == "" {
		err = ErrNotFound
		return
	}

	var events []Event
	events, err = s.list(ctx, principal, scheduler.EventQuery{EventID: eventID})
	if err != nil {
		return
	}
	if len(events) == 0 {
		err = ErrNotFound
		return
	}
	event = events[0]
	return
}

// ListEvents returns the events visible to the principal that match the
// optional filters, ordered by start time.
func (s *EventService) ListEvents(ctx context.Context, params ListEventsParams) (events []Event, err error) {
	if s == nil {
		err = fmt.Errorf("EventService is nil")
		return
	}

	logger := s.loggerWith(ctx, "ListEvents",
		"principal_id", params.Principal.UserID,
		"has_query", params.Query != "",
		"day", params.Day,
		"location_id", params.LocationID,
	)
	defer func() {
		logOutcome(ctx, logger, err, "failed to list events", "events listed", "result_count", len(events))
	}()

	var query scheduler.EventQuery
	query, err = buildEventQuery(params)
	if err != nil {
		return
	}

	events, err = s.list(ctx, params.Principal, query)
	return
}

func (s *EventService) list(ctx context.Context, principal scheduler.Principal, query scheduler.EventQuery) ([]Event, error) {
	if s.events == nil {
		return nil, nil
	}
	if principal.UserID == "" || principal.CompanyID == "" {
		return nil, ErrUnauthorized
	}

	filter := scheduler.ComposeEventFilter(principal, query)
	records, err := s.events.ListEvents(ctx, filter)
	if err != nil {
		return nil, mapEventRepoError(err)
	}

	zone := principal.Zone()
	events := make([]Event, len(records))
	for i, record := range records {
		events[i] = toEvent(record, zone)
	}
	return events, nil
}

func buildEventQuery(params ListEventsParams) (scheduler.EventQuery, error) {
	query := scheduler.EventQuery{
		Text:       params.Query,
		LocationID: params.LocationID,
	}
	if day := strings.TrimSpace(params.Day); day != "" {
		parsed, err := scheduler.ParseCivilDay(day)
		if err != nil {
			vErr := &ValidationError{}
			vErr.add("day", msgInvalidDate)
			return scheduler.EventQuery{}, vErr
		}
		query.Day = &parsed
	}
	return query, nil
}

type eventInput struct {
	name         string
	agenda       string
	start        time.Time
	end          time.Time
	locationID   string
	participants []string
}

// validateEventInput checks individual fields first. The time window rules
// run only once both timestamps parsed.
func validateEventInput(params CreateEventParams) (eventInput, *ValidationError) {
	vErr := &ValidationError{}
	zone := params.Principal.Zone()

	input := eventInput{
		name:       strings.TrimSpace(params.EventName),
		agenda:     strings.TrimSpace(params.Agenda),
		locationID: strings.TrimSpace(params.LocationID),
	}

	switch {
	case input.name == "":
		vErr.add("event_name", msgRequired)
	case utf8.RuneCountInString(input.name) > maxNameLength:
		vErr.add("event_name", msgTooLong)
	}
	if input.agenda == "" {
		vErr.add("agenda", msgRequired)
	}

	var startOK, endOK bool
	input.start, startOK = parseEventTime(vErr, "start", params.Start, zone)
	input.end, endOK = parseEventTime(vErr, "end", params.End, zone)

	emails, emailErr := normalizeParticipantEmails(params.ParticipantEmails)
	vErr.merge(emailErr)
	input.participants = emails

	if startOK && endOK {
		if err := scheduler.ValidateWindow(input.start, input.end); err != nil {
			var windowErr *scheduler.WindowError
			if errors.As(err, &windowErr) {
				vErr.add(windowErr.Field, windowErr.Message)
			} else {
				vErr.add(scheduler.WindowField, err.Error())
			}
		}
	}

	return input, vErr
}

func parseEventTime(vErr *ValidationError, field, value string, zone *time.Location) (time.Time, bool) {
	if strings.TrimSpace(value) == "" {
		vErr.add(field, msgRequired)
		return time.Time{}, false
	}
	t, err := scheduler.ParseTimestamp(value, zone)
	if err != nil {
		vErr.add(field, msgInvalidDateTime)
		return time.Time{}, false
	}
	return t, true
}

// normalizeParticipantEmails trims, lowercases, and deduplicates emails while
// keeping the order of first appearance.
func normalizeParticipantEmails(emails []string) ([]string, *ValidationError) {
	vErr := &ValidationError{}
	seen := make(map[string]bool, len(emails))
	out := make([]string, 0, len(emails))
	for _, raw := range emails {
		email := strings.ToLower(strings.TrimSpace(raw))
		if !isValidEmail(email) {
			vErr.add("participants", msgInvalidEmail)
			continue
		}
		if seen[email] {
			continue
		}
		seen[email] = true
		out = append(out, email)
	}
	return out, vErr
}

// isValidEmail accepts a bare address only; display names are rejected.
func isValidEmail(email string) bool {
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func toEvent(record persistence.Event, zone *time.Location) Event {
	event := Event{
		ID:         record.ID,
		Owner:      record.OwnerEmail,
		EventName:  record.Name,
		Agenda:     record.Agenda,
		Start:      record.Start.In(zone),
		End:        record.End.In(zone),
		Location:   record.LocationAddress,
		LocationID: record.LocationID,
	}
	event.Participants = make([]string, len(record.Participants))
	for i, participant := range record.Participants {
		event.Participants[i] = participant.Email
	}
	return event
}

func mapEventRepoError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, persistence.ErrDuplicate):
		return fmt.Errorf("%w: %v", ErrAlreadyExists, err)
	}
	return fmt.Errorf("event repository: %w", err)
}
