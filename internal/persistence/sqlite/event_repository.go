package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/example/company-calendar/internal/persistence"
)

// EventRepository implements persistence.EventRepository using SQLite
type EventRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
	retry  *RetryHelper
}

// NewEventRepository creates a new SQLite event repository
func NewEventRepository(pool *ConnectionPool) *EventRepository {
	return &EventRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
		retry:  NewRetryHelper(pool.config.Retry),
	}
}

// errUnscopedFilter guards against listing events without a tenant and viewer.
var errUnscopedFilter = errors.New("event filter requires company and viewer")

// CreateEvent stores an event and its participant links in one transaction.
// The location and the participant emails are resolved against the event's
// company inside the transaction: a room outside the company is stored as no
// location and emails of other companies are dropped.
func (r *EventRepository) CreateEvent(ctx context.Context, event persistence.NewEvent) (persistence.Event, error) {
	if event.ID == "" || event.OwnerID == "" || event.CompanyID == "" {
		return persistence.Event{}, persistence.ErrConstraintViolation
	}

	var created persistence.Event
	err := r.retry.WithRetry(ctx, func() error {
		return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			var err error
			created, err = r.createInTx(ctx, tx, event)
			return err
		})
	})
	if err != nil {
		return persistence.Event{}, err
	}
	return created, nil
}

func (r *EventRepository) createInTx(ctx context.Context, tx *sql.Tx, event persistence.NewEvent) (persistence.Event, error) {
	created := persistence.Event{
		ID:        event.ID,
		OwnerID:   event.OwnerID,
		Name:      event.Name,
		Agenda:    event.Agenda,
		Start:     event.Start.UTC(),
		End:       event.End.UTC(),
		CreatedAt: event.CreatedAt.UTC(),
		UpdatedAt: event.CreatedAt.UTC(),
	}

	err := r.helper.QueryRowTx(ctx, tx,
		`SELECT email FROM users WHERE id = ? AND company_id = ?`,
		event.OwnerID, event.CompanyID,
	).Scan(&created.OwnerEmail)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Event{}, fmt.Errorf("owner %s: %w", event.OwnerID, persistence.ErrNotFound)
		}
		return persistence.Event{}, err
	}

	if event.LocationID != nil && *event.LocationID != "" {
		var address string
		err := r.helper.QueryRowTx(ctx, tx, `
			SELECT r.address
			FROM conference_rooms r
			JOIN users m ON m.id = r.manager_id
			WHERE r.id = ? AND m.company_id = ?`,
			*event.LocationID, event.CompanyID,
		).Scan(&address)
		switch {
		case err == nil:
			id := *event.LocationID
			created.LocationID = &id
			created.LocationAddress = &address
		case !errors.Is(err, sql.ErrNoRows):
			return persistence.Event{}, err
		}
	}

	participants, err := r.resolveParticipants(ctx, tx, event.CompanyID, event.ParticipantEmails)
	if err != nil {
		return persistence.Event{}, err
	}
	created.Participants = participants

	_, err = r.helper.ExecTx(ctx, tx, `
		INSERT INTO calendar_events (id, owner_id, name, agenda, start_at, end_at, location_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		created.ID,
		created.OwnerID,
		created.Name,
		created.Agenda,
		formatTimestamp(created.Start),
		formatTimestamp(created.End),
		nullableString(created.LocationID),
		formatTimestamp(created.CreatedAt),
		formatTimestamp(created.UpdatedAt),
	)
	if err != nil {
		return persistence.Event{}, err
	}

	for i, participant := range participants {
		_, err := r.helper.ExecTx(ctx, tx,
			`INSERT INTO event_participants (event_id, user_id, position) VALUES (?, ?, ?)`,
			created.ID, participant.UserID, i,
		)
		if err != nil {
			return persistence.Event{}, err
		}
	}

	return created, nil
}

// resolveParticipants maps emails to users of the company, keeping the order
// of first appearance and dropping unknown or foreign addresses.
func (r *EventRepository) resolveParticipants(ctx context.Context, tx *sql.Tx, companyID string, emails []string) ([]persistence.Participant, error) {
	var ordered []string
	seen := make(map[string]bool, len(emails))
	for _, email := range emails {
		email = normalizeEmail(email)
		if email == "" || seen[email] {
			continue
		}
		seen[email] = true
		ordered = append(ordered, email)
	}
	if len(ordered) == 0 {
		return nil, nil
	}

	encoded, err := json.Marshal(ordered)
	if err != nil {
		return nil, fmt.Errorf("encode participant emails: %w", err)
	}

	rows, err := r.helper.QueryTx(ctx, tx, `
		SELECT id, email FROM users
		WHERE company_id = ? AND email IN (SELECT value FROM json_each(?))`,
		companyID, string(encoded),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byEmail := make(map[string]string, len(ordered))
	for rows.Next() {
		var id, email string
		if err := rows.Scan(&id, &email); err != nil {
			return nil, err
		}
		byEmail[email] = id
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	participants := make([]persistence.Participant, 0, len(byEmail))
	for _, email := range ordered {
		if id, ok := byEmail[email]; ok {
			participants = append(participants, persistence.Participant{UserID: id, Email: email})
		}
	}
	return participants, nil
}

// ListEvents returns the events matching filter ordered by start then ID.
// It issues one query for the events and, when there are any, one batched
// query for all of their participants.
func (r *EventRepository) ListEvents(ctx context.Context, filter persistence.EventFilter) ([]persistence.Event, error) {
	if filter.CompanyID == "" || filter.ViewerID == "" {
		return nil, errUnscopedFilter
	}

	query, args := buildEventQuery(filter)
	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}

	var events []persistence.Event
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			rows.Close()
			return nil, r.mapper.MapError(err)
		}
		events = append(events, event)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}

	if len(events) == 0 {
		return events, nil
	}

	if err := r.attachParticipants(ctx, events); err != nil {
		return nil, err
	}
	return events, nil
}

// buildEventQuery composes the event predicate. Tenancy comes first, then
// visibility, then the optional narrowing stages.
func buildEventQuery(filter persistence.EventFilter) (string, []any) {
	var b strings.Builder
	b.WriteString(`
		SELECT e.id, e.owner_id, owner.email, e.name, e.agenda, e.start_at, e.end_at,
		       e.location_id, loc.address, e.created_at, e.updated_at
		FROM calendar_events e
		JOIN users owner ON owner.id = e.owner_id
		LEFT JOIN conference_rooms loc ON loc.id = e.location_id
		WHERE owner.company_id = ?
		  AND (e.owner_id = ?
		       OR loc.manager_id = ?
		       OR EXISTS (SELECT 1 FROM event_participants ep WHERE ep.event_id = e.id AND ep.user_id = ?))`)
	args := []any{filter.CompanyID, filter.ViewerID, filter.ViewerID, filter.ViewerID}

	if filter.EventID != "" {
		b.WriteString(`
		  AND e.id = ?`)
		args = append(args, filter.EventID)
	}

	if filter.Text != "" {
		needle := strings.ToLower(filter.Text)
		b.WriteString(`
		  AND (instr(` + casefoldFunc + `(e.name), ?) > 0 OR instr(` + casefoldFunc + `(e.agenda), ?) > 0)`)
		args = append(args, needle, needle)
	}

	if filter.Day != nil {
		start, end := formatTimestamp(filter.Day.Start), formatTimestamp(filter.Day.End)
		b.WriteString(`
		  AND ((e.start_at >= ? AND e.start_at < ?) OR (e.end_at >= ? AND e.end_at < ?))`)
		args = append(args, start, end, start, end)
	}

	if filter.LocationID != nil {
		b.WriteString(`
		  AND e.location_id = ?`)
		args = append(args, *filter.LocationID)
	}

	b.WriteString(`
		ORDER BY e.start_at ASC, e.id ASC`)
	return b.String(), args
}

func (r *EventRepository) attachParticipants(ctx context.Context, events []persistence.Event) error {
	ids := make([]string, len(events))
	index := make(map[string]int, len(events))
	for i, event := range events {
		ids[i] = event.ID
		index[event.ID] = i
	}

	encoded, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encode event ids: %w", err)
	}

	rows, err := r.helper.Query(ctx, `
		SELECT ep.event_id, u.id, u.email
		FROM event_participants ep
		JOIN users u ON u.id = ep.user_id
		WHERE ep.event_id IN (SELECT value FROM json_each(?))
		ORDER BY ep.event_id ASC, ep.position ASC`,
		string(encoded),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	defer rows.Close()

	for rows.Next() {
		var eventID string
		var participant persistence.Participant
		if err := rows.Scan(&eventID, &participant.UserID, &participant.Email); err != nil {
			return r.mapper.MapError(err)
		}
		i := index[eventID]
		events[i].Participants = append(events[i].Participants, participant)
	}
	if err := rows.Err(); err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

func scanEvent(row rowScanner) (persistence.Event, error) {
	var (
		event                       persistence.Event
		startStr, endStr            string
		createdAtStr, updatedAtStr  string
		locationID, locationAddress sql.NullString
	)
	err := row.Scan(
		&event.ID,
		&event.OwnerID,
		&event.OwnerEmail,
		&event.Name,
		&event.Agenda,
		&startStr,
		&endStr,
		&locationID,
		&locationAddress,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		return persistence.Event{}, err
	}

	event.LocationID = stringPtr(locationID)
	event.LocationAddress = stringPtr(locationAddress)

	if event.Start, err = parseTimestamp("start_at", startStr); err != nil {
		return persistence.Event{}, err
	}
	if event.End, err = parseTimestamp("end_at", endStr); err != nil {
		return persistence.Event{}, err
	}
	if event.CreatedAt, err = parseTimestamp("created_at", createdAtStr); err != nil {
		return persistence.Event{}, err
	}
	if event.UpdatedAt, err = parseTimestamp("updated_at", updatedAtStr); err != nil {
		return persistence.Event{}, err
	}
	return event, nil
}
