package scheduler

import (
	"strings"

	"github.com/example/company-calendar/internal/persistence"
)

// EventQuery holds the optional caller-supplied event filters.
type EventQuery struct {
	// EventID narrows the result to a single event (retrieve by id).
	EventID string
	// Text is matched case-insensitively against the event name and agenda.
	Text string
	// Day is interpreted in the principal's timezone.
	Day *CivilDay
	// LocationID narrows the result to events held in one room.
	LocationID string
}

// ComposeEventFilter builds the repository filter for a principal. Tenancy and
// visibility are always set from the principal; the remaining stages are
// applied only when the corresponding query field is non-empty.
func ComposeEventFilter(p Principal, q EventQuery) persistence.EventFilter {
	filter := persistence.EventFilter{
		CompanyID: p.CompanyID,
		ViewerID:  p.UserID,
		EventID:   strings.TrimSpace(q.EventID),
	}

	if text := strings.TrimSpace(q.Text); text != "" {
		filter.Text = strings.ToLower(text)
	}

	if q.Day != nil {
		r := q.Day.Range(p.Zone())
		filter.Day = &persistence.TimeRange{Start: r.Start, End: r.End}
	}

	if loc := strings.TrimSpace(q.LocationID); loc != "" {
		filter.LocationID = &loc
	}

	return filter
}
