package persistence

import (
	"context"
	"time"
)

// UserRepository exposes account operations.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	UpdateTimezone(ctx context.Context, id, timezone string, updatedAt time.Time) error
	DeleteUser(ctx context.Context, id string) error
}

// RoomRepository exposes tenant-scoped room operations. A room belongs to
// the company of its manager; rooms without a manager belong to no company.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room Room) error
	GetRoom(ctx context.Context, companyID, id string) (Room, error)
	ListRooms(ctx context.Context, companyID string) ([]Room, error)
	DeleteRoom(ctx context.Context, id string) error
}

// TimeRange is a half-open instant range [Start, End).
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// EventFilter is the composed event predicate. CompanyID and ViewerID are
// mandatory; every other field narrows the result only when set.
//
// Semantics, applied in this order:
//   - tenancy: owner.company_id = CompanyID
//   - visibility: owner = ViewerID OR participant = ViewerID OR location.manager = ViewerID
//   - EventID: id = EventID
//   - Text: case-insensitive substring of name OR agenda
//   - Day: start OR end falls inside the range
//   - LocationID: location_id = LocationID
type EventFilter struct {
	CompanyID  string
	ViewerID   string
	EventID    string
	Text       string
	Day        *TimeRange
	LocationID *string
}

// EventRepository stores events and their participant links.
type EventRepository interface {
	CreateEvent(ctx context.Context, event NewEvent) (Event, error)
	ListEvents(ctx context.Context, filter EventFilter) ([]Event, error)
}
