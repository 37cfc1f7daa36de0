package application

import (
	"time"

	"github.com/example/company-calendar/internal/scheduler"
)

// Event is the caller-facing view of a calendar event. Start and End are
// expressed in the requesting principal's location.
type Event struct {
	ID        string
	Owner     string
	EventName string
	Agenda    string
	Start     time.Time
	End       time.Time
	// Location is the address of the room, nil when the event has no room.
	Location *string
	// LocationID is the room identifier backing Location.
	LocationID   *string
	Participants []string
}

// CreateEventParams wraps the data required to create an event. Start and
// End are raw timestamps; values without an offset are read in the
// principal's timezone.
type CreateEventParams struct {
	Principal         scheduler.Principal
	EventName         string
	Agenda            string
	Start             string
	End               string
	LocationID        string
	ParticipantEmails []string
}

// ListEventsParams carries the optional event filters.
type ListEventsParams struct {
	Principal  scheduler.Principal
	Query      string
	Day        string
	LocationID string
}

// Room represents a conference room visible to the caller's company.
type Room struct {
	ID        string
	Name      string
	Address   string
	ManagerID *string
	CreatedAt time.Time
}

// CreateRoomParams wraps the data required to create a room. ManagerID
// defaults to the principal.
type CreateRoomParams struct {
	Principal scheduler.Principal
	Name      string
	Address   string
	ManagerID string
}

// User represents an account exposed by the application services.
type User struct {
	ID        string
	Email     string
	CompanyID string
	Timezone  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RegisterUserParams captures signup input. An empty Timezone selects the
// configured default.
type RegisterUserParams struct {
	Email     string
	Password  string
	CompanyID string
	Timezone  string
}

// UpdateTimezoneParams changes the timezone of the principal's own account.
type UpdateTimezoneParams struct {
	Principal scheduler.Principal
	Timezone  string
}

// AuthenticateParams captures the data required to authenticate a user.
type AuthenticateParams struct {
	Email    string
	Password string
}
