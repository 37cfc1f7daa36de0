package persistence

import "time"

// User represents an account that belongs to exactly one company.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CompanyID    string
	Timezone     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Room represents a conference room. Its tenant is the manager's company.
type Room struct {
	ID        string
	Name      string
	Address   string
	ManagerID *string
	CreatedAt time.Time
}

// Participant is a user attached to an event, with the email used for display.
type Participant struct {
	UserID string
	Email  string
}

// Event represents a calendar entry together with the related values needed
// to render it: the owner's email, the location address, and participants.
type Event struct {
	ID              string
	OwnerID         string
	OwnerEmail      string
	Name            string
	Agenda          string
	Start           time.Time
	End             time.Time
	LocationID      *string
	LocationAddress *string
	Participants    []Participant
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewEvent carries everything required to insert an event atomically.
// ParticipantEmails and LocationID are resolved inside the write transaction,
// restricted to CompanyID.
type NewEvent struct {
	ID                string
	CompanyID         string
	OwnerID           string
	Name              string
	Agenda            string
	Start             time.Time
	End               time.Time
	LocationID        *string
	ParticipantEmails []string
	CreatedAt         time.Time
}
