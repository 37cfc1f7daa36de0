package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/example/company-calendar/internal/application"
	"github.com/example/company-calendar/internal/persistence"
	"github.com/example/company-calendar/internal/scheduler"
)

var (
	userCounter  uint64
	roomCounter  uint64
	eventCounter uint64
)

var referenceTime = time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// DefaultPassword is the plaintext password of every generated user fixture.
const DefaultPassword = "correct-horse-battery"

// FastArgon2idParams keeps fixture hashing cheap. VerifyPassword reads the
// parameters from the hash, so these hashes verify like production ones.
var FastArgon2idParams = application.Argon2idParams{
	Memory:      1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  8,
	KeyLength:   16,
}

// HashPassword hashes password with FastArgon2idParams. It matches the
// application.PasswordHasher signature.
func HashPassword(password string) (string, error) {
	return application.CreatePasswordHash(password, FastArgon2idParams)
}

// CompanyID derives a stable company UUID from a readable label.
func CompanyID(label string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("company:"+label)).String()
}

// ----------------------------- User fixtures -----------------------------

// UserFixture represents a deterministic user record.
type UserFixture struct {
	ID        string
	Email     string
	Password  string
	CompanyID string
	Timezone  string
	CreatedAt time.Time
}

// UserOption configures the generated user fixture.
type UserOption func(*UserFixture)

// NewUserFixture returns a deterministic user fixture with optional overrides.
func NewUserFixture(opts ...UserOption) UserFixture {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	fixture := UserFixture{
		ID:        id,
		Email:     fmt.Sprintf("%s@example.com", id),
		Password:  DefaultPassword,
		CompanyID: CompanyID("default"),
		Timezone:  "UTC",
		CreatedAt: referenceTime.Add(time.Duration(idx) * time.Minute),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithUserID overrides the generated user ID.
func WithUserID(id string) UserOption {
	return func(f *UserFixture) {
		f.ID = id
	}
}

// WithUserEmail overrides the generated email address.
func WithUserEmail(email string) UserOption {
	return func(f *UserFixture) {
		f.Email = email
	}
}

// WithUserPassword overrides the plaintext password.
func WithUserPassword(password string) UserOption {
	return func(f *UserFixture) {
		f.Password = password
	}
}

// WithUserCompany places the user in the company derived from label.
func WithUserCompany(label string) UserOption {
	return func(f *UserFixture) {
		f.CompanyID = CompanyID(label)
	}
}

// WithUserTimezone overrides the IANA timezone.
func WithUserTimezone(tz string) UserOption {
	return func(f *UserFixture) {
		f.Timezone = tz
	}
}

// Persistence returns the fixture as a persistence.User with a freshly hashed password.
func (f UserFixture) Persistence() (persistence.User, error) {
	hash, err := HashPassword(f.Password)
	if err != nil {
		return persistence.User{}, err
	}
	return persistence.User{
		ID:           f.ID,
		Email:        f.Email,
		PasswordHash: hash,
		CompanyID:    f.CompanyID,
		Timezone:     f.Timezone,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.CreatedAt,
	}, nil
}

// Principal returns the principal the fixture authenticates as. It panics on
// an invalid timezone, which is a bug in the test itself.
func (f UserFixture) Principal() scheduler.Principal {
	p, err := scheduler.NewPrincipal(f.ID, f.CompanyID, f.Timezone)
	if err != nil {
		panic(fmt.Sprintf("fixture principal for %s: %v", f.ID, err))
	}
	return p
}

// ----------------------------- Room fixtures -----------------------------

// RoomFixture represents a deterministic conference room record.
type RoomFixture struct {
	ID        string
	Name      string
	Address   string
	ManagerID *string
	CreatedAt time.Time
}

// RoomOption configures the generated room fixture.
type RoomOption func(*RoomFixture)

// NewRoomFixture returns a deterministic room fixture with optional overrides.
func NewRoomFixture(opts ...RoomOption) RoomFixture {
	idx := atomic.AddUint64(&roomCounter, 1)
	fixture := RoomFixture{
		ID:        fmt.Sprintf("room-%03d", idx),
		Name:      fmt.Sprintf("Room %03d", idx),
		Address:   fmt.Sprintf("%d Main Street", idx),
		CreatedAt: referenceTime.Add(time.Duration(idx) * time.Minute),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithRoomID overrides the generated room ID.
func WithRoomID(id string) RoomOption {
	return func(f *RoomFixture) {
		f.ID = id
	}
}

// WithRoomName overrides the generated name.
func WithRoomName(name string) RoomOption {
	return func(f *RoomFixture) {
		f.Name = name
	}
}

// WithRoomAddress overrides the generated address.
func WithRoomAddress(address string) RoomOption {
	return func(f *RoomFixture) {
		f.Address = address
	}
}

// WithRoomManager sets the managing user.
func WithRoomManager(userID string) RoomOption {
	return func(f *RoomFixture) {
		f.ManagerID = &userID
	}
}

// Persistence returns the fixture as a persistence.Room.
func (f RoomFixture) Persistence() persistence.Room {
	return persistence.Room{
		ID:        f.ID,
		Name:      f.Name,
		Address:   f.Address,
		ManagerID: f.ManagerID,
		CreatedAt: f.CreatedAt,
	}
}

// ----------------------------- Event fixtures ----------------------------

// EventFixture represents a deterministic calendar event.
type EventFixture struct {
	ID           string
	CompanyID    string
	OwnerID      string
	Name         string
	Agenda       string
	Start        time.Time
	End          time.Time
	LocationID   *string
	Participants []string
	CreatedAt    time.Time
}

// EventOption configures the generated event fixture.
type EventOption func(*EventFixture)

// NewEventFixture returns an event owned by owner lasting one hour.
func NewEventFixture(owner UserFixture, opts ...EventOption) EventFixture {
	idx := atomic.AddUint64(&eventCounter, 1)
	start := referenceTime.Add(time.Duration(idx) * time.Hour)
	fixture := EventFixture{
		ID:        fmt.Sprintf("event-%03d", idx),
		CompanyID: owner.CompanyID,
		OwnerID:   owner.ID,
		Name:      fmt.Sprintf("Event %03d", idx),
		Agenda:    fmt.Sprintf("Agenda %03d", idx),
		Start:     start,
		End:       start.Add(time.Hour),
		CreatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithEventID overrides the generated event ID.
func WithEventID(id string) EventOption {
	return func(f *EventFixture) {
		f.ID = id
	}
}

// WithEventName overrides the event name.
func WithEventName(name string) EventOption {
	return func(f *EventFixture) {
		f.Name = name
	}
}

// WithEventAgenda overrides the agenda.
func WithEventAgenda(agenda string) EventOption {
	return func(f *EventFixture) {
		f.Agenda = agenda
	}
}

// WithEventWindow sets start and end.
func WithEventWindow(start, end time.Time) EventOption {
	return func(f *EventFixture) {
		f.Start = start
		f.End = end
	}
}

// WithEventLocation sets the room.
func WithEventLocation(roomID string) EventOption {
	return func(f *EventFixture) {
		f.LocationID = &roomID
	}
}

// WithEventParticipants sets participant emails.
func WithEventParticipants(emails ...string) EventOption {
	return func(f *EventFixture) {
		f.Participants = append([]string(nil), emails...)
	}
}

// Persistence returns the fixture as a persistence.NewEvent.
func (f EventFixture) Persistence() persistence.NewEvent {
	return persistence.NewEvent{
		ID:                f.ID,
		CompanyID:         f.CompanyID,
		OwnerID:           f.OwnerID,
		Name:              f.Name,
		Agenda:            f.Agenda,
		Start:             f.Start,
		End:               f.End,
		LocationID:        f.LocationID,
		ParticipantEmails: f.Participants,
		CreatedAt:         f.CreatedAt,
	}
}
