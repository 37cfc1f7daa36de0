package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/company-calendar/internal/application"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Logger      *slog.Logger
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults. Services built
// by the factory log nowhere unless WithLogger is given.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
		Logger:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// WithLogger routes service logs to logger.
func WithLogger(logger *slog.Logger) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Logger = logger
	}
}

// NewEventService builds an event service over events.
func (f *ServiceFactory) NewEventService(events application.EventRepository) *application.EventService {
	return application.NewEventServiceWithLogger(events, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), f.Logger)
}

// NewRoomService builds a room service over rooms and users.
func (f *ServiceFactory) NewRoomService(rooms application.RoomRepository, users application.UserLookup) *application.RoomService {
	return application.NewRoomServiceWithLogger(rooms, users, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), f.Logger)
}

// NewUserService builds a user service that hashes with FastArgon2idParams.
func (f *ServiceFactory) NewUserService(users application.UserRepository, defaultTimezone string) *application.UserService {
	return application.NewUserServiceWithLogger(users, HashPassword, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), defaultTimezone, f.Logger)
}

// NewAuthService builds an auth service using the production verifier.
func (f *ServiceFactory) NewAuthService(credentials application.CredentialStore) *application.AuthService {
	return application.NewAuthServiceWithLogger(credentials, application.VerifyPassword, f.Logger)
}

// Services bundles every application service over one harness.
type Services struct {
	Events *application.EventService
	Rooms  *application.RoomService
	Users  *application.UserService
	Auth   *application.AuthService
}

// NewServices wires all services to the harness repositories.
func (f *ServiceFactory) NewServices(h *SQLiteHarness) Services {
	return Services{
		Events: f.NewEventService(h.Events),
		Rooms:  f.NewRoomService(h.Rooms, h.Users),
		Users:  f.NewUserService(h.Users, ""),
		Auth:   f.NewAuthService(h.Users),
	}
}
