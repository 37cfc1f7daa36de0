package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/example/company-calendar/internal/persistence"
	"github.com/example/company-calendar/internal/scheduler"
)

const msgInvalidManager = "The manager must be a user of your company."

// RoomRepository captures the persistence operations needed by the service.
type RoomRepository interface {
	CreateRoom(ctx context.Context, room persistence.Room) error
	GetRoom(ctx context.Context, companyID, id string) (persistence.Room, error)
	ListRooms(ctx context.Context, companyID string) ([]persistence.Room, error)
	DeleteRoom(ctx context.Context, id string) error
}

// UserLookup resolves accounts by id.
type UserLookup interface {
	GetUser(ctx context.Context, id string) (persistence.User, error)
}

// RoomService orchestrates validation, authorization, and persistence for rooms.
type RoomService struct {
	rooms       RoomRepository
	users       UserLookup
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewRoomService constructs a room service with the provided dependencies.
func NewRoomService(rooms RoomRepository, users UserLookup, idGenerator func() string, now func() time.Time) *RoomService {
	return NewRoomServiceWithLogger(rooms, users, idGenerator, now, nil)
}

// NewRoomServiceWithLogger constructs a room service with a specified logger.
func NewRoomServiceWithLogger(rooms RoomRepository, users UserLookup, idGenerator func() string, now func() time.Time, logger *slog.Logger) *RoomService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &RoomService{rooms: rooms, users: users, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *RoomService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "RoomService", operation, attrs...)
}

// CreateRoom validates input and persists a new room. The manager defaults to
// the principal and must belong to the principal's company.
func (s *RoomService) CreateRoom(ctx context.Context, params CreateRoomParams) (room Room, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}
	if s.rooms == nil {
		err = fmt.Errorf("room repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "CreateRoom",
		"principal_id", params.Principal.UserID,
	)
	defer func() {
		logOutcome(ctx, logger, err, "failed to create room", "room created", "room_id", room.ID)
	}()

	name := strings.TrimSpace(params.Name)
	address := strings.TrimSpace(params.Address)
	managerID := strings.TrimSpace(params.ManagerID)
	if managerID == "" {
		managerID = params.Principal.UserID
	}

	vErr := validateRoomInput(name, address)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	if managerID != params.Principal.UserID {
		if err = s.checkManager(ctx, params.Principal, managerID); err != nil {
			return
		}
	}

	record := persistence.Room{
		ID:        s.idGenerator(),
		Name:      name,
		Address:   address,
		ManagerID: &managerID,
		CreatedAt: s.now().UTC(),
	}
	if err = s.rooms.CreateRoom(ctx, record); err != nil {
		err = mapRoomRepoError(err)
		return
	}

	room = toRoom(record)
	return
}

// checkManager rejects managers that are unknown or belong to another company.
func (s *RoomService) checkManager(ctx context.Context, principal scheduler.Principal, managerID string) error {
	invalid := &ValidationError{}
	invalid.add("manager", msgInvalidManager)

	if s.users == nil {
		return invalid
	}
	manager, err := s.users.GetUser(ctx, managerID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return invalid
		}
		return fmt.Errorf("load manager: %w", err)
	}
	if manager.CompanyID != principal.CompanyID {
		return invalid
	}
	return nil
}

// GetRoom returns a room of the principal's company.
func (s *RoomService) GetRoom(ctx context.Context, principal scheduler.Principal, roomID string) (Room, error) {
	if s == nil {
		return Room{}, fmt.Errorf("RoomService is nil")
	}
	if s.rooms == nil {
		return Room{}, fmt.Errorf("room repository not configured")
	}

	record, err := s.rooms.GetRoom(ctx, principal.CompanyID, strings.TrimSpace(roomID))
	if err != nil {
		err = mapRoomRepoError(err)
		s.loggerWith(ctx, "GetRoom", "principal_id", principal.UserID, "room_id", roomID).
			DebugContext(ctx, "room lookup failed", "error", err, "error_kind", ErrorKind(err))
		return Room{}, err
	}
	return toRoom(record), nil
}

// DeleteRoom removes a room. Only the room's manager may delete it; events
// held there keep existing without a location.
func (s *RoomService) DeleteRoom(ctx context.Context, principal scheduler.Principal, roomID string) error {
	if s == nil {
		return fmt.Errorf("RoomService is nil")
	}
	if s.rooms == nil {
		return fmt.Errorf("room repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteRoom",
		"principal_id", principal.UserID,
		"room_id", roomID,
	)

	room, err := s.rooms.GetRoom(ctx, principal.CompanyID, strings.TrimSpace(roomID))
	if err != nil {
		err = mapRoomRepoError(err)
		logOutcome(ctx, logger, err, "failed to delete room", "")
		return err
	}
	if room.ManagerID == nil || *room.ManagerID != principal.UserID {
		logOutcome(ctx, logger, ErrUnauthorized, "failed to delete room", "")
		return ErrUnauthorized
	}

	if err := s.rooms.DeleteRoom(ctx, room.ID); err != nil {
		err = mapRoomRepoError(err)
		logOutcome(ctx, logger, err, "failed to delete room", "")
		return err
	}

	logger.InfoContext(ctx, "room deleted")
	return nil
}

// ListRooms returns the rooms of the principal's company in creation order.
func (s *RoomService) ListRooms(ctx context.Context, principal scheduler.Principal) (rooms []Room, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}
	if s.rooms == nil {
		return nil, nil
	}

	logger := s.loggerWith(ctx, "ListRooms",
		"principal_id", principal.UserID,
	)
	defer func() {
		logOutcome(ctx, logger, err, "failed to list rooms", "rooms listed", "result_count", len(rooms))
	}()

	var records []persistence.Room
	records, err = s.rooms.ListRooms(ctx, principal.CompanyID)
	if err != nil {
		err = mapRoomRepoError(err)
		return
	}

	rooms = make([]Room, len(records))
	for i, record := range records {
		rooms[i] = toRoom(record)
	}
	return
}

func validateRoomInput(name, address string) *ValidationError {
	vErr := &ValidationError{}

	switch {
	case name == "":
		vErr.add("name", msgRequired)
	case utf8.RuneCountInString(name) > maxNameLength:
		vErr.add("name", msgTooLong)
	}
	switch {
	case address == "":
		vErr.add("address", msgRequired)
	case utf8.RuneCountInString(address) > maxNameLength:
		vErr.add("address", msgTooLong)
	}

	return vErr
}

func toRoom(record persistence.Room) Room {
	return Room{
		ID:        record.ID,
		Name:      record.Name,
		Address:   record.Address,
		ManagerID: record.ManagerID,
		CreatedAt: record.CreatedAt,
	}
}

func mapRoomRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	if errors.Is(err, persistence.ErrForeignKeyViolation) {
		vErr := &ValidationError{}
		vErr.add("manager", msgInvalidManager)
		return vErr
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		vErr := &ValidationError{}
		vErr.add("name", "Room violates a storage constraint.")
		return vErr
	}
	return fmt.Errorf("room repository: %w", err)
}
