package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/example/company-calendar/internal/persistence"
)

// RoomRepository implements persistence.RoomRepository using SQLite
type RoomRepository struct {
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewRoomRepository creates a new SQLite room repository
func NewRoomRepository(pool *ConnectionPool) *RoomRepository {
	return &RoomRepository{
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// selectTenantRooms joins the manager so that the manager's company acts as
// the room's tenant key. Rooms without a manager never match.
const selectTenantRooms = `
	SELECT r.id, r.name, r.address, r.manager_id, r.created_at
	FROM conference_rooms r
	JOIN users m ON m.id = r.manager_id
	WHERE m.company_id = ?`

// CreateRoom inserts a new room
func (r *RoomRepository) CreateRoom(ctx context.Context, room persistence.Room) error {
	if room.ID == "" || room.Name == "" {
		return persistence.ErrConstraintViolation
	}
	if room.CreatedAt.IsZero() {
		room.CreatedAt = time.Now().UTC()
	}

	_, err := r.helper.Exec(ctx, `
		INSERT INTO conference_rooms (id, name, address, manager_id, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		room.ID,
		room.Name,
		room.Address,
		nullableString(room.ManagerID),
		formatTimestamp(room.CreatedAt),
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return nil
}

// GetRoom retrieves a room within a company
func (r *RoomRepository) GetRoom(ctx context.Context, companyID, id string) (persistence.Room, error) {
	if companyID == "" || id == "" {
		return persistence.Room{}, persistence.ErrNotFound
	}

	room, err := scanRoom(r.helper.QueryRow(ctx, selectTenantRooms+` AND r.id = ?`, companyID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Room{}, persistence.ErrNotFound
		}
		return persistence.Room{}, r.mapper.MapError(err)
	}
	return room, nil
}

// ListRooms returns the company's rooms ordered by creation timestamp then ID
func (r *RoomRepository) ListRooms(ctx context.Context, companyID string) ([]persistence.Room, error) {
	if companyID == "" {
		return nil, nil
	}

	rows, err := r.helper.Query(ctx, selectTenantRooms+` ORDER BY r.created_at ASC, r.id ASC`, companyID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var rooms []persistence.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return rooms, nil
}

// DeleteRoom removes a room. Events held there keep existing without a location.
func (r *RoomRepository) DeleteRoom(ctx context.Context, id string) error {
	result, err := r.helper.Exec(ctx, `DELETE FROM conference_rooms WHERE id = ?`, id)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireAffected(result)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoom(row rowScanner) (persistence.Room, error) {
	var (
		room         persistence.Room
		managerID    sql.NullString
		createdAtStr string
	)
	if err := row.Scan(&room.ID, &room.Name, &room.Address, &managerID, &createdAtStr); err != nil {
		return persistence.Room{}, err
	}
	room.ManagerID = stringPtr(managerID)

	createdAt, err := parseTimestamp("created_at", createdAtStr)
	if err != nil {
		return persistence.Room{}, err
	}
	room.CreatedAt = createdAt
	return room, nil
}

func nullableString(value *string) any {
	if value == nil {
		return nil
	}
	return *value
}

func stringPtr(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	v := value.String
	return &v
}
