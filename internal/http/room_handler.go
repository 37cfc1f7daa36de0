package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/company-calendar/internal/application"
	"github.com/example/company-calendar/internal/scheduler"
)

type roomService interface {
	CreateRoom(ctx context.Context, params application.CreateRoomParams) (application.Room, error)
	GetRoom(ctx context.Context, principal scheduler.Principal, roomID string) (application.Room, error)
	DeleteRoom(ctx context.Context, principal scheduler.Principal, roomID string) error
	ListRooms(ctx context.Context, principal scheduler.Principal) ([]application.Room, error)
}

type RoomHandler struct {
	handlerBase
	service roomService
}

func NewRoomHandler(service roomService, logger *slog.Logger) *RoomHandler {
	return &RoomHandler{handlerBase: newHandlerBase("RoomHandler", logger), service: service}
}

func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID)

	var req roomRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(r.Context(), w, logger, err)
		return
	}

	params := application.CreateRoomParams{Principal: principal, Name: req.Name, Address: req.Address}
	if req.Manager != nil {
		params.ManagerID = *req.Manager
	}

	room, err := h.service.CreateRoom(r.Context(), params)
	if err != nil {
		h.fail(r.Context(), w, logger, "room creation failed", err)
		return
	}

	logger.With("room_id", room.ID).InfoContext(r.Context(), "room created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toRoomDTO(room))
}

func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	roomID, _ := ResourceIDFromContext(r.Context())
	logger := h.log(r.Context(), "Get", "principal_id", principal.UserID, "room_id", roomID)

	room, err := h.service.GetRoom(r.Context(), principal, roomID)
	if err != nil {
		h.fail(r.Context(), w, logger, "room lookup failed", err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toRoomDTO(room))
}

func (h *RoomHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	roomID, _ := ResourceIDFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "room_id", roomID)

	if err := h.service.DeleteRoom(r.Context(), principal, roomID); err != nil {
		h.fail(r.Context(), w, logger, "room delete failed", err)
		return
	}

	logger.InfoContext(r.Context(), "room deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "List", "principal_id", principal.UserID)

	rooms, err := h.service.ListRooms(r.Context(), principal)
	if err != nil {
		h.fail(r.Context(), w, logger, "room list failed", err)
		return
	}

	logger.With("result_count", len(rooms)).InfoContext(r.Context(), "rooms listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toRoomDTOs(rooms))
}

type roomRequest struct {
	Name    string  `json:"name"`
	Address string  `json:"address"`
	Manager *string `json:"manager"`
}

type roomDTO struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Address string  `json:"address"`
	Manager *string `json:"manager"`
}

func toRoomDTO(room application.Room) roomDTO {
	return roomDTO{
		ID:      room.ID,
		Name:    room.Name,
		Address: room.Address,
		Manager: room.ManagerID,
	}
}

func toRoomDTOs(rooms []application.Room) []roomDTO {
	out := make([]roomDTO, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, toRoomDTO(room))
	}
	return out
}
