package http

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/company-calendar/internal/application"
	"github.com/example/company-calendar/internal/scheduler"
)

type eventService interface {
	CreateEvent(ctx context.Context, params application.CreateEventParams) (application.Event, error)
	GetEvent(ctx context.Context, principal scheduler.Principal, eventID string) (application.Event, error)
	ListEvents(ctx context.Context, params application.ListEventsParams) ([]application.Event, error)
	ExportCalendar(ctx context.Context, params application.ListEventsParams, w io.Writer) error
}

type EventHandler struct {
	handlerBase
	service eventService
}

func NewEventHandler(service eventService, logger *slog.Logger) *EventHandler {
	return &EventHandler{handlerBase: newHandlerBase("EventHandler", logger), service: service}
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID)

	var req eventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.badRequest(r.Context(), w, logger, err)
		return
	}

	event, err := h.service.CreateEvent(r.Context(), req.toParams(principal))
	if err != nil {
		h.fail(r.Context(), w, logger, "event creation failed", err)
		return
	}

	logger.With("event_id", event.ID).InfoContext(r.Context(), "event created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toEventDTO(event, principal))
}

func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	eventID, _ := ResourceIDFromContext(r.Context())
	logger := h.log(r.Context(), "Get", "principal_id", principal.UserID, "event_id", eventID)

	event, err := h.service.GetEvent(r.Context(), principal, eventID)
	if err != nil {
		h.fail(r.Context(), w, logger, "event lookup failed", err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toEventDTO(event, principal))
}

func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	params := listEventsParams(r, principal)
	logger := h.log(r.Context(), "List", "principal_id", principal.UserID, "day", params.Day)

	events, err := h.service.ListEvents(r.Context(), params)
	if err != nil {
		h.fail(r.Context(), w, logger, "event list failed", err)
		return
	}

	logger.With("result_count", len(events)).InfoContext(r.Context(), "events listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toEventDTOs(events, principal))
}

// Export renders the List result as text/calendar.
func (h *EventHandler) Export(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	params := listEventsParams(r, principal)
	logger := h.log(r.Context(), "Export", "principal_id", principal.UserID)

	var buf bytes.Buffer
	if err := h.service.ExportCalendar(r.Context(), params, &buf); err != nil {
		h.fail(r.Context(), w, logger, "calendar export failed", err)
		return
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="calendar.ics"`)
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		logger.ErrorContext(r.Context(), "failed to write calendar", "error", err)
	}
}

func listEventsParams(r *http.Request, principal scheduler.Principal) application.ListEventsParams {
	q := r.URL.Query()
	return application.ListEventsParams{
		Principal:  principal,
		Query:      q.Get("query"),
		Day:        strings.TrimSpace(q.Get("day")),
		LocationID: strings.TrimSpace(q.Get("location_id")),
	}
}

type eventRequest struct {
	EventName    string   `json:"event_name"`
	Agenda       string   `json:"agenda"`
	Start        string   `json:"start"`
	End          string   `json:"end"`
	Location     *string  `json:"location"`
	Participants []string `json:"participants"`
}

func (r eventRequest) toParams(principal scheduler.Principal) application.CreateEventParams {
	params := application.CreateEventParams{
		Principal:         principal,
		EventName:         r.EventName,
		Agenda:            r.Agenda,
		Start:             r.Start,
		End:               r.End,
		ParticipantEmails: r.Participants,
	}
	if r.Location != nil {
		params.LocationID = strings.TrimSpace(*r.Location)
	}
	return params
}

type eventDTO struct {
	ID           string   `json:"id"`
	Owner        string   `json:"owner"`
	EventName    string   `json:"event_name"`
	Agenda       string   `json:"agenda"`
	Start        string   `json:"start"`
	End          string   `json:"end"`
	Location     *string  `json:"location"`
	Participants []string `json:"participants"`
}

func toEventDTO(event application.Event, principal scheduler.Principal) eventDTO {
	participants := event.Participants
	if participants == nil {
		participants = []string{}
	}
	return eventDTO{
		ID:           event.ID,
		Owner:        event.Owner,
		EventName:    event.EventName,
		Agenda:       event.Agenda,
		Start:        scheduler.FormatLocal(event.Start, principal.Zone()),
		End:          scheduler.FormatLocal(event.End, principal.Zone()),
		Location:     event.Location,
		Participants: participants,
	}
}

func toEventDTOs(events []application.Event, principal scheduler.Principal) []eventDTO {
	out := make([]eventDTO, 0, len(events))
	for _, event := range events {
		out = append(out, toEventDTO(event, principal))
	}
	return out
}
