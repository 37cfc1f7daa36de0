// Package http provides HTTP handlers and middleware for the calendar API.
//
// Every endpoint except signup requires HTTP Basic credentials. The router
// exposes:
//   - GET /conference-rooms, POST /conference-rooms: rooms of the caller's
//     company. Body and response use the `roomDTO` payload from room_handler.go.
//   - GET /conference-rooms/{id}, DELETE /conference-rooms/{id}: delete is
//     limited to the room manager.
//   - GET /calendar-events?query=&day=&location_id=, POST /calendar-events:
//     visible events of the caller, exchanging the `eventDTO` payload defined in
//     event_handler.go. Timestamps are rendered in the caller's timezone.
//   - GET /calendar-events/{id}: a single visible event.
//   - GET /calendar-events.ics: the same listing as an iCalendar document.
//   - POST /users: signup, no credentials required.
//   - GET /users/me, PATCH /users/me, DELETE /users/me: the caller's profile.
//
// Errors are returned as {"message": "...", "errors": {"field": "..."}}.
package http
