package application

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-ical"
)

// CalendarProductID identifies this service in exported calendars.
const CalendarProductID = "-//company-calendar//EN"

// ExportCalendar writes the events matched by params as an iCalendar
// document. Event times are UTC; the principal's zone is named in
// X-WR-TIMEZONE so clients can display them locally.
func (s *EventService) ExportCalendar(ctx context.Context, params ListEventsParams, w io.Writer) (err error) {
	if s == nil {
		return fmt.Errorf("EventService is nil")
	}

	logger := s.loggerWith(ctx, "ExportCalendar", "principal_id", params.Principal.UserID)

	events, err := s.ListEvents(ctx, params)
	if err != nil {
		return err
	}

	cal := BuildCalendar(events, params.Principal.Zone(), s.now().UTC())
	if len(cal.Children) == 0 {
		// The encoder refuses calendars without components.
		_, err = io.WriteString(w, emptyCalendar)
	} else {
		err = ical.NewEncoder(w).Encode(cal)
	}
	if err != nil {
		err = fmt.Errorf("encode calendar: %w", err)
		logOutcome(ctx, logger, err, "failed to export calendar", "")
		return err
	}

	logger.InfoContext(ctx, "calendar exported", "event_count", len(events))
	return nil
}

const emptyCalendar = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:" + CalendarProductID + "\r\nEND:VCALENDAR\r\n"

// PropCalendarTimezone is the de facto property naming a calendar's display
// zone. It needs no VTIMEZONE since every date-time is written in UTC.
const PropCalendarTimezone = "X-WR-TIMEZONE"

// BuildCalendar converts events into a VCALENDAR with one VEVENT each.
func BuildCalendar(events []Event, zone *time.Location, stamp time.Time) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, CalendarProductID)
	if zone != nil {
		cal.Props.SetText(PropCalendarTimezone, zone.String())
	}
	for _, event := range events {
		cal.Children = append(cal.Children, toVEvent(event, stamp))
	}
	return cal
}

func toVEvent(event Event, stamp time.Time) *ical.Component {
	ve := ical.NewComponent(ical.CompEvent)
	ve.Props.SetText(ical.PropUID, event.ID)
	ve.Props.SetText(ical.PropSummary, event.EventName)
	ve.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())
	ve.Props.SetDateTime(ical.PropDateTimeStart, event.Start.UTC())
	ve.Props.SetDateTime(ical.PropDateTimeEnd, event.End.UTC())

	if event.Agenda != "" {
		ve.Props.SetText(ical.PropDescription, event.Agenda)
	}
	if event.Location != nil {
		ve.Props.SetText(ical.PropLocation, *event.Location)
	}
	if event.Owner != "" {
		p := ical.NewProp(ical.PropOrganizer)
		p.SetText("mailto:" + event.Owner)
		ve.Props.Add(p)
	}
	for _, attendee := range event.Participants {
		p := ical.NewProp(ical.PropAttendee)
		p.SetText("mailto:" + attendee)
		ve.Props.Add(p)
	}
	return ve
}
