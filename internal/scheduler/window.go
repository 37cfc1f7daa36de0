package scheduler

import (
	"time"
)

// MaxEventDuration is the longest span an event may cover.
const MaxEventDuration = 8 * time.Hour

// WindowField is the field name under which time window violations are reported.
const WindowField = "time"

const (
	MessageStartAfterEnd   = "The start time must be earlier than the end time."
	MessageDurationTooLong = "The meeting duration cannot be longer than 8 hours."
)

// WindowError reports a violated time window rule.
type WindowError struct {
	Field   string
	Message string
}

func (e *WindowError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidateWindow checks the ordering and duration rules for an event.
// Rules are evaluated in order and the first violation wins.
func ValidateWindow(start, end time.Time) error {
	if !start.Before(end) {
		return &WindowError{Field: WindowField, Message: MessageStartAfterEnd}
	}
	if end.Sub(start) > MaxEventDuration {
		return &WindowError{Field: WindowField, Message: MessageDurationTooLong}
	}
	return nil
}
