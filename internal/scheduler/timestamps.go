package scheduler

import (
	"fmt"
	"strings"
	"time"
)

// naiveLayouts are accepted for timestamps without an offset; they are read
// as wall-clock time in the caller's location.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
}

// ParseTimestamp reads an RFC 3339 timestamp. Values without an offset are
// interpreted in loc. The result is in UTC and truncated to microseconds.
func ParseTimestamp(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("timestamp is empty")
	}
	if loc == nil {
		loc = time.UTC
	}

	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return normalizeInstant(t), nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return normalizeInstant(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", value)
}

// FormatLocal renders t as RFC 3339 in loc. A zero offset is written as "Z".
func FormatLocal(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(time.RFC3339Nano)
}

func normalizeInstant(t time.Time) time.Time {
	return t.UTC().Truncate(time.Microsecond)
}
