package scheduler

import (
	"fmt"
	"strings"
	"time"
)

const civilDayLayout = "2006-01-02"

// CivilDay is a calendar date without a timezone.
type CivilDay struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseCivilDay parses an ISO 8601 calendar date (YYYY-MM-DD).
func ParseCivilDay(value string) (CivilDay, error) {
	value = strings.TrimSpace(value)
	t, err := time.Parse(civilDayLayout, value)
	if err != nil {
		return CivilDay{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
	}
	return CivilDay{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// CivilDayOf returns the calendar date of t as observed in loc.
func CivilDayOf(t time.Time, loc *time.Location) CivilDay {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return CivilDay{Year: local.Year(), Month: local.Month(), Day: local.Day()}
}

func (d CivilDay) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Interval is a half-open range of instants [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the interval.
func (i Interval) Contains(t time.Time) bool {
	return !t.Before(i.Start) && t.Before(i.End)
}

// Range returns the UTC instants bounding the day in loc, from local midnight
// up to (excluding) the next local midnight. Days that contain a DST change
// are 23 or 25 hours long.
func (d CivilDay) Range(loc *time.Location) Interval {
	if loc == nil {
		loc = time.UTC
	}
	start := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
	end := time.Date(d.Year, d.Month, d.Day+1, 0, 0, 0, 0, loc)
	return Interval{Start: start.UTC(), End: end.UTC()}
}
