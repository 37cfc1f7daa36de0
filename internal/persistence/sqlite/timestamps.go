package sqlite

import (
	"fmt"
	"time"
)

// timestampLayout is fixed width so that text comparison in SQL orders the
// same way as the instants do.
const timestampLayout = "2006-01-02T15:04:05.000000Z"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

func parseTimestamp(column, value string) (time.Time, error) {
	t, err := time.Parse(timestampLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse %s: %w", column, err)
	}
	return t, nil
}
