package service

import (
	"strings"
	"time"
)

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z",
}

// parseDay parses a date string in any accepted layout and truncates it to a
// calendar day in UTC. Assignment overlap works at day granularity, so the
// time-of-day portion is always discarded.
func parseDay(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return dayOf(parsed), nil
		}
	}
	return time.Time{}, ErrInvalidInput
}

func dayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
