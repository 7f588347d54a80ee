package services

import (
	"fmt"
	"sort"
	"time"

	"celebration-backend/internal/models"
)

// Stored date/time layouts. Events persist a long-form date plus 12-hour
// clock strings; these exact formats must survive round trips because the
// mobile clients render them verbatim. Older records carry the date with
// no space after the comma, so parsing accepts both variants.
const (
	longDateLayout        = "January 2, 2006"
	longDateCompactLayout = "January 2,2006"
	clockLayout           = "3:04 PM"
)

// FormatTimeTo24Hr normalizes a 12-hour clock string like "6:00 PM" to
// "18:00". Normalized strings compare chronologically as plain strings.
func FormatTimeTo24Hr(value string) (string, error) {
	t, err := time.Parse(clockLayout, value)
	if err != nil {
		return "", fmt.Errorf("invalid time %q: %w", value, err)
	}
	return t.Format("15:04"), nil
}

// ParseLongDate parses a stored date string like "July 20, 2025" or
// "July 20,2025".
func ParseLongDate(value string) (time.Time, error) {
	t, err := time.Parse(longDateLayout, value)
	if err == nil {
		return t, nil
	}
	if t, compactErr := time.Parse(longDateCompactLayout, value); compactErr == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid date %q: %w", value, err)
}

// FormatLongDate renders a time in the stored long-date form.
func FormatLongDate(t time.Time) string {
	return t.Format("January 02, 2006")
}

// ParseEventDateTime reconstructs a sortable timestamp from an event's
// denormalized date and start time strings.
func ParseEventDateTime(dt models.EventDateTime) (time.Time, error) {
	date, err := ParseLongDate(dt.Date)
	if err != nil {
		return time.Time{}, err
	}
	start, err := time.Parse(clockLayout, dt.StartTime)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid start time %q: %w", dt.StartTime, err)
	}
	return time.Date(date.Year(), date.Month(), date.Day(),
		start.Hour(), start.Minute(), 0, 0, time.UTC), nil
}

// SortEventsChronologically orders events ascending by their re-parsed
// date and start time. Events with unparseable date strings sort last.
func SortEventsChronologically(events []*models.Event) {
	keys := make(map[*models.Event]time.Time, len(events))
	for _, e := range events {
		t, err := ParseEventDateTime(e.DateTime)
		if err != nil {
			t = time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)
		}
		keys[e] = t
	}
	sort.SliceStable(events, func(i, j int) bool {
		return keys[events[i]].Before(keys[events[j]])
	})
}
