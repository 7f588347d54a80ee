package services

import (
	"testing"

	"celebration-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTimeTo24Hr(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "evening", input: "6:00 PM", want: "18:00"},
		{name: "morning", input: "9:30 AM", want: "09:30"},
		{name: "noon", input: "12:00 PM", want: "12:00"},
		{name: "midnight", input: "12:00 AM", want: "00:00"},
		{name: "missing meridiem", input: "18:00", wantErr: true},
		{name: "garbage", input: "sixish", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatTimeTo24Hr(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLongDate(t *testing.T) {
	d, err := ParseLongDate("July 20, 2025")
	require.NoError(t, err)
	assert.Equal(t, 2025, d.Year())
	assert.Equal(t, "July", d.Month().String())
	assert.Equal(t, 20, d.Day())

	d, err = ParseLongDate("July 20,2025")
	require.NoError(t, err)
	assert.Equal(t, 2025, d.Year())
	assert.Equal(t, "July", d.Month().String())
	assert.Equal(t, 20, d.Day())

	_, err = ParseLongDate("2025-07-20")
	assert.Error(t, err)
}

func TestSortEventsChronologically(t *testing.T) {
	mk := func(id, date, start string) *models.Event {
		return &models.Event{
			ID:       id,
			DateTime: models.EventDateTime{Date: date, StartTime: start, EndTime: "11:59 PM"},
		}
	}

	// A late evening on the 19th sorts before an early morning on the
	// 20th, which lexicographic sorting of the raw strings would not give.
	events := []*models.Event{
		mk("b", "July 20, 2025", "9:00 AM"),
		mk("a", "July 19, 2025", "11:00 PM"),
		mk("d", "not a date", "1:00 PM"),
		mk("c", "July 20, 2025", "6:00 PM"),
	}

	SortEventsChronologically(events)

	ids := make([]string, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids)
}

func TestSortEventsChronologicallyCompactDates(t *testing.T) {
	mk := func(id, date, start string) *models.Event {
		return &models.Event{
			ID:       id,
			DateTime: models.EventDateTime{Date: date, StartTime: start, EndTime: "11:59 PM"},
		}
	}

	// Dates stored without a space after the comma still parse, so the
	// 19th keeps its place ahead of the 20th.
	events := []*models.Event{
		mk("b", "July 20,2025", "9:00 AM"),
		mk("a", "July 19,2025", "11:00 PM"),
	}

	SortEventsChronologically(events)

	assert.Equal(t, "a", events[0].ID)
	assert.Equal(t, "b", events[1].ID)
}
