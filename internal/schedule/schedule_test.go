package schedule

import (
	"testing"
	"time"

	"github.com/meltforce/traintrack/internal/models"
	"github.com/meltforce/traintrack/internal/program"
)

// TestCurrentWeekNumber verifies week derivation and clamping to the program
// duration.
func TestCurrentWeekNumber(t *testing.T) {
	now := time.Date(2026, 3, 18, 12, 0, 0, 0, time.UTC) // Wednesday

	tests := []struct {
		name  string
		start string
		weeks int
		want  int
	}{
		{name: "first week", start: "2026-03-16T00:00:00Z", weeks: 12, want: 1},
		{name: "third week", start: "2026-03-02T00:00:00Z", weeks: 12, want: 3},
		{name: "clamped to duration", start: "2025-01-01T00:00:00Z", weeks: 12, want: 12},
		{name: "start in the future", start: "2026-06-01T00:00:00Z", weeks: 12, want: 1},
		{name: "date-only start", start: "2026-03-09", weeks: 12, want: 2},
		{name: "unparseable start", start: "not-a-date", weeks: 12, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CurrentWeekNumber(tt.start, tt.weeks, now); got != tt.want {
				t.Errorf("CurrentWeekNumber = %d, want %d", got, tt.want)
			}
		})
	}
}

var monWedFri = []program.ScheduleDay{
	{Day: "monday", SessionID: models.SessionA},
	{Day: "wednesday", SessionID: models.SessionB},
	{Day: "friday", SessionID: models.SessionC},
}

// TestSessionForDate verifies today's session resolution and the wrap-around
// to the next scheduled day.
func TestSessionForDate(t *testing.T) {
	tests := []struct {
		name     string
		date     time.Time
		wantID   models.SessionType
		wantNext bool
	}{
		{name: "training day", date: time.Date(2026, 3, 16, 8, 0, 0, 0, time.UTC), wantID: models.SessionA}, // Monday
		{name: "off day picks next", date: time.Date(2026, 3, 17, 8, 0, 0, 0, time.UTC), wantID: models.SessionB, wantNext: true}, // Tuesday
		{name: "weekend wraps to Monday", date: time.Date(2026, 3, 21, 8, 0, 0, 0, time.UTC), wantID: models.SessionA, wantNext: true}, // Saturday
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SessionForDate(tt.date, monWedFri)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.SessionID != tt.wantID {
				t.Errorf("session = %s, want %s", got.SessionID, tt.wantID)
			}
			if got.Next != tt.wantNext {
				t.Errorf("next = %v, want %v", got.Next, tt.wantNext)
			}
		})
	}
}

// TestSessionForDateEmptySchedule verifies an empty schedule errors instead
// of panicking.
func TestSessionForDateEmptySchedule(t *testing.T) {
	if _, err := SessionForDate(time.Now(), nil); err == nil {
		t.Error("expected error for empty schedule")
	}
}

// TestIsDeloadWeek reads the flag off the program's week metadata.
func TestIsDeloadWeek(t *testing.T) {
	p := &program.Program{
		DurationWeeks: 3,
		Weeks: []program.Week{
			{Number: 1}, {Number: 2, Deload: true}, {Number: 3},
		},
	}
	if IsDeloadWeek(p, 1) {
		t.Error("week 1 should not be deload")
	}
	if !IsDeloadWeek(p, 2) {
		t.Error("week 2 should be deload")
	}
}
