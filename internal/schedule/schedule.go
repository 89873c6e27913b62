// Package schedule maps calendar dates onto program weeks and sessions.
package schedule

import (
	"fmt"
	"time"

	"github.com/meltforce/traintrack/internal/models"
	"github.com/meltforce/traintrack/internal/program"
)

// CurrentWeekNumber returns the 1-based program week containing now, clamped
// to [1, durationWeeks]. An unparseable start date yields week 1.
func CurrentWeekNumber(programStart string, durationWeeks int, now time.Time) int {
	start, err := parseDate(programStart)
	if err != nil {
		return 1
	}
	week := int(now.Sub(start).Hours()/(24*7)) + 1
	if week < 1 {
		return 1
	}
	if week > durationWeeks {
		return durationWeeks
	}
	return week
}

// DaySession names the session scheduled for a date. Next is true when the
// date itself has no session and the nearest upcoming scheduled day was
// returned instead.
type DaySession struct {
	SessionID models.SessionType `json:"sessionId"`
	Day       time.Weekday       `json:"day"`
	Next      bool               `json:"next"`
}

// SessionForDate resolves which session falls on the given date. When the
// date is not a training day, the next scheduled day in the week cycle is
// returned with Next set.
func SessionForDate(now time.Time, sched []program.ScheduleDay) (DaySession, error) {
	if len(sched) == 0 {
		return DaySession{}, fmt.Errorf("empty schedule")
	}

	today := now.Weekday()
	for _, d := range sched {
		wd, err := program.ParseWeekday(d.Day)
		if err != nil {
			return DaySession{}, err
		}
		if wd == today {
			return DaySession{SessionID: d.SessionID, Day: wd}, nil
		}
	}

	// Nearest upcoming day, wrapping around the week. A zero offset at this
	// point means a full week away, not today.
	best := DaySession{}
	bestOffset := 8
	for _, d := range sched {
		wd, err := program.ParseWeekday(d.Day)
		if err != nil {
			return DaySession{}, err
		}
		offset := (int(wd) - int(today) + 7) % 7
		if offset == 0 {
			offset = 7
		}
		if offset < bestOffset {
			bestOffset = offset
			best = DaySession{SessionID: d.SessionID, Day: wd, Next: true}
		}
	}
	return best, nil
}

// IsDeloadWeek reports whether a program week is flagged as deload.
func IsDeloadWeek(p *program.Program, weekNumber int) bool {
	return p.WeekInfo(weekNumber).Deload
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
