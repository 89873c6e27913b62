package program

import (
	"fmt"
	"time"

	"github.com/meltforce/traintrack/internal/models"
)

// Focus categorizes an exercise by its role in the session.
type Focus string

const (
	FocusCompound  Focus = "compound"
	FocusIsolation Focus = "isolation"
	FocusPump      Focus = "pump"
)

// SetTarget is one row of a prescription: a number (or range) of sets at a
// rep range.
type SetTarget struct {
	Sets     int    `yaml:"sets" json:"sets"`
	RepRange []int  `yaml:"repRange" json:"repRange"`
	SetRange []int  `yaml:"setRange,omitempty" json:"setRange,omitempty"`
	Label    string `yaml:"label,omitempty" json:"label,omitempty"`
	Notes    string `yaml:"notes,omitempty" json:"notes,omitempty"`
}

// Prescription scopes a list of set targets to an inclusive week range.
type Prescription struct {
	WeekRange []int       `yaml:"weekRange" json:"weekRange"`
	Targets   []SetTarget `yaml:"targets" json:"targets"`
}

// VolumeBump grants extra sets on the first target of an exercise during the
// listed weeks, but only when the user reports excellent recovery.
type VolumeBump struct {
	Weeks     []int  `yaml:"weeks" json:"weeks"`
	ExtraSets int    `yaml:"extraSets" json:"extraSets"`
	Note      string `yaml:"note,omitempty" json:"note,omitempty"`
}

// Exercise is one entry of a session template.
type Exercise struct {
	ID            string         `yaml:"id" json:"id"`
	Name          string         `yaml:"name" json:"name"`
	Focus         Focus          `yaml:"focus" json:"focus"`
	Rest          string         `yaml:"rest" json:"rest"`
	RIR           string         `yaml:"rir" json:"rir"`
	Prescriptions []Prescription `yaml:"prescriptions" json:"prescriptions"`
	VolumeBump    *VolumeBump    `yaml:"optionalVolumeBump,omitempty" json:"optionalVolumeBump,omitempty"`
	VideoURL      string         `yaml:"videoUrl,omitempty" json:"videoUrl,omitempty"`
	Notes         string         `yaml:"notes,omitempty" json:"notes,omitempty"`
}

// SessionTemplate is one of the program's recurring sessions.
type SessionTemplate struct {
	ID        models.SessionType `yaml:"id" json:"id"`
	Title     string             `yaml:"title" json:"title"`
	Subtitle  string             `yaml:"subtitle" json:"subtitle"`
	Exercises []Exercise         `yaml:"exercises" json:"exercises"`
}

// Week carries the phase label and emphasis text for one program week.
type Week struct {
	Number   int    `yaml:"number" json:"number"`
	Phase    string `yaml:"phase" json:"phase"`
	Emphasis string `yaml:"emphasis" json:"emphasis"`
	Deload   bool   `yaml:"deload" json:"deload"`
}

// Phase groups consecutive weeks under one training block.
type Phase struct {
	Label       string `yaml:"label" json:"label"`
	Weeks       []int  `yaml:"weeks" json:"weeks"`
	Description string `yaml:"description" json:"description"`
}

// Warmup is the shared warmup block preceding every session.
type Warmup struct {
	Duration string   `yaml:"duration" json:"duration"`
	Items    []string `yaml:"items" json:"items"`
}

// DeloadRule describes how volume is reduced on deload weeks.
type DeloadRule struct {
	Weeks         []int  `yaml:"weeks" json:"weeks"`
	Guidance      string `yaml:"guidance" json:"guidance"`
	ReductionNote string `yaml:"reductionNote" json:"reductionNote"`
}

// ScheduleDay maps a weekday to a session template.
type ScheduleDay struct {
	Day       string             `yaml:"day" json:"day"`
	SessionID models.SessionType `yaml:"sessionId" json:"sessionId"`
}

// Program is an immutable multi-week training program definition.
type Program struct {
	Name              string            `yaml:"name" json:"name"`
	DurationWeeks     int               `yaml:"durationWeeks" json:"durationWeeks"`
	Schedule          []ScheduleDay     `yaml:"schedule" json:"schedule"`
	Sessions          []SessionTemplate `yaml:"sessions" json:"sessions"`
	Weeks             []Week            `yaml:"weeks" json:"weeks"`
	Phases            []Phase           `yaml:"phases" json:"phases"`
	Warmup            Warmup            `yaml:"warmup" json:"warmup"`
	Deload            DeloadRule        `yaml:"deload" json:"deload"`
	Rules             []string          `yaml:"rules" json:"rules"`
	VolumeAdjustments []string          `yaml:"volumeAdjustments" json:"volumeAdjustments"`
}

// Session returns the session template with the given id. A missing id means
// the catalog and logged data disagree, so the error must propagate.
func (p *Program) Session(id models.SessionType) (*SessionTemplate, error) {
	for i := range p.Sessions {
		if p.Sessions[i].ID == id {
			return &p.Sessions[i], nil
		}
	}
	return nil, fmt.Errorf("session %s not found in program %q", id, p.Name)
}

// FindExercise searches all sessions for an exercise by id.
func (p *Program) FindExercise(id string) (*Exercise, bool) {
	for i := range p.Sessions {
		for j := range p.Sessions[i].Exercises {
			if p.Sessions[i].Exercises[j].ID == id {
				return &p.Sessions[i].Exercises[j], true
			}
		}
	}
	return nil, false
}

// WeekInfo returns the metadata for a week number, falling back to the first
// week when the number is out of range.
func (p *Program) WeekInfo(number int) Week {
	for _, w := range p.Weeks {
		if w.Number == number {
			return w
		}
	}
	if len(p.Weeks) > 0 {
		return p.Weeks[0]
	}
	return Week{Number: number}
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekday maps a lowercase English weekday name to time.Weekday.
func ParseWeekday(day string) (time.Weekday, error) {
	if wd, ok := weekdays[day]; ok {
		return wd, nil
	}
	return 0, fmt.Errorf("unknown weekday %q", day)
}
