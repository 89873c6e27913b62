package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/meltforce/traintrack/internal/models"
	"github.com/meltforce/traintrack/internal/program"
)

// ErrInvalidBundle is returned when an import payload fails validation. The
// store is guaranteed untouched.
var ErrInvalidBundle = errors.New("invalid data format")

// Coercion rules for untrusted bundle JSON, centralized here so they can be
// tested independently of storage: numeric fields accept numbers or
// numeric-looking strings; boolean fields accept booleans or "true"/"false"
// (and "1"/"0") strings. Anything else is rejected.

type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return fmt.Errorf("%q is not numeric", s)
		}
		*f = flexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

type flexInt int

func (n *flexInt) UnmarshalJSON(b []byte) error {
	var f flexFloat
	if err := f.UnmarshalJSON(b); err != nil {
		return err
	}
	v := float64(f)
	if v != math.Trunc(v) {
		return fmt.Errorf("%v is not an integer", v)
	}
	*n = flexInt(int(v))
	return nil
}

type flexBool bool

func (fb *flexBool) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true", "1":
			*fb = true
		case "false", "0":
			*fb = false
		default:
			return fmt.Errorf("%q is not a boolean", s)
		}
		return nil
	}
	var v bool
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*fb = flexBool(v)
	return nil
}

type rawSetEntry struct {
	Weight    *flexFloat `json:"weight"`
	Reps      *flexInt   `json:"reps"`
	RIR       *flexInt   `json:"rir"`
	Completed *flexBool  `json:"completed"`
}

type rawWorkout struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Date        string    `json:"date"`
	WeekNumber  *flexInt  `json:"weekNumber"`
	SessionType string    `json:"sessionType"`
	Deload      *flexBool `json:"deload"`
	Notes       string    `json:"notes"`
}

type rawExerciseLog struct {
	ID          string        `json:"id"`
	UserID      string        `json:"userId"`
	WorkoutID   string        `json:"workoutId"`
	ExerciseID  string        `json:"exerciseId"`
	Sets        []rawSetEntry `json:"sets"`
	Notes       string        `json:"notes"`
	Date        string        `json:"date"`
	WeekNumber  *flexInt      `json:"weekNumber"`
	SessionType string        `json:"sessionType"`
}

type rawBundle struct {
	UserID       string                `json:"userId"`
	Workouts     []rawWorkout          `json:"workouts"`
	ExerciseLogs []rawExerciseLog      `json:"exerciseLogs"`
	Settings     *models.SettingsState `json:"settings"`
}

// parseBundle validates an import payload and resolves every record into the
// target user's partition. The target is the bundle's userId when it names a
// known user, otherwise the active user. Any violation returns
// ErrInvalidBundle before a single write happens.
func parseBundle(data []byte, activeUserID string, catalog *program.Catalog) (models.ExportBundle, error) {
	var raw rawBundle
	if err := json.Unmarshal(data, &raw); err != nil {
		return models.ExportBundle{}, fmt.Errorf("%w: %v", ErrInvalidBundle, err)
	}
	if raw.Workouts == nil || raw.ExerciseLogs == nil {
		return models.ExportBundle{}, fmt.Errorf("%w: workouts and exerciseLogs are required", ErrInvalidBundle)
	}

	target := activeUserID
	if raw.UserID != "" {
		if _, ok := catalog.User(raw.UserID); ok {
			target = raw.UserID
		}
	}
	maxWeek := catalog.ProgramForUser(target).DurationWeeks

	bundle := models.ExportBundle{
		UserID:       target,
		Workouts:     make([]models.WorkoutLog, 0, len(raw.Workouts)),
		ExerciseLogs: make([]models.ExerciseLog, 0, len(raw.ExerciseLogs)),
	}

	for i, w := range raw.Workouts {
		converted, err := convertWorkout(w, target, maxWeek)
		if err != nil {
			return models.ExportBundle{}, fmt.Errorf("%w: workouts[%d]: %v", ErrInvalidBundle, i, err)
		}
		bundle.Workouts = append(bundle.Workouts, converted)
	}
	for i, l := range raw.ExerciseLogs {
		converted, err := convertExerciseLog(l, target, maxWeek)
		if err != nil {
			return models.ExportBundle{}, fmt.Errorf("%w: exerciseLogs[%d]: %v", ErrInvalidBundle, i, err)
		}
		bundle.ExerciseLogs = append(bundle.ExerciseLogs, converted)
	}
	bundle.Settings = raw.Settings
	return bundle, nil
}

func convertWorkout(w rawWorkout, target string, maxWeek int) (models.WorkoutLog, error) {
	if w.ID == "" {
		return models.WorkoutLog{}, fmt.Errorf("missing id")
	}
	if w.Date == "" {
		return models.WorkoutLog{}, fmt.Errorf("missing date")
	}
	week, err := validWeek(w.WeekNumber, maxWeek)
	if err != nil {
		return models.WorkoutLog{}, err
	}
	session := models.SessionType(w.SessionType)
	if !session.Valid() {
		return models.WorkoutLog{}, fmt.Errorf("sessionType %q is not one of A/B/C", w.SessionType)
	}
	if w.Deload == nil {
		return models.WorkoutLog{}, fmt.Errorf("missing deload")
	}
	return models.WorkoutLog{
		ID:          w.ID,
		UserID:      target,
		Date:        w.Date,
		WeekNumber:  week,
		SessionType: session,
		Deload:      bool(*w.Deload),
		Notes:       w.Notes,
	}, nil
}

func convertExerciseLog(l rawExerciseLog, target string, maxWeek int) (models.ExerciseLog, error) {
	if l.ID == "" || l.WorkoutID == "" || l.ExerciseID == "" {
		return models.ExerciseLog{}, fmt.Errorf("missing id, workoutId or exerciseId")
	}
	if l.Date == "" {
		return models.ExerciseLog{}, fmt.Errorf("missing date")
	}
	week, err := validWeek(l.WeekNumber, maxWeek)
	if err != nil {
		return models.ExerciseLog{}, err
	}
	session := models.SessionType(l.SessionType)
	if !session.Valid() {
		return models.ExerciseLog{}, fmt.Errorf("sessionType %q is not one of A/B/C", l.SessionType)
	}

	sets := make([]models.SetEntry, 0, len(l.Sets))
	for i, s := range l.Sets {
		entry, err := convertSetEntry(s)
		if err != nil {
			return models.ExerciseLog{}, fmt.Errorf("sets[%d]: %v", i, err)
		}
		sets = append(sets, entry)
	}
	return models.ExerciseLog{
		ID:          l.ID,
		UserID:      target,
		WorkoutID:   l.WorkoutID,
		ExerciseID:  l.ExerciseID,
		Sets:        sets,
		Notes:       l.Notes,
		Date:        l.Date,
		WeekNumber:  week,
		SessionType: session,
	}, nil
}

func convertSetEntry(s rawSetEntry) (models.SetEntry, error) {
	if s.Weight == nil || s.Reps == nil || s.RIR == nil || s.Completed == nil {
		return models.SetEntry{}, fmt.Errorf("weight, reps, rir and completed are required")
	}
	if *s.Weight < 0 {
		return models.SetEntry{}, fmt.Errorf("weight %v is negative", float64(*s.Weight))
	}
	if *s.Reps < 0 {
		return models.SetEntry{}, fmt.Errorf("reps %d is negative", int(*s.Reps))
	}
	if *s.RIR < 0 || *s.RIR > 5 {
		return models.SetEntry{}, fmt.Errorf("rir %d is outside [0,5]", int(*s.RIR))
	}
	return models.SetEntry{
		Weight:    float64(*s.Weight),
		Reps:      int(*s.Reps),
		RIR:       int(*s.RIR),
		Completed: bool(*s.Completed),
	}, nil
}

func validWeek(n *flexInt, maxWeek int) (int, error) {
	if n == nil {
		return 0, fmt.Errorf("missing weekNumber")
	}
	week := int(*n)
	if week < 1 || week > maxWeek {
		return 0, fmt.Errorf("weekNumber %d is outside [1,%d]", week, maxWeek)
	}
	return week, nil
}
