package models

// SessionType identifies one of a program's session templates.
type SessionType string

const (
	SessionA SessionType = "A"
	SessionB SessionType = "B"
	SessionC SessionType = "C"
)

// Valid reports whether s is one of the known session types.
func (s SessionType) Valid() bool {
	switch s {
	case SessionA, SessionB, SessionC:
		return true
	}
	return false
}

// SetEntry is one performed set within an exercise log.
type SetEntry struct {
	Weight    float64 `json:"weight"`
	Reps      int     `json:"reps"`
	RIR       int     `json:"rir"`
	Completed bool    `json:"completed"`
}

// WorkoutLog records one finished session. Created exactly once per session
// and immutable afterwards except through bulk import or reset.
type WorkoutLog struct {
	ID          string      `json:"id"`
	UserID      string      `json:"userId"`
	Date        string      `json:"date"` // RFC 3339
	WeekNumber  int         `json:"weekNumber"`
	SessionType SessionType `json:"sessionType"`
	Deload      bool        `json:"deload"`
	Notes       string      `json:"notes,omitempty"`
}

// ExerciseLog records the sets performed for one exercise within a workout.
// Date, WeekNumber and SessionType are denormalized copies of the parent
// workout's fields and must stay equal to them.
type ExerciseLog struct {
	ID          string      `json:"id"`
	UserID      string      `json:"userId"`
	WorkoutID   string      `json:"workoutId"`
	ExerciseID  string      `json:"exerciseId"`
	Sets        []SetEntry  `json:"sets"`
	Notes       string      `json:"notes,omitempty"`
	Date        string      `json:"date"`
	WeekNumber  int         `json:"weekNumber"`
	SessionType SessionType `json:"sessionType"`
}

// SettingsState holds one user's preferences. Created with defaults on first
// access; a data reset leaves it untouched.
type SettingsState struct {
	RecoveryExcellent bool   `json:"recoveryExcellent"`
	ProgramStart      string `json:"programStart"` // RFC 3339
}

// ExportBundle is the import/export payload for one user's partition.
type ExportBundle struct {
	UserID       string         `json:"userId,omitempty"`
	Workouts     []WorkoutLog   `json:"workouts"`
	ExerciseLogs []ExerciseLog  `json:"exerciseLogs"`
	Settings     *SettingsState `json:"settings,omitempty"`
}
