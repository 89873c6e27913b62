package mcp

import (
	"github.com/meltforce/traintrack/internal/models"
	"github.com/meltforce/traintrack/internal/store"
)

// DataSource abstracts the session store for MCP tools so tests can stub it.
// All data is scoped to the active user; the tools are read-only.
type DataSource interface {
	ActiveUserID() string
	Workouts() []models.WorkoutLog
	ExerciseLogs() []models.ExerciseLog
	Settings() models.SettingsState
}

// Compile-time check: *store.Store satisfies DataSource.
var _ DataSource = (*store.Store)(nil)
