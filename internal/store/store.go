// Package store is the session-state controller: the only reader and writer
// of the persistent store. It mirrors exactly one user's partition in memory
// for presentation and mediates logging, settings, export, import and reset.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/traintrack/internal/models"
	"github.com/meltforce/traintrack/internal/program"
	"github.com/meltforce/traintrack/internal/storage"
)

// State of the active user partition.
type State int

const (
	StateUnloaded State = iota
	StateLoading
	StateReady
)

// Store holds the in-memory mirror of the active user's partition. It is not
// safe for concurrent use; the tracker is a single local agent.
type Store struct {
	db      *storage.DB
	catalog *program.Catalog
	log     *slog.Logger
	now     func() time.Time

	state        State
	loadErr      error
	activeUserID string
	workouts     []models.WorkoutLog
	exerciseLogs []models.ExerciseLog
	settings     models.SettingsState
}

// New creates an unloaded store; call Init before reading from it.
func New(db *storage.DB, catalog *program.Catalog, log *slog.Logger) *Store {
	return &Store{db: db, catalog: catalog, log: log, now: time.Now}
}

// SessionExercise is one exercise's performed sets submitted with a session.
type SessionExercise struct {
	ExerciseID string            `json:"exerciseId"`
	Sets       []models.SetEntry `json:"sets"`
	Notes      string            `json:"notes,omitempty"`
}

// SessionInput is the payload for LogSession. Date defaults to the time of
// logging when empty.
type SessionInput struct {
	Date        string             `json:"date,omitempty"`
	WeekNumber  int                `json:"weekNumber"`
	SessionType models.SessionType `json:"sessionType"`
	Deload      bool               `json:"deload"`
	Notes       string             `json:"notes,omitempty"`
	Exercises   []SessionExercise  `json:"exercises"`
}

// Init resolves the active-user pointer (falling back to the catalog default)
// and loads that partition. On storage failure the store still becomes ready
// with empty collections and the error attached; it never stays loading.
func (s *Store) Init(ctx context.Context) error {
	userID, err := s.db.ActiveUserID(ctx)
	if err != nil {
		return s.failLoad(s.catalog.DefaultUserID(), err)
	}
	if userID == "" {
		userID = s.catalog.DefaultUserID()
	}
	return s.load(ctx, userID)
}

// SwitchUser replaces the in-memory mirror with another user's partition and
// persists the new active-user pointer. Two users' data are never merged.
func (s *Store) SwitchUser(ctx context.Context, userID string) error {
	if _, ok := s.catalog.User(userID); !ok {
		return fmt.Errorf("unknown user %q", userID)
	}
	err := s.db.Tx(ctx, func(tx *storage.Tx) error {
		return tx.PutActiveUserID(ctx, userID)
	})
	if err != nil {
		return fmt.Errorf("switching user: %w", err)
	}
	return s.load(ctx, userID)
}

// LogSession durably records one finished session: a workout plus one
// exercise log per submitted exercise, written in a single transaction. The
// mirror is updated only after the transaction commits. Returns the new
// workout id.
func (s *Store) LogSession(ctx context.Context, in SessionInput) (string, error) {
	workoutID := uuid.NewString()
	date := in.Date
	if date == "" {
		date = s.now().Format(time.RFC3339)
	}

	workout := models.WorkoutLog{
		ID:          workoutID,
		UserID:      s.activeUserID,
		Date:        date,
		WeekNumber:  in.WeekNumber,
		SessionType: in.SessionType,
		Deload:      in.Deload,
		Notes:       in.Notes,
	}
	logs := make([]models.ExerciseLog, 0, len(in.Exercises))
	for i, ex := range in.Exercises {
		logs = append(logs, models.ExerciseLog{
			// Derived id: unique within the workout even if an exercise
			// somehow appears twice.
			ID:          fmt.Sprintf("%s-%s-%d", workoutID, ex.ExerciseID, i),
			UserID:      s.activeUserID,
			WorkoutID:   workoutID,
			ExerciseID:  ex.ExerciseID,
			Sets:        ex.Sets,
			Notes:       ex.Notes,
			Date:        date,
			WeekNumber:  in.WeekNumber,
			SessionType: in.SessionType,
		})
	}

	err := s.db.Tx(ctx, func(tx *storage.Tx) error {
		if err := tx.PutWorkout(ctx, workout); err != nil {
			return err
		}
		return tx.BulkPutExerciseLogs(ctx, logs)
	})
	if err != nil {
		return "", fmt.Errorf("logging session: %w", err)
	}

	s.workouts = append([]models.WorkoutLog{workout}, s.workouts...)
	s.exerciseLogs = append(append([]models.ExerciseLog{}, logs...), s.exerciseLogs...)
	return workoutID, nil
}

// SettingsPatch carries partial settings updates; nil fields are left as-is.
type SettingsPatch struct {
	RecoveryExcellent *bool
	ProgramStart      *string
}

// SaveSettings merges the patch into the active user's settings and persists
// the result.
func (s *Store) SaveSettings(ctx context.Context, patch SettingsPatch) error {
	next := s.settings
	if patch.RecoveryExcellent != nil {
		next.RecoveryExcellent = *patch.RecoveryExcellent
	}
	if patch.ProgramStart != nil {
		next.ProgramStart = *patch.ProgramStart
	}
	err := s.db.Tx(ctx, func(tx *storage.Tx) error {
		return tx.PutSettings(ctx, s.activeUserID, next)
	})
	if err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}
	s.settings = next
	return nil
}

// ExportData reads the active user's partition fresh from the store, so the
// export reflects durable state even if the mirror has diverged after a
// failed write.
func (s *Store) ExportData(ctx context.Context) (models.ExportBundle, error) {
	workouts, err := s.db.ListWorkouts(ctx, s.activeUserID)
	if err != nil {
		return models.ExportBundle{}, fmt.Errorf("exporting workouts: %w", err)
	}
	logs, err := s.db.ListExerciseLogs(ctx, s.activeUserID)
	if err != nil {
		return models.ExportBundle{}, fmt.Errorf("exporting exercise logs: %w", err)
	}
	settings, err := s.db.GetSettings(ctx, s.activeUserID)
	if err != nil {
		return models.ExportBundle{}, fmt.Errorf("exporting settings: %w", err)
	}
	if settings == nil {
		st := s.settings
		settings = &st
	}
	if workouts == nil {
		workouts = []models.WorkoutLog{}
	}
	if logs == nil {
		logs = []models.ExerciseLog{}
	}
	return models.ExportBundle{
		UserID:       s.activeUserID,
		Workouts:     workouts,
		ExerciseLogs: logs,
		Settings:     settings,
	}, nil
}

// ImportData validates raw bundle JSON and, on success, replaces the target
// user's partition wholesale (delete then bulk insert, one transaction) and
// makes that user active. A validation failure leaves the store untouched.
func (s *Store) ImportData(ctx context.Context, data []byte) error {
	bundle, err := parseBundle(data, s.activeUserID, s.catalog)
	if err != nil {
		return err
	}
	target := bundle.UserID

	err = s.db.Tx(ctx, func(tx *storage.Tx) error {
		if err := tx.DeleteWorkoutsForUser(ctx, target); err != nil {
			return err
		}
		if err := tx.DeleteExerciseLogsForUser(ctx, target); err != nil {
			return err
		}
		if err := tx.BulkPutWorkouts(ctx, bundle.Workouts); err != nil {
			return err
		}
		if err := tx.BulkPutExerciseLogs(ctx, bundle.ExerciseLogs); err != nil {
			return err
		}
		if bundle.Settings != nil {
			if err := tx.PutSettings(ctx, target, *bundle.Settings); err != nil {
				return err
			}
		}
		return tx.PutActiveUserID(ctx, target)
	})
	if err != nil {
		return fmt.Errorf("importing data: %w", err)
	}
	return s.load(ctx, target)
}

// Reset deletes all logs in the active user's partition. Settings, including
// the program start date, are preserved.
func (s *Store) Reset(ctx context.Context) error {
	err := s.db.Tx(ctx, func(tx *storage.Tx) error {
		if err := tx.DeleteWorkoutsForUser(ctx, s.activeUserID); err != nil {
			return err
		}
		return tx.DeleteExerciseLogsForUser(ctx, s.activeUserID)
	})
	if err != nil {
		return fmt.Errorf("resetting logs: %w", err)
	}
	s.workouts = nil
	s.exerciseLogs = nil
	return nil
}

// ActiveUserID returns the id of the partition currently mirrored in memory.
func (s *Store) ActiveUserID() string { return s.activeUserID }

// Workouts returns the mirrored workouts, newest first.
func (s *Store) Workouts() []models.WorkoutLog { return s.workouts }

// ExerciseLogs returns the mirrored exercise logs, newest first.
func (s *Store) ExerciseLogs() []models.ExerciseLog { return s.exerciseLogs }

// Settings returns the active user's settings.
func (s *Store) Settings() models.SettingsState { return s.settings }

// Loading reports whether a partition load is in flight.
func (s *Store) Loading() bool { return s.state == StateLoading }

// Err returns the error attached by the last failed load, if any.
func (s *Store) Err() error { return s.loadErr }

func (s *Store) load(ctx context.Context, userID string) error {
	s.state = StateLoading
	s.loadErr = nil

	workouts, err := s.db.ListWorkouts(ctx, userID)
	if err != nil {
		return s.failLoad(userID, err)
	}
	logs, err := s.db.ListExerciseLogs(ctx, userID)
	if err != nil {
		return s.failLoad(userID, err)
	}
	settings, err := s.db.GetSettings(ctx, userID)
	if err != nil {
		return s.failLoad(userID, err)
	}
	if settings == nil {
		st := defaultSettings(s.now())
		settings = &st
	}

	sortByDateDesc(workouts, func(w models.WorkoutLog) string { return w.Date })
	sortByDateDesc(logs, func(l models.ExerciseLog) string { return l.Date })

	s.activeUserID = userID
	s.workouts = workouts
	s.exerciseLogs = logs
	s.settings = *settings
	s.state = StateReady
	return nil
}

// failLoad degrades to an empty, ready partition instead of crashing; the
// error stays visible through Err.
func (s *Store) failLoad(userID string, err error) error {
	s.activeUserID = userID
	s.workouts = nil
	s.exerciseLogs = nil
	s.settings = defaultSettings(s.now())
	s.state = StateReady
	s.loadErr = fmt.Errorf("loading partition %q: %w", userID, err)
	s.log.Error("partition load failed", "user", userID, "error", err)
	return s.loadErr
}

// defaultSettings anchors the program start on the Monday of the current week.
func defaultSettings(now time.Time) models.SettingsState {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	monday := midnight.AddDate(0, 0, 1-int(midnight.Weekday()))
	return models.SettingsState{
		RecoveryExcellent: false,
		ProgramStart:      monday.Format(time.RFC3339),
	}
}

// sortByDateDesc sorts newest first; unparseable dates sort last. The sort is
// stable so rows with equal dates keep their insertion order.
func sortByDateDesc[T any](items []T, date func(T) string) {
	sort.SliceStable(items, func(i, j int) bool {
		ti, iok := parseLogDate(date(items[i]))
		tj, jok := parseLogDate(date(items[j]))
		if iok != jok {
			return iok
		}
		return ti.After(tj)
	})
}

func parseLogDate(s string) (time.Time, bool) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
