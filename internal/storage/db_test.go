package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/meltforce/traintrack/internal/models"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testWorkout(id, userID string, week int) models.WorkoutLog {
	return models.WorkoutLog{
		ID:          id,
		UserID:      userID,
		Date:        fmt.Sprintf("2026-03-%02dT10:00:00Z", week),
		WeekNumber:  week,
		SessionType: models.SessionA,
	}
}

// TestOpenAppliesMigrations verifies a fresh database comes up with the
// multi-user schema.
func TestOpenAppliesMigrations(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	w := testWorkout("w1", "dani", 1)
	err := db.Tx(ctx, func(tx *Tx) error {
		return tx.PutWorkout(ctx, w)
	})
	if err != nil {
		t.Fatalf("writing workout: %v", err)
	}

	got, err := db.ListWorkouts(ctx, "dani")
	if err != nil {
		t.Fatalf("listing workouts: %v", err)
	}
	if len(got) != 1 || got[0].ID != "w1" || got[0].UserID != "dani" {
		t.Errorf("got %+v, want the inserted workout", got)
	}
}

// TestPartitionIsolation verifies user partitions never bleed into each other.
func TestPartitionIsolation(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	err := db.Tx(ctx, func(tx *Tx) error {
		if err := tx.PutWorkout(ctx, testWorkout("w-dani", "dani", 1)); err != nil {
			return err
		}
		return tx.PutWorkout(ctx, testWorkout("w-wesley", "wesley", 1))
	})
	if err != nil {
		t.Fatalf("seeding: %v", err)
	}

	dani, err := db.ListWorkouts(ctx, "dani")
	if err != nil {
		t.Fatal(err)
	}
	if len(dani) != 1 || dani[0].ID != "w-dani" {
		t.Errorf("dani partition = %+v", dani)
	}

	if err := db.Tx(ctx, func(tx *Tx) error { return tx.DeleteWorkoutsForUser(ctx, "dani") }); err != nil {
		t.Fatal(err)
	}
	wesley, err := db.ListWorkouts(ctx, "wesley")
	if err != nil {
		t.Fatal(err)
	}
	if len(wesley) != 1 {
		t.Errorf("deleting dani's partition touched wesley's: %+v", wesley)
	}
}

// TestTxRollback verifies that an error inside the transaction body leaves
// prior state untouched.
func TestTxRollback(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	err := db.Tx(ctx, func(tx *Tx) error {
		if err := tx.PutWorkout(ctx, testWorkout("w1", "dani", 1)); err != nil {
			return err
		}
		return fmt.Errorf("forced failure")
	})
	if err == nil {
		t.Fatal("expected transaction error")
	}

	got, err := db.ListWorkouts(ctx, "dani")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("rollback left %d workouts behind", len(got))
	}
}

// TestExerciseLogRoundTrip verifies the set list survives JSON encoding into
// the sets column.
func TestExerciseLogRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	w := testWorkout("w1", "dani", 2)
	logs := []models.ExerciseLog{{
		ID:         "w1-hip-thrust-0",
		UserID:     "dani",
		WorkoutID:  "w1",
		ExerciseID: "hip-thrust",
		Sets: []models.SetEntry{
			{Weight: 60, Reps: 10, RIR: 2, Completed: true},
			{Weight: 62.5, Reps: 8, RIR: 1, Completed: true},
		},
		Date:        w.Date,
		WeekNumber:  w.WeekNumber,
		SessionType: w.SessionType,
	}}

	err := db.Tx(ctx, func(tx *Tx) error {
		if err := tx.PutWorkout(ctx, w); err != nil {
			return err
		}
		return tx.BulkPutExerciseLogs(ctx, logs)
	})
	if err != nil {
		t.Fatalf("writing: %v", err)
	}

	got, err := db.ListExerciseLogsByExercise(ctx, "dani", "hip-thrust")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d logs, want 1", len(got))
	}
	if len(got[0].Sets) != 2 || got[0].Sets[1].Weight != 62.5 {
		t.Errorf("sets = %+v", got[0].Sets)
	}
	if got[0].Date != w.Date || got[0].WeekNumber != w.WeekNumber || got[0].SessionType != w.SessionType {
		t.Errorf("denormalized fields diverge from parent: %+v", got[0])
	}

	byWorkout, err := db.ListExerciseLogsByWorkout(ctx, "w1", "dani")
	if err != nil {
		t.Fatal(err)
	}
	if len(byWorkout) != 1 || byWorkout[0].ID != logs[0].ID {
		t.Errorf("logs by workout = %+v", byWorkout)
	}
}

// TestGetWorkout verifies point lookup within a partition.
func TestGetWorkout(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	w := testWorkout("w1", "dani", 1)
	if err := db.Tx(ctx, func(tx *Tx) error { return tx.PutWorkout(ctx, w) }); err != nil {
		t.Fatal(err)
	}

	got, err := db.GetWorkout(ctx, "w1", "dani")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.ID != "w1" {
		t.Errorf("got %+v", got)
	}

	// Absent id and wrong partition both come back nil, not an error.
	for _, q := range []struct{ id, user string }{{"w2", "dani"}, {"w1", "wesley"}} {
		got, err := db.GetWorkout(ctx, q.id, q.user)
		if err != nil || got != nil {
			t.Errorf("GetWorkout(%s, %s) = %+v, %v; want nil, nil", q.id, q.user, got, err)
		}
	}
}

// TestListOrderStableOnDateTies verifies newest-first listing keeps insertion
// order for rows sharing a date, as the logs of one session do. Re-inserting a
// listed partition must reproduce the same order.
func TestListOrderStableOnDateTies(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	const date = "2026-03-02T10:00:00Z"
	w := testWorkout("w1", "dani", 1)
	w.Date = date
	logs := []models.ExerciseLog{
		{ID: "w1-hip-thrust-0", UserID: "dani", WorkoutID: "w1", ExerciseID: "hip-thrust",
			Sets: []models.SetEntry{{Weight: 60, Reps: 10, RIR: 2, Completed: true}},
			Date: date, WeekNumber: 1, SessionType: models.SessionA},
		{ID: "w1-romanian-deadlift-1", UserID: "dani", WorkoutID: "w1", ExerciseID: "romanian-deadlift",
			Sets: []models.SetEntry{{Weight: 50, Reps: 12, RIR: 3, Completed: true}},
			Date: date, WeekNumber: 1, SessionType: models.SessionA},
	}
	err := db.Tx(ctx, func(tx *Tx) error {
		if err := tx.PutWorkout(ctx, w); err != nil {
			return err
		}
		return tx.BulkPutExerciseLogs(ctx, logs)
	})
	if err != nil {
		t.Fatal(err)
	}

	for round := 0; round < 2; round++ {
		got, err := db.ListExerciseLogs(ctx, "dani")
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 2 || got[0].ID != logs[0].ID || got[1].ID != logs[1].ID {
			t.Fatalf("round %d: logs out of insertion order: %s, %s",
				round, got[0].ID, got[1].ID)
		}
		// Wipe and re-insert what was listed; the order must not flip.
		err = db.Tx(ctx, func(tx *Tx) error {
			if err := tx.DeleteExerciseLogsForUser(ctx, "dani"); err != nil {
				return err
			}
			return tx.BulkPutExerciseLogs(ctx, got)
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	// Same-date workouts also list in insertion order, after newer dates.
	w2 := testWorkout("w2", "dani", 1)
	w2.Date = date
	w3 := testWorkout("w3", "dani", 1)
	w3.Date = "2026-03-09T10:00:00Z"
	err = db.Tx(ctx, func(tx *Tx) error {
		if err := tx.PutWorkout(ctx, w2); err != nil {
			return err
		}
		return tx.PutWorkout(ctx, w3)
	})
	if err != nil {
		t.Fatal(err)
	}
	workouts, err := db.ListWorkouts(ctx, "dani")
	if err != nil {
		t.Fatal(err)
	}
	if len(workouts) != 3 || workouts[0].ID != "w3" || workouts[1].ID != "w1" || workouts[2].ID != "w2" {
		ids := make([]string, len(workouts))
		for i, x := range workouts {
			ids[i] = x.ID
		}
		t.Errorf("workout order = %v, want [w3 w1 w2]", ids)
	}
}

// seedLegacyData simulates a database that predates user partitions: log rows
// with empty user_id and a legacy "app" settings record.
func seedLegacyData(t *testing.T, db *DB) {
	t.Helper()
	ctx := context.Background()
	err := db.Tx(ctx, func(tx *Tx) error {
		if err := tx.PutWorkout(ctx, testWorkout("legacy-w", "", 3)); err != nil {
			return err
		}
		if err := tx.BulkPutExerciseLogs(ctx, []models.ExerciseLog{{
			ID: "legacy-w-squat-0", WorkoutID: "legacy-w", ExerciseID: "squat",
			Sets: []models.SetEntry{{Weight: 40, Reps: 10, RIR: 2, Completed: true}},
			Date: "2026-03-03T10:00:00Z", WeekNumber: 3, SessionType: models.SessionA,
		}}); err != nil {
			return err
		}
		return putSetting(ctx, tx.tx, appSettingsKey,
			[]byte(`{"recoveryExcellent":true,"programStart":"2026-02-16T00:00:00Z"}`))
	})
	if err != nil {
		t.Fatalf("seeding legacy data: %v", err)
	}
}

// TestUpgradeLegacyData verifies the single-user to multi-user data upgrade:
// user_id backfill, settings relocation, pointer creation.
func TestUpgradeLegacyData(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	seedLegacyData(t, db)

	if err := db.UpgradeLegacyData(ctx, "dani", testLogger()); err != nil {
		t.Fatalf("upgrade: %v", err)
	}

	workouts, err := db.ListWorkouts(ctx, "dani")
	if err != nil {
		t.Fatal(err)
	}
	if len(workouts) != 1 || workouts[0].ID != "legacy-w" {
		t.Errorf("backfilled workouts = %+v", workouts)
	}
	logs, err := db.ListExerciseLogs(ctx, "dani")
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 1 {
		t.Errorf("backfilled exercise logs = %+v", logs)
	}

	settings, err := db.GetSettings(ctx, "dani")
	if err != nil {
		t.Fatal(err)
	}
	if settings == nil || !settings.RecoveryExcellent {
		t.Errorf("relocated settings = %+v", settings)
	}

	active, err := db.ActiveUserID(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if active != "dani" {
		t.Errorf("active user = %q, want dani", active)
	}
}

// TestUpgradeLegacyDataIdempotent verifies running the upgrade twice matches
// running it once: no duplicate backfill, no double relocation.
func TestUpgradeLegacyDataIdempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	seedLegacyData(t, db)

	if err := db.UpgradeLegacyData(ctx, "dani", testLogger()); err != nil {
		t.Fatalf("first upgrade: %v", err)
	}

	// Change the relocated settings, then re-run. A second relocation would
	// clobber this write with the stale legacy record.
	err := db.Tx(ctx, func(tx *Tx) error {
		return tx.PutSettings(ctx, "dani", models.SettingsState{
			RecoveryExcellent: false, ProgramStart: "2026-03-02T00:00:00Z",
		})
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := db.UpgradeLegacyData(ctx, "dani", testLogger()); err != nil {
		t.Fatalf("second upgrade: %v", err)
	}

	settings, err := db.GetSettings(ctx, "dani")
	if err != nil {
		t.Fatal(err)
	}
	if settings == nil || settings.RecoveryExcellent {
		t.Errorf("second upgrade clobbered settings: %+v", settings)
	}
	workouts, err := db.ListWorkouts(ctx, "dani")
	if err != nil {
		t.Fatal(err)
	}
	if len(workouts) != 1 {
		t.Errorf("got %d workouts after double upgrade, want 1", len(workouts))
	}
}

// TestUpgradeFreshDatabase verifies the upgrade on an empty store just writes
// the pointer.
func TestUpgradeFreshDatabase(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.UpgradeLegacyData(ctx, "dani", testLogger()); err != nil {
		t.Fatalf("upgrade: %v", err)
	}
	active, err := db.ActiveUserID(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if active != "dani" {
		t.Errorf("active user = %q, want dani", active)
	}
	settings, err := db.GetSettings(ctx, "dani")
	if err != nil {
		t.Fatal(err)
	}
	if settings != nil {
		t.Errorf("fresh database should have no user settings, got %+v", settings)
	}
}
