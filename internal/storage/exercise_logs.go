package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/meltforce/traintrack/internal/models"
)

const exerciseLogColumns = `id, user_id, workout_id, exercise_id, sets, notes, date, week_number, session_type`

// ListExerciseLogs returns every exercise log in a user's partition, newest
// first with insertion order preserved on date ties.
func (db *DB) ListExerciseLogs(ctx context.Context, userID string) ([]models.ExerciseLog, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+exerciseLogColumns+` FROM exercise_logs WHERE user_id = ? ORDER BY date DESC, rowid ASC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("querying exercise logs: %w", err)
	}
	defer rows.Close()
	return scanExerciseLogs(rows)
}

// ListExerciseLogsByExercise returns a user's history for one exercise,
// newest first.
func (db *DB) ListExerciseLogsByExercise(ctx context.Context, userID, exerciseID string) ([]models.ExerciseLog, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+exerciseLogColumns+` FROM exercise_logs
		 WHERE user_id = ? AND exercise_id = ? ORDER BY date DESC, rowid ASC`,
		userID, exerciseID)
	if err != nil {
		return nil, fmt.Errorf("querying exercise logs: %w", err)
	}
	defer rows.Close()
	return scanExerciseLogs(rows)
}

// ListExerciseLogsByWorkout returns the logs belonging to one workout, in
// insertion order.
func (db *DB) ListExerciseLogsByWorkout(ctx context.Context, workoutID, userID string) ([]models.ExerciseLog, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+exerciseLogColumns+` FROM exercise_logs
		 WHERE workout_id = ? AND user_id = ? ORDER BY rowid ASC`,
		workoutID, userID)
	if err != nil {
		return nil, fmt.Errorf("querying exercise logs: %w", err)
	}
	defer rows.Close()
	return scanExerciseLogs(rows)
}

// BulkPutExerciseLogs inserts exercise log rows, failing on duplicate ids.
func (t *Tx) BulkPutExerciseLogs(ctx context.Context, logs []models.ExerciseLog) error {
	for _, l := range logs {
		sets, err := json.Marshal(l.Sets)
		if err != nil {
			return fmt.Errorf("encoding sets for %s: %w", l.ID, err)
		}
		_, err = t.tx.ExecContext(ctx,
			`INSERT INTO exercise_logs (`+exerciseLogColumns+`) VALUES (?,?,?,?,?,?,?,?,?)`,
			l.ID, l.UserID, l.WorkoutID, l.ExerciseID, string(sets), l.Notes,
			l.Date, l.WeekNumber, string(l.SessionType))
		if err != nil {
			return fmt.Errorf("inserting exercise log %s: %w", l.ID, err)
		}
	}
	return nil
}

// DeleteExerciseLogsForUser removes every exercise log in a user's partition.
func (t *Tx) DeleteExerciseLogsForUser(ctx context.Context, userID string) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM exercise_logs WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("deleting exercise logs: %w", err)
	}
	return nil
}

func scanExerciseLogs(rows *sql.Rows) ([]models.ExerciseLog, error) {
	var result []models.ExerciseLog
	for rows.Next() {
		var l models.ExerciseLog
		var sets, sessionType string
		if err := rows.Scan(&l.ID, &l.UserID, &l.WorkoutID, &l.ExerciseID, &sets, &l.Notes,
			&l.Date, &l.WeekNumber, &sessionType); err != nil {
			return nil, fmt.Errorf("scanning exercise log: %w", err)
		}
		if err := json.Unmarshal([]byte(sets), &l.Sets); err != nil {
			return nil, fmt.Errorf("decoding sets for %s: %w", l.ID, err)
		}
		l.SessionType = models.SessionType(sessionType)
		result = append(result, l)
	}
	return result, rows.Err()
}
