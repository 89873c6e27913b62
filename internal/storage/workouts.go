package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/meltforce/traintrack/internal/models"
)

const workoutColumns = `id, user_id, date, week_number, session_type, deload, notes`

// ListWorkouts returns every workout in a user's partition, newest first.
// Ties on date keep insertion order.
func (db *DB) ListWorkouts(ctx context.Context, userID string) ([]models.WorkoutLog, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+workoutColumns+` FROM workouts WHERE user_id = ? ORDER BY date DESC, rowid ASC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("querying workouts: %w", err)
	}
	defer rows.Close()
	return scanWorkouts(rows)
}

// GetWorkout retrieves a single workout by primary key within a partition.
// Returns nil when absent.
func (db *DB) GetWorkout(ctx context.Context, id, userID string) (*models.WorkoutLog, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+workoutColumns+` FROM workouts WHERE id = ? AND user_id = ?`, id, userID)
	w, err := scanWorkout(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying workout: %w", err)
	}
	return &w, nil
}

// PutWorkout inserts or replaces one workout row.
func (t *Tx) PutWorkout(ctx context.Context, w models.WorkoutLog) error {
	_, err := t.tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO workouts (`+workoutColumns+`) VALUES (?,?,?,?,?,?,?)`,
		w.ID, w.UserID, w.Date, w.WeekNumber, string(w.SessionType), boolToInt(w.Deload), w.Notes)
	if err != nil {
		return fmt.Errorf("inserting workout: %w", err)
	}
	return nil
}

// BulkPutWorkouts inserts workout rows, failing on duplicate ids.
func (t *Tx) BulkPutWorkouts(ctx context.Context, workouts []models.WorkoutLog) error {
	for _, w := range workouts {
		_, err := t.tx.ExecContext(ctx,
			`INSERT INTO workouts (`+workoutColumns+`) VALUES (?,?,?,?,?,?,?)`,
			w.ID, w.UserID, w.Date, w.WeekNumber, string(w.SessionType), boolToInt(w.Deload), w.Notes)
		if err != nil {
			return fmt.Errorf("inserting workout %s: %w", w.ID, err)
		}
	}
	return nil
}

// DeleteWorkoutsForUser removes every workout in a user's partition.
func (t *Tx) DeleteWorkoutsForUser(ctx context.Context, userID string) error {
	if _, err := t.tx.ExecContext(ctx, `DELETE FROM workouts WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("deleting workouts: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWorkout(r rowScanner) (models.WorkoutLog, error) {
	var w models.WorkoutLog
	var sessionType string
	var deload int
	if err := r.Scan(&w.ID, &w.UserID, &w.Date, &w.WeekNumber, &sessionType, &deload, &w.Notes); err != nil {
		return models.WorkoutLog{}, err
	}
	w.SessionType = models.SessionType(sessionType)
	w.Deload = deload != 0
	return w, nil
}

func scanWorkouts(rows *sql.Rows) ([]models.WorkoutLog, error) {
	var result []models.WorkoutLog
	for rows.Next() {
		w, err := scanWorkout(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning workout: %w", err)
		}
		result = append(result, w)
	}
	return result, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
