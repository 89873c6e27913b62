package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// UpgradeLegacyData completes the move from the single-user layout to user
// partitions: rows still carrying an empty user_id are assigned to the default
// user, and the legacy "app" settings record is relocated to its user-scoped
// key before the active-user pointer is written in its place.
//
// Safe to run on every startup. Idempotence is keyed on the shape of the
// "app" record (whether it already holds an activeUserId), not on the schema
// version, so a partially applied upgrade is finished rather than repeated.
func (db *DB) UpgradeLegacyData(ctx context.Context, defaultUserID string, log *slog.Logger) error {
	return db.Tx(ctx, func(t *Tx) error {
		raw, err := getSetting(ctx, t.tx, appSettingsKey)
		if err != nil {
			return err
		}
		if raw != nil {
			var pointer activeUserState
			if err := json.Unmarshal(raw, &pointer); err == nil && pointer.ActiveUserID != "" {
				return nil // already upgraded
			}
		}

		res, err := t.tx.ExecContext(ctx,
			`UPDATE workouts SET user_id = ? WHERE user_id = ''`, defaultUserID)
		if err != nil {
			return fmt.Errorf("backfilling workout user ids: %w", err)
		}
		workoutsMoved, _ := res.RowsAffected()

		res, err = t.tx.ExecContext(ctx,
			`UPDATE exercise_logs SET user_id = ? WHERE user_id = ''`, defaultUserID)
		if err != nil {
			return fmt.Errorf("backfilling exercise log user ids: %w", err)
		}
		logsMoved, _ := res.RowsAffected()

		if raw != nil {
			// The old "app" record is the legacy single user's settings.
			if err := putSetting(ctx, t.tx, userSettingsPrefix+defaultUserID, raw); err != nil {
				return err
			}
		}
		if err := t.PutActiveUserID(ctx, defaultUserID); err != nil {
			return err
		}

		if workoutsMoved > 0 || logsMoved > 0 || raw != nil {
			log.Info("legacy data assigned to default user",
				"user", defaultUserID, "workouts", workoutsMoved, "exerciseLogs", logsMoved)
		}
		return nil
	})
}
