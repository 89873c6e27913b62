package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/meltforce/traintrack/internal/models"
)

// Settings keys. The "app" record held the single user's settings in the v1
// layout; since v2 it holds the active-user pointer and per-user settings
// live under "user:<id>".
const (
	appSettingsKey     = "app"
	userSettingsPrefix = "user:"
)

type activeUserState struct {
	ActiveUserID string `json:"activeUserId"`
}

// GetSettings returns a user's settings, or nil when none have been saved.
func (db *DB) GetSettings(ctx context.Context, userID string) (*models.SettingsState, error) {
	raw, err := getSetting(ctx, db.conn, userSettingsPrefix+userID)
	if err != nil || raw == nil {
		return nil, err
	}
	var s models.SettingsState
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decoding settings for %s: %w", userID, err)
	}
	return &s, nil
}

// ActiveUserID returns the stored active-user pointer, or "" when unset.
func (db *DB) ActiveUserID(ctx context.Context) (string, error) {
	raw, err := getSetting(ctx, db.conn, appSettingsKey)
	if err != nil || raw == nil {
		return "", err
	}
	var state activeUserState
	if err := json.Unmarshal(raw, &state); err != nil {
		return "", fmt.Errorf("decoding active-user pointer: %w", err)
	}
	return state.ActiveUserID, nil
}

// PutSettings writes a user's settings record.
func (t *Tx) PutSettings(ctx context.Context, userID string, s models.SettingsState) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	return putSetting(ctx, t.tx, userSettingsPrefix+userID, raw)
}

// PutActiveUserID writes the active-user pointer.
func (t *Tx) PutActiveUserID(ctx context.Context, userID string) error {
	raw, err := json.Marshal(activeUserState{ActiveUserID: userID})
	if err != nil {
		return fmt.Errorf("encoding active-user pointer: %w", err)
	}
	return putSetting(ctx, t.tx, appSettingsKey, raw)
}

func getSetting(ctx context.Context, q querier, key string) ([]byte, error) {
	var value string
	err := q.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying setting %q: %w", key, err)
	}
	return []byte(value), nil
}

func putSetting(ctx context.Context, q querier, key string, value []byte) error {
	if _, err := q.ExecContext(ctx,
		`INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)`, key, string(value)); err != nil {
		return fmt.Errorf("writing setting %q: %w", key, err)
	}
	return nil
}
